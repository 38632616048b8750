package concurrency

// GoLimit bounds the running goroutines of a fan out
type GoLimit struct {
	ch chan int
}

// NewGoLimit new go limit
func NewGoLimit(max int) *GoLimit {
	if max <= 0 {
		max = 1
	}

	return &GoLimit{
		ch: make(chan int, max),
	}
}

// Add blocks until a slot is free
func (g *GoLimit) Add() {
	g.ch <- 1
}

// Done releases a slot
func (g *GoLimit) Done() {
	<-g.ch
}
