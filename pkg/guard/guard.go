package guard

import "sync"

// Guard keyed single entry guard, a second Enter of a held key fails instead of blocking
type Guard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func New() *Guard {
	return &Guard{keys: make(map[string]struct{})}
}

// Enter marks key as entered, the returned release must be called once done
func (g *Guard) Enter(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.keys[key]; held {
		return nil, false
	}

	g.keys[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.keys, key)
			g.mu.Unlock()
		})
	}, true
}

// Held whether key is currently entered
func (g *Guard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, held := g.keys[key]
	return held
}
