package guard

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuard(t *testing.T) {
	g := New()

	release, ok := g.Enter("a")
	assert.True(t, ok)
	assert.True(t, g.Held("a"))

	_, ok = g.Enter("a")
	assert.False(t, ok, "reentry must fail")

	other, ok := g.Enter("b")
	assert.True(t, ok, "keys are independent")
	other()

	release()
	release()
	assert.False(t, g.Held("a"))

	release, ok = g.Enter("a")
	assert.True(t, ok)
	release()
}

func TestGuardConcurrent(t *testing.T) {
	g := New()
	release, ok := g.Enter("k")
	assert.True(t, ok)

	var (
		wg      sync.WaitGroup
		entered int32
	)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := g.Enter("k"); ok {
				atomic.AddInt32(&entered, 1)
			}
		}()
	}

	wg.Wait()
	release()
	assert.Equal(t, int32(0), entered)
}
