package idgen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Shape(t *testing.T) {
	id := New().Generate()
	require.Len(t, id, 24)
	assert.True(t, IsValid(id))
	assert.Regexp(t, `^[0-9a-f]{24}$`, id)
}

func TestGenerate_ConcurrentUnique(t *testing.T) {
	const (
		workers = 50
		perWork = 2000
	)
	gen := New()

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWork)
		wg   sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]string, 0, perWork)
			for i := 0; i < perWork; i++ {
				local = append(local, gen.Generate())
			}
			mu.Lock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWork)
}

func TestGenerate_InsertionOrderBias(t *testing.T) {
	gen := New()
	prev := gen.Generate()
	for i := 0; i < 1000; i++ {
		next := gen.Generate()
		// same second, same process: the counter suffix keeps ids increasing
		if next[:8] == prev[:8] {
			assert.Less(t, prev, next)
		}
		prev = next
	}
}

func TestIsValid(t *testing.T) {
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("not-an-id"))
	assert.False(t, IsValid("ZZZZZZZZZZZZZZZZZZZZZZZZ"))
	assert.True(t, IsValid("5f1d7f0e9b1e8a3c2d4b6a7f"))
}

func TestFunc(t *testing.T) {
	var g Generator = Func(func() string { return "fixed" })
	assert.Equal(t, "fixed", g.Generate())
}
