package taskgraph

import (
	"sync"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestQueue(t *testing.T) {
	t.Run("fifo order", func(t *testing.T) {
		var q queue[string]
		q.push("a")
		q.push("b")
		q.push("c")

		v, ok := q.pop()
		assert.True(t, ok)
		assert.Equal(t, "a", v)
		v, _ = q.pop()
		assert.Equal(t, "b", v)
		v, _ = q.pop()
		assert.Equal(t, "c", v)

		_, ok = q.pop()
		assert.False(t, ok)
	})

	t.Run("push hook fires per push", func(t *testing.T) {
		var q queue[int]
		var calls int
		q.setOnPush(func() { calls++ })

		q.push(1)
		q.push(2)
		assert.Equal(t, 2, calls)
	})

	t.Run("concurrent producers lose nothing", func(t *testing.T) {
		var q queue[int]
		var wg sync.WaitGroup
		for p := 0; p < 4; p++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					q.push(i)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 400, q.len())
	})
}
