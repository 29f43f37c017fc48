package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ n int }

func TestRegistry_AddGetDelete(t *testing.T) {
	var evicted []string
	r := NewRegistry[*counter](time.Minute, func(id string, _ *counter) {
		evicted = append(evicted, id)
	})

	e := r.Add(&counter{})
	require.NotEmpty(t, e.ID)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get(e.ID)
	require.True(t, ok)
	assert.Same(t, e, got)

	r.Delete(e.ID)
	_, ok = r.Get(e.ID)
	assert.False(t, ok)
	assert.Equal(t, []string{e.ID}, evicted)
}

func TestRegistry_GetDoesNotReviveDeleted(t *testing.T) {
	r := NewRegistry[*counter](time.Minute, nil)

	for i := 0; i < 200; i++ {
		e := r.Add(&counter{})

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := 0; k < 20; k++ {
					r.Get(e.ID)
				}
			}()
		}
		r.Delete(e.ID)
		wg.Wait()

		_, ok := r.Get(e.ID)
		require.False(t, ok, "entry %s came back after delete", e.ID)
	}
}

func TestRegistry_Expiry(t *testing.T) {
	r := NewRegistry[*counter](20*time.Millisecond, nil)
	e := r.Put("s1", &counter{})

	time.Sleep(40 * time.Millisecond)
	_, ok := r.Get(e.ID)
	assert.False(t, ok)
}

func TestEntry_DoSerializes(t *testing.T) {
	r := NewRegistry[*counter](time.Minute, nil)
	e := r.Add(&counter{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = e.Do(func(c *counter) error {
				c.n++
				return nil
			})
		}()
	}
	wg.Wait()

	err := e.Do(func(c *counter) error {
		assert.Equal(t, 50, c.n)
		return errors.New("done")
	})
	assert.EqualError(t, err, "done")
}
