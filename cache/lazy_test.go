package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyBuildsOnce(t *testing.T) {
	var builds atomic.Int32
	l := NewLazy(func() (int, error) {
		return int(builds.Add(1)) * 10, nil
	})
	assert.False(t, l.Valid())

	v, err := l.Get()
	require.NoError(t, err)
	assert.Equal(t, 10, v)
	v, err = l.Get()
	require.NoError(t, err)
	assert.Equal(t, 10, v)
	assert.True(t, l.Valid())
	assert.EqualValues(t, 1, builds.Load())
}

func TestLazyInvalidate(t *testing.T) {
	var builds atomic.Int32
	l := NewLazy(func() (int, error) {
		return int(builds.Add(1)), nil
	})
	_, err := l.Get()
	require.NoError(t, err)

	l.Invalidate()
	assert.False(t, l.Valid())
	v, err := l.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestLazyErrorNotCached(t *testing.T) {
	fail := true
	boom := errors.New("boom")
	l := NewLazy(func() (string, error) {
		if fail {
			return "", boom
		}
		return "ok", nil
	})

	_, err := l.Get()
	assert.ErrorIs(t, err, boom)
	assert.False(t, l.Valid())

	fail = false
	v, err := l.Get()
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestLazyConcurrentReaders(t *testing.T) {
	var builds atomic.Int32
	l := NewLazy(func() ([]int, error) {
		builds.Add(1)
		return []int{1, 2, 3}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.Get()
			assert.NoError(t, err)
			assert.Equal(t, []int{1, 2, 3}, v)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, builds.Load())
}
