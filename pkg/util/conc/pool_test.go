package conc

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/jsonkit/pkg/util/merr"
)

func TestPool(t *testing.T) {
	var pre atomic.Int32
	pool := NewPool[int](2, WithPreHandler(func() { pre.Add(1) }))
	defer pool.Release()
	assert.Equal(t, 2, pool.Cap())

	futures := make([]*Future[int], 0, 10)
	for i := 0; i < 10; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * i, nil
		}))
	}
	require.NoError(t, AwaitAll(futures...))
	for i, f := range futures {
		assert.Equal(t, i*i, f.Value())
		assert.True(t, f.OK())
	}
	assert.Equal(t, int32(10), pre.Load())

	require.NoError(t, pool.Resize(4))
	assert.Equal(t, 4, pool.Cap())
	assert.ErrorIs(t, pool.Resize(0), merr.ErrParameterInvalid)
}

func TestPoolError(t *testing.T) {
	pool := NewDefaultPool[string]()
	defer pool.Release()

	boom := errors.New("boom")
	ok := pool.Submit(func() (string, error) { return "ok", nil })
	bad := pool.Submit(func() (string, error) { return "", boom })

	assert.ErrorIs(t, AwaitAll(ok, bad), boom)
	v, err := bad.Await()
	assert.Empty(t, v)
	assert.ErrorIs(t, err, boom)
	<-ok.Inner()
	assert.NoError(t, ok.Err())
}

func TestPoolConcealPanic(t *testing.T) {
	var handled atomic.Bool
	pool := NewPool[int](1, WithConcealPanic(true), WithPanicHandler(func(any) { handled.Store(true) }))
	defer pool.Release()

	f := pool.Submit(func() (int, error) {
		panic("line handler crashed")
	})
	err := f.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line handler crashed")

	// 发生 panic 后协程池仍可用
	v, err := pool.Submit(func() (int, error) { return 7, nil }).Await()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Eventually(t, handled.Load, time.Second, 10*time.Millisecond)
}
