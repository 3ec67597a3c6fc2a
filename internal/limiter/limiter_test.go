package limiter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_NeverExceedsCapacity(t *testing.T) {
	l := New(3)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := l.Acquire(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			defer p.Release()
			assert.LessOrEqual(t, l.InUse(), 3)
			time.Sleep(time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, l.InUse())
	assert.LessOrEqual(t, l.MaxInUse(), 3)
	assert.Equal(t, 3, l.Capacity())
}

func TestLimiter_ReleaseIsIdempotent(t *testing.T) {
	l := New(1)
	p, err := l.Acquire(context.Background())
	require.NoError(t, err)

	p.Release()
	p.Release()
	assert.Equal(t, 0, l.InUse())

	p2, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, l.InUse())
	p2.Release()

	var nilPermit *Permit
	assert.NotPanics(t, nilPermit.Release)
}

func TestLimiter_AcquireBlocksUntilRelease(t *testing.T) {
	l := New(1)
	p, err := l.Acquire(context.Background())
	require.NoError(t, err)

	acquired := make(chan *Permit)
	go func() {
		p2, err := l.Acquire(context.Background())
		assert.NoError(t, err)
		acquired <- p2
	}()

	select {
	case <-acquired:
		t.Fatal("acquire should block while the only slot is held")
	case <-time.After(50 * time.Millisecond):
	}

	p.Release()
	select {
	case p2 := <-acquired:
		p2.Release()
	case <-time.After(time.Second):
		t.Fatal("acquire did not resume after release")
	}
}

func TestLimiter_ContextCancel(t *testing.T) {
	l := New(1)
	p, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer p.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.InUse())
}

func TestLimiter_CloseWakesWaiters(t *testing.T) {
	l := New(1)
	p, err := l.Acquire(context.Background())
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := l.Acquire(context.Background())
		errCh <- err
	}()

	require.Eventually(t, func() bool { return l.Waiting() == 1 }, time.Second, time.Millisecond)
	l.Close()

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, ErrClosed))
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by Close")
	}

	_, err = l.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	p.Release()
	assert.Equal(t, 0, l.InUse())
}

func TestNew_ClampsCapacity(t *testing.T) {
	assert.Equal(t, 1, New(0).Capacity())
}
