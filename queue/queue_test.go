package queue_test

import (
	"sync"
	"testing"
	"time"

	"github.com/momentics/wscore/queue"
	"github.com/stretchr/testify/require"
)

func TestFIFOOrder(t *testing.T) {
	q := queue.New("test", 10)
	require.True(t, q.Push("a"))
	require.True(t, q.Push("b"))
	require.True(t, q.Push("c"))

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestPushOnHaltingDropsItem(t *testing.T) {
	q := queue.New("test", 10)
	q.Halt()
	ok := q.Push("dropped")
	require.False(t, ok)
	require.True(t, q.Empty())
}

func TestHaltWakesBlockedPop(t *testing.T) {
	q := queue.New("test", 10)
	done := make(chan struct{})
	go func() {
		_, ok := q.Pop()
		require.False(t, ok)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	q.Halt()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake on Halt")
	}
}

func TestHaltDrainsRemainingItemsBeforeReturningFalse(t *testing.T) {
	q := queue.New("test", 10)
	q.Push("x")
	q.Push("y")
	q.Halt()

	v1, ok1 := q.Pop()
	require.True(t, ok1)
	require.Equal(t, "x", v1)

	v2, ok2 := q.Pop()
	require.True(t, ok2)
	require.Equal(t, "y", v2)

	_, ok3 := q.Pop()
	require.False(t, ok3)
}

func TestIdempotentHalt(t *testing.T) {
	q := queue.New("test", 10)
	q.Halt()
	q.Halt() // must not panic or deadlock
	require.Equal(t, queue.Halting, q.State())
}

func TestBackpressureBlocksPushUntilConsumed(t *testing.T) {
	q := queue.New("test", 2)
	require.True(t, q.Push(1))
	require.True(t, q.Push(2))

	var wg sync.WaitGroup
	wg.Add(1)
	pushed := make(chan struct{})
	go func() {
		defer wg.Done()
		q.Push(3)
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("push should have blocked while queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	_, _ = q.Pop()
	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("push never unblocked after consumer freed a slot")
	}
	wg.Wait()
}
