package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduleFires(t *testing.T) {
	e := NewEngine()
	defer e.Stop()

	fired := make(chan struct{})
	e.Schedule("ABC123", 10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	require.False(t, e.Pending("ABC123"))
}

func TestScheduleReplacesPending(t *testing.T) {
	e := NewEngine()
	defer e.Stop()

	var first, second atomic.Int32
	done := make(chan struct{})

	e.Schedule("ABC123", 50*time.Millisecond, func() { first.Add(1) })
	e.Schedule("ABC123", 10*time.Millisecond, func() {
		second.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("replacement timer did not fire")
	}

	// Give the replaced timer a chance to fire if it was not stopped.
	time.Sleep(80 * time.Millisecond)
	require.Equal(t, int32(0), first.Load())
	require.Equal(t, int32(1), second.Load())
}

func TestCancel(t *testing.T) {
	e := NewEngine()
	defer e.Stop()

	var fired atomic.Int32
	e.Schedule("ABC123", 20*time.Millisecond, func() { fired.Add(1) })
	require.True(t, e.Pending("ABC123"))

	e.Cancel("ABC123")
	require.False(t, e.Pending("ABC123"))

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), fired.Load())
}

func TestStopCancelsAll(t *testing.T) {
	e := NewEngine()

	var fired atomic.Int32
	e.Schedule("A", 20*time.Millisecond, func() { fired.Add(1) })
	e.Schedule("B", 20*time.Millisecond, func() { fired.Add(1) })

	e.Stop()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), fired.Load())
	require.False(t, e.Pending("A"))
	require.False(t, e.Pending("B"))
}
