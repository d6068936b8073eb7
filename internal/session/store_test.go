package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestStore_SetReplaces(t *testing.T) {
	s := NewStore(0)

	s.Set(1, Continuation{State: AwaitingAmount, DebtorID: 5})
	s.Set(1, Continuation{State: AwaitingNote, DebtorID: 5, Amount: 100})

	c, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, AwaitingNote, c.State)
	assert.Equal(t, int64(100), c.Amount)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(0)
	s.Set(1, Continuation{State: AwaitingDebtorName})
	s.Set(2, Continuation{State: AwaitingDebtorName})

	s.Clear(1)
	s.Clear(1)

	_, ok := s.Get(1)
	assert.False(t, ok)
	_, ok = s.Get(2)
	assert.True(t, ok)
}

func TestStore_Expiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore(10 * time.Minute).WithClock(clk.Now)

	s.Set(1, Continuation{State: AwaitingAmount, DebtorID: 3})
	clk.Advance(9 * time.Minute)
	_, ok := s.Get(1)
	assert.True(t, ok)

	clk.Advance(2 * time.Minute)
	_, ok = s.Get(1)
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestStore_SetRefreshesExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore(10 * time.Minute).WithClock(clk.Now)

	s.Set(1, Continuation{State: AwaitingAmount, DebtorID: 3})
	clk.Advance(8 * time.Minute)
	s.Set(1, Continuation{State: AwaitingNote, DebtorID: 3, Amount: 1})
	clk.Advance(8 * time.Minute)

	c, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, AwaitingNote, c.State)
}

func TestStore_Sweep(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore(time.Minute).WithClock(clk.Now)

	s.Set(1, Continuation{State: AwaitingDebtorName})
	clk.Advance(2 * time.Minute)
	s.Set(2, Continuation{State: AwaitingDebtorName})

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
}

func TestStore_RunStopsOnCancel(t *testing.T) {
	s := NewStore(time.Millisecond)
	s.Set(1, Continuation{State: AwaitingDebtorName})

	ctx, cancel := context.WithCancel(context.Background())
	swept := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond, func(n int) {
			select {
			case swept <- n:
			default:
			}
		})
		close(done)
	}()

	select {
	case n := <-swept:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not run")
	}
	cancel()
	<-done
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Set(id, Continuation{State: AwaitingAmount, DebtorID: id})
			_, _ = s.Get(id)
			s.Clear(id)
		}(int64(i))
	}
	wg.Wait()
	assert.Zero(t, s.Len())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "awaiting_note", AwaitingNote.String())
	assert.Equal(t, "unknown", State(42).String())
}
