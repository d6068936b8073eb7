package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		token  string
		name   string
		id     int64
		wantOK bool
	}{
		{"debtors", "debtors", 0, true},
		{ActionDebtor(12), "debtor", 12, true},
		{ActionAddTransaction(3), "tx_add", 3, true},
		{ActionDeleteDebtor(9), "debtor_delete", 9, true},
		{"debtor:", "", 0, false},
		{"debtor:-1", "", 0, false},
		{"debtor:x", "", 0, false},
		{"", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			name, id, ok := parseAction(tt.token)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	k := newKeyedMutex()
	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock(1)
			defer unlock()
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, k.size())
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	k := newKeyedMutex()
	unlock1 := k.Lock(1)
	defer unlock1()

	done := make(chan struct{})
	go func() {
		unlock2 := k.Lock(2)
		unlock2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "command", Command.String())
	assert.Equal(t, "selection", Selection.String())
	assert.Equal(t, "text", Text.String())
}
