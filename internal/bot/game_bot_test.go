package bot

import (
	"sync"
	"testing"
)

func TestBroadcastPendingSetClear(t *testing.T) {
	b := &GameBot{broadcastPending: make(map[int64]bool)}

	if b.isBroadcastPending(1) {
		t.Fatal("fresh bot reports pending broadcast")
	}
	b.setBroadcastPending(1)
	if !b.isBroadcastPending(1) {
		t.Fatal("pending broadcast not recorded")
	}
	if b.isBroadcastPending(2) {
		t.Fatal("pending broadcast leaked to another admin")
	}
	b.clearBroadcastPending(1)
	if b.isBroadcastPending(1) {
		t.Fatal("pending broadcast not cleared")
	}
}

// Handlers toggle the pending set from their own goroutines while the update
// loop reads it; the accessors must hold up under the race detector.
func TestBroadcastPendingConcurrentAccess(t *testing.T) {
	b := &GameBot{broadcastPending: make(map[int64]bool)}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(adminID int64) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.setBroadcastPending(adminID)
				b.isBroadcastPending(adminID)
				b.clearBroadcastPending(adminID)
			}
		}(int64(i % 3))
	}
	wg.Wait()

	for id := int64(0); id < 3; id++ {
		if b.isBroadcastPending(id) {
			t.Fatalf("admin %d left pending after all clears", id)
		}
	}
}
