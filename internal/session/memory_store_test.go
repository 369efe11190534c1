package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestMemoryStore() (*MemoryStore, *time.Time) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }
	return store, &now
}

func TestMemoryStorePutAndGet(t *testing.T) {
	store, _ := newTestMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "abc", testSession(), time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, ok, err := store.Get(ctx, "abc")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got != testSession() {
		t.Errorf("unexpected session %+v", got)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store, now := newTestMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "abc", testSession(), 0); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	*now = now.Add(DefaultTTL - time.Second)
	if _, ok, _ := store.Get(ctx, "abc"); !ok {
		t.Fatal("expected session to live for the default ttl")
	}

	*now = now.Add(time.Second)
	if _, ok, _ := store.Get(ctx, "abc"); ok {
		t.Fatal("expected session to expire")
	}
	if len(store.entries) != 0 {
		t.Errorf("expected expired entry to be dropped, got %d", len(store.entries))
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store, _ := newTestMemoryStore()
	ctx := context.Background()

	_ = store.Put(ctx, "abc", testSession(), time.Hour)
	if err := store.Delete(ctx, "abc"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "abc"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Put(ctx, "abc", testSession(), time.Hour)
			_, _, _ = store.Get(ctx, "abc")
		}()
	}
	wg.Wait()

	if _, ok, _ := store.Get(ctx, "abc"); !ok {
		t.Fatal("expected session after concurrent writes")
	}
}
