package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type payload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestSetThenGetWithinTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := New(NewMemoryStore(), nil, WithClock(clock.Now))

	want := payload{Name: "quote", Value: 1.5}
	if err := c.Set(ctx, "k", want, 100*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	if !c.Get(ctx, "k", &got) {
		t.Fatalf("expected hit")
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("value mismatch: %+v != %+v", got, want)
	}

	clock.now = clock.now.Add(150 * time.Millisecond)
	if c.Get(ctx, "k", &got) {
		t.Fatalf("expected expiry after 150ms")
	}
}

func TestGetMiss(t *testing.T) {
	c := New(NewMemoryStore(), nil)
	var v payload
	if c.Get(context.Background(), "missing", &v) {
		t.Fatalf("expected miss")
	}
}

func TestUnparsableEntriesAreMisses(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := New(store, nil)

	_ = store.Save(ctx, DefaultNamespace+"garbage", []byte("{not json"), time.Second)
	_ = store.Save(ctx, DefaultNamespace+"wrongtype", []byte(`{"expiresAt": 99999999999999, "value": "text"}`), time.Second)
	_ = store.Save(ctx, DefaultNamespace+"noexpiry", []byte(`{"value": {"name": "x"}}`), time.Second)

	var v payload
	for _, key := range []string{"garbage", "wrongtype", "noexpiry"} {
		if c.Get(ctx, key, &v) {
			t.Fatalf("expected miss for %s", key)
		}
	}
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}

func (failingStore) Save(context.Context, string, []byte, time.Duration) error {
	return errors.New("store down")
}

func TestStoreErrors(t *testing.T) {
	c := New(failingStore{}, nil)
	var v payload
	if c.Get(context.Background(), "k", &v) {
		t.Fatalf("expected miss on store error")
	}
	if err := c.Set(context.Background(), "k", v, time.Second); err == nil {
		t.Fatalf("expected set error")
	}
}

func TestSetRejectsNonPositiveTTL(t *testing.T) {
	c := New(NewMemoryStore(), nil)
	if err := c.Set(context.Background(), "k", 1, 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := New(store, nil, WithNamespace("a:"))
	b := New(store, nil, WithNamespace("b:"))

	if err := a.Set(ctx, "k", 1, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var v int
	if b.Get(ctx, "k", &v) {
		t.Fatalf("namespace leak")
	}
	if !a.Get(ctx, "k", &v) || v != 1 {
		t.Fatalf("expected hit in own namespace")
	}
}

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.json")

	c := New(NewFileStore(path), nil)
	if err := c.Set(ctx, "pool:0xabc", payload{Name: "pool", Value: 2}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened := New(NewFileStore(path), nil)
	var got payload
	if !reopened.Get(ctx, "pool:0xabc", &got) {
		t.Fatalf("expected hit after reopen")
	}
	if got.Name != "pool" || got.Value != 2 {
		t.Fatalf("value mismatch: %+v", got)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("corrupt"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := New(NewFileStore(path), nil)
	var got payload
	if c.Get(ctx, "k", &got) {
		t.Fatalf("expected miss on corrupt file")
	}
	if err := c.Set(ctx, "k", payload{Name: "fresh"}, time.Minute); err != nil {
		t.Fatalf("set over corrupt file: %v", err)
	}
	if !c.Get(ctx, "k", &got) || got.Name != "fresh" {
		t.Fatalf("expected rebuilt store, got %+v", got)
	}
}

func TestMemoryStoreDropsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore().WithClock(clock.Now)

	if err := store.Save(ctx, "short", []byte("1"), time.Second); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, _ := store.Load(ctx, "short"); !ok {
		t.Fatalf("expected live entry")
	}

	clock.now = clock.now.Add(2 * time.Second)
	if _, ok, _ := store.Load(ctx, "short"); ok {
		t.Fatalf("expected expired entry to be dropped")
	}
	if store.Len() != 0 {
		t.Fatalf("expired entry still stored: %d", store.Len())
	}
}

func TestMemoryStoreSweepsOnSave(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore().WithClock(clock.Now)
	c := New(store, nil, WithClock(clock.Now))

	for i := 0; i < sweepEvery-1; i++ {
		if err := c.Set(ctx, fmt.Sprintf("quote:%d", i), i, 8*time.Second); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	clock.now = clock.now.Add(10 * time.Second)

	if err := c.Set(ctx, "fresh", 1, 8*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected only the fresh entry after sweep, got %d", store.Len())
	}
	var v int
	if !c.Get(ctx, "fresh", &v) || v != 1 {
		t.Fatalf("expected hit for fresh entry")
	}
}
