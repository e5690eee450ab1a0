package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type cachedThing struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestMemoryCacheStringRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got string
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "v" {
		t.Fatalf("got %q", got)
	}
}

func TestMemoryCacheTypedRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	want := cachedThing{Name: "TechCorp", Score: 88.5}
	if err := mc.Set(ctx, "thing", want, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got cachedThing
	if err := mc.Get(ctx, "thing", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	// Pointer values stored must read back the same way.
	if err := mc.Set(ctx, "ptr", &want, time.Minute); err != nil {
		t.Fatalf("set ptr: %v", err)
	}
	got = cachedThing{}
	if err := mc.Get(ctx, "ptr", &got); err != nil {
		t.Fatalf("get ptr: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestMemoryCacheMissAndExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	var got string
	if err := mc.Get(ctx, "absent", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	if err := mc.Set(ctx, "short", "v", time.Nanosecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := mc.Get(ctx, "short", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired miss, got %v", err)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := mc.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, err := mc.Exists(ctx, "k")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatal("key survived delete")
	}
}
