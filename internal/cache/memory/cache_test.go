package memory

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestCache_SetAndGet(t *testing.T) {
	cache := New[int64, string]()
	defer cache.Stop()

	cache.Set(1, "unlocked", 5*time.Second)

	got, ok := cache.Get(1)
	if !ok {
		t.Error("Get() should return ok=true for existing key")
	}
	if got != "unlocked" {
		t.Errorf("Get() = %v, want unlocked", got)
	}
}

func TestCache_GetNonExistent(t *testing.T) {
	cache := New[string, int]()
	defer cache.Stop()

	got, ok := cache.Get("missing")
	if ok {
		t.Error("Get() should return ok=false for missing key")
	}
	if got != 0 {
		t.Errorf("Get() = %v, want zero value", got)
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	cache := New[int64, bool]()
	defer cache.Stop()

	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.Set(7, true, time.Minute)
	if _, ok := cache.Get(7); !ok {
		t.Error("key should exist before TTL expiration")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get(7); ok {
		t.Error("key should be expired after TTL")
	}

	cache.removeExpired()
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after removeExpired", cache.Len())
	}
}

func TestCache_Update(t *testing.T) {
	cache := New[int64, int]()
	defer cache.Stop()

	inc := func(cur int, ok bool) int { return cur + 1 }

	for i := 1; i <= 3; i++ {
		if got := cache.Update(5, time.Minute, inc); got != i {
			t.Errorf("Update() = %d, want %d", got, i)
		}
	}

	now := time.Now().Add(time.Hour)
	cache.now = func() time.Time { return now }

	got := cache.Update(5, time.Minute, func(cur int, ok bool) int {
		if ok {
			t.Error("expired value should be reported as missing")
		}
		return cur + 1
	})
	if got != 1 {
		t.Errorf("Update() after expiry = %d, want 1", got)
	}
}

func TestCache_DeleteAndOverwrite(t *testing.T) {
	cache := New[string, string]()
	defer cache.Stop()

	cache.Set("k", "v1", time.Hour)
	cache.Set("k", "v2", time.Hour)
	if got, _ := cache.Get("k"); got != "v2" {
		t.Errorf("Get() = %v, want v2 after overwrite", got)
	}

	cache.Delete("k")
	if _, ok := cache.Get("k"); ok {
		t.Error("key should not exist after delete")
	}
}

func TestCache_Stop(t *testing.T) {
	cache := New[string, string]()
	cache.Stop()
	cache.Stop()
}

func TestCache_NewWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cache := NewWithContext[string, string](ctx, time.Millisecond)

	cache.Set("k", "v", time.Hour)
	cancel()
	time.Sleep(10 * time.Millisecond)

	cache.Set("another", "value", time.Hour)
	if _, ok := cache.Get("another"); !ok {
		t.Error("cache should still work after context cancel")
	}
}

func TestCache_Concurrent(t *testing.T) {
	cache := New[string, int]()
	defer cache.Stop()

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			cache.Set("key", i, time.Hour)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			cache.Get("key")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			cache.Update("key", time.Hour, func(cur int, _ bool) int { return cur + 1 })
			cache.Delete("key")
		}
	}()

	wg.Wait()
}
