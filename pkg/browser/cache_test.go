package browser

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	if _, ok := store.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}

	store.Set("k", 42)
	v, ok := store.Get("k")
	if !ok || v.(int) != 42 {
		t.Errorf("expected 42, got %v (ok=%v)", v, ok)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", store.Len())
	}
}

func TestCacheComputesOnce(t *testing.T) {
	c := newCache(nil)

	calls := 0
	fn := func() (any, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, hit, err := c.do("key", fn)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if v.(string) != "value" {
			t.Fatalf("call %d: expected \"value\", got %v", i, v)
		}
		if wantHit := i > 0; hit != wantHit {
			t.Errorf("call %d: expected hit=%v, got %v", i, wantHit, hit)
		}
	}

	if calls != 1 {
		t.Errorf("expected one computation, got %d", calls)
	}
}

func TestCacheErrorNotMemoized(t *testing.T) {
	c := newCache(nil)

	calls := 0
	_, _, err := c.do("key", func() (any, error) {
		calls++
		return nil, fmt.Errorf("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}

	v, hit, err := c.do("key", func() (any, error) {
		calls++
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Error("expected a miss after a failed computation")
	}
	if v.(string) != "recovered" || calls != 2 {
		t.Errorf("expected recomputation, got %v (calls=%d)", v, calls)
	}
}

func TestCacheConcurrentSameKeyComputesOnce(t *testing.T) {
	c := newCache(nil)

	var computations int32
	fn := func() (any, error) {
		atomic.AddInt32(&computations, 1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.do("key", fn)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if v.(string) != "value" {
				t.Errorf("expected \"value\", got %v", v)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&computations); n != 1 {
		t.Errorf("expected one computation for concurrent callers, got %d", n)
	}
}

func TestOptionsDigestStructural(t *testing.T) {
	a := FinderOptions{
		BrowserType: "release",
		Desktop:     DesktopOptions{BuildDirs: []string{"out/Release"}},
	}
	b := FinderOptions{
		BrowserType: "release",
		Desktop:     DesktopOptions{BuildDirs: []string{"out/Release"}},
	}

	if optionsDigest(a) != optionsDigest(b) {
		t.Error("expected equal digests for structurally equal options")
	}

	b.BrowserType = "debug"
	if optionsDigest(a) == optionsDigest(b) {
		t.Error("expected different digests for different browser types")
	}
}

func TestOptionsDigestIgnoresPrebuilt(t *testing.T) {
	plain := FinderOptions{BrowserType: "release"}
	seeded := FinderOptions{BrowserType: "release", Prebuilt: &mockBrowser{browserType: "harness"}}

	if optionsDigest(plain) != optionsDigest(seeded) {
		t.Error("expected the prebuilt seam to be excluded from the digest")
	}
}
