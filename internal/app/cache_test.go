package app

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFeedCacheStoresGeneratedDocument(t *testing.T) {
	cache := NewFeedCache()
	calls := 0

	doc, err := cache.GetOrCreate("alice", func(username string) (string, error) {
		calls++
		if username != "alice" {
			t.Fatalf("generator got username %q, want alice", username)
		}
		return "<rss/>", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != "<rss/>" {
		t.Fatalf("document = %q, want <rss/>", doc)
	}

	// Second call must hit the cache without regenerating.
	doc, err = cache.GetOrCreate("alice", func(string) (string, error) {
		calls++
		return "regenerated", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != "<rss/>" {
		t.Fatalf("document = %q, want cached <rss/>", doc)
	}
	if calls != 1 {
		t.Fatalf("generator ran %d times, want 1", calls)
	}

	if got, ok := cache.Lookup("alice"); !ok || got != "<rss/>" {
		t.Fatalf("Lookup = %q, %v; want <rss/>, true", got, ok)
	}
}

func TestFeedCacheCoalescesConcurrentGeneration(t *testing.T) {
	cache := NewFeedCache()

	var calls atomic.Int32
	release := make(chan struct{})
	generate := func(string) (string, error) {
		calls.Add(1)
		<-release
		return "<rss/>", nil
	}

	const workers = 16
	results := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.GetOrCreate("alice", generate)
		}(i)
	}

	// Let every worker reach the in-flight generation before it finishes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("generator ran %d times under concurrency, want 1", got)
	}
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d error: %v", i, errs[i])
		}
		if results[i] != "<rss/>" {
			t.Fatalf("worker %d document = %q, want <rss/>", i, results[i])
		}
	}
}

func TestFeedCacheDoesNotStoreFailedGeneration(t *testing.T) {
	cache := NewFeedCache()
	upstreamErr := errors.New("scholar unavailable")
	calls := 0

	_, err := cache.GetOrCreate("bob", func(string) (string, error) {
		calls++
		return "", upstreamErr
	})
	if !errors.Is(err, upstreamErr) {
		t.Fatalf("error = %v, want %v", err, upstreamErr)
	}
	if _, ok := cache.Lookup("bob"); ok {
		t.Fatal("failed generation must not be cached")
	}

	// The next caller retries and its result is stored.
	doc, err := cache.GetOrCreate("bob", func(string) (string, error) {
		calls++
		return "<rss/>", nil
	})
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if doc != "<rss/>" {
		t.Fatalf("document = %q, want <rss/>", doc)
	}
	if calls != 2 {
		t.Fatalf("generator ran %d times, want 2", calls)
	}
}

func TestFeedCacheClear(t *testing.T) {
	cache := NewFeedCache()
	for _, username := range []string{"alice", "bob"} {
		if _, err := cache.GetOrCreate(username, func(string) (string, error) {
			return "<rss/>", nil
		}); err != nil {
			t.Fatalf("seed %s: %v", username, err)
		}
	}
	if cache.Size() != 2 {
		t.Fatalf("Size = %d, want 2", cache.Size())
	}

	cache.Clear()

	if cache.Size() != 0 {
		t.Fatalf("Size after Clear = %d, want 0", cache.Size())
	}
	for _, username := range []string{"alice", "bob"} {
		if _, ok := cache.Lookup(username); ok {
			t.Fatalf("Lookup(%q) present after Clear", username)
		}
	}
}
