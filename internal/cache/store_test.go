package cache

import (
	"testing"
	"time"
)

func TestStoreGetSetDelete(t *testing.T) {
	s := NewStore()

	if _, ok := s.Get("missing"); ok {
		t.Fatal("get on empty store must miss")
	}

	s.Set("k", "v", time.Minute)
	v, ok := s.Get("k")
	if !ok || v.(string) != "v" {
		t.Fatalf("get = %v, %v", v, ok)
	}

	s.Delete("k")
	if _, ok := s.Get("k"); ok {
		t.Fatal("deleted key still present")
	}
}

func TestStoreLazyExpiry(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	s.Set("k", 42, 2*time.Minute)

	now = now.Add(time.Minute)
	if _, ok := s.Get("k"); !ok {
		t.Fatal("entry expired before its ttl")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := s.Get("k"); ok {
		t.Fatal("expired entry served")
	}
	// Expiry is pull-based: the Get above must have evicted the entry.
	if s.Len() != 0 {
		t.Fatalf("expired entry not evicted on read, len = %d", s.Len())
	}
}

func TestStoreClear(t *testing.T) {
	s := NewStore()
	s.Set("a", 1, time.Minute)
	s.Set("b", 2, time.Minute)
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("len after clear = %d", s.Len())
	}
}
