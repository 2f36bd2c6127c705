package cache

import (
	"testing"
	"time"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("embedding", []byte("page-bytes"))
	b := Key("embedding", []byte("page-bytes"))
	if a != b {
		t.Errorf("keys differ for identical content: %s vs %s", a, b)
	}
	if a == Key("authenticity", []byte("page-bytes")) {
		t.Error("different namespaces must produce different keys")
	}
	if a == Key("embedding", []byte("other-bytes")) {
		t.Error("different content must produce different keys")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	key := Key("embedding", []byte("img"))
	if _, ok := c.Get(key); ok {
		t.Error("unexpected hit on empty cache")
	}

	if err := c.Set(key, []byte("vector"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := c.Get(key)
	if !ok || string(got) != "vector" {
		t.Errorf("Get = %q, %v", got, ok)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("hit after delete")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	key := Key("embedding", []byte("img"))
	if err := c.Set(key, []byte("vector"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Error("entry should have expired")
	}
}
