package evalcache

import (
	"bytes"
	"testing"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := openTestCache(t)

	key := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1|d15"
	val := []byte{0x10, 0x00, 0x00, 0x00, 0x22}

	if _, ok := c.Get(key); ok {
		t.Error("Get before Set reported a hit")
	}
	if err := c.Set(key, val); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Get after Set missed")
	}
	if !bytes.Equal(got, val) {
		t.Errorf("Get = %x, want %x", got, val)
	}
}

func TestCacheOverwrite(t *testing.T) {
	c := openTestCache(t)

	if err := c.Set("k", []byte("old")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("k", []byte("new")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "new" {
		t.Errorf("Get = %q/%v, want new", got, ok)
	}
}

func TestCacheLen(t *testing.T) {
	c := openTestCache(t)

	for _, key := range []string{"a", "b", "c"} {
		if err := c.Set(key, []byte{1}); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}
	n, err := c.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 3 {
		t.Errorf("Len() = %d, want 3", n)
	}
}

func TestCachePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Set("fen|d15", []byte("eval")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()

	got, ok := c2.Get("fen|d15")
	if !ok || string(got) != "eval" {
		t.Errorf("Get after reopen = %q/%v, want eval", got, ok)
	}
}
