package cache

import (
	"bytes"
	"testing"
)

func TestStoreThenLoadRoundTrip(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	source := []byte("def f(): return 1")
	blob := []byte{0x01, 0x02, 0x03}

	if _, ok, err := c.Load(source); err != nil || ok {
		t.Fatalf("expected a miss before Store, got ok=%v err=%v", ok, err)
	}
	if err := c.Store(source, blob); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.Load(source)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a hit after Store")
	}
	if !bytes.Equal(got, blob) {
		t.Fatalf("got %v, want %v", got, blob)
	}
}

func TestKeyIsStableAndContentAddressed(t *testing.T) {
	a := Key([]byte("same source"))
	b := Key([]byte("same source"))
	c := Key([]byte("different source"))
	if a != b {
		t.Fatal("Key is not stable across calls")
	}
	if a == c {
		t.Fatal("different sources produced the same key")
	}
	if len(a) != 16 {
		t.Fatalf("key length = %d, want 16 hex digits", len(a))
	}
}

func TestHasReflectsStoreWithoutReading(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	source := []byte("x = 1")
	if c.Has(source) {
		t.Fatal("expected no entry before Store")
	}
	if err := c.Store(source, []byte{0xFF}); err != nil {
		t.Fatal(err)
	}
	if !c.Has(source) {
		t.Fatal("expected an entry after Store")
	}
}
