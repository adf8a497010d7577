package cache

import (
	"bytes"
	"testing"
)

func TestKey(t *testing.T) {
	digest := []byte("config")
	content := []byte(`export { a } from "pkg";`)

	k1 := Key(digest, "js", content)
	if len(k1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(k1))
	}
	if k1 != Key(digest, "js", content) {
		t.Error("Key should be deterministic")
	}
	if k1 == Key(digest, "ts", content) {
		t.Error("Key should depend on the language")
	}
	if k1 == Key([]byte("other"), "js", content) {
		t.Error("Key should depend on the config digest")
	}
	if k1 == Key(digest, "js", []byte(`export { b } from "pkg";`)) {
		t.Error("Key should depend on the content")
	}
}

func TestPutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer c.Close()

	key := Key([]byte("cfg"), "js", []byte("in"))

	if _, _, ok, err := c.Get(key); err != nil || ok {
		t.Fatalf("expected a miss, got ok=%v err=%v", ok, err)
	}

	out := []byte(`export * as Button from "react-bootstrap/lib/Button";`)
	if err := c.Put(key, out, true); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, changed, ok, err := c.Get(key)
	if err != nil || !ok {
		t.Fatalf("expected a hit, got ok=%v err=%v", ok, err)
	}
	if !changed {
		t.Error("expected changed to round-trip")
	}
	if !bytes.Equal(got, out) {
		t.Errorf("Get = %q, want %q", got, out)
	}

	// Replacing an entry keeps a single row.
	if err := c.Put(key, []byte("in"), false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	n, err := c.Len()
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
	_, changed, _, _ = c.Get(key)
	if changed {
		t.Error("expected changed=false after replace")
	}
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()
	key := Key(nil, "js", []byte("x"))

	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := c.Put(key, []byte("y"), true); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	c.Close()

	c, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer c.Close()

	got, _, ok, err := c.Get(key)
	if err != nil || !ok || string(got) != "y" {
		t.Errorf("expected persisted entry, got %q ok=%v err=%v", got, ok, err)
	}
}

func TestPutEmptyOutput(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer c.Close()

	key := Key(nil, "js", nil)
	if err := c.Put(key, nil, false); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, _, ok, err := c.Get(key)
	if err != nil || !ok || len(got) != 0 {
		t.Errorf("expected empty hit, got %q ok=%v err=%v", got, ok, err)
	}
}
