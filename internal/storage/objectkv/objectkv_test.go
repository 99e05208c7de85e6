package objectkv

import (
	"context"
	"testing"

	"github.com/fdg312/insulin-calc/internal/blob"
)

func TestObjectKV(t *testing.T) {
	ctx := context.Background()
	objects := blob.NewMemoryStore()
	kv := New(objects, "/calc/").KV()

	if _, ok, err := kv.Get(ctx, "insulinDoseInputs"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := kv.Set(ctx, "insulinDoseInputs", `{"tdd":"40"}`); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	raw, err := objects.GetObject(ctx, "calc/insulinDoseInputs.json")
	if err != nil {
		t.Fatalf("expected object under prefix: %v", err)
	}
	if string(raw) != `{"tdd":"40"}` {
		t.Fatalf("unexpected object body %q", raw)
	}

	v, ok, err := kv.Get(ctx, "insulinDoseInputs")
	if err != nil || !ok || v != `{"tdd":"40"}` {
		t.Fatalf("unexpected get v=%q ok=%v err=%v", v, ok, err)
	}

	if err := kv.Remove(ctx, "insulinDoseInputs"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "insulinDoseInputs"); ok {
		t.Fatal("expected key removed")
	}
}

func TestObjectKVDefaultPrefix(t *testing.T) {
	s := New(blob.NewMemoryStore(), "")
	if got := s.objectKey("insulinDoseLang"); got != "kv/insulinDoseLang.json" {
		t.Fatalf("unexpected object key %q", got)
	}
}
