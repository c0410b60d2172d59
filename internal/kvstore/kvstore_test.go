package kvstore

import (
	"context"
	"testing"
)

func TestMemory_GetAbsentKey(t *testing.T) {
	m := NewMemory()
	v, ok, err := m.Get(context.Background(), KeySessions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || v != "" {
		t.Fatalf("expected absent key, got %q ok=%v", v, ok)
	}
}

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.Set(ctx, KeyTheme, "dark"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, _ := m.Get(ctx, KeyTheme)
	if !ok || v != "dark" {
		t.Fatalf("unexpected value %q ok=%v", v, ok)
	}
	if err := m.Delete(ctx, KeyTheme); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := m.Get(ctx, KeyTheme); ok {
		t.Fatal("expected key to be deleted")
	}
}
