package preferences

import (
	"context"
	"errors"
	"testing"

	"github.com/foxseedlab/kissandost/internal/kvstore"
)

type failingKV struct {
	kvstore.Store
	setErr error
}

func (f *failingKV) Set(context.Context, string, string) error {
	return f.setErr
}

func TestThemeStore_LoadAndToggle(t *testing.T) {
	kv := kvstore.NewMemory()
	_ = kv.Set(t.Context(), kvstore.KeyTheme, "light")

	s := NewThemeStore(kv, "dark")
	if s.Current() != ThemeDark {
		t.Fatalf("expected default before load, got %s", s.Current())
	}
	if err := s.Load(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Current() != ThemeLight {
		t.Fatalf("expected saved theme, got %s", s.Current())
	}

	got, err := s.Toggle(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ThemeDark {
		t.Fatalf("expected dark, got %s", got)
	}
	raw, _, _ := kv.Get(t.Context(), kvstore.KeyTheme)
	if raw != "dark" {
		t.Fatalf("toggle must write through, got %q", raw)
	}
}

func TestThemeStore_UnknownValueKeepsDefault(t *testing.T) {
	kv := kvstore.NewMemory()
	_ = kv.Set(t.Context(), kvstore.KeyTheme, "green")

	s := NewThemeStore(kv, "light")
	if err := s.Load(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Current() != ThemeLight {
		t.Fatalf("expected default theme, got %s", s.Current())
	}
}

func TestThemeStore_ToggleKeepsChangeWhenWriteFails(t *testing.T) {
	boom := errors.New("boom")
	s := NewThemeStore(&failingKV{Store: kvstore.NewMemory(), setErr: boom}, "dark")

	got, err := s.Toggle(t.Context())
	if !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
	if got != ThemeLight || s.Current() != ThemeLight {
		t.Fatalf("expected light to stay applied, got %s", s.Current())
	}
}

func TestUsers_SaveLoadClear(t *testing.T) {
	u := NewUsers(kvstore.NewMemory())

	got, err := u.Load(t.Context())
	if err != nil || got != nil {
		t.Fatalf("expected no user, got %+v, %v", got, err)
	}

	want := User{ID: "u1", Name: "Ahmed", Email: "ahmed@example.com"}
	if err := u.Save(t.Context(), want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = u.Load(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || *got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	if err := u.Clear(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := u.Load(t.Context()); got != nil {
		t.Fatalf("expected no user after clear, got %+v", got)
	}
}

func TestUsers_RejectsIncompleteRecord(t *testing.T) {
	u := NewUsers(kvstore.NewMemory())
	if err := u.Save(t.Context(), User{Name: "no id"}); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
}

func TestUsers_CorruptRecord(t *testing.T) {
	kv := kvstore.NewMemory()
	_ = kv.Set(t.Context(), kvstore.KeyUser, "{")
	if _, err := NewUsers(kv).Load(t.Context()); err == nil {
		t.Fatal("expected decode error")
	}
}
