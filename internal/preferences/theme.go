package preferences

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/foxseedlab/kissandost/internal/config"
	"github.com/foxseedlab/kissandost/internal/kvstore"
)

type Theme string

const (
	ThemeLight Theme = config.ThemeLight
	ThemeDark  Theme = config.ThemeDark
)

// ThemeStore holds the theme mode. Load hydrates it once at startup and
// every change is written through.
type ThemeStore struct {
	kv       kvstore.Store
	fallback Theme

	mu    sync.Mutex
	theme Theme
}

func NewThemeStore(kv kvstore.Store, defaultTheme string) *ThemeStore {
	fallback := Theme(defaultTheme)
	if fallback != ThemeLight {
		fallback = ThemeDark
	}
	return &ThemeStore{kv: kv, fallback: fallback, theme: fallback}
}

// Load reads the saved theme; an absent or unknown value keeps the default.
func (s *ThemeStore) Load(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, kvstore.KeyTheme)
	if err != nil {
		return fmt.Errorf("failed to read theme: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := Theme(raw); {
	case ok && (t == ThemeLight || t == ThemeDark):
		s.theme = t
	default:
		s.theme = s.fallback
	}
	return nil
}

func (s *ThemeStore) Current() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// Toggle switches between light and dark. The new theme stays applied even
// when the write fails.
func (s *ThemeStore) Toggle(ctx context.Context) (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.theme == ThemeDark {
		s.theme = ThemeLight
	} else {
		s.theme = ThemeDark
	}
	slog.Info("theme changed", "theme", string(s.theme))
	if err := s.kv.Set(ctx, kvstore.KeyTheme, string(s.theme)); err != nil {
		return s.theme, fmt.Errorf("failed to persist theme: %w", err)
	}
	return s.theme, nil
}
