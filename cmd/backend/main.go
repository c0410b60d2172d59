package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	advisorimpl "github.com/foxseedlab/kissandost/external/advisor"
	audioimpl "github.com/foxseedlab/kissandost/external/audio"
	configloader "github.com/foxseedlab/kissandost/external/config"
	kvstoreimpl "github.com/foxseedlab/kissandost/external/kvstore"
	microphoneimpl "github.com/foxseedlab/kissandost/external/microphone"
	speechimpl "github.com/foxseedlab/kissandost/external/speech"
	transcriberimpl "github.com/foxseedlab/kissandost/external/transcriber"
	webhookimpl "github.com/foxseedlab/kissandost/external/webhook"
	"github.com/foxseedlab/kissandost/internal/config"
	"github.com/foxseedlab/kissandost/internal/notify"
	"github.com/foxseedlab/kissandost/internal/playback"
	"github.com/foxseedlab/kissandost/internal/preferences"
	"github.com/foxseedlab/kissandost/internal/session"
	"github.com/foxseedlab/kissandost/internal/speech"
	"github.com/foxseedlab/kissandost/internal/voice"
	"github.com/samber/do/v2"
)

const (
	hydrateTimeout  = 15 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "store_backend", cfg.StoreBackend, "speech_recognizer", cfg.SpeechRecognizer)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: hydrating persisted state")
	app := mustBuildApp(cfg, injector)

	run(app)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	kvstoreimpl.RegisterDI(injector)
	advisorimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	microphoneimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	speechimpl.RegisterDI(injector)
	notify.RegisterDI(injector)
	session.RegisterDI(injector)
	voice.RegisterDI(injector)
	speech.RegisterDI(injector)
	playback.RegisterDI(injector)
	preferences.RegisterDI(injector)

	return injector
}

func mustBuildApp(cfg *config.Config, injector do.Injector) *console {
	store := mustInvoke[*session.Store](injector, "session store")
	theme := mustInvoke[*preferences.ThemeStore](injector, "theme store")
	users := mustInvoke[*preferences.Users](injector, "user store")

	ctx, cancel := context.WithTimeout(context.Background(), hydrateTimeout)
	defer cancel()
	if err := store.Load(ctx); err != nil {
		slog.Error("failed to hydrate sessions", "error", err)
		os.Exit(1)
	}
	if err := theme.Load(ctx); err != nil {
		slog.Error("failed to hydrate theme", "error", err)
		os.Exit(1)
	}
	user, err := users.Load(ctx)
	if err != nil {
		slog.Warn("ignoring unreadable user record", "error", err)
		user = nil
	}

	return newConsole(consoleDeps{
		orchestrator:    mustInvoke[*session.Orchestrator](injector, "turn orchestrator"),
		voice:           mustInvoke[*voice.Controller](injector, "voice controller"),
		input:           mustInvoke[*voice.InputBuffer](injector, "input buffer"),
		playback:        mustInvoke[*playback.Controller](injector, "playback controller"),
		board:           mustInvoke[*notify.Board](injector, "notification board"),
		theme:           theme,
		users:           users,
		user:            user,
		defaultLanguage: cfg.DefaultLanguage,
		in:              os.Stdin,
		out:             os.Stderr,
	})
}

func mustInvoke[T any](injector do.Injector, name string) T {
	v, err := do.Invoke[T](injector)
	if err != nil {
		slog.Error("failed to resolve "+name, "error", err)
		os.Exit(1)
	}
	return v
}

func run(app *console) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("startup: entering console loop")
	app.Run(ctx)
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	app.Shutdown(shutdownCtx)
}
