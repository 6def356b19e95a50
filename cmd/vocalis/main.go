// Command vocalis is the main entry point for the Vocalis practice server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vocalis-app/vocalis/internal/achievement"
	"github.com/vocalis-app/vocalis/internal/auth"
	"github.com/vocalis-app/vocalis/internal/config"
	"github.com/vocalis-app/vocalis/internal/content"
	"github.com/vocalis-app/vocalis/internal/health"
	"github.com/vocalis-app/vocalis/internal/httpapi"
	"github.com/vocalis-app/vocalis/internal/leaderboard"
	"github.com/vocalis-app/vocalis/internal/observe"
	"github.com/vocalis-app/vocalis/internal/progress"
	"github.com/vocalis-app/vocalis/internal/resilience"
	"github.com/vocalis-app/vocalis/internal/session"
	"github.com/vocalis-app/vocalis/internal/store"
	"github.com/vocalis-app/vocalis/internal/store/memstore"
	"github.com/vocalis-app/vocalis/internal/store/postgres"
	"github.com/vocalis-app/vocalis/internal/timeattack"
	"github.com/vocalis-app/vocalis/pkg/speech"
	"github.com/vocalis-app/vocalis/pkg/speech/deepgram"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	dev := flag.Bool("dev", false, "run on the in-memory store regardless of configuration")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "vocalis: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "vocalis: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("vocalis starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "vocalis",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Store ─────────────────────────────────────────────────────────────────
	st, readiness, err := openStore(ctx, cfg, *dev)
	if err != nil {
		slog.Error("failed to open store", "err", err)
		return 1
	}
	defer st.Close()

	if err := content.SeedPictureRound(ctx, st); err != nil {
		slog.Error("failed to seed picture round", "err", err)
		return 1
	}

	// ── Services ──────────────────────────────────────────────────────────────
	dispatcher := achievement.NewDispatcher(achievement.NewEvaluator(st))

	aggregator := progress.New(st, progress.WithNotifier(dispatcher))
	board := leaderboard.New(st, leaderboard.WithNotifier(dispatcher))

	var authOpts []auth.Option
	if cfg.Auth.SessionTTL > 0 {
		authOpts = append(authOpts, auth.WithSessionTTL(cfg.Auth.SessionTTL))
	}
	authSvc := auth.NewService(st, authOpts...)

	serverOpts := []httpapi.Option{
		httpapi.WithHealth(health.New(readiness...)),
		httpapi.WithRoundConfig(timeattack.Config{
			Duration:     cfg.TimeAttack.RoundDuration,
			Extension:    cfg.TimeAttack.ExtensionPerHit,
			OpponentRate: cfg.TimeAttack.OpponentRate,
		}),
	}
	if cfg.Session.HintAfterFailures > 0 {
		serverOpts = append(serverOpts,
			httpapi.WithSessionOptions(session.WithHintAfterFailures(cfg.Session.HintAfterFailures)))
	}
	if recognizer := buildRecognizer(cfg.Speech); recognizer != nil {
		serverOpts = append(serverOpts, httpapi.WithRecognizer(recognizer))
	}

	server := httpapi.NewServer(st, authSvc, aggregator, board, serverOpts...)

	// ── Run ───────────────────────────────────────────────────────────────────
	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	slog.Info("server ready — press Ctrl+C to shut down")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx, addr) })
	g.Go(func() error { return dispatcher.Run(gctx) })
	g.Go(func() error { return authSvc.RunSweeper(gctx, sessionSweepInterval) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// openStore selects the persistence backend: Postgres when a DSN is
// configured, otherwise the in-memory store. Returns the readiness checks
// appropriate for the backend.
func openStore(ctx context.Context, cfg *config.Config, dev bool) (store.Store, []health.Checker, error) {
	if dev || cfg.Database.PostgresDSN == "" {
		slog.Warn("using in-memory store; state will not survive a restart")
		return memstore.New(), nil, nil
	}

	pg, err := postgres.NewStore(ctx, cfg.Database.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	checks := []health.Checker{{Name: "database", Check: pg.Ping}}
	return pg, checks, nil
}

// buildRecognizer constructs the Deepgram recognizer behind a circuit
// breaker, or nil when no API key is configured.
func buildRecognizer(cfg config.SpeechConfig) speech.Recognizer {
	if cfg.APIKey == "" {
		return nil
	}

	var opts []deepgram.Option
	if cfg.Model != "" {
		opts = append(opts, deepgram.WithModel(cfg.Model))
	}
	if cfg.Language != "" {
		opts = append(opts, deepgram.WithLanguage(cfg.Language))
	}
	recognizer, err := deepgram.New(cfg.APIKey, opts...)
	if err != nil {
		slog.Error("failed to build speech recognizer", "err", err)
		return nil
	}
	slog.Info("speech recognizer ready", "model", cfg.Model)
	return resilience.NewRecognizerFallback(recognizer, "deepgram", resilience.FallbackConfig{})
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
