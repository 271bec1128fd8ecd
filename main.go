package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wordarena/internal/api"
	"wordarena/internal/arena"
	"wordarena/internal/auth"
	"wordarena/internal/config"
	"wordarena/internal/coordinator"
	"wordarena/internal/logging"
	"wordarena/internal/queue"
	"wordarena/internal/registry"
	"wordarena/internal/stats"
	"wordarena/internal/words"
	"wordarena/internal/wsserver"
)

// Application wires together every Word Arena component: configuration,
// logging/Sentry, the word provider, auth, stats storage, the connection
// registry, the matchmaking-and-arena coordinator, and the HTTP server
// carrying both the websocket upgrade route and the REST API.
type Application struct {
	config *config.Config
	logger *logging.Logger

	server *http.Server

	registry *registry.Registry
	coord    *coordinator.Coordinator
	stats    stats.Repository

	coordCancel context.CancelFunc
}

func main() {
	_ = godotenv.Load()

	app := &Application{}
	if err := app.Initialize(); err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("application failed: %v", err)
	}
}

func (app *Application) Initialize() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	app.config = cfg

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		Service:     cfg.Logging.Service,
		SentryDSN:   cfg.Sentry.DSN,
		AddSource:   cfg.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	app.logger = logger

	if cfg.Sentry.DSN != "" {
		if err := logging.InitSentry(logging.SentryConfig{
			DSN:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			Release:          cfg.Sentry.Release,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
			Debug:            cfg.Sentry.Debug,
		}); err != nil {
			return fmt.Errorf("initializing sentry: %w", err)
		}
	}

	if err := app.initializeComponents(); err != nil {
		return fmt.Errorf("initializing components: %w", err)
	}

	app.setupServer()
	return nil
}

func (app *Application) initializeComponents() error {
	cfg := app.config

	provider, err := loadWordProvider(cfg.Words.Dir, cfg.Game.WordLengths)
	if err != nil {
		return fmt.Errorf("loading word provider: %w", err)
	}

	var verifier auth.Verifier
	if cfg.Auth.DevAuthMode {
		verifier = auth.NewDevVerifier()
		app.logger.LogInfo(context.Background(), "auth running in dev mode: any non-empty bearer token is trusted")
	} else {
		verifier = auth.NewJWTVerifier(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	}

	var statsRepo stats.Repository
	if cfg.Stats.DatabaseURL != "" {
		pg, err := stats.NewPostgres(context.Background(), cfg.Stats.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting stats repository: %w", err)
		}
		statsRepo = pg
	} else {
		statsRepo = stats.NewInMemory()
		app.logger.LogInfo(context.Background(), "no DATABASE_URL set: using in-memory stats repository")
	}
	app.stats = statsRepo

	app.registry = registry.New(registry.Limits{
		SubmitGuessPerMinute: cfg.Rate.SubmitGuessPerMinute,
		JoinQueuePerMinute:   cfg.Rate.JoinQueuePerMinute,
		HeartbeatPerMinute:   cfg.Rate.HeartbeatPerMinute,
		MaxConnectionsPerIP:  cfg.Rate.MaxConnectionsPerIP,
	})

	app.coord = coordinator.New(coordinator.Config{
		Game: arena.Config{
			PointThreshold:            cfg.Game.PointThreshold,
			WordLengths:               cfg.Game.WordLengths,
			RoundCountdownSeconds:     cfg.Game.RoundCountdownSeconds,
			GuessingDeadlineSeconds:   cfg.Game.GuessingDeadlineSeconds,
			IndividualDeadlineSeconds: cfg.Game.IndividualDeadlineSeconds,
			PauseTimeoutSeconds:       cfg.Game.PauseTimeoutSeconds,
			MaxGameDurationSeconds:    cfg.Game.MaxGameDurationSeconds,
		},
		Queue: queue.Config{
			MinPlayers:           cfg.Queue.MinPlayers,
			MaxPlayers:           cfg.Queue.MaxPlayers,
			VoteFraction:         cfg.Queue.VoteFraction,
			FullCountdownSeconds: cfg.Queue.FullCountdownSeconds,
			IdleQueueTimeout:     cfg.Queue.IdleQueueTimeout,
		},
		ReapInterval:          30 * time.Second,
		RoomRetentionAfterEnd: 2 * time.Minute,
	}, app.registry, verifier, provider, statsRepo, app.logger)

	return nil
}

func (app *Application) setupServer() {
	cfg := app.config

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		wsserver.ServeWS(app.registry, app.coord, app.logger, w, r)
	})
	mux.Handle("/", api.NewRouter(app.coord, app.stats, cfg.CORS.AllowedOrigins, cfg.Rate.APIRequestsPerMinute, app.logger))

	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func (app *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	app.coordCancel = cancel
	go app.coord.Run(ctx)

	serverErrCh := make(chan error, 1)
	go func() {
		app.logger.LogInfo(context.Background(), "server starting", "addr", app.server.Addr)
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	return app.waitForShutdown(serverErrCh)
}

func (app *Application) waitForShutdown(serverErrCh chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrCh:
		return err
	case sig := <-quit:
		app.logger.LogInfo(context.Background(), "received shutdown signal", "signal", sig.String())
		return app.gracefulShutdown()
	}
}

func (app *Application) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	app.coordCancel()

	if err := app.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if pg, ok := app.stats.(*stats.Postgres); ok {
		pg.Close()
	}

	logging.FlushSentry(5 * time.Second)
	return nil
}

// loadWordProvider prefers an on-disk override directory when configured,
// falling back to the embedded default lists.
func loadWordProvider(dir string, lengths []int) (words.Provider, error) {
	if dir != "" {
		if provider, err := words.NewFromDir(dir, lengths); err == nil {
			return provider, nil
		}
	}
	return words.New(lengths)
}
