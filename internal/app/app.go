package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moodflix-client/internal/config"
	"moodflix-client/internal/event"
	"moodflix-client/internal/gateway"
	"moodflix-client/internal/guard"
	"moodflix-client/internal/handler"
	"moodflix-client/internal/metadata"
	"moodflix-client/internal/middleware"
	"moodflix-client/internal/router"
	"moodflix-client/internal/session"
	"moodflix-client/internal/watchlist"
	"moodflix-client/internal/websocket"
)

type App struct {
	cfg     *config.Config
	server  *http.Server
	handler http.Handler
	session *session.Store
	hub     *websocket.Hub
}

func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	api, err := gateway.New(gateway.Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimitRPS,
		Burst:     cfg.APIRateBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize api gateway: %w", err)
	}

	tmdb, err := metadata.New(metadata.Options{
		BaseURL: cfg.TMDBBaseURL,
		APIKey:  cfg.TMDBAPIKey,
		Timeout: cfg.TMDBTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize movie metadata: %w", err)
	}
	if !tmdb.Enabled() {
		slog.Warn("TMDB_API_KEY not set, movie details are disabled")
	}

	bus := event.NewBus()
	hub := websocket.NewHub(bus)
	cache := watchlist.New(api, bus)
	store := session.New(api, cache, bus)

	policy := guard.Policy{LoginPath: cfg.LoginPath, HomePath: cfg.HomePath}
	navigator := guard.NewNavigator(policy, guard.DefaultViews)

	appRouter := router.New(cfg, middleware.NewViewGuard(store, policy), router.Handlers{
		Session:   handler.NewSessionHandler(store),
		Watchlist: handler.NewWatchlistHandler(cache, store),
		Movie:     handler.NewMovieHandler(api, tmdb, cache, store),
		Admin:     handler.NewAdminHandler(api, store),
		Navigate:  handler.NewNavigateHandler(navigator, store),
		Events:    hub.Handler(cfg.CORSOrigins),
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		cfg:     cfg,
		server:  server,
		handler: appRouter,
		session: store,
		hub:     hub,
	}, nil
}

func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) Session() *session.Store {
	return a.session
}

// Start launches the event hub and the first session resolution. Both stop
// when ctx is done.
func (a *App) Start(ctx context.Context) {
	go a.hub.Run(ctx)

	go func() {
		resolveCtx, cancel := context.WithTimeout(ctx, a.cfg.ResolveTimeout)
		defer cancel()
		state := a.session.Resolve(resolveCtx)
		slog.Info("session resolved", "status", state.Status)
	}()
}

func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)

	go func() {
		slog.Info("client starting", "addr", a.server.Addr, "api", a.cfg.APIBaseURL)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("client stopped")
	return nil
}
