package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dhbtk/webtarot/internal/config"
	"github.com/dhbtk/webtarot/internal/domain"
	"github.com/dhbtk/webtarot/internal/events"
	"github.com/dhbtk/webtarot/internal/explain"
	"github.com/dhbtk/webtarot/internal/platform/gemini"
	"github.com/dhbtk/webtarot/internal/platform/openai"
	"github.com/dhbtk/webtarot/internal/platform/postgres"
	"github.com/dhbtk/webtarot/internal/service"
	"github.com/dhbtk/webtarot/internal/service/auth"
	"github.com/dhbtk/webtarot/internal/store"
	"github.com/dhbtk/webtarot/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	readingStore store.ReadingStore
	userStore    store.UserStore

	jwtService            auth.JWTService
	interpretationService service.InterpretationService
	userService           service.UserService

	broadcaster *events.Broadcaster
	taskRunner  *task.Runner
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.readingStore = postgres.NewPostgresReadingStore(db, logger)
	app.userStore = postgres.NewPostgresUserStore(db, logger)

	dispatcher, err := setupExplainers(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize interpretation backends: %w", err)
	}

	app.broadcaster = events.NewBroadcaster(logger)

	app.taskRunner = task.NewRunner(task.RunnerConfig{
		WorkerCount:  cfg.Task.WorkerCount,
		QueueSize:    cfg.Task.QueueSize,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAge) * time.Minute,
	}, logger)
	app.taskRunner.Start()

	app.interpretationService, err = service.NewInterpretationService(
		app.readingStore,
		app.taskRunner,
		dispatcher,
		app.broadcaster,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpretation service: %w", err)
	}

	hasher := auth.NewBcryptVerifier(cfg.Auth.BcryptCost)
	app.userService, err = service.NewUserService(
		app.userStore,
		app.readingStore,
		app.jwtService,
		hasher,
		hasher,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// setupExplainers builds the dispatcher over every supported interpretation
// backend. Backends without an API key stay registered and fail per request,
// so a deployment may configure only one of them.
func setupExplainers(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*explain.Dispatcher, error) {
	chatGPT := openai.NewClient(openai.Config{
		APIKey:  cfg.LLM.OpenAIAPIKey,
		BaseURL: cfg.LLM.OpenAIBaseURL,
		Model:   cfg.LLM.OpenAIModel,
	}, logger)

	geminiExplainer, err := gemini.NewExplainer(ctx, gemini.Config{
		APIKey: cfg.LLM.GeminiAPIKey,
		Model:  cfg.LLM.GeminiModel,
	}, logger)
	if err != nil {
		return nil, err
	}

	return explain.NewDispatcher(map[domain.Backend]explain.Explainer{
		domain.BackendChatGPT: chatGPT,
		domain.BackendGemini:  geminiExplainer,
	}, logger), nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.broadcaster != nil {
		app.broadcaster.Close()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
