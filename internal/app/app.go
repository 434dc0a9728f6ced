package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"NewsScanner/internal/config"
	"NewsScanner/internal/infrastructure/fetch"
	"NewsScanner/internal/infrastructure/httpapi"
	"NewsScanner/internal/infrastructure/llm"
	"NewsScanner/internal/infrastructure/scheduler"
	"NewsScanner/internal/infrastructure/storage"
	"NewsScanner/internal/logging"
	"NewsScanner/internal/ports"
	"NewsScanner/internal/relevance"
	"NewsScanner/internal/source"
	"NewsScanner/internal/usecase"
)

// Application wires configuration to the pipeline, admin API, and scheduler.
// All clients are constructed here and injected explicitly; nothing is
// created lazily on first use.
type Application struct {
	cfg       config.Config
	db        *sql.DB
	server    *httpapi.Server
	scheduler *usecase.Scheduler
	logger    *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	articles := storage.NewArticleRepository(db)
	runs := storage.NewRunLogRepository(db)

	httpClient := &http.Client{Timeout: cfg.Crawl.FetchTimeout.Std()}

	registry := source.NewRegistry()
	registry.Register(fetch.NewRSSStrategy(httpClient))
	registry.Register(fetch.NewListingStrategy(httpClient))

	candidateSource := fetch.NewMultiStrategySource(
		registry, cfg.Sources, cfg.Crawl, baseLogger.With("component", "source"))
	detail := fetch.NewDetailFetcher(
		httpClient, cfg.Sources, cfg.Crawl, baseLogger.With("component", "detail"))

	var chatClient ports.ChatClient
	if cfg.AI.APIKey != "" {
		chatClient = llm.NewOpenAIClient(cfg.AI)
	} else {
		baseLogger.Warn("no AI key configured, classifier runs in keyword-fallback mode")
	}

	keywords := relevance.Keywords{
		Must:    cfg.Keywords.Must,
		Should:  cfg.Keywords.Should,
		Exclude: cfg.Keywords.Exclude,
	}
	classifier := relevance.NewClassifier(
		chatClient, keywords, cfg.AI.SummaryLanguage, baseLogger.With("component", "classifier"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     candidateSource,
		Detail:     detail,
		Classifier: classifier,
		Articles:   articles,
		Runs:       runs,
		Keywords:   keywords,
		Sources:    cfg.SourceNames(),
		ItemDelay:  cfg.Crawl.ItemDelay.Std(),
		Logger:     baseLogger.With("component", "pipeline"),
	})

	server := httpapi.NewServer(cfg.Server, httpapi.Deps{
		Pipeline: pipeline,
		Articles: articles,
		Runs:     runs,
		Logger:   baseLogger.With("component", "httpapi"),
	})

	cronDriver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	sched := usecase.NewScheduler(
		cronDriver, pipeline, cfg.Scheduler.RunTimeout.Std(), baseLogger.With("component", "scheduler"))

	return &Application{
		cfg:       cfg,
		db:        db,
		server:    server,
		scheduler: sched,
		logger:    baseLogger,
	}, nil
}

// Run starts the scheduler and serves the admin API until the listener stops.
func (a *Application) Run(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		a.logger.Warn("database not reachable at startup", "error", err)
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() { _ = a.scheduler.Stop(context.Background()) }()
	defer func() { _ = a.db.Close() }()

	a.logger.Info("admin API listening", "addr", a.cfg.Server.Addr)
	return a.server.Run()
}
