package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"booktalk/docs"
	"booktalk/internal/applog"
	"booktalk/internal/config"
	"booktalk/internal/database"
	"booktalk/internal/database/migration"
	handlers "booktalk/internal/http/handler"
	"booktalk/internal/http/middleware"
	"booktalk/internal/llm"
	"booktalk/internal/model"
	"booktalk/internal/otel"
	"booktalk/internal/repository"
	"booktalk/internal/repository/memory"
	"booktalk/internal/repository/postgres"
	"booktalk/internal/retention"
	"booktalk/internal/service"
	"booktalk/internal/session"
	"booktalk/internal/speech"
	"booktalk/internal/storage"
)

// @title Booktalk API
// @version 1.0
// @description Ask spoken questions about an uploaded book and get spoken answers.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	applog.SetLocation(time.Local)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Sessions and the answer ledger live in PostgreSQL when DB_HOST is set, in memory otherwise.
	var (
		db           *sql.DB
		sessions     session.Store
		interactions repository.InteractionRepository
	)
	if cfg.Database.Enabled() {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := migration.EnsureMigrated(ctx, db, cfg.Database.Host); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		if err := database.RegisterStats(reg, db); err != nil {
			log.Fatalf("failed to register database metrics: %v", err)
		}
		sessions = session.NewPostgres(db)
		interactions = postgres.NewInteractionPostgres(db)
	} else {
		applog.Info("database", "database_disabled", map[string]any{"reason": "DB_HOST is empty"})
		sessions = session.NewMemory()
		interactions = memory.NewInteractionMemory()
	}

	store, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	gemini, err := llm.NewGemini(ctx, cfg.Gemini)
	if err != nil {
		log.Fatalf("failed to initialize gemini client: %v", err)
	}
	tts, err := speech.NewGoogle(ctx, cfg.Speech)
	if err != nil {
		log.Fatalf("failed to initialize text-to-speech client: %v", err)
	}
	defer tts.Close()

	metrics, err := service.NewMetrics(reg)
	if err != nil {
		log.Fatalf("failed to register pipeline metrics: %v", err)
	}

	docSvc := service.NewDocumentService(store, gemini, sessions, cfg.Pipeline)
	speechSvc := service.NewSpeechService(store, tts)
	assistant := service.NewAssistantService(service.AssistantDeps{
		Sessions:     sessions,
		Transcriber:  service.NewTranscriptionService(store, gemini),
		Answerer:     service.NewAnswerService(store, gemini, cfg.Pipeline),
		Speech:       speechSvc,
		Interactions: interactions,
		Metrics:      metrics,
		StageTimeout: cfg.Pipeline.StageTimeout,
	})

	// Books that a session still answers from are never pruned.
	janitor := retention.NewJanitor(store, cfg.Retention, model.FolderUploads, model.FolderSpeech).Protect(sessions)
	go janitor.Run(ctx)

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Session())
	app.Use(middleware.Logger())
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:        db,
		Documents: docSvc,
		Assistant: assistant,
		Speech:    speechSvc,
		StaticDir: cfg.StaticDir,
	})

	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	addr := ":" + cfg.Port
	applog.Info("http", "server_starting", map[string]any{
		"addr":           addr,
		"storage":        cfg.Storage.Backend,
		"grounding_mode": cfg.Pipeline.GroundingMode,
	})
	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// newStorage picks the object store for uploads and synthesized speech.
func newStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	if cfg.Backend == config.StorageMinIO {
		return storage.NewMinIO(ctx, cfg.MinIO)
	}
	return storage.NewLocal(cfg.DataDir)
}
