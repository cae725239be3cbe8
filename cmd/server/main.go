package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"selen/internal/cache"
	"selen/internal/config"
	"selen/internal/database"
	"selen/internal/filestore"
	"selen/internal/handlers"
	"selen/internal/jobs"
	"selen/internal/llm"
	"selen/internal/logging"
	"selen/internal/middleware"
	"selen/internal/models"
	"selen/internal/notion"
	"selen/internal/services"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

// backends holds the lazily opened storage connections shared by content and memory
type backends struct {
	cfg     *config.Config
	notion  *notion.Client
	sqlRepo *database.SQLStore
	mongo   *database.MongoDB
	closers []func()
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Selen Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Printf("📋 Configuration loaded (Port: %s, Content: %s, Memory: %s, Cache: %s)",
		cfg.Port, cfg.ContentBackend, cfg.MemoryBackend, cfg.CacheBackend)

	persona, err := config.LoadPersona(cfg.PersonaFile)
	if err != nil {
		log.Fatalf("❌ Failed to load persona: %v", err)
	}
	log.Printf("🎭 Persona loaded: %s", persona.Name)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	metrics := services.NewMetrics(prometheus.DefaultRegisterer)

	// Cache
	store, sweeper, closeCache := initCache(cfg)

	// Background jobs
	jobScheduler, err := jobs.NewJobScheduler()
	if err != nil {
		log.Fatalf("❌ Failed to create job scheduler: %v", err)
	}
	if sweeper != nil {
		if err := jobScheduler.Register("cache-sweep", cfg.CacheSweepInterval, jobs.NewCacheSweepJob(sweeper)); err != nil {
			log.Fatalf("❌ Failed to register cache sweep: %v", err)
		}
	}
	jobScheduler.Start()

	// Storage
	b := &backends{cfg: cfg}
	contentStore, err := b.contentStore(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to initialize content store: %v", err)
	}
	persister, err := b.persister(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to initialize memory persister: %v", err)
	}

	// Completion client
	breaker := llm.NewCircuitBreaker("grok", llm.DefaultCircuitBreakerConfig())
	grok := llm.NewGrokClient(llm.GrokConfig{
		APIKey:  cfg.GrokAPIKey,
		BaseURL: cfg.GrokBaseURL,
		Model:   cfg.GrokModel,
		Timeout: cfg.GrokTimeout,
		Logger:  logging.NewUpstreamLogger("grok"),
	}, breaker)
	log.Printf("🤖 Grok client ready (model: %s, timeout: %s)", cfg.GrokModel, cfg.GrokTimeout)

	selenService := services.NewSelenService(
		store,
		services.NewCachedContentStore(contentStore, store, metrics),
		grok,
		persister,
		services.NewPromptBuilder(persona),
		services.SelenOptions{
			OnEmptyContent:  cfg.OnEmptyContent,
			FallbackTrigger: cfg.FallbackTrigger,
			PersistPolicy:   cfg.PersistPolicy,
			Completion: models.CompletionOptions{
				MaxTokens:   cfg.GrokMaxTokens,
				Temperature: cfg.GrokTemperature,
			},
		},
		metrics,
	)
	log.Printf("✅ Selen pipeline ready (onEmptyContent: %s, persistPolicy: %s)", cfg.OnEmptyContent, cfg.PersistPolicy)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Selen v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second, // completion timeout plus persistence
		IdleTimeout:  120 * time.Second,
		BodyLimit:    64 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prom := fiberprometheus.New("selen")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept," + middleware.BypassHeader,
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", cfg.AllowedOrigins)

	rateLimitConfig := middleware.NewRateLimitConfig(cfg.RateLimitAPI, cfg.IsProduction())
	api := app.Group("/api")
	api.Use(middleware.APIRateLimiter(rateLimitConfig))
	log.Printf("🛡️  [RATE-LIMIT] API rate limiter enabled: %d/min", rateLimitConfig.APIMax)

	healthHandler := handlers.NewHealthHandler(cfg.Environment, b.healthChecks(store))
	selenHandler := handlers.NewSelenHandler(selenService)

	api.Get("/health", healthHandler.Handle)
	api.All("/health", handlers.MethodNotAllowed(fiber.MethodGet))
	api.Post("/selen", middleware.BypassCheck(cfg.BypassSecret), selenHandler.Handle)
	api.All("/selen", handlers.MethodNotAllowed(fiber.MethodPost))

	log.Printf("✅ Server listening on :%s", cfg.Port)
	log.Printf("🔗 Trigger endpoint: http://localhost:%s/api/selen", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/api/health", cfg.Port)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		// Stop background jobs and file watchers
		if err := jobScheduler.Stop(); err != nil {
			log.Printf("⚠️ Error stopping job scheduler: %v", err)
		}
		stop()

		// Shutdown Fiber before closing the stores it uses
		if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}

		b.close()
		closeCache()
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// initCache creates the shared cache. The sweeper is nil when the backend expires entries itself.
func initCache(cfg *config.Config) (cache.Cache, jobs.Sweeper, func()) {
	if cfg.CacheBackend == config.CacheRedis {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
		if err == nil {
			log.Printf("✅ Redis cache connected (TTL: %s)", cfg.CacheTTL)
			return redisCache, nil, func() {
				if err := redisCache.Close(); err != nil {
					log.Printf("⚠️ Error closing Redis: %v", err)
				}
			}
		}
		log.Printf("⚠️  Redis unavailable, falling back to in-memory cache: %v", err)
	}

	memoryCache := cache.NewMemoryCache(cfg.CacheTTL)
	log.Printf("✅ In-memory cache ready (TTL: %s, sweep: %s)", cfg.CacheTTL, cfg.CacheSweepInterval)
	return memoryCache, memoryCache, func() {}
}

func (b *backends) contentStore(ctx context.Context) (services.ContentStore, error) {
	switch b.cfg.ContentBackend {
	case config.BackendNotion:
		return notion.NewContentStore(b.notionClient(), b.cfg.DBTriggers), nil
	case config.BackendSQL:
		return b.sqlStore()
	case config.BackendMongo:
		mongodb, err := b.mongoDB(ctx)
		if err != nil {
			return nil, err
		}
		return database.NewMongoStore(mongodb, b.cfg.DBTriggers, b.cfg.DBMemoriaCurada), nil
	case config.BackendCSV:
		csvStore, err := filestore.NewCSVStore(b.cfg.TriggersFile)
		if err != nil {
			return nil, err
		}
		if err := csvStore.Watch(ctx); err != nil {
			log.Printf("⚠️  Hot-reload disabled for %s: %v", b.cfg.TriggersFile, err)
		}
		return csvStore, nil
	default:
		return nil, fmt.Errorf("unknown content backend %q", b.cfg.ContentBackend)
	}
}

func (b *backends) persister(ctx context.Context) (services.MemoryPersister, error) {
	switch b.cfg.MemoryBackend {
	case config.BackendNotion:
		return notion.NewPersister(b.notionClient(), b.cfg.DBMemoriaCurada), nil
	case config.BackendSQL:
		return b.sqlStore()
	case config.BackendMongo:
		mongodb, err := b.mongoDB(ctx)
		if err != nil {
			return nil, err
		}
		return database.NewMongoStore(mongodb, b.cfg.DBTriggers, b.cfg.DBMemoriaCurada), nil
	default:
		return nil, fmt.Errorf("unknown memory backend %q", b.cfg.MemoryBackend)
	}
}

func (b *backends) notionClient() *notion.Client {
	if b.notion == nil {
		b.notion = notion.NewClient(b.cfg.NotionAPIKey, b.cfg.NotionBaseURL)
		log.Println("✅ Notion client ready")
	}
	return b.notion
}

func (b *backends) sqlStore() (*database.SQLStore, error) {
	if b.sqlRepo != nil {
		return b.sqlRepo, nil
	}

	db, err := database.New(b.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, func() {
		if err := db.Close(); err != nil {
			log.Printf("⚠️ Error closing database: %v", err)
		}
	})

	if err := db.Initialize(b.cfg.DBTriggers, b.cfg.DBMemoriaCurada); err != nil {
		return nil, err
	}

	repo, err := database.NewSQLStore(db, b.cfg.DBTriggers, b.cfg.DBMemoriaCurada)
	if err != nil {
		return nil, err
	}
	b.sqlRepo = repo
	return repo, nil
}

func (b *backends) mongoDB(ctx context.Context) (*database.MongoDB, error) {
	if b.mongo != nil {
		return b.mongo, nil
	}

	mongodb, err := database.NewMongoDB(b.cfg.MongoURI, b.cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}
	b.mongo = mongodb
	b.closers = append(b.closers, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongodb.Close(closeCtx); err != nil {
			log.Printf("⚠️ Error closing MongoDB: %v", err)
		}
	})

	if err := mongodb.Initialize(ctx, b.cfg.DBTriggers, b.cfg.DBMemoriaCurada); err != nil {
		return nil, err
	}
	return mongodb, nil
}

// healthChecks pings every opened connection that can report its state
func (b *backends) healthChecks(store cache.Cache) map[string]handlers.HealthCheck {
	checks := make(map[string]handlers.HealthCheck)
	if redisCache, ok := store.(*cache.RedisCache); ok {
		checks["redis"] = redisCache.Ping
	}
	if b.sqlRepo != nil {
		checks["database"] = b.sqlRepo.Ping
	}
	if b.mongo != nil {
		checks["mongodb"] = b.mongo.Ping
	}
	return checks
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}
