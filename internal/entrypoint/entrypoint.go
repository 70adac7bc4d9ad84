package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/traxys/bouquineur/internal/auth"
	"github.com/traxys/bouquineur/internal/config"
	"github.com/traxys/bouquineur/internal/covers"
	"github.com/traxys/bouquineur/internal/database"
	"github.com/traxys/bouquineur/internal/database/authors"
	"github.com/traxys/bouquineur/internal/database/books"
	"github.com/traxys/bouquineur/internal/database/series"
	"github.com/traxys/bouquineur/internal/database/tags"
	"github.com/traxys/bouquineur/internal/database/users"
	"github.com/traxys/bouquineur/internal/database/wishes"
	http_controllers "github.com/traxys/bouquineur/internal/http"
	"github.com/traxys/bouquineur/internal/metadata"
	"github.com/traxys/bouquineur/internal/scheduler"
	"github.com/traxys/bouquineur/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Bouquineur v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	authorRepo := authors.NewRepository(db.DB)
	tagRepo := tags.NewRepository(db.DB)
	seriesRepo := series.NewRepository(db.DB)
	wishRepo := wishes.NewRepository(db.DB)
	userRepo := users.NewRepository(db.DB)

	coverStore, err := covers.NewStore(cfg.Metadata.ImageDir)
	if err != nil {
		log.Fatalf("Failed to initialize cover store: %v", err)
	}

	registry, err := metadata.NewRegistry(cfg.Metadata)
	if err != nil {
		log.Fatalf("Failed to configure metadata providers: %v", err)
	}
	if registry.Empty() {
		log.Printf("WARNING: no metadata provider configured, ISBN lookup is disabled")
	} else {
		log.Printf("Metadata providers: %v (default %s)", registry.Names(), registry.Default())
	}

	enricher := metadata.NewEnricher(registry, bookRepo, coverStore)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewEnrichBookQueue(enricher),
			tasks.NewCleanupOrphansQueue(authorRepo, tagRepo),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Schedule the nightly orphan sweep
	var cleanupScheduler *scheduler.CleanupScheduler
	if taskClient != nil && cfg.Cleanup.Enabled {
		cleanupScheduler = scheduler.NewCleanupScheduler(cfg.Cleanup, taskClient)
		if err := cleanupScheduler.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start cleanup scheduler: %v", err)
		}
	}

	// Initialize authentication if enabled
	var authService *auth.Service
	var authMiddleware *auth.Middleware
	var sessionManager *auth.SessionManager
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		authService = auth.NewService(userRepo, cfg.Auth)

		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}

		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)

		if cfg.Auth.SessionSecret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Auth.SessionSecret)
			}
		} else {
			secret, err := auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			csrfSecret, _ = hex.DecodeString(secret)
			log.Printf("Generated session secret (set BOUQUINEUR_AUTH_SESSION_SECRET to persist)")
		}

		hasUsers, _ := authService.HasUsers()
		if !hasUsers {
			log.Printf("No users found. Visit /setup to create the first account.")
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
		if err := userRepo.EnsureDefault(auth.DefaultUserID, "library"); err != nil {
			log.Fatalf("Failed to provision the default user: %v", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Books:          bookRepo,
		Authors:        authorRepo,
		Tags:           tagRepo,
		Series:         seriesRepo,
		Wishes:         wishRepo,
		Users:          userRepo,
		CoverStore:     coverStore,
		Providers:      registry,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		SessionManager: sessionManager,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		Version:        version,
	}
	if taskClient != nil {
		routerCfg.TaskClient = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if cleanupScheduler != nil {
			cleanupScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
