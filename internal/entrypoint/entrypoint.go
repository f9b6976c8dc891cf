// Package entrypoint boots the service: database, repositories, lifecycle
// manager, reconciliation scheduler, and the HTTP server with graceful
// shutdown.
package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/katsura919/book-master-server/internal/auth"
	"github.com/katsura919/book-master-server/internal/borrowing"
	"github.com/katsura919/book-master-server/internal/config"
	"github.com/katsura919/book-master-server/internal/database"
	"github.com/katsura919/book-master-server/internal/database/catalog"
	"github.com/katsura919/book-master-server/internal/database/requests"
	http_controllers "github.com/katsura919/book-master-server/internal/http"
	"github.com/katsura919/book-master-server/internal/policy"
	"github.com/katsura919/book-master-server/internal/reconcile"
	"github.com/katsura919/book-master-server/internal/scheduler"
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
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the reconcile scheduler)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Book Master v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Repositories and the lifecycle manager
	catalogRepo := catalog.NewRepository(db.DB)
	requestsRepo := requests.NewRepository(db.DB)
	borrowingService := borrowing.NewService(requestsRepo, catalogRepo, policy.Default())

	// Reconciliation engine and its scheduler
	var reconcileScheduler *scheduler.ReconcileScheduler
	if cfg.Reconcile.Enabled {
		engine := reconcile.NewEngine(requestsRepo, cfg.Reconcile.PenaltyPerHour)
		reconcileScheduler = scheduler.NewReconcileScheduler(engine, cfg.Reconcile.Schedule)
		if err := reconcileScheduler.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start reconcile scheduler: %v", err)
		}
	} else {
		log.Printf("Reconcile scheduler: disabled")
	}

	// Authentication
	authService, err := auth.NewService(db.DB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize auth service: %v", err)
	}
	if cfg.Auth.Enabled {
		log.Printf("Authentication: enabled for staff routes")
	} else {
		log.Printf("Authentication: disabled (staff routes are open)")
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Database:          db,
		Catalog:           catalogRepo,
		Requests:          requestsRepo,
		Borrowing:         borrowingService,
		AuthService:       authService,
		MaxCoverSizeBytes: cfg.Upload.MaxCoverSizeBytes,
		Version:           version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		if reconcileScheduler != nil {
			reconcileScheduler.Stop()
		}
	}

	Serve(router, cfg, onShutdown)
}
