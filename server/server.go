package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"melodex/cache"
	"melodex/config"
	"melodex/core/library"
	"melodex/db"
	"melodex/logger"
	"melodex/model"
	"melodex/repository"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database with GORM: %v", err)
	}
	defer db.CloseGormDB()

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Redis is a cache in front of the catalog; the server degrades to
	// database lookups when it is unavailable.
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, track cache disabled", logger.ErrorField(err))
	} else {
		defer cache.CloseRedis()
		logger.Info("Successfully connected to Redis")
	}

	trackRepo := repository.NewMySQLTrackRepository(db.DB)
	artistRepo := repository.NewGormArtistRepository(db.GormDB)

	scanner := library.NewScanner(cfg, artistRepo, trackRepo)
	scanHub := NewScanHub()
	scanner.OnProgress(scanHub.Broadcast)

	apiHandler := NewAPIHandler(trackRepo, artistRepo, scanner, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Song API
	router.HandleFunc("/api/songs", apiHandler.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/top", apiHandler.GetTopTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", apiHandler.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}/play", apiHandler.PlayTrackHandler).Methods(http.MethodPost)

	// Artist API
	router.HandleFunc("/api/artists", apiHandler.GetArtistsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artists/{id}", apiHandler.GetArtistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artists/{id}/songs", apiHandler.GetArtistTracksHandler).Methods(http.MethodGet)

	// Library administration
	router.HandleFunc("/api/admin/library/scan", apiHandler.ScanLibraryHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/admin/library/stats", apiHandler.LibraryStatsHandler).Methods(http.MethodGet)

	// Streaming endpoint with byte-range support
	router.HandleFunc("/api/stream/{track_id}", apiHandler.StreamTrackHandler).Methods(http.MethodGet, http.MethodHead)

	// Live scan progress
	router.HandleFunc("/ws/scan", scanHub.HandleWS)

	server.Handler = router

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.ScanOnStartup {
		go func() {
			report := scanner.Scan(ctx)
			if report.Status != model.ScanStatusSuccess {
				logger.Error("Startup library scan failed", logger.String("message", report.Message))
			}
		}()
	}

	if cfg.WatchLibrary {
		watcher := library.NewWatcher(scanner, cfg.LibraryPath)
		if err := watcher.Start(ctx); err != nil {
			logger.Error("Failed to start library watcher", logger.ErrorField(err))
		}
	}

	go func() {
		logger.Info("Server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}
}

// corsMiddleware allows browser clients on other origins to call the API
// and exposes the range headers the audio player needs.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
