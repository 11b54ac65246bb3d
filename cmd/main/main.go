package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gitlab.com/riveops/api/rive-voice-intake/internal/analyzer"
	"gitlab.com/riveops/api/rive-voice-intake/internal/config"
	"gitlab.com/riveops/api/rive-voice-intake/internal/healthcheck"
	"gitlab.com/riveops/api/rive-voice-intake/internal/observer"
	"gitlab.com/riveops/api/rive-voice-intake/internal/queue"
	"gitlab.com/riveops/api/rive-voice-intake/internal/server"
	"gitlab.com/riveops/api/rive-voice-intake/internal/sheets"
	"gitlab.com/riveops/api/rive-voice-intake/internal/storage"
	"gitlab.com/riveops/api/rive-voice-intake/internal/usecase"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Initialize Metrics conditionally
	metricsEnabled := cfg.Metrics.Enabled
	observer.InitMetrics(metricsEnabled)

	// Timestamps written to the sheet and the database carry this
	// location's offset.
	loc := utils.LoadLocationOrUTC(cfg.Timezone)

	// Log startup information
	logger.Log.Info("Starting Rive Voice Intake",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", loc.String()),
		zap.String("database_path", cfg.Database.Path),
	)

	// Initialize repository
	sqliteRepo, err := initSqliteRepo(cfg.Database.Path, cfg.Database.AutoMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize SQLite repository", zap.Error(err))
	}

	// Create repository adapters for the services
	eventRepo := storage.NewEventRepoAdapter(sqliteRepo)
	callRepo := storage.NewCallRepoAdapter(sqliteRepo)
	writeLedger := storage.NewWriteLedgerAdapter(sqliteRepo)
	toolRunRepo := storage.NewToolRunRepoAdapter(sqliteRepo)

	// Sheet writer: Apps Script when configured, otherwise a no-op
	// writer so local runs don't touch the real spreadsheet.
	var sheetWriter sheets.Writer
	if cfg.Sheets.AppsScriptURL != "" && cfg.Sheets.AppsScriptToken != "" {
		writer, err := sheets.NewAppsScriptWriter(cfg.Sheets.AppsScriptURL, cfg.Sheets.AppsScriptToken, cfg.Sheets.Timeout)
		if err != nil {
			logger.Log.Fatal("Failed to initialize sheets writer", zap.Error(err))
		}
		sheetWriter = writer
	} else {
		logger.Log.Warn("Apps Script URL or token not set, sheet appends disabled")
		sheetWriter = sheets.NewNoopWriter()
	}

	// Analyzer: optional, the pipeline degrades to logging calls
	// without classification when no API key is configured.
	var analysisClient analyzer.Analyzer
	if cfg.Bland.APIKey != "" {
		client, err := analyzer.NewBlandClient(cfg.Bland.BaseURL, cfg.Bland.APIKey, cfg.Bland.Timeout)
		if err != nil {
			logger.Log.Fatal("Failed to initialize analyzer client", zap.Error(err))
		}
		analysisClient = client
	} else {
		logger.Log.Warn("Analyzer API key not set, call analysis disabled")
	}

	// Create the completion pipeline and its queue
	pipeline := usecase.NewCompletionPipeline(callRepo, writeLedger, sheetWriter, analysisClient, loc)
	eventQueue := queue.NewEventQueue(pipeline.ProcessEvent, cfg.Queue.ItemTimeout, cfg.Queue.StopDrainWait)

	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()
	eventQueue.Start(mainCtx)

	// Create services backing the HTTP surface
	intakeService := usecase.NewIntakeService(eventRepo, eventQueue, loc)
	toolService := usecase.NewToolService(writeLedger, toolRunRepo, sheetWriter, loc)

	// Create the main HTTP server
	httpServer := server.New(cfg.Server.Port, cfg.Environment, server.Options{
		WebhookSecret:     cfg.Bland.WebhookSecret,
		ToolsSharedSecret: cfg.Tools.SharedSecret,
		Intake:            intakeService,
		Tools:             toolService,
		Calls:             callRepo,
		Events:            eventRepo,
		ToolRuns:          toolRunRepo,
	})

	// Create health check server
	healthServer := healthcheck.NewServer(strconv.Itoa(cfg.Ops.Port), logger.Log, sqliteRepo)

	// Register metrics handler if enabled BEFORE starting the server
	if metricsEnabled {
		healthServer.RegisterMetricsHandler(promhttp.Handler())
		logger.Log.Info("Metrics endpoint enabled", zap.String("path", "/metrics"), zap.Int("port", cfg.Ops.Port))
	} else {
		logger.Log.Info("Metrics endpoint disabled for environment", zap.String("environment", cfg.Environment))
	}

	// Start health check server (which now might include /metrics)
	healthServer.Start()

	logger.Log.Info("Health check endpoints available",
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", cfg.Ops.Port)),
		zap.String("readiness", fmt.Sprintf("http://localhost:%d/ready", cfg.Ops.Port)),
	)

	// Start the main HTTP server; a listener failure brings the
	// process down the same way a termination signal would.
	sigChan := make(chan os.Signal, 1)
	utils.SafeGo(func() {
		if err := httpServer.Start(); err != nil {
			logger.Log.Error("HTTP server failed, initiating shutdown...", zap.Error(err))
			mainCancel()
			select {
			case sigChan <- syscall.SIGTERM:
			default:
				logger.Log.Warn("Could not send SIGTERM to signal channel immediately")
			}
		}
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("Panic in HTTP server",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		mainCancel()
	})

	// Wait for termination signal
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info("Received termination signal", zap.String("signal", sig.String()))

	mainCancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Log.Info("Starting graceful shutdown", zap.Duration("timeout", 30*time.Second))

	// Stop the HTTP server first so no new events arrive, then drain
	// the queue so accepted events finish their pipeline run, then
	// release the rest.
	logger.Log.Info("[shutdown] Stopping HTTP server")
	start := time.Now()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("[shutdown] Error stopping HTTP server", zap.Error(err))
	} else {
		logger.Log.Info("[shutdown] HTTP server stopped",
			zap.Duration("duration", time.Since(start)))
	}

	logger.Log.Info("[shutdown] Draining event queue")
	start = time.Now()
	eventQueue.Stop()
	logger.Log.Info("[shutdown] Event queue stopped",
		zap.Duration("duration", time.Since(start)),
		zap.Int("remaining", eventQueue.Depth()))

	// Health server and database can go down together
	var wg sync.WaitGroup
	wg.Add(2)

	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Stopping health check server")
		start := time.Now()
		if err := healthServer.Stop(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Error stopping health check server", zap.Error(err))
		} else {
			logger.Log.Info("[shutdown] Health check server stopped",
				zap.Duration("duration", time.Since(start)))
		}
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while stopping health check server",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	utils.SafeGo(func() {
		defer wg.Done()
		logger.Log.Info("[shutdown] Closing SQLite connection")
		start := time.Now()
		if err := sqliteRepo.Close(shutdownCtx); err != nil {
			logger.Log.Error("[shutdown] Failed to close SQLite connection", zap.Error(err))
		} else {
			logger.Log.Info("[shutdown] SQLite connection closed",
				zap.Duration("duration", time.Since(start)))
		}
	}, func(r interface{}, stack []byte) {
		logger.Log.Error("[shutdown] Panic while closing database connection",
			zap.Any("panic", r),
			zap.ByteString("stack", stack),
		)
		wg.Done()
	})

	// Wait with a timeout for all components to shut down
	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Log.Info("[shutdown] All components stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Log.Warn("[shutdown] Graceful shutdown timed out, forcing exit")
	}

	logger.Log.Info("Rive Voice Intake shutdown complete")
}

// Initialize SQLite repository
func initSqliteRepo(path string, autoMigrate bool) (*storage.SqliteRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	repo, err := storage.NewSqliteRepo(path, autoMigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sqlite repository: %w", err)
	}

	logger.Log.Info("Initialized SQLite repository", zap.String("path", path))
	return repo, nil
}
