package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"

	"github.com/maincoong/cleophee-centrist-api/internal/adapters/browser"
	"github.com/maincoong/cleophee-centrist-api/internal/adapters/cache"
	"github.com/maincoong/cleophee-centrist-api/internal/adapters/extractor"
	"github.com/maincoong/cleophee-centrist-api/internal/adapters/fetch"
	logger_adapter "github.com/maincoong/cleophee-centrist-api/internal/adapters/logger"
	"github.com/maincoong/cleophee-centrist-api/internal/adapters/rest"
	"github.com/maincoong/cleophee-centrist-api/internal/configs"
	"github.com/maincoong/cleophee-centrist-api/internal/core/port"
	"github.com/maincoong/cleophee-centrist-api/internal/core/usecase"
	"github.com/maincoong/cleophee-centrist-api/pkg/fluentlogger"
)

type App struct {
	config    *configs.AppConfig
	apiServer *rest.Server

	browserManager *browser.Manager
	logger         port.LoggerPort
	fluentClient   *fluent.Fluent
}

func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: true,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// Single shared headless browser behind the BrowserPort. Chrome starts
	// lazily on the first rendered-tier fetch, not at boot.
	browserManager := browser.NewManager(browser.Config{
		Headless:  appConfig.Browser.Headless,
		UserAgent: appConfig.Browser.UserAgent,
	}, baseLogger.WithFields(port.Fields{"component": "browser"}))

	directFetcher, err := fetch.NewDirectFetcher(appConfig.Extraction.DirectTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create direct fetcher: %w", err)
	}
	renderedFetcher := fetch.NewRenderedFetcher(browserManager, appConfig.Extraction.NavigateTimeout, appConfig.Extraction.ContentTimeout)
	structuredFetcher := fetch.NewStructuredFetcher(browserManager, appConfig.Extraction.NavigateTimeout, appConfig.Extraction.EvalTimeout)

	resultCache := cache.NewResultCache(appConfig.Cache.FreshTTL, appConfig.Cache.StaleTTL)

	extractors := []port.SiteExtractorPort{
		extractor.NewCentrisExtractor(appConfig.Extraction.AnnualFeeThreshold),
		extractor.NewDuProprioExtractor(appConfig.Extraction.AnnualFeeThreshold),
	}

	extractListingUseCase := usecase.NewExtractListingUseCase(
		resultCache,
		directFetcher,
		renderedFetcher,
		structuredFetcher,
		extractors,
		usecase.Config{
			ExtractionTimeout: appConfig.Extraction.Timeout,
			WaiterTimeout:     appConfig.Extraction.WaiterTimeout,
			MaxConcurrent:     int64(appConfig.Extraction.MaxConcurrent),
		},
		baseLogger,
	)

	appLogger.Info("All use cases initialized", nil)

	apiHandlers := rest.NewListingHandlers(extractListingUseCase)
	apiServer := rest.NewServer(appConfig.Rest.PORT, apiHandlers, appConfig.Rest.AllowedOrigins, baseLogger)

	return &App{
		config:         appConfig,
		apiServer:      apiServer,
		browserManager: browserManager,
		logger:         appLogger,
		fluentClient:   fluentClient,
	}, nil
}

// Run starts the HTTP server and blocks until a shutdown signal or a server
// error, then tears components down in reverse order: drain HTTP first, then
// the browser, then the log shipper.
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		if a.apiServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			if err := a.apiServer.Stop(shutdownCtx); err != nil {
				a.logger.Error("Error during API server shutdown", err, nil)
			}
			cancel()
		}

		if a.browserManager != nil {
			a.browserManager.Shutdown()
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				// stdout here, fluent itself may already be gone
				fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.PORT})
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down...", nil)
	case err := <-serverErrors:
		a.logger.Error("HTTP server failed to start, shutting down", err, nil)
	}

	cancelApp()

	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
