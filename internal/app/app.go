package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/sift/internal/clients/gemini"
	"github.com/bobmcallan/sift/internal/clients/yahoo"
	"github.com/bobmcallan/sift/internal/common"
	"github.com/bobmcallan/sift/internal/interfaces"
	"github.com/bobmcallan/sift/internal/services/feedback"
	"github.com/bobmcallan/sift/internal/services/scanner"
	"github.com/bobmcallan/sift/internal/storage"
)

// App holds all initialized services and clients. It is the shared core
// behind cmd/sift-server and the test harnesses.
type App struct {
	Config          *common.Config
	Logger          *common.Logger
	Storage         interfaces.StorageManager
	MarketClient    interfaces.MarketDataClient
	InferenceClient interfaces.InferenceClient
	ScannerService  interfaces.ScannerService
	FeedbackService interfaces.FeedbackService
	Clock           *common.MarketClock
	StartupTime     time.Time

	scheduler *scanScheduler
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	// Get binary directory for self-contained operation
	binDir := getBinaryDir()

	// Load configuration - check provided path, SIFT_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("SIFT_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "sift.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/sift.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	clock, err := common.NewMarketClock(config.Scan.Timezone)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("invalid scan timezone: %w", err)
	}

	marketClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Market.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(config.Clients.Market.RateLimit),
		yahoo.WithTimeout(config.Clients.Market.GetTimeout()),
		yahoo.WithUserAgent(config.Clients.Market.UserAgent),
	)

	var inferenceClient interfaces.InferenceClient
	if len(config.Clients.Gemini.APIKeys) > 0 {
		client, err := gemini.NewClient(config.Clients.Gemini.APIKeys, config.Clients.Gemini.Models,
			gemini.WithLogger(logger),
			gemini.WithTemperature(config.Clients.Gemini.Temperature),
			gemini.WithMaxTokens(config.Clients.Gemini.MaxTokens),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client - AI scanning will be unavailable")
		} else {
			inferenceClient = client
		}
	} else {
		logger.Warn().Msg("No Gemini API keys configured - AI scanning will be unavailable")
	}

	feedbackService := feedback.NewService(storageManager, logger)
	scannerService := scanner.NewService(storageManager, marketClient, inferenceClient, feedbackService, clock, config, logger)

	a := &App{
		Config:          config,
		Logger:          logger,
		Storage:         storageManager,
		MarketClient:    marketClient,
		InferenceClient: inferenceClient,
		ScannerService:  scannerService,
		FeedbackService: feedbackService,
		Clock:           clock,
		StartupTime:     startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// StartScheduler launches the cron-driven scan cycles. A no-op when the
// scheduler is disabled or no inference client is configured.
func (a *App) StartScheduler() error {
	if !a.Config.Scan.EnableScheduler {
		a.Logger.Info().Msg("Scan scheduler disabled by config")
		return nil
	}
	if a.InferenceClient == nil {
		a.Logger.Warn().Msg("Scan scheduler not started: no inference client")
		return nil
	}

	sched, err := newScanScheduler(a.ScannerService, a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to build scan scheduler: %w", err)
	}
	sched.Start()
	a.scheduler = sched
	return nil
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, close storage.
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
		a.scheduler = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
