// Package app wires configuration, storage, clients and services together.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fundlens/fundlens/internal/cache"
	"github.com/fundlens/fundlens/internal/clients/eastmoney"
	"github.com/fundlens/fundlens/internal/clients/tiantian"
	"github.com/fundlens/fundlens/internal/common"
	"github.com/fundlens/fundlens/internal/interfaces"
	"github.com/fundlens/fundlens/internal/notify"
	"github.com/fundlens/fundlens/internal/services/alert"
	"github.com/fundlens/fundlens/internal/services/estimator"
	"github.com/fundlens/fundlens/internal/services/kline"
	badgerstore "github.com/fundlens/fundlens/internal/storage/badger"
)

// App holds all initialized services, clients and storage. It is the shared
// core behind cmd/fundlens-server.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	Cache            interfaces.Cache
	MarketClient     interfaces.FundDataClient
	RealtimeClient   interfaces.RealtimeNavClient
	EstimatorService interfaces.EstimatorService
	KlineService     interfaces.KlineService
	AlertService     interfaces.AlertService
	Hub              *notify.Hub
	StartupTime      time.Time

	schedulerCancel context.CancelFunc
}

// NewApp initializes all services, clients and storage from configuration.
// configPath may be empty, in which case FUNDLENS_CONFIG and then the binary
// directory are consulted.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("FUNDLENS_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "fundlens.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/fundlens.toml" // fallback for development
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

	storageManager, err := badgerstore.NewManager(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	marketClient := eastmoney.NewClient(
		eastmoney.WithLogger(logger),
		eastmoney.WithRateLimit(config.Clients.Eastmoney.RateLimit),
		eastmoney.WithTimeout(config.Clients.Eastmoney.GetTimeout()),
		eastmoney.WithBaseURLs(
			config.Clients.Eastmoney.FundBaseURL,
			config.Clients.Eastmoney.QuoteBaseURL,
			config.Clients.Eastmoney.KlineBaseURL,
		),
	)

	realtimeClient := tiantian.NewClient(
		tiantian.WithLogger(logger),
		tiantian.WithRateLimit(config.Clients.Tiantian.RateLimit),
		tiantian.WithTimeout(config.Clients.Tiantian.GetTimeout()),
		tiantian.WithBaseURL(config.Clients.Tiantian.BaseURL),
	)

	dataCache := cache.New()

	estimatorService := estimator.NewService(marketClient, realtimeClient, storageManager.FundStore(), dataCache, logger)
	estimatorService.SetResultTTL(config.Cache.GetRealtimeNavTTL())
	estimatorService.SetFundInfoTTL(config.Cache.GetFundInfoTTL())

	klineService := kline.NewService(marketClient, storageManager.FundStore(), dataCache, logger)
	klineService.SetSeriesTTL(config.Cache.GetKlineTTL())
	klineService.SetFundInfoTTL(config.Cache.GetFundInfoTTL())

	hub := notify.NewHub(logger)
	alertService := alert.NewService(estimatorService, storageManager.AlertStore(), hub, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		Cache:            dataCache,
		MarketClient:     marketClient,
		RealtimeClient:   realtimeClient,
		EstimatorService: estimatorService,
		KlineService:     klineService,
		AlertService:     alertService,
		Hub:              hub,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// StartSchedulers launches the background NAV sync, estimate refresh and
// alert polling goroutines.
func (a *App) StartSchedulers() {
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	go startNavSync(ctx, a.RealtimeClient, a.Storage.FundStore(), a.Logger, a.Config.Refresh.GetNavSyncInterval())
	go startEstimateRefresh(ctx, a.EstimatorService, a.Storage.FundStore(), a.Logger, a.Config.Refresh.GetEstimateInterval())
	go startAlertPolling(ctx, a.AlertService, a.Logger, a.Config.Refresh.GetAlertInterval())
}

// Close releases all resources held by the App.
// Shutdown order: cancel schedulers, disconnect subscribers, close storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
