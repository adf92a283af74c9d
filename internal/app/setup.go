package app

import (
	"context"
	"fmt"

	"github.com/polybasket/polybasket/internal/basket"
	"github.com/polybasket/polybasket/internal/feed"
	"github.com/polybasket/polybasket/internal/markets"
	"github.com/polybasket/polybasket/internal/storage"
	"github.com/polybasket/polybasket/internal/trader"
	"github.com/polybasket/polybasket/pkg/cache"
	"github.com/polybasket/polybasket/pkg/config"
	"github.com/polybasket/polybasket/pkg/healthprobe"
	"github.com/polybasket/polybasket/pkg/httpserver"
	"github.com/polybasket/polybasket/pkg/types"
	"github.com/polybasket/polybasket/pkg/websocket"
	"go.uber.org/zap"
)

// New creates a new application instance. Market metadata is resolved here;
// a basket that cannot be resolved fails startup.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	marketCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	basketTokens, err := setupBasket(ctx, cfg, logger, marketCache)
	if err != nil {
		cancel()
		marketCache.Close()
		return nil, fmt.Errorf("resolve basket: %w", err)
	}

	assetIDs, assetMeta := types.BuildAssetMeta(basketTokens)

	client := setupStreamClient(cfg, logger, assetIDs)

	writer, err := setupWriter(cfg, logger)
	if err != nil {
		cancel()
		marketCache.Close()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	projector := storage.NewProjector(storage.ProjectorConfig{
		Writer:     writer,
		EventID:    cfg.EventID,
		Interval:   cfg.DBInterval,
		WriteTicks: cfg.WriteTicks,
		Meta:       assetMeta,
		Logger:     logger,
	})

	evaluator := basket.New(basket.Config{
		Markets:   basketTokens,
		Threshold: cfg.Threshold,
		Logger:    logger,
	})

	paperTrader := trader.New(trader.Config{
		Markets:   basketTokens,
		Qty:       cfg.Qty,
		FeeRate:   cfg.FeeRate,
		Threshold: cfg.Threshold,
		Logger:    logger,
	})

	board := &statusBoard{}

	coordinator := NewCoordinator(CoordinatorConfig{
		Parser:        feed.NewParser(logger),
		Evaluator:     evaluator,
		Trader:        paperTrader,
		Projector:     projector,
		Board:         board,
		Health:        healthChecker,
		PrintInterval: cfg.PrintInterval,
		Logger:        logger,
	})

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Status:        board,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		client:        client,
		coordinator:   coordinator,
		writer:        writer,
		marketCache:   marketCache,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupBasket(ctx context.Context, cfg *config.Config, logger *zap.Logger, marketCache cache.Cache) ([]types.MarketTokens, error) {
	gamma := markets.NewGammaClient(cfg.GammaBaseURL, logger)
	cached := markets.NewCachedClient(gamma, marketCache)

	basketTokens, err := markets.FetchBasket(ctx, cached, cfg.MarketIDs, logger)
	if err != nil {
		return nil, err
	}

	for _, m := range basketTokens {
		logger.Info("basket-market-resolved",
			zap.Int64("market-id", m.MarketID),
			zap.String("question", m.Question),
			zap.String("yes-asset-id", m.YesAssetID),
			zap.String("no-asset-id", m.NoAssetID))
	}

	return basketTokens, nil
}

func setupStreamClient(cfg *config.Config, logger *zap.Logger, assetIDs []string) *websocket.Client {
	return websocket.New(websocket.Config{
		URL:      cfg.WSURL,
		AssetIDs: assetIDs,
		Auth: websocket.Auth{
			APIKey:     cfg.APIKey,
			Secret:     cfg.APISecret,
			Passphrase: cfg.APIPassphrase,
		},
		PingInterval:   cfg.PingInterval,
		RecvTimeout:    cfg.RecvTimeout(),
		DialTimeout:    cfg.DialTimeout,
		ReconnectDelay: cfg.ReconnectDelay,
		FrameBuffer:    cfg.FrameBufferSize,
		Logger:         logger,
	})
}

func setupWriter(cfg *config.Config, logger *zap.Logger) (storage.Writer, error) {
	if !cfg.WriteDB {
		return storage.NewConsoleWriter(logger), nil
	}

	writer, err := storage.NewPostgresWriter(&storage.PostgresConfig{
		DatabaseURL: cfg.DatabaseURL,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create postgres writer: %w", err)
	}
	return writer, nil
}
