package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/panelkitchens/quotekit/pkg/blobclient"
	"github.com/panelkitchens/quotekit/pkg/catalog"
	"github.com/panelkitchens/quotekit/pkg/config"
	"github.com/panelkitchens/quotekit/pkg/db"
	"github.com/panelkitchens/quotekit/pkg/document"
	"github.com/panelkitchens/quotekit/pkg/history"
	"github.com/panelkitchens/quotekit/pkg/httpservice"
	"github.com/panelkitchens/quotekit/pkg/jwt"
	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/quoteservice"
	"github.com/panelkitchens/quotekit/pkg/servicebusclient"
	"github.com/panelkitchens/quotekit/pkg/telemetry"
)

func main() {
	configFile := flag.String("config", "", "optional YAML or JSON config file; environment variables take precedence")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync(logger)
	logger = logger.With(logging.NewField("service", cfg.AppName), logging.NewField("env", cfg.Environment))

	if err := run(cfg, logger); err != nil {
		logger.Error("Service stopped", logging.NewField("error", err))
		logging.Sync(logger)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfigFromFile(path)
	}
	return config.LoadConfigFromEnv()
}

func run(cfg *config.Config, logger logging.Logger) error {
	logger.Info("Starting quote service", logging.NewField("version", cfg.AppVersion))
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.NewNewRelicClient(cfg.NewRelicConfig(), logger)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer tel.Shutdown(10 * time.Second)

	blobs, err := newBlobClient(cfg, logger)
	if err != nil {
		return err
	}
	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := publisher.Close(closeCtx); err != nil {
			logger.Warn("Service Bus close failed", logging.NewField("error", err))
		}
	}()

	store, closeStore, err := newHistoryStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	assets := document.LoadAssets(cfg.AssetsDir, cfg.AssetFiles(), logger)
	gen := document.NewGenerator(cfg.DocumentConfig(), assets, logger)
	svc := quoteservice.NewService(gen, blobs, publisher, store, tel, quoteservice.Options{
		Container:       cfg.BlobContainer,
		Topic:           cfg.ServiceBusTopic,
		AccessTier:      cfg.BlobAccessTier,
		Retry:           cfg.RetryConfig(),
		GenerateTimeout: time.Duration(cfg.GenerateTimeout) * time.Second,
	}, logger)

	var tokens *jwt.TokenService
	if cfg.JWTConfig().Enabled() {
		if tokens, err = jwt.NewTokenServiceFromConfig(cfg.JWTConfig(), logger); err != nil {
			return fmt.Errorf("jwt: %w", err)
		}
	} else {
		logger.Warn("JWT_SECRET not set, quote API is unauthenticated")
	}

	handler := quoteservice.NewHandler(quoteservice.HandlerConfig{
		Service:     svc,
		Catalogs:    catalog.NewLoader(cfg.CatalogCacheSize, logger),
		CatalogPath: cfg.CatalogPath,
		Tokens:      tokens,
		Logger:      logger,
	})

	server, err := httpservice.NewServer(httpservice.ServerConfig{
		Port:           cfg.HTTPPort,
		ReadTimeout:    time.Duration(cfg.HTTPReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.HTTPWriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.HTTPIdleTimeout) * time.Second,
		Logger:         logger,
		ServiceName:    cfg.AppName,
		RateLimitRPS:   cfg.HTTPRateLimit,
		RateLimitBurst: cfg.HTTPRateBurst,
		MaxBodySize:    cfg.HTTPMaxBodyBytes,
		Telemetry:      tel,
		SlowThreshold:  time.Duration(cfg.SlowRequestThreshold) * time.Millisecond,
		Middleware:     []gin.HandlerFunc{tel.TransactionMiddleware()},
	}, handler)
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Quote service stopped")
	return nil
}

func newBlobClient(cfg *config.Config, logger logging.Logger) (blobclient.BlobClient, error) {
	if !cfg.BlobEnabled() {
		logger.Info("Using mock blob client (no account name configured)")
		return blobclient.NewMockBlobClient(), nil
	}
	c, err := blobclient.NewAzureBlobClient(cfg.BlobStorageAccountName, cfg.BlobStorageAccountKey, cfg.BlobStorageAccountKey == "", logger)
	if err != nil {
		return nil, fmt.Errorf("blob client: %w", err)
	}
	return c, nil
}

func newPublisher(cfg *config.Config, logger logging.Logger) (servicebusclient.Publisher, error) {
	if !cfg.ServiceBusEnabled() {
		logger.Info("Using mock Service Bus client (no namespace configured)")
		return servicebusclient.NewMockServiceBusClient(), nil
	}
	c, err := servicebusclient.NewAzureServiceBusClient(cfg.ServiceBusNamespace, cfg.ServiceBusKeyName, cfg.ServiceBusKeyValue,
		cfg.ServiceBusKeyName == "", logger)
	if err != nil {
		return nil, fmt.Errorf("service bus client: %w", err)
	}
	return c, nil
}

func newHistoryStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (history.Store, func(), error) {
	if cfg.DatabaseDSN == "" {
		logger.Info("Using in-memory quote history (no DATABASE_DSN configured)")
		return history.NewMemoryStore(), func() {}, nil
	}
	database, err := db.NewPostgresDB(ctx, cfg.DatabaseDSN, db.DefaultPoolConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	store := history.NewPostgresStore(database)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("history schema: %w", err)
	}
	return store, func() { _ = database.Close() }, nil
}
