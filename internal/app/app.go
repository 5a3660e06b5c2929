package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cloud-wave-best-zizon/order-service/internal/events"
	"github.com/cloud-wave-best-zizon/order-service/internal/handler"
	"github.com/cloud-wave-best-zizon/order-service/internal/idempotency"
	"github.com/cloud-wave-best-zizon/order-service/internal/query"
	"github.com/cloud-wave-best-zizon/order-service/internal/reconcile"
	"github.com/cloud-wave-best-zizon/order-service/internal/repository"
	"github.com/cloud-wave-best-zizon/order-service/internal/service"
	"github.com/cloud-wave-best-zizon/order-service/pkg/config"
	"github.com/cloud-wave-best-zizon/order-service/pkg/tls"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// App is the wired orders API together with the resources it owns.
type App struct {
	Router *gin.Engine
	// PostRouter serves the orders-post trigger: every call creates an order.
	PostRouter *gin.Engine
	TLS        *tls.Source

	closers []func() error
	logger  *zap.Logger
}

// Build connects every configured backend and wires the router. Optional
// backends (Kafka, Redis, DynamoDB) are skipped when not configured.
func Build(ctx context.Context, cfg *config.Config, tlsCfg *tls.TLSConfig, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	source, err := tls.NewSource(ctx, tlsCfg, logger)
	if err != nil {
		return nil, err
	}
	a.TLS = source
	a.closers = append(a.closers, source.Close)

	exec, err := a.executor(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	productRepo := repository.NewProductRepository(exec)
	inventoryRepo := repository.NewInventoryRepository(exec)
	orderRepo := repository.NewOrderRepository(exec)

	orderOpts := []service.OrderServiceOption{
		service.WithCompensationTimeout(cfg.CompensationTimeout),
	}
	adminOpts := service.AdminOptions{
		ResetEnabled:  cfg.AdminResetEnabled,
		ResetQuantity: int64(cfg.ResetStockQuantity),
	}

	if cfg.EventsEnabled() {
		producer := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic, cfg.KafkaInconsistencyTopic, cfg.FunctionName, logger)
		a.closers = append(a.closers, producer.Close)
		orderOpts = append(orderOpts, service.WithNotifier(producer))
		logger.Info("Kafka events enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("order_topic", cfg.KafkaOrderTopic))
	}

	if cfg.ReconciliationTableName != "" {
		dynamoClient, err := reconcile.NewDynamoDBClient(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create DynamoDB client: %w", err)
		}
		ledger := reconcile.NewLedger(dynamoClient, cfg.ReconciliationTableName)
		orderOpts = append(orderOpts, service.WithLedger(ledger))
		adminOpts.Ledger = ledger
	}

	// nil 인터페이스로 넘겨야 핸들러가 비활성으로 인식
	var idem handler.IdempotencyStore
	if cfg.IdempotencyEnabled() {
		rdb := idempotency.NewClient(cfg.RedisAddr)
		a.closers = append(a.closers, rdb.Close)
		idem = idempotency.NewRedisStore(rdb, cfg.IdempotencyTTL)
		logger.Info("Idempotency keys enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	catalogService := service.NewCatalogService(productRepo, logger)
	orderService := service.NewOrderService(productRepo, inventoryRepo, orderRepo, logger, orderOpts...)
	adminService := service.NewAdminService(inventoryRepo, adminOpts, logger)

	info := handler.ServerInfo{
		Function: cfg.FunctionName,
		Platform: cfg.Platform,
		Region:   cfg.Region,
	}
	orderHandler := handler.NewOrderHandler(orderService, idem, logger)
	a.Router = handler.NewRouter(handler.Handlers{
		Products: handler.NewProductHandler(catalogService, info, logger),
		Orders:   orderHandler,
		Admin:    handler.NewAdminHandler(adminService, logger),
	}, logger)

	postInfo := info
	postInfo.Function = handler.PostFunctionName
	a.PostRouter = handler.NewOrderPostRouter(orderHandler.WithServerInfo(postInfo), logger)

	return a, nil
}

func (a *App) executor(ctx context.Context, cfg *config.Config) (query.Executor, error) {
	if cfg.StoreDriver == config.StoreDriverPostgres {
		pool, err := query.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})
		a.logger.Info("Using direct PostgreSQL store")
		return query.NewPostgresExecutor(pool), nil
	}

	client := &http.Client{Timeout: cfg.QueryTimeout}
	if a.TLS != nil {
		tlsConfig, err := a.TLS.ClientConfig()
		if err != nil {
			return nil, err
		}
		client.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}

	a.logger.Info("Using query proxy store", zap.String("endpoint", cfg.QueryProxyURL))
	return query.NewProxyExecutor(cfg.QueryProxyURL,
		query.WithBasicAuth(cfg.QueryProxyUser, cfg.QueryProxyPassword),
		query.WithHTTPClient(client),
	), nil
}

// Close releases everything Build opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
