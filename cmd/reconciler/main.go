// Command reconciler copies inventory inconsistency events from Kafka into
// the DynamoDB reconciliation ledger.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/cloud-wave-best-zizon/order-service/internal/events"
	"github.com/cloud-wave-best-zizon/order-service/internal/reconcile"
	"github.com/cloud-wave-best-zizon/order-service/pkg/config"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if !cfg.EventsEnabled() {
		logger.Fatal("KAFKA_BROKERS is required")
	}
	if cfg.ReconciliationTableName == "" {
		logger.Fatal("RECONCILIATION_TABLE_NAME is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dynamoClient, err := reconcile.NewDynamoDBClient(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create DynamoDB client", zap.Error(err))
	}
	ledger := reconcile.NewLedger(dynamoClient, cfg.ReconciliationTableName)

	consumer := events.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaInconsistencyTopic, ledger, logger)

	logger.Info("Reconciler started",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaInconsistencyTopic),
		zap.String("group_id", cfg.KafkaGroupID),
		zap.String("table", cfg.ReconciliationTableName))

	if err := consumer.Run(ctx); err != nil {
		logger.Fatal("Reconciler stopped", zap.Error(err))
	}
	logger.Info("Reconciler exited")
}
