package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Recorder stores inconsistency records; the reconciliation ledger.
type Recorder interface {
	Record(ctx context.Context, rec domain.Inconsistency) error
}

// KafkaConsumer copies inconsistency events into the ledger. An offset is
// committed only after the record is stored.
type KafkaConsumer struct {
	reader messageReader
	ledger Recorder
	logger *zap.Logger
}

func NewKafkaConsumer(brokers []string, groupID, topic string, ledger Recorder, logger *zap.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // 수동 커밋
		StartOffset:    kafka.FirstOffset,
	})
	return newKafkaConsumer(reader, ledger, logger)
}

func newKafkaConsumer(reader messageReader, ledger Recorder, logger *zap.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader: reader,
		ledger: ledger,
		logger: logger,
	}
}

// Run consumes until ctx is done. A ledger failure stops the consumer with
// the message uncommitted, so it is delivered again after restart.
func (kc *KafkaConsumer) Run(ctx context.Context) error {
	defer kc.reader.Close()
	kc.logger.Info("Kafka consumer started")

	for {
		msg, err := kc.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				kc.logger.Info("Kafka consumer stopped")
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := kc.processMessage(ctx, msg); err != nil {
			if errors.Is(err, errMalformedEvent) {
				// 재처리해도 실패하므로 건너뜀
				kc.logger.Error("Skipping malformed message",
					zap.String("topic", msg.Topic),
					zap.Int("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err))
			} else {
				return fmt.Errorf("process message at offset %d: %w", msg.Offset, err)
			}
		}

		if err := kc.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit message: %w", err)
		}
	}
}

var errMalformedEvent = errors.New("malformed event")

func (kc *KafkaConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	kc.logger.Info("Processing message",
		zap.String("topic", msg.Topic),
		zap.String("key", string(msg.Key)),
		zap.Int64("offset", msg.Offset))

	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return fmt.Errorf("%w: %w", errMalformedEvent, err)
	}
	if env.EventType != EventInventoryInconsistency {
		kc.logger.Debug("Ignoring event", zap.String("event_type", env.EventType))
		return nil
	}

	var event InventoryInconsistencyEvent
	if err := json.Unmarshal(env.Payload, &event); err != nil {
		return fmt.Errorf("%w: %w", errMalformedEvent, err)
	}
	if event.RecordID == "" {
		return fmt.Errorf("%w: missing record_id", errMalformedEvent)
	}

	if err := kc.ledger.Record(ctx, event.Inconsistency); err != nil {
		kc.logger.Error("Failed to record inconsistency",
			zap.String("record_id", event.RecordID),
			zap.Error(err))
		return err
	}

	kc.logger.Info("Inconsistency recorded",
		zap.String("event_id", env.EventID),
		zap.String("record_id", event.RecordID),
		zap.String("product_id", event.ProductID.String()),
		zap.Int64("quantity", event.Quantity))
	return nil
}
