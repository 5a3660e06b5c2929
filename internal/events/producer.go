package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const defaultPublishTimeout = 10 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer publishes order outcomes. It is the service's Notifier.
type KafkaProducer struct {
	orders          messageWriter
	inconsistencies messageWriter
	producer        string
	timeout         time.Duration
	logger          *zap.Logger
	now             func() time.Time
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

func NewKafkaProducer(brokers []string, orderTopic, inconsistencyTopic, producer string, logger *zap.Logger) *KafkaProducer {
	return newKafkaProducer(NewWriter(brokers, orderTopic), NewWriter(brokers, inconsistencyTopic), producer, logger)
}

func newKafkaProducer(orders, inconsistencies messageWriter, producer string, logger *zap.Logger) *KafkaProducer {
	return &KafkaProducer{
		orders:          orders,
		inconsistencies: inconsistencies,
		producer:        producer,
		timeout:         defaultPublishTimeout,
		logger:          logger,
		now:             time.Now,
	}
}

// OrderPlaced is keyed by order id.
func (p *KafkaProducer) OrderPlaced(ctx context.Context, order domain.Order, productTitle string) error {
	return p.publish(ctx, p.orders, EventOrderPlaced, order.ID, newOrderPlacedEvent(order, productTitle))
}

// InventoryInconsistent is keyed by product id so records for one product
// stay in order.
func (p *KafkaProducer) InventoryInconsistent(ctx context.Context, rec domain.Inconsistency) error {
	return p.publish(ctx, p.inconsistencies, EventInventoryInconsistency, rec.ProductID.String(), InventoryInconsistencyEvent{rec})
}

func (p *KafkaProducer) publish(ctx context.Context, w messageWriter, eventType, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	env := Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: eventVersion,
		OccurredAt:   p.now().UTC(),
		Producer:     p.producer,
		Payload:      body,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", eventType, err)
	}

	// 요청이 끝나도 발행은 마무리
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(eventType)},
		},
	}
	if err := w.WriteMessages(wctx, msg); err != nil {
		p.logger.Error("Failed to publish message",
			zap.String("event_id", env.EventID),
			zap.String("event_type", eventType),
			zap.Error(err))
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	p.logger.Info("Event published successfully",
		zap.String("event_id", env.EventID),
		zap.String("event_type", eventType),
		zap.String("key", key))
	return nil
}

func (p *KafkaProducer) Close() error {
	return errors.Join(p.orders.Close(), p.inconsistencies.Close())
}
