// Package events publishes product import events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/core"
	"github.com/JonMunkholm/inventory/internal/metrics"
)

// EventProductsImported is the event type of every message this package writes.
const EventProductsImported = "PRODUCTS_IMPORTED"

// ProductEvent is the JSON value of one message. One message is written per
// stored product, keyed by SKU.
type ProductEvent struct {
	EventType string          `json:"event_type"`
	UploadID  string          `json:"upload_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand"`
	Color     *string         `json:"color,omitempty"`
	Size      *string         `json:"size,omitempty"`
	MRP       decimal.Decimal `json:"mrp"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Timestamp time.Time       `json:"timestamp"`
}

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements core.EventPublisher over a Kafka topic.
type Publisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	now     func() time.Time
}

var _ core.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a publisher writing to cfg.Topic on cfg.Brokers.
func NewPublisher(cfg config.EventsConfig) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return newPublisher(writer, cfg.Topic, cfg.WriteTimeout)
}

func newPublisher(w messageWriter, topic string, timeout time.Duration) *Publisher {
	return &Publisher{writer: w, topic: topic, timeout: timeout, now: time.Now}
}

// ProductsImported writes one event per product in a single batch.
func (p *Publisher) ProductsImported(ctx context.Context, uploadID string, products []core.Product) error {
	if len(products) == 0 {
		return nil
	}

	now := p.now().UTC()
	msgs := make([]kafka.Message, 0, len(products))
	for _, prod := range products {
		value, err := json.Marshal(ProductEvent{
			EventType: EventProductsImported,
			UploadID:  uploadID,
			SKU:       prod.SKU,
			Name:      prod.Name,
			Brand:     prod.Brand,
			Color:     prod.Color,
			Size:      prod.Size,
			MRP:       prod.MRP,
			Price:     prod.Price,
			Quantity:  prod.Quantity,
			Timestamp: now,
		})
		if err != nil {
			return fmt.Errorf("marshal event for %s: %w", prod.SKU, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(prod.SKU),
			Value: value,
			Time:  now,
		})
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		metrics.RecordEvents("error", len(msgs))
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), p.topic, err)
	}
	metrics.RecordEvents("ok", len(msgs))
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
