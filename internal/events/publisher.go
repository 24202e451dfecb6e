package events

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"course-marketplace/internal/config"
)

// OrderSettledEvent announces that a capture was settled and course access
// granted. Consumed by the notification channel; delivery is best-effort.
type OrderSettledEvent struct {
	ID             string    `json:"id"`
	OrderID        int64     `json:"order_id"`
	UserID         int64     `json:"user_id"`
	GatewayOrderID string    `json:"gateway_order_id"`
	CourseIDs      []int64   `json:"course_ids"`
	TotalPrice     string    `json:"total_price"`
	Timestamp      time.Time `json:"timestamp"`
}

type Publisher interface {
	PublishOrderSettled(ctx context.Context, ev OrderSettledEvent) error
	Close() error
}

// KafkaPublisher writes settlement events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *log.Logger
}

func NewKafkaPublisher(cfg config.Kafka, logger *log.Logger) *KafkaPublisher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) PublishOrderSettled(ctx context.Context, ev OrderSettledEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.OrderID, 10)),
		Value: payload,
	})
	if err != nil {
		p.logger.Printf("publish order settled %d: %v", ev.OrderID, err)
	}
	return err
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderSettled(context.Context, OrderSettledEvent) error { return nil }
func (NopPublisher) Close() error                                                 { return nil }
