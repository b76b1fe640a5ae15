// Package publish sends insight alerts to a Kafka topic.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"github.com/segmentio/kafka-go"

	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/observability"
)

// ErrNoBrokers is returned when a publisher is configured without brokers.
var ErrNoBrokers = errors.New("kafka: no brokers configured")

// MessageWriter is the subset of *kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AlertMessage is the JSON payload of one published alert.
type AlertMessage struct {
	RunID       string    `json:"run_id"`
	AlertID     string    `json:"alert_id"`
	Type        string    `json:"type"`
	Priority    string    `json:"priority"`
	EntityRef   string    `json:"entity_ref,omitempty"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	MetricLabel string    `json:"metric_label"`
	MetricValue float64   `json:"metric_value"`
	GeneratedAt time.Time `json:"generated_at"`
}

// AlertPublisher writes alerts keyed by alert ID, so consumers can compact
// repeated runs over the same data.
type AlertPublisher struct {
	writer  MessageWriter
	logger  *log.Logger
	metrics *observability.Metrics
}

// NewAlertPublisher creates a publisher writing to topic on brokers.
func NewAlertPublisher(brokers []string, topic string) (*AlertPublisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka: empty topic")
	}
	return NewAlertPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}), nil
}

// NewAlertPublisherWithWriter wraps an existing writer.
func NewAlertPublisherWithWriter(w MessageWriter) *AlertPublisher {
	return &AlertPublisher{writer: w, logger: &log.DefaultLogger}
}

// WithLogger sets the logger. nil keeps the default logger.
func (p *AlertPublisher) WithLogger(l *log.Logger) *AlertPublisher {
	if l != nil {
		p.logger = l
	}
	return p
}

// WithMetrics counts published alerts.
func (p *AlertPublisher) WithMetrics(m *observability.Metrics) *AlertPublisher {
	p.metrics = m
	return p
}

// Publish sends alerts as one batch. An empty slice is a no-op.
func (p *AlertPublisher) Publish(ctx context.Context, runID string, generatedAt time.Time, alerts []domain.InsightAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(alerts))
	for _, a := range alerts {
		data, err := json.Marshal(AlertMessage{
			RunID:       runID,
			AlertID:     a.ID,
			Type:        string(a.Type),
			Priority:    string(a.Priority),
			EntityRef:   a.EntityRef,
			Title:       a.Title,
			Message:     a.Message,
			MetricLabel: a.MetricLabel,
			MetricValue: a.MetricValue,
			GeneratedAt: generatedAt,
		})
		if err != nil {
			return fmt.Errorf("encode alert %s: %w", a.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(a.ID),
			Value: data,
			Headers: []kafka.Header{
				{Key: "alert_type", Value: []byte(a.Type)},
				{Key: "priority", Value: []byte(a.Priority)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish alerts: %w", err)
	}
	p.metrics.RecordPublished(len(msgs))
	p.logger.Info().Str("run_id", runID).Int("alerts", len(msgs)).Msg("alerts published")
	return nil
}

// Close closes the underlying writer.
func (p *AlertPublisher) Close() error {
	return p.writer.Close()
}
