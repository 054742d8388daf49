// Package rabbitmq publishes domain events to a topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/JxWayne890/dealflow/internal/adapters/http/middleware"
	"github.com/JxWayne890/dealflow/internal/domain"
	"github.com/JxWayne890/dealflow/internal/ports"
)

const serviceName = "rabbitmq"

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements ports.EventPublisher. Messages are persistent JSON
// routed by event type.
type Publisher struct {
	conn     *amqp.Connection
	exchange string
	logger   *slog.Logger

	mu sync.Mutex // amqp channels are not safe for concurrent publishing
	ch channel

	now func() time.Time
}

// Dial connects to url, declares exchange as a durable topic exchange, and
// returns a publisher on a fresh channel.
func Dial(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declaring exchange %q: %w", exchange, err)
	}

	p := newPublisher(ch, exchange, logger)
	p.conn = conn

	return p, nil
}

func newPublisher(ch channel, exchange string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		ch:       ch,
		exchange: exchange,
		logger:   logger.With(slog.String("component", "rabbitmq.Publisher")),
		now:      time.Now,
	}
}

// Publish implements ports.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, event ports.Event) error {
	body, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("encoding %s: %w", event.EventType(), err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    p.now().UTC(),
		Type:         event.EventType(),
		Body:         body,
	}
	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		msg.CorrelationId = id
	}
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		msg.Headers = amqp.Table{"x-request-id": id}
	}

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.exchange, event.EventType(), false, false, msg)
	p.mu.Unlock()

	if err != nil {
		return domain.NewUnavailableError(serviceName, err.Error())
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("type", event.EventType()),
		slog.String("message_id", msg.MessageId),
	)

	return nil
}

// Name implements ports.HealthChecker.
func (p *Publisher) Name() string { return serviceName }

// Check implements ports.HealthChecker.
func (p *Publisher) Check(context.Context) error {
	if p.conn == nil || p.conn.IsClosed() {
		return domain.NewUnavailableError(serviceName, "connection closed")
	}

	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}

	return err
}

// Noop implements ports.EventPublisher by dropping events. It is wired when
// no broker is configured.
type Noop struct {
	Logger *slog.Logger
}

// Publish implements ports.EventPublisher.
func (n Noop) Publish(ctx context.Context, event ports.Event) error {
	if n.Logger != nil {
		n.Logger.DebugContext(ctx, "event dropped, no broker configured", slog.String("type", event.EventType()))
	}

	return nil
}
