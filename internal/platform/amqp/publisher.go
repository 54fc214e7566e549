package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/mastery-api/internal/events"
	"github.com/phrazzld/mastery-api/internal/platform/logger"
	amqp091 "github.com/rabbitmq/amqp091-go"
)

// DefaultPublishTimeout bounds a single publish call.
const DefaultPublishTimeout = 5 * time.Second

// ErrPublisherClosed is returned when publishing after Close.
var ErrPublisherClosed = errors.New("event publisher is closed")

// channel is the subset of *amqp091.Channel the publisher uses.
type channel interface {
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp091.Publishing,
	) error
	Close() error
}

// Publisher implements events.EventHandler by publishing every event it
// receives to a durable topic exchange.
type Publisher struct {
	ch       channel
	conn     *amqp091.Connection
	exchange string
	timeout  time.Duration
	logger   *slog.Logger
	closed   bool
}

// Ensure Publisher implements events.EventHandler interface
var _ events.EventHandler = (*Publisher)(nil)

// Dial connects to the broker, opens a channel and declares the exchange.
func Dial(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
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
		timeout:  DefaultPublishTimeout,
		logger:   logger.With(slog.String("component", "amqp_publisher")),
	}
}

// HandleEvent publishes the event as a persistent JSON message routed by its type.
func (p *Publisher) HandleEvent(ctx context.Context, event *events.Event) error {
	log := logger.FromContextOrDefault(ctx, p.logger)

	if p.closed {
		return ErrPublisherClosed
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.ch.PublishWithContext(
		pubCtx,
		p.exchange, // exchange
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.ID.String(),
			Type:         event.Type,
			Timestamp:    event.CreatedAt,
			Body:         body,
		},
	)
	if err != nil {
		log.Error("failed to publish event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.Type))
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}

	log.Debug("published event",
		slog.String("event_id", event.ID.String()),
		slog.String("routing_key", event.Type),
		slog.String("exchange", p.exchange))
	return nil
}

// Close closes the channel and, when the publisher owns it, the connection.
func (p *Publisher) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if err := p.ch.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
