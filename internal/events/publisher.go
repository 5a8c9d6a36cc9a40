// Package events publishes booking lifecycle events to a RabbitMQ topic
// exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/booking"
)

const (
	RoutingKeyBookingAdmitted  = "booking.admitted"
	RoutingKeyBookingCancelled = "booking.cancelled"

	defaultPublishTimeout = 3 * time.Second
)

// Event is the envelope published for every booking event.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Booking    booking.Booking `json:"booking"`
}

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       channel
	exchange string
	timeout  time.Duration
	now      func() time.Time
}

var _ booking.AdmissionListener = (*Publisher)(nil)

// Dial connects to url and declares exchange as a durable topic exchange.
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}
	p := newPublisher(ch, exchange)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string) *Publisher {
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		timeout:  defaultPublishTimeout,
		now:      time.Now,
	}
}

// Publish sends a JSON event for b under routingKey.
func (p *Publisher) Publish(ctx context.Context, routingKey string, b booking.Booking) error {
	event := Event{
		ID:         uuid.NewString(),
		Type:       routingKey,
		OccurredAt: p.now().UTC(),
		Booking:    b,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", routingKey, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(pubCtx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Type:         routingKey,
		Body:         body,
	}); err != nil {
		return fmt.Errorf("publish %s event: %w", routingKey, err)
	}
	return nil
}

// BookingAdmitted publishes booking.admitted. Failures are logged; the
// booking is already committed.
func (p *Publisher) BookingAdmitted(ctx context.Context, b booking.Booking) {
	if err := p.Publish(context.WithoutCancel(ctx), RoutingKeyBookingAdmitted, b); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("component", "events").
			Int64("booking_id", b.ID).
			Msg("Failed to publish booking event")
	}
}

// BookingCancelled publishes booking.cancelled.
func (p *Publisher) BookingCancelled(ctx context.Context, b booking.Booking) error {
	return p.Publish(ctx, RoutingKeyBookingCancelled, b)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
