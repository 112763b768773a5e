// Package events delivers committed reservation changes to RabbitMQ.
// Publishing is best effort: failures are logged and counted, never returned
// to the booking flow.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"overlook_hotel/internal/adapters/observability"
	"overlook_hotel/internal/domain"
)

const DefaultQueue = "overlook.reservations"

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	mu      sync.Mutex // amqp channels are not safe for concurrent publishes
	conn    *amqp.Connection
	ch      channel
	queue   string
	timeout time.Duration
	log     zerolog.Logger
}

// Dial connects to the broker and declares a durable queue.
func Dial(url, queue string) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp queue declare %s: %w", queue, err)
	}
	p := newPublisher(ch, queue)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, queue string) *Publisher {
	return &Publisher{
		ch:      ch,
		queue:   queue,
		timeout: 5 * time.Second,
		log:     log.With().Str("component", "events").Str("queue", queue).Logger(),
	}
}

func encode(evt domain.ReservationEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         evt.Kind,
		MessageId:    fmt.Sprintf("%s:%d:%d", evt.Kind, evt.ReservationID, evt.At.UnixNano()),
		Timestamp:    evt.At,
		Body:         body,
	}, nil
}

func (p *Publisher) ReservationChanged(ctx context.Context, evt domain.ReservationEvent) {
	observeLifecycle(evt)
	msg, err := encode(evt)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		p.mu.Lock()
		err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
		p.mu.Unlock()
		cancel()
	}
	observability.ObserveEvent(evt.Kind, err)
	if err != nil {
		p.log.Warn().Err(err).
			Str("kind", evt.Kind).
			Int64("reservation_id", evt.ReservationID).
			Msg("publish reservation event failed")
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// LogPublisher writes events to the structured log. It is used when no broker
// is configured.
type LogPublisher struct{ Logger zerolog.Logger }

func (l LogPublisher) ReservationChanged(_ context.Context, evt domain.ReservationEvent) {
	observeLifecycle(evt)
	observability.ObserveEvent(evt.Kind, nil)
	l.Logger.Info().
		Str("kind", evt.Kind).
		Int64("reservation_id", evt.ReservationID).
		Str("code", evt.Code).
		Str("from", string(evt.From)).
		Str("to", string(evt.To)).
		Time("at", evt.At).
		Msg("reservation_event")
}

func observeLifecycle(evt domain.ReservationEvent) {
	if evt.Kind == domain.EventTransitioned {
		observability.ObserveTransition(evt.From, evt.To)
	}
}
