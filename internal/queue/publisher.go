package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/venue-seating/internal/config"
	"github.com/iliyamo/venue-seating/internal/model"
	"github.com/iliyamo/venue-seating/internal/selection"
)

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// Publisher sends persistent JSON messages to durable queues over one
// long-lived connection.  A broken connection is redialled on the next
// publish.  Errors are logged and returned so callers can ignore them
// without interrupting the request flow.
type Publisher struct {
	cfg config.QueueConfig

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool
	closed   bool
}

// NewPublisher dials the broker.  The returned publisher is usable even
// when the first dial fails; it retries on publish.
func NewPublisher(cfg config.QueueConfig) (*Publisher, error) {
	p := &Publisher{cfg: cfg, declared: make(map[string]bool)}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return p, err
	}
	return p, nil
}

func (p *Publisher) connectLocked() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.cfg.URL)
		if err != nil {
			return err
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		_ = p.conn.Close()
		p.conn = nil
		return err
	}
	p.ch = ch
	p.declared = make(map[string]bool)
	return nil
}

// Publish marshals v and sends it to queue.
func (p *Publisher) Publish(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPublisherClosed
	}
	if err := p.connectLocked(); err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	if !p.declared[queue] {
		if _, err := p.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			log.Printf("rabbitmq: queue declare %s failed: %v", queue, err)
			return err
		}
		p.declared[queue] = true
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish to %s failed: %v", queue, err)
		return err
	}
	return nil
}

// ListingCreated implements resale.Publisher.
func (p *Publisher) ListingCreated(ctx context.Context, l model.ResaleListing) error {
	return p.Publish(ctx, p.cfg.ListingQueue, NewListingCreated(l))
}

// SeatEvicted publishes one eviction.
func (p *Publisher) SeatEvicted(ctx context.Context, ev selection.Eviction) error {
	return p.Publish(ctx, p.cfg.EvictedQueue, NewSeatEvicted(ev, time.Now()))
}

// Close shuts the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// ForwardEvictions publishes every eviction received on evs until the
// channel closes or ctx is done.
func ForwardEvictions(ctx context.Context, evs <-chan selection.Eviction, send func(context.Context, selection.Eviction) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-evs:
			if !ok {
				return
			}
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := send(pctx, ev); err != nil {
				log.Printf("eviction-forwarder: %s/%s not published: %v", ev.SessionID, ev.SeatID, err)
			}
			cancel()
		}
	}
}
