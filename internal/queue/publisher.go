// Publishing side of the push pipeline.  Handlers publish an Event
// after a successful mutation; failures are logged and returned so the
// caller can ignore them without interrupting the request flow – a lost
// push event only delays reconciliation until the next one.
package queue

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the fanout exchange all push topics go through.
// Fanout is deliberate: every connected server instance mirrors every
// event to its own WebSocket clients.
const ExchangeName = "push.topics"

// Publisher maintains a single connection/channel to the broker and
// re-dials lazily when publishing fails.  Safe for concurrent use.
type Publisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a Publisher bound to the given AMQP URL.  No
// connection is made until the first publish.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// Publish sends an Event to the fanout exchange as a persistent JSON
// message.  On a broken channel it re-dials once before giving up.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("queue: marshal event failed: %v", err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.publishLocked(ctx, body); err != nil {
		// One reconnect attempt; brokers drop idle channels.
		p.closeLocked()
		if err2 := p.publishLocked(ctx, body); err2 != nil {
			log.Printf("queue: publish %s failed: %v", ev.Topic, err2)
			return err2
		}
	}
	return nil
}

func (p *Publisher) publishLocked(ctx context.Context, body []byte) error {
	if err := p.ensureChannelLocked(); err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx,
		ExchangeName,
		"",    // routing key unused on fanout
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

func (p *Publisher) ensureChannelLocked() error {
	if p.ch != nil && !p.conn.IsClosed() {
		return nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	// Idempotent; durable so the exchange survives broker restarts.
	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
}
