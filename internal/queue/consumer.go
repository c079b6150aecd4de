// Consuming side of the push pipeline.  Each server instance binds an
// exclusive queue to the fanout exchange and forwards every decoded
// Event to the supplied callback (the WebSocket hub).  The consumer
// runs a reconnect loop with exponential backoff and keeps going until
// the context is cancelled; malformed messages are rejected without
// requeue so a poison message cannot wedge the loop.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartConsumer connects to the broker and delivers events until ctx is
// cancelled.  It only returns the context error; transient broker
// failures are logged and retried.
func StartConsumer(ctx context.Context, url string, deliver func(Event)) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("push-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(ctx, conn, deliver); err != nil {
			_ = conn.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("push-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, deliver func(Event)) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	// Exclusive auto-delete queue: each instance gets its own copy of
	// the event stream and leaves nothing behind on disconnect.
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("push-consumer: set QoS failed: %v", err)
	}
	msgs, err := ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			var ev Event
			if err := json.Unmarshal(d.Body, &ev); err != nil || ev.Topic == "" {
				log.Printf("push-consumer: dropping malformed message: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			deliver(ev)
			_ = d.Ack(false)
		}
	}
}
