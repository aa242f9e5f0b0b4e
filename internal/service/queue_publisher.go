// Package queue_publisher emits domain events to the message broker.
// Publishing is best-effort from the caller's point of view: errors are
// returned, never panicked, so request flows can log and move on.
package queue_publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/bytetech/academy-backend/internal/queue"
)

// Publisher sends events to one broker.  It dials per publish; purchase
// events are rare enough that holding a connection open buys nothing.
type Publisher struct {
	url string
}

// New returns a Publisher bound to the given AMQP endpoint.
func New(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishCoursePurchased delivers a CoursePurchasedEvent to the purchase
// queue.  The queue is declared durable and the message persistent, so the
// event survives a broker restart.
func (p *Publisher) PublishCoursePurchased(ctx context.Context, event q.CoursePurchasedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	// Declare is idempotent; the consumer declares the same queue.
	if _, err := ch.QueueDeclare(q.PurchaseQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", q.PurchaseQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
