// Package queue moves notification messages through RabbitMQ. Queue names
// match the domain event type, and messages go through the default exchange.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends a JSON message to a named queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, payload any) error
}

// RabbitPublisher publishes persistent JSON messages. The connection is
// dialed lazily and redialed once it has been closed by the broker.
type RabbitPublisher struct {
	url    string
	logger *zap.Logger

	mu       sync.Mutex
	conn     *amqp.Connection
	declared map[string]bool
}

// NewRabbitPublisher returns a publisher for the broker at url.
func NewRabbitPublisher(url string, logger *zap.Logger) *RabbitPublisher {
	return &RabbitPublisher{url: url, logger: logger, declared: map[string]bool{}}
}

// Publish declares queue if needed and sends payload to it.
func (p *RabbitPublisher) Publish(ctx context.Context, queue string, payload any) error {
	msg, err := encode(payload, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	conn, err := p.connection()
	if err != nil {
		p.logger.Warn("rabbitmq dial failed", zap.Error(err))
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if !p.declared[queue] {
		if err := declare(ch, queue); err != nil {
			return err
		}
		p.declared[queue] = true
	}

	if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		p.logger.Warn("rabbitmq publish failed", zap.String("queue", queue), zap.Error(err))
		return err
	}
	return nil
}

// Close releases the broker connection.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}

func (p *RabbitPublisher) connection() (*amqp.Connection, error) {
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	p.declared = map[string]bool{}
	return conn, nil
}

func encode(payload any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal message: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now.UTC(),
		Body:         body,
	}, nil
}

func declare(ch *amqp.Channel, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s: %w", queue, err)
	}
	return nil
}
