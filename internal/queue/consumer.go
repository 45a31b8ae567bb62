package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Handler processes one message body received from queue.
type Handler func(ctx context.Context, queue string, body []byte) error

// Consumer reads from a fixed set of durable queues and reconnects with
// backoff whenever the broker goes away.
type Consumer struct {
	url     string
	queues  []string
	handler Handler
	logger  *zap.Logger
}

// NewConsumer builds a consumer for queues.
func NewConsumer(url string, queues []string, handler Handler, logger *zap.Logger) *Consumer {
	return &Consumer{url: url, queues: queues, handler: handler, logger: logger}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("consumer dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("consumer loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("set qos failed", zap.Error(err))
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	merged := make(chan amqp.Delivery)
	for _, queue := range c.queues {
		if err := declare(ch, queue); err != nil {
			return err
		}
		msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", queue, err)
		}
		go func(msgs <-chan amqp.Delivery) {
			for d := range msgs {
				select {
				case merged <- d:
				case <-ctx.Done():
					return
				}
			}
		}(msgs)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr == nil {
				return errors.New("connection closed")
			}
			return amqpErr
		case d := <-merged:
			c.dispatch(ctx, d)
		}
	}
}

// dispatch acks handled messages and drops failing ones without requeue so a
// poison message cannot spin the loop.
func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery) {
	if err := c.handler(ctx, d.RoutingKey, d.Body); err != nil {
		c.logger.Error("handle message failed", zap.String("queue", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
