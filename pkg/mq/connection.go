package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ExchangeName is the topic exchange delivery events are published to.
const ExchangeName = "draftmail.events"

const dialAttempts = 5

// dialBackoff is the wait after the first failed dial; it doubles each attempt.
var dialBackoff = time.Second

// Dial connects to RabbitMQ, retrying with a doubling backoff until ctx ends
// or the attempts run out.
func Dial(ctx context.Context, url string, logger *zap.Logger) (*amqp091.Connection, error) {
	backoff := dialBackoff
	var lastErr error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err := amqp091.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		logger.Warn("RabbitMQ dial failed",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", dialAttempts, lastErr)
}

// declareExchange declares the durable, non-internal topic exchange.
func declareExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(ExchangeName, amqp091.ExchangeTopic, true, false, false, false, nil)
}
