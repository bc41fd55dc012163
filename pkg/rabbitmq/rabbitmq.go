package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"orderdesk/internal/models"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Queue names.
const (
	OrderQueue  = "order_queue"  // incoming orders
	EventsQueue = "order_events" // processed-order events
)

// ErrDiscard marks a message that must not be redelivered.
var ErrDiscard = errors.New("discard message")

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex // amqp channels are not safe for concurrent publishing
	logger  *zap.Logger
}

// NewClient connects to RabbitMQ and declares both queues.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	for _, name := range []string{OrderQueue, EventsQueue} {
		if err := declare(ch, name); err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}
	}

	logger.Info("rabbitmq connected", zap.Strings("queues", []string{OrderQueue, EventsQueue}))

	return &Client{
		conn:    conn,
		channel: ch,
		logger:  logger,
	}, nil
}

func declare(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", name, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PublishOrderProcessed publishes event as persistent JSON to the events queue.
func (c *Client) PublishOrderProcessed(event models.OrderProcessedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return c.publish(EventsQueue, "order.processed", body)
}

func (c *Client) publish(queue, eventType string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	err := c.channel.Publish(
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         eventType,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}
	return nil
}

// Handler processes one delivery. Returning an error wrapping ErrDiscard
// rejects the message; any other error requeues it.
type Handler func(msg amqp.Delivery) error

// ConsumeOrders consumes the order queue until ctx is done or the channel closes.
func (c *Client) ConsumeOrders(ctx context.Context, handler Handler) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		OrderQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("consuming orders", zap.String("queue", OrderQueue))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("order queue delivery channel closed")
			}
			c.settle(msg, handler(msg))
		}
	}
}

// Acknowledger is the subset of amqp.Delivery used to settle a message.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Client) settle(msg amqp.Delivery, err error) {
	Settle(msg, err, c.logger.With(zap.Uint64("delivery_tag", msg.DeliveryTag)))
}

// Settle acks on success, rejects on ErrDiscard and requeues otherwise.
func Settle(msg Acknowledger, err error, logger *zap.Logger) {
	switch {
	case err == nil:
		if ackErr := msg.Ack(false); ackErr != nil {
			logger.Error("failed to ack message", zap.Error(ackErr))
		}
	case errors.Is(err, ErrDiscard):
		logger.Info("discarding message", zap.Error(err))
		if nackErr := msg.Nack(false, false); nackErr != nil {
			logger.Error("failed to reject message", zap.Error(nackErr))
		}
	default:
		logger.Warn("message processing failed, requeueing", zap.Error(err))
		if nackErr := msg.Nack(false, true); nackErr != nil {
			logger.Error("failed to requeue message", zap.Error(nackErr))
		}
	}
}
