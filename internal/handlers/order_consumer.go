package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"orderdesk/internal/models"
	"orderdesk/internal/services"
	"orderdesk/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// OrderConsumer processes orders arriving on the message queue.
type OrderConsumer struct {
	processor *services.OrderProcessor
	logger    *zap.Logger
}

// NewOrderConsumer creates a new OrderConsumer.
func NewOrderConsumer(processor *services.OrderProcessor, logger *zap.Logger) *OrderConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderConsumer{processor: processor, logger: logger}
}

// Handle decodes one order message and processes it. Malformed and invalid
// orders are discarded since resubmitting them can never succeed.
func (c *OrderConsumer) Handle(msg amqp.Delivery) error {
	var order *models.Order
	if err := json.Unmarshal(msg.Body, &order); err != nil {
		return fmt.Errorf("%w: malformed order message: %v", rabbitmq.ErrDiscard, err)
	}

	result, err := c.processor.ProcessOrder(order)
	if err != nil {
		if errors.Is(err, models.ErrInvalidOrder) || errors.Is(err, models.ErrTotalOutOfRange) {
			return fmt.Errorf("%w: %v", rabbitmq.ErrDiscard, err)
		}
		return err
	}

	c.logger.Debug("queued order processed",
		zap.Uint64("delivery_tag", msg.DeliveryTag),
		zap.String("order_id", result.OrderID))
	return nil
}
