package handlers

import (
	"errors"

	"orderdesk/internal/middleware"
	"orderdesk/internal/models"
	"orderdesk/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	processor *services.OrderProcessor
	logger    *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(processor *services.OrderProcessor, logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{
		processor: processor,
		logger:    logger,
	}
}

// RegisterRoutes registers the order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Post("/", h.HandleProcessOrder)
}

// HandleProcessOrder prices an order and records it against the customer.
func (h *OrderHandler) HandleProcessOrder(c *fiber.Ctx) error {
	var order models.Order
	if err := c.BodyParser(&order); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if client, ok := middleware.CurrentClient(c); ok {
		h.logger.Debug("order submitted",
			zap.String("client_id", client.ID),
			zap.String("customer_id", order.CustomerID))
	}

	result, err := h.processor.ProcessOrder(&order)
	if err != nil {
		if errors.Is(err, models.ErrInvalidOrder) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid order",
				"error":   err.Error(),
			})
		}
		if errors.Is(err, models.ErrTotalOutOfRange) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Order total out of range",
				"error":   err.Error(),
			})
		}
		h.logger.Error("order processing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not process order",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleGetOrder returns the receipt of a processed order.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	receipt, err := h.processor.GetReceipt(orderID)
	if err != nil {
		if errors.Is(err, models.ErrReceiptNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Order " + orderID + " not found",
			})
		}
		h.logger.Error("failed to load receipt", zap.String("order_id", orderID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	return c.JSON(receipt)
}

// HandleListOrders lists receipts, optionally filtered by ?customer_id=.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	receipts, err := h.processor.ListReceipts(c.Query("customer_id"))
	if err != nil {
		h.logger.Error("failed to list receipts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(receipts)
}
