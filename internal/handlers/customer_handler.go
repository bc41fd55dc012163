package handlers

import (
	"errors"

	"orderdesk/internal/models"
	"orderdesk/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CustomerHandler exposes the loyalty ledger read-only.
type CustomerHandler struct {
	processor *services.OrderProcessor
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(processor *services.OrderProcessor) *CustomerHandler {
	return &CustomerHandler{processor: processor}
}

// RegisterRoutes registers the customer routes.
func (h *CustomerHandler) RegisterRoutes(router fiber.Router) {
	customerRoutes := router.Group("/customers")
	customerRoutes.Get("/", h.HandleListCustomers)
	customerRoutes.Get("/:id", h.HandleGetCustomer)
}

// HandleListCustomers returns all customers with their balance and VIP flag.
func (h *CustomerHandler) HandleListCustomers(c *fiber.Ctx) error {
	return c.JSON(h.processor.ListCustomers())
}

// HandleGetCustomer returns one customer's ledger entry.
func (h *CustomerHandler) HandleGetCustomer(c *fiber.Ctx) error {
	customerID := c.Params("id")
	account, err := h.processor.GetCustomer(customerID)
	if errors.Is(err, models.ErrCustomerUnknown) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Customer " + customerID + " not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve customer",
			"error":   err.Error(),
		})
	}
	return c.JSON(account)
}
