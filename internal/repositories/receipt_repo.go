package repositories

import (
	"orderdesk/internal/models"
)

// ReceiptRepository archives processed orders.
type ReceiptRepository interface {
	Create(receipt *models.Receipt) error
	GetByID(id string) (*models.Receipt, error)
	GetAll() ([]models.Receipt, error)
	GetByCustomer(customerID string) ([]models.Receipt, error)
}
