package repositories

import "orderdesk/internal/models"

// ClientRepository defines data access for API clients.
type ClientRepository interface {
	Create(client *models.Client) error
	GetByName(name string) (*models.Client, error)
	GetByID(id string) (*models.Client, error)
}
