package repositories

import (
	"errors"
	"fmt"

	"orderdesk/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMClientRepository is a GORM implementation of ClientRepository.
type GORMClientRepository struct {
	db *gorm.DB
}

// NewGORMClientRepository creates a new GORMClientRepository.
func NewGORMClientRepository(db *gorm.DB) *GORMClientRepository {
	return &GORMClientRepository{
		db: db,
	}
}

// Create inserts a client, assigning an ID when missing.
func (r *GORMClientRepository) Create(client *models.Client) error {
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	if err := r.db.Create(client).Error; err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// GetByName looks a client up by its unique name.
func (r *GORMClientRepository) GetByName(name string) (*models.Client, error) {
	return r.first("name = ?", name)
}

// GetByID looks a client up by ID.
func (r *GORMClientRepository) GetByID(id string) (*models.Client, error) {
	return r.first("id = ?", id)
}

func (r *GORMClientRepository) first(query string, arg string) (*models.Client, error) {
	var client models.Client
	if err := r.db.First(&client, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", arg, models.ErrClientNotFound)
		}
		return nil, fmt.Errorf("failed to get client %s: %w", arg, err)
	}
	return &client, nil
}
