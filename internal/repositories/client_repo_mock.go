package repositories

import (
	"fmt"
	"sync"
	"time"

	"orderdesk/internal/models"

	"github.com/google/uuid"
)

// MemoryClientRepository is an in-memory implementation of ClientRepository.
type MemoryClientRepository struct {
	clients map[string]models.Client // by ID
	byName  map[string]string
	mu      sync.RWMutex
}

// NewMemoryClientRepository creates an empty MemoryClientRepository.
func NewMemoryClientRepository() *MemoryClientRepository {
	return &MemoryClientRepository{
		clients: make(map[string]models.Client),
		byName:  make(map[string]string),
	}
}

// Create adds a client. Names are unique.
func (r *MemoryClientRepository) Create(client *models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[client.Name]; ok {
		return fmt.Errorf("%s: %w", client.Name, models.ErrClientExists)
	}
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now()
	}
	r.clients[client.ID] = *client
	r.byName[client.Name] = client.ID
	return nil
}

// GetByName returns a client by name.
func (r *MemoryClientRepository) GetByName(name string) (*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, models.ErrClientNotFound)
	}
	client := r.clients[id]
	return &client, nil
}

// GetByID returns a client by ID.
func (r *MemoryClientRepository) GetByID(id string) (*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, models.ErrClientNotFound)
	}
	return &client, nil
}
