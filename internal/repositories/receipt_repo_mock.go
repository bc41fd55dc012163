package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"orderdesk/internal/models"
)

// MemoryReceiptRepository is an in-memory implementation of ReceiptRepository.
type MemoryReceiptRepository struct {
	receipts map[string]models.Receipt
	mu       sync.RWMutex
}

// NewMemoryReceiptRepository creates an empty MemoryReceiptRepository.
func NewMemoryReceiptRepository() *MemoryReceiptRepository {
	return &MemoryReceiptRepository{
		receipts: make(map[string]models.Receipt),
	}
}

// Create stores a receipt. The order ID must be set and unused.
func (r *MemoryReceiptRepository) Create(receipt *models.Receipt) error {
	if receipt.OrderID == "" {
		return fmt.Errorf("receipt has no order ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.receipts[receipt.OrderID]; ok {
		return fmt.Errorf("receipt for order %s already exists", receipt.OrderID)
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now()
	}
	r.receipts[receipt.OrderID] = cloneReceipt(*receipt)
	return nil
}

// GetByID returns the receipt for an order.
func (r *MemoryReceiptRepository) GetByID(id string) (*models.Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	receipt, ok := r.receipts[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrReceiptNotFound)
	}
	receipt = cloneReceipt(receipt)
	return &receipt, nil
}

// GetAll returns all receipts, oldest first.
func (r *MemoryReceiptRepository) GetAll() ([]models.Receipt, error) {
	return r.filter(func(models.Receipt) bool { return true }), nil
}

// GetByCustomer returns a customer's receipts, oldest first.
func (r *MemoryReceiptRepository) GetByCustomer(customerID string) ([]models.Receipt, error) {
	return r.filter(func(rc models.Receipt) bool { return rc.CustomerID == customerID }), nil
}

func (r *MemoryReceiptRepository) filter(keep func(models.Receipt) bool) []models.Receipt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Receipt, 0, len(r.receipts))
	for _, rc := range r.receipts {
		if keep(rc) {
			list = append(list, cloneReceipt(rc))
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func cloneReceipt(rc models.Receipt) models.Receipt {
	rc.AppliedDiscounts = append([]string(nil), rc.AppliedDiscounts...)
	return rc
}
