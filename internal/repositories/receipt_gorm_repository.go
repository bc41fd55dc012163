package repositories

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"orderdesk/internal/models"

	"gorm.io/gorm"
)

// receiptRecord is the table layout for archived receipts.
type receiptRecord struct {
	OrderID          string `gorm:"primaryKey;type:varchar(36)"`
	CustomerID       string `gorm:"index;type:varchar(255)"`
	ProductID        string `gorm:"type:varchar(255)"`
	Quantity         int
	UnitPrice        float64
	OriginalTotal    float64
	FinalTotal       float64
	DiscountRate     float64
	TotalDiscount    string `gorm:"type:varchar(32)"`
	AppliedDiscounts string `gorm:"type:varchar(255)"` // comma separated, evaluation order
	CustomerBalance  float64
	VIPCustomer      bool
	CreatedAt        time.Time `gorm:"index"`
}

func (receiptRecord) TableName() string { return "receipts" }

func toRecord(rc *models.Receipt) receiptRecord {
	return receiptRecord{
		OrderID:          rc.OrderID,
		CustomerID:       rc.CustomerID,
		ProductID:        rc.ProductID,
		Quantity:         rc.Quantity,
		UnitPrice:        rc.UnitPrice,
		OriginalTotal:    rc.OriginalTotal,
		FinalTotal:       rc.FinalTotal,
		DiscountRate:     rc.DiscountRate,
		TotalDiscount:    rc.TotalDiscount,
		AppliedDiscounts: strings.Join(rc.AppliedDiscounts, ","),
		CustomerBalance:  rc.CustomerBalance,
		VIPCustomer:      rc.IsVIPCustomer,
		CreatedAt:        rc.CreatedAt,
	}
}

func (rec receiptRecord) toReceipt() models.Receipt {
	discounts := []string{}
	if rec.AppliedDiscounts != "" {
		discounts = strings.Split(rec.AppliedDiscounts, ",")
	}
	return models.Receipt{
		ProcessingResult: models.ProcessingResult{
			OrderID:          rec.OrderID,
			OriginalTotal:    rec.OriginalTotal,
			FinalTotal:       rec.FinalTotal,
			TotalDiscount:    rec.TotalDiscount,
			DiscountRate:     rec.DiscountRate,
			AppliedDiscounts: discounts,
			CustomerBalance:  rec.CustomerBalance,
			IsVIPCustomer:    rec.VIPCustomer,
		},
		ProductID:  rec.ProductID,
		Quantity:   rec.Quantity,
		UnitPrice:  rec.UnitPrice,
		CustomerID: rec.CustomerID,
		CreatedAt:  rec.CreatedAt,
	}
}

// GORMReceiptRepository is a GORM implementation of ReceiptRepository.
type GORMReceiptRepository struct {
	db *gorm.DB
}

// NewGORMReceiptRepository creates a new GORMReceiptRepository.
func NewGORMReceiptRepository(db *gorm.DB) *GORMReceiptRepository {
	return &GORMReceiptRepository{
		db: db,
	}
}

// Create inserts a receipt.
func (r *GORMReceiptRepository) Create(receipt *models.Receipt) error {
	if receipt.OrderID == "" {
		return fmt.Errorf("receipt has no order ID")
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now()
	}
	rec := toRecord(receipt)
	if err := r.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	return nil
}

// GetByID retrieves the receipt for an order.
func (r *GORMReceiptRepository) GetByID(id string) (*models.Receipt, error) {
	var rec receiptRecord
	if err := r.db.First(&rec, "order_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, models.ErrReceiptNotFound)
		}
		return nil, fmt.Errorf("failed to get receipt %s: %w", id, err)
	}
	receipt := rec.toReceipt()
	return &receipt, nil
}

// GetAll retrieves every receipt, oldest first.
func (r *GORMReceiptRepository) GetAll() ([]models.Receipt, error) {
	var recs []receiptRecord
	if err := r.db.Order("created_at").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to get receipts: %w", err)
	}
	return toReceipts(recs), nil
}

// GetByCustomer retrieves a customer's receipts, oldest first.
func (r *GORMReceiptRepository) GetByCustomer(customerID string) ([]models.Receipt, error) {
	var recs []receiptRecord
	if err := r.db.Where("customer_id = ?", customerID).Order("created_at").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to get receipts for customer %s: %w", customerID, err)
	}
	return toReceipts(recs), nil
}

func toReceipts(recs []receiptRecord) []models.Receipt {
	list := make([]models.Receipt, 0, len(recs))
	for _, rec := range recs {
		list = append(list, rec.toReceipt())
	}
	return list
}

// Migrate creates or updates the tables used by the GORM repositories.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&receiptRecord{}, &models.Client{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
