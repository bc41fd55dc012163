package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"orderdesk/internal/ledger"
	"orderdesk/internal/models"
	"orderdesk/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher delivers notifications about processed orders.
type EventPublisher interface {
	PublishOrderProcessed(event models.OrderProcessedEvent) error
}

// OrderProcessor validates and prices orders and keeps the customer ledger.
type OrderProcessor struct {
	ledger    *ledger.Ledger
	receipts  repositories.ReceiptRepository // optional
	publisher EventPublisher                 // optional
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderProcessor creates an OrderProcessor that owns l. receipts and
// publisher may be nil.
func NewOrderProcessor(l *ledger.Ledger, receipts repositories.ReceiptRepository, publisher EventPublisher, logger *zap.Logger) *OrderProcessor {
	if l == nil {
		l = ledger.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderProcessor{
		ledger:    l,
		receipts:  receipts,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// orderRule is one validation step; rules run in order and stop at the first failure.
type orderRule struct {
	field  func(order *models.Order) interface{}
	tag    string
	reason string
}

// trimControl strips leading and trailing characters up to and including
// the space (ASCII controls and ' '). Unicode spaces such as U+00A0 are kept.
func trimControl(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return r <= ' ' })
}

var orderRules = []orderRule{
	{
		field:  func(o *models.Order) interface{} { return trimControl(o.ProductID) },
		tag:    "required",
		reason: "Invalid product ID",
	},
	{
		field:  func(o *models.Order) interface{} { return o.Quantity },
		tag:    "gt=0",
		reason: "Quantity must be positive",
	},
	{
		field:  func(o *models.Order) interface{} { return o.Price },
		tag:    "gt=0",
		reason: "Price must be positive",
	},
	{
		field:  func(o *models.Order) interface{} { return trimControl(o.CustomerID) },
		tag:    "required",
		reason: "Invalid customer ID",
	},
}

// Validate checks an order without touching the ledger.
func (p *OrderProcessor) Validate(order *models.Order) error {
	if order == nil {
		return &models.InvalidOrderError{Reason: "Order cannot be null"}
	}
	for _, rule := range orderRules {
		if err := p.validate.Var(rule.field(order), rule.tag); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return fmt.Errorf("validating order: %w", err)
			}
			return &models.InvalidOrderError{Reason: rule.reason}
		}
	}
	return nil
}

// ProcessOrder validates, prices and records an order. Validation failures
// are *models.InvalidOrderError; amounts that overflow are
// models.ErrTotalOutOfRange. Either way the ledger is left untouched.
func (p *OrderProcessor) ProcessOrder(order *models.Order) (*models.ProcessingResult, error) {
	if err := p.Validate(order); err != nil {
		p.logger.Info("order rejected", zap.Error(err))
		return nil, err
	}
	if err := CheckTotal(order); err != nil {
		p.logger.Info("order rejected", zap.Error(err))
		return nil, err
	}

	var q quote
	entry, err := p.ledger.Settle(order.CustomerID, func(vip bool) float64 {
		q = priceOrder(order, vip)
		return q.finalTotal
	})
	if err != nil {
		p.logger.Info("order rejected",
			zap.String("customer_id", order.CustomerID), zap.Error(err))
		return nil, fmt.Errorf("customer %s: %w: %w", order.CustomerID, models.ErrTotalOutOfRange, err)
	}

	result := &models.ProcessingResult{
		OrderID:          uuid.New().String(),
		OriginalTotal:    q.baseTotal,
		FinalTotal:       q.finalTotal,
		TotalDiscount:    q.label(),
		DiscountRate:     q.rate(),
		AppliedDiscounts: q.applied,
		CustomerBalance:  entry.Balance,
		IsVIPCustomer:    entry.VIP,
	}

	p.logger.Info("order processed",
		zap.String("order_id", result.OrderID),
		zap.String("customer_id", order.CustomerID),
		zap.Float64("final_total", result.FinalTotal),
		zap.Strings("discounts", result.AppliedDiscounts),
		zap.Bool("vip", entry.VIP))
	if entry.Promoted {
		p.logger.Info("customer promoted to VIP",
			zap.String("customer_id", order.CustomerID),
			zap.Float64("balance", entry.Balance))
	}

	processedAt := p.now()
	p.archive(order, result, processedAt)
	p.publish(order, result, entry.Promoted, processedAt)

	return result, nil
}

// archive and publish run after the ledger update; their failures are
// logged and never fail the order.
func (p *OrderProcessor) archive(order *models.Order, result *models.ProcessingResult, at time.Time) {
	if p.receipts == nil {
		return
	}
	receipt := &models.Receipt{
		ProcessingResult: *result,
		ProductID:        order.ProductID,
		Quantity:         order.Quantity,
		UnitPrice:        order.Price,
		CustomerID:       order.CustomerID,
		CreatedAt:        at,
	}
	receipt.AppliedDiscounts = append([]string(nil), result.AppliedDiscounts...)
	if err := p.receipts.Create(receipt); err != nil {
		p.logger.Warn("failed to archive receipt",
			zap.String("order_id", result.OrderID), zap.Error(err))
	}
}

func (p *OrderProcessor) publish(order *models.Order, result *models.ProcessingResult, promoted bool, at time.Time) {
	if p.publisher == nil {
		return
	}
	event := models.OrderProcessedEvent{
		OrderID:          result.OrderID,
		CustomerID:       order.CustomerID,
		ProductID:        order.ProductID,
		FinalTotal:       result.FinalTotal,
		AppliedDiscounts: result.AppliedDiscounts,
		CustomerBalance:  result.CustomerBalance,
		VIPPromoted:      promoted,
		ProcessedAt:      at,
	}
	if err := p.publisher.PublishOrderProcessed(event); err != nil {
		p.logger.Warn("failed to publish order processed event",
			zap.String("order_id", result.OrderID), zap.Error(err))
	}
}

// GetReceipt returns the archived receipt for an order.
func (p *OrderProcessor) GetReceipt(orderID string) (*models.Receipt, error) {
	if p.receipts == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, models.ErrReceiptNotFound)
	}
	return p.receipts.GetByID(orderID)
}

// ListReceipts returns archived receipts, all of them when customerID is empty.
func (p *OrderProcessor) ListReceipts(customerID string) ([]models.Receipt, error) {
	if p.receipts == nil {
		return []models.Receipt{}, nil
	}
	if customerID == "" {
		return p.receipts.GetAll()
	}
	return p.receipts.GetByCustomer(customerID)
}

// GetCustomer returns the ledger state of one customer.
func (p *OrderProcessor) GetCustomer(customerID string) (*models.CustomerAccount, error) {
	entry, ok := p.ledger.Lookup(customerID)
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", customerID, models.ErrCustomerUnknown)
	}
	return toAccount(entry), nil
}

// ListCustomers returns every customer known to the ledger.
func (p *OrderProcessor) ListCustomers() []models.CustomerAccount {
	entries := p.ledger.Customers()
	accounts := make([]models.CustomerAccount, 0, len(entries))
	for _, e := range entries {
		accounts = append(accounts, *toAccount(e))
	}
	return accounts
}

func toAccount(e ledger.Entry) *models.CustomerAccount {
	return &models.CustomerAccount{
		CustomerID: e.CustomerID,
		Balance:    e.Balance,
		VIP:        e.VIP,
	}
}
