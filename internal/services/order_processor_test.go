package services_test

import (
	"errors"
	"fmt"
	"testing"

	"orderdesk/internal/ledger"
	"orderdesk/internal/models"
	"orderdesk/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockReceiptRepository is a mock implementation of repositories.ReceiptRepository
type MockReceiptRepository struct {
	mock.Mock
}

func (m *MockReceiptRepository) Create(receipt *models.Receipt) error {
	args := m.Called(receipt)
	return args.Error(0)
}

func (m *MockReceiptRepository) GetByID(id string) (*models.Receipt, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) GetAll() ([]models.Receipt, error) {
	args := m.Called()
	return args.Get(0).([]models.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) GetByCustomer(customerID string) ([]models.Receipt, error) {
	args := m.Called(customerID)
	return args.Get(0).([]models.Receipt), args.Error(1)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderProcessed(event models.OrderProcessedEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func newProcessor() (*services.OrderProcessor, *ledger.Ledger) {
	l := ledger.New()
	return services.NewOrderProcessor(l, nil, nil, nil), l
}

func TestProcessOrder_Valid(t *testing.T) {
	p, _ := newProcessor()

	result, err := p.ProcessOrder(&models.Order{ProductID: "P001", Quantity: 10, Price: 20.0, CustomerID: "C001"})
	require.NoError(t, err)

	assert.NotEmpty(t, result.OrderID)
	assert.Equal(t, 200.0, result.OriginalTotal)
	assert.Equal(t, 180.0, result.FinalTotal)
	assert.Less(t, result.FinalTotal, result.OriginalTotal)
	assert.Equal(t, "10.0%", result.TotalDiscount)
	assert.Equal(t, []string{services.BulkDiscount}, result.AppliedDiscounts)
	assert.Equal(t, 180.0, result.CustomerBalance)
	assert.False(t, result.IsVIPCustomer)
}

func TestProcessOrder_BulkAndSeasonal(t *testing.T) {
	p, _ := newProcessor()

	result, err := p.ProcessOrder(&models.Order{ProductID: "S001", Quantity: 10, Price: 20.0, CustomerID: "C002"})
	require.NoError(t, err)

	assert.InDelta(t, 0.25, result.DiscountRate, 1e-12)
	assert.Equal(t, "25.0%", result.TotalDiscount)
	assert.Equal(t, 150.0, result.FinalTotal)
	assert.Equal(t, []string{services.BulkDiscount, services.SeasonalDiscount}, result.AppliedDiscounts)
}

func TestProcessOrder_SeasonalAddsToOtherDiscounts(t *testing.T) {
	p, _ := newProcessor()

	plain, err := p.ProcessOrder(&models.Order{ProductID: "P100", Quantity: 1, Price: 10, CustomerID: "A"})
	require.NoError(t, err)
	seasonal, err := p.ProcessOrder(&models.Order{ProductID: "S100", Quantity: 1, Price: 10, CustomerID: "B"})
	require.NoError(t, err)

	assert.InDelta(t, plain.DiscountRate+0.15, seasonal.DiscountRate, 1e-12)
	assert.Contains(t, seasonal.AppliedDiscounts, services.SeasonalDiscount)
}

func TestProcessOrder_VIPPromotionLag(t *testing.T) {
	p, l := newProcessor()

	first, err := p.ProcessOrder(&models.Order{ProductID: "P001", Quantity: 1, Price: 2000.0, CustomerID: "VIP001"})
	require.NoError(t, err)
	assert.NotContains(t, first.AppliedDiscounts, services.VIPDiscount)
	assert.True(t, first.IsVIPCustomer)
	assert.True(t, l.IsVIP("VIP001"))

	second, err := p.ProcessOrder(&models.Order{ProductID: "P001", Quantity: 1, Price: 100.0, CustomerID: "VIP001"})
	require.NoError(t, err)
	assert.Equal(t, []string{services.VIPDiscount}, second.AppliedDiscounts)
	assert.Equal(t, 95.0, second.FinalTotal)
	assert.True(t, second.IsVIPCustomer)
	assert.Equal(t, 2095.0, second.CustomerBalance)
}

func TestProcessOrder_PromotionUsesDiscountedTotal(t *testing.T) {
	p, _ := newProcessor()

	// 1100 before discount, 990 after the bulk discount: not enough for VIP.
	result, err := p.ProcessOrder(&models.Order{ProductID: "P001", Quantity: 10, Price: 110, CustomerID: "C"})
	require.NoError(t, err)
	assert.Equal(t, 990.0, result.CustomerBalance)
	assert.False(t, result.IsVIPCustomer)

	result, err = p.ProcessOrder(&models.Order{ProductID: "P001", Quantity: 1, Price: 10, CustomerID: "C"})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, result.CustomerBalance)
	assert.True(t, result.IsVIPCustomer)
	assert.Empty(t, result.AppliedDiscounts)
}

func TestProcessOrder_BalanceIsSumOfFinalTotals(t *testing.T) {
	p, _ := newProcessor()

	orders := []models.Order{
		{ProductID: "P1", Quantity: 1, Price: 12.5, CustomerID: "C"},
		{ProductID: "S1", Quantity: 6, Price: 40, CustomerID: "C"},
		{ProductID: "P2", Quantity: 3, Price: 300, CustomerID: "C"},
		{ProductID: "S2", Quantity: 7, Price: 11, CustomerID: "C"},
	}

	var sum, last float64
	for i := range orders {
		result, err := p.ProcessOrder(&orders[i])
		require.NoError(t, err)
		sum += result.FinalTotal
		assert.InDelta(t, sum, result.CustomerBalance, 1e-9)
		assert.GreaterOrEqual(t, result.CustomerBalance, last)
		last = result.CustomerBalance
	}

	account, err := p.GetCustomer("C")
	require.NoError(t, err)
	assert.InDelta(t, sum, account.Balance, 1e-9)
}

func TestProcessOrder_InvalidOrders(t *testing.T) {
	tests := []struct {
		name   string
		order  *models.Order
		reason string
	}{
		{"nil order", nil, "Order cannot be null"},
		{"empty product", &models.Order{ProductID: "", Quantity: 10, Price: 20, CustomerID: "C001"}, "Invalid product ID"},
		{"blank product", &models.Order{ProductID: "  \t", Quantity: 10, Price: 20, CustomerID: "C001"}, "Invalid product ID"},
		{"zero quantity", &models.Order{ProductID: "P001", Quantity: 0, Price: 20, CustomerID: "C001"}, "Quantity must be positive"},
		{"negative quantity", &models.Order{ProductID: "P001", Quantity: -3, Price: 20, CustomerID: "C001"}, "Quantity must be positive"},
		{"zero price", &models.Order{ProductID: "P001", Quantity: 1, Price: 0, CustomerID: "C001"}, "Price must be positive"},
		{"negative price", &models.Order{ProductID: "P001", Quantity: 1, Price: -1.5, CustomerID: "C001"}, "Price must be positive"},
		{"empty customer", &models.Order{ProductID: "P001", Quantity: 1, Price: 1, CustomerID: ""}, "Invalid customer ID"},
		{"blank customer", &models.Order{ProductID: "P001", Quantity: 1, Price: 1, CustomerID: "   "}, "Invalid customer ID"},
		{"first failure wins", &models.Order{ProductID: "", Quantity: 0, Price: 0, CustomerID: ""}, "Invalid product ID"},
		{"control-only product", &models.Order{ProductID: "\x00\x1f", Quantity: 1, Price: 1, CustomerID: "C001"}, "Invalid product ID"},
		{"control-only customer", &models.Order{ProductID: "P001", Quantity: 1, Price: 1, CustomerID: "\r\n\x00"}, "Invalid customer ID"},
		{"quantity before price", &models.Order{ProductID: "P", Quantity: 0, Price: -1, CustomerID: ""}, "Quantity must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			receipts := new(MockReceiptRepository)
			publisher := new(MockPublisher)
			l := ledger.New()
			p := services.NewOrderProcessor(l, receipts, publisher, nil)

			result, err := p.ProcessOrder(tt.order)
			assert.Nil(t, result)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidOrder))

			var invalid *models.InvalidOrderError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.reason, invalid.Reason)
			assert.Equal(t, tt.reason, err.Error())

			// Same input, same answer.
			_, again := p.ProcessOrder(tt.order)
			assert.Equal(t, err.Error(), again.Error())

			assert.Empty(t, l.Customers())
			receipts.AssertNotCalled(t, "Create", mock.Anything)
			publisher.AssertNotCalled(t, "PublishOrderProcessed", mock.Anything)
		})
	}
}

func TestProcessOrder_InvalidOrderLeavesExistingBalance(t *testing.T) {
	p, _ := newProcessor()

	_, err := p.ProcessOrder(&models.Order{ProductID: "P", Quantity: 1, Price: 10, CustomerID: "C"})
	require.NoError(t, err)

	_, err = p.ProcessOrder(&models.Order{ProductID: "P", Quantity: 1, Price: -10, CustomerID: "C"})
	require.Error(t, err)

	account, err := p.GetCustomer("C")
	require.NoError(t, err)
	assert.Equal(t, 10.0, account.Balance)
}

func TestProcessOrder_ArchivesAndPublishes(t *testing.T) {
	receipts := new(MockReceiptRepository)
	publisher := new(MockPublisher)
	p := services.NewOrderProcessor(ledger.New(), receipts, publisher, nil)

	receipts.On("Create", mock.MatchedBy(func(r *models.Receipt) bool {
		return r.ProductID == "S9" && r.Quantity == 1 && r.UnitPrice == 1000 && r.CustomerID == "C" &&
			r.FinalTotal == 850 && !r.CreatedAt.IsZero()
	})).Return(nil).Once()
	publisher.On("PublishOrderProcessed", mock.MatchedBy(func(e models.OrderProcessedEvent) bool {
		return e.CustomerID == "C" && e.FinalTotal == 850 && !e.VIPPromoted
	})).Return(nil).Once()

	result, err := p.ProcessOrder(&models.Order{ProductID: "S9", Quantity: 1, Price: 1000, CustomerID: "C"})
	require.NoError(t, err)
	assert.Equal(t, 850.0, result.FinalTotal)

	receipts.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestProcessOrder_PublishesPromotion(t *testing.T) {
	publisher := new(MockPublisher)
	p := services.NewOrderProcessor(ledger.New(), nil, publisher, nil)

	publisher.On("PublishOrderProcessed", mock.MatchedBy(func(e models.OrderProcessedEvent) bool {
		return e.VIPPromoted
	})).Return(nil).Once()

	_, err := p.ProcessOrder(&models.Order{ProductID: "P", Quantity: 1, Price: 1500, CustomerID: "C"})
	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestProcessOrder_SideChannelFailuresDoNotFailOrder(t *testing.T) {
	receipts := new(MockReceiptRepository)
	publisher := new(MockPublisher)
	l := ledger.New()
	p := services.NewOrderProcessor(l, receipts, publisher, nil)

	receipts.On("Create", mock.AnythingOfType("*models.Receipt")).Return(fmt.Errorf("database error")).Once()
	publisher.On("PublishOrderProcessed", mock.AnythingOfType("models.OrderProcessedEvent")).Return(fmt.Errorf("broker down")).Once()

	result, err := p.ProcessOrder(&models.Order{ProductID: "P", Quantity: 2, Price: 5, CustomerID: "C"})
	require.NoError(t, err)
	assert.Equal(t, 10.0, result.CustomerBalance)

	entry, ok := l.Lookup("C")
	require.True(t, ok)
	assert.Equal(t, 10.0, entry.Balance)
	receipts.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestProcessOrder_UniqueOrderIDs(t *testing.T) {
	p, _ := newProcessor()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		result, err := p.ProcessOrder(&models.Order{ProductID: "P", Quantity: 1, Price: 1, CustomerID: "C"})
		require.NoError(t, err)
		assert.False(t, seen[result.OrderID])
		seen[result.OrderID] = true
	}
}

func TestGetCustomer_Unknown(t *testing.T) {
	p, _ := newProcessor()

	account, err := p.GetCustomer("nobody")
	assert.Nil(t, account)
	assert.ErrorIs(t, err, models.ErrCustomerUnknown)
}

func TestReceipts_WithoutRepository(t *testing.T) {
	p, _ := newProcessor()

	_, err := p.GetReceipt("x")
	assert.ErrorIs(t, err, models.ErrReceiptNotFound)

	list, err := p.ListReceipts("")
	assert.NoError(t, err)
	assert.Empty(t, list)
}

func TestListReceipts_DelegatesByCustomer(t *testing.T) {
	receipts := new(MockReceiptRepository)
	p := services.NewOrderProcessor(ledger.New(), receipts, nil, nil)

	receipts.On("GetAll").Return([]models.Receipt{{CustomerID: "A"}, {CustomerID: "B"}}, nil).Once()
	receipts.On("GetByCustomer", "A").Return([]models.Receipt{{CustomerID: "A"}}, nil).Once()

	all, err := p.ListReceipts("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := p.ListReceipts("A")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	receipts.AssertExpectations(t)
}

func TestProcessOrder_NonBreakingSpaceIsNotBlank(t *testing.T) {
	p, _ := newProcessor()

	result, err := p.ProcessOrder(&models.Order{ProductID: "\u00a0", Quantity: 1, Price: 1, CustomerID: "\u00a0"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.CustomerBalance)
}

func TestProcessOrder_TotalOutOfRange(t *testing.T) {
	receipts := new(MockReceiptRepository)
	publisher := new(MockPublisher)
	l := ledger.New()
	p := services.NewOrderProcessor(l, receipts, publisher, nil)

	_, err := p.ProcessOrder(&models.Order{ProductID: "P", Quantity: 10, Price: 1e308, CustomerID: "big"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTotalOutOfRange)
	assert.False(t, errors.Is(err, models.ErrInvalidOrder))

	receipts.On("Create", mock.AnythingOfType("*models.Receipt")).Return(nil).Once()
	publisher.On("PublishOrderProcessed", mock.AnythingOfType("models.OrderProcessedEvent")).Return(nil).Once()
	_, err = p.ProcessOrder(&models.Order{ProductID: "P", Quantity: 1, Price: 1.5e308, CustomerID: "whale"})
	require.NoError(t, err)

	_, err = p.ProcessOrder(&models.Order{ProductID: "P", Quantity: 1, Price: 1.5e308, CustomerID: "whale"})
	assert.ErrorIs(t, err, models.ErrTotalOutOfRange)
	assert.ErrorIs(t, err, ledger.ErrBalanceOverflow)

	_, ok := l.Lookup("big")
	assert.False(t, ok)
	whale, ok := l.Lookup("whale")
	require.True(t, ok)
	assert.Equal(t, 1.5e308, whale.Balance)
	receipts.AssertExpectations(t)
	publisher.AssertExpectations(t)
}
