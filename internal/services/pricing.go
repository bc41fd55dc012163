package services

import (
	"fmt"
	"math"
	"strings"

	"orderdesk/internal/models"
)

// Discount tags, reported in evaluation order.
const (
	BulkDiscount     = "BULK_DISCOUNT"
	VIPDiscount      = "VIP_DISCOUNT"
	SeasonalDiscount = "SEASONAL_DISCOUNT"
)

const (
	// BulkThreshold is the minimum quantity for the bulk discount.
	BulkThreshold = 5
	// SeasonalPrefix marks seasonal products. Case-sensitive.
	SeasonalPrefix = "S"
)

// discountRule contributes a fixed number of percentage points when it applies.
type discountRule struct {
	name    string
	points  int
	applies func(order *models.Order, vip bool) bool
}

// Rules are additive, not compounded, and the sum is not capped.
var discountRules = []discountRule{
	{
		name:   BulkDiscount,
		points: 10,
		applies: func(order *models.Order, _ bool) bool {
			return order.Quantity >= BulkThreshold
		},
	},
	{
		name:   VIPDiscount,
		points: 5,
		applies: func(_ *models.Order, vip bool) bool {
			return vip
		},
	},
	{
		name:   SeasonalDiscount,
		points: 15,
		applies: func(order *models.Order, _ bool) bool {
			return strings.HasPrefix(order.ProductID, SeasonalPrefix)
		},
	},
}

// quote is the priced form of a valid order.
type quote struct {
	baseTotal  float64
	finalTotal float64
	points     int
	applied    []string
}

func (q quote) rate() float64 {
	return float64(q.points) / 100
}

// label renders the discount as percentage points, e.g. "25.0%".
func (q quote) label() string {
	return fmt.Sprintf("%.1f%%", float64(q.points))
}

// priceOrder applies every rule to an already validated order. vip is the
// customer's status before this order is recorded.
func priceOrder(order *models.Order, vip bool) quote {
	q := quote{
		baseTotal: float64(order.Quantity) * order.Price,
		applied:   []string{},
	}
	for _, rule := range discountRules {
		if rule.applies(order, vip) {
			q.points += rule.points
			q.applied = append(q.applied, rule.name)
		}
	}
	q.finalTotal = q.baseTotal * (1 - q.rate())
	return q
}

// CheckTotal rejects orders whose base total does not fit in a float64.
// It assumes the order already passed validation.
func CheckTotal(order *models.Order) error {
	total := float64(order.Quantity) * order.Price
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return fmt.Errorf("%d x %g: %w", order.Quantity, order.Price, models.ErrTotalOutOfRange)
	}
	return nil
}
