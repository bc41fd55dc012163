package ledger_test

import (
	"math"
	"sync"
	"testing"

	"orderdesk/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(amount float64) func(bool) float64 {
	return func(bool) float64 { return amount }
}

func settle(t *testing.T, l *ledger.Ledger, customerID string, price func(bool) float64) ledger.Entry {
	t.Helper()
	e, err := l.Settle(customerID, price)
	require.NoError(t, err)
	return e
}

func TestLedger_SettleCreatesAndAccumulates(t *testing.T) {
	l := ledger.New()

	_, ok := l.Lookup("C001")
	assert.False(t, ok)

	e := settle(t, l, "C001", fixed(150))
	assert.Equal(t, 150.0, e.Balance)
	assert.False(t, e.VIP)

	e = settle(t, l, "C001", fixed(50))
	assert.Equal(t, 200.0, e.Balance)

	got, ok := l.Lookup("C001")
	require.True(t, ok)
	assert.Equal(t, 200.0, got.Balance)
}

func TestLedger_PromotionIsLaggedAndMonotonic(t *testing.T) {
	l := ledger.New()

	var seen []bool
	record := func(amount float64) func(bool) float64 {
		return func(vip bool) float64 {
			seen = append(seen, vip)
			return amount
		}
	}

	e := settle(t, l, "C001", record(1000))
	assert.True(t, e.VIP)
	assert.True(t, e.Promoted)

	e = settle(t, l, "C001", record(10))
	assert.True(t, e.VIP)
	assert.False(t, e.Promoted)

	assert.Equal(t, []bool{false, true}, seen)
	assert.True(t, l.IsVIP("C001"))
}

func TestLedger_BelowThresholdStaysRegular(t *testing.T) {
	l := ledger.New()

	e := settle(t, l, "C001", fixed(999.99))
	assert.False(t, e.VIP)
	assert.False(t, l.IsVIP("C001"))
}

func TestLedger_CustomersSorted(t *testing.T) {
	l := ledger.New()
	settle(t, l, "b", fixed(1))
	settle(t, l, "a", fixed(2000))

	entries := l.Customers()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].CustomerID)
	assert.True(t, entries[0].VIP)
	assert.Equal(t, "b", entries[1].CustomerID)
}

func TestLedger_ConcurrentSettleLosesNoUpdates(t *testing.T) {
	l := ledger.New()

	const workers = 50
	const perWorker = 20

	var promotions int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				e, err := l.Settle("shared", fixed(1))
				assert.NoError(t, err)
				if e.Promoted {
					mu.Lock()
					promotions++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	e, ok := l.Lookup("shared")
	require.True(t, ok)
	assert.Equal(t, float64(workers*perWorker), e.Balance)
	assert.True(t, e.VIP)
	assert.Equal(t, 1, promotions)
}

func TestLedger_SettleRefusesNonFiniteBalance(t *testing.T) {
	l := ledger.New()
	settle(t, l, "big", fixed(1.5e308))

	_, err := l.Settle("big", fixed(1.5e308))
	assert.ErrorIs(t, err, ledger.ErrBalanceOverflow)

	_, err = l.Settle("fresh", fixed(math.Inf(1)))
	assert.ErrorIs(t, err, ledger.ErrBalanceOverflow)

	e, ok := l.Lookup("big")
	require.True(t, ok)
	assert.Equal(t, 1.5e308, e.Balance)
	assert.True(t, e.VIP)

	_, ok = l.Lookup("fresh")
	assert.False(t, ok)
	assert.False(t, l.IsVIP("fresh"))
}
