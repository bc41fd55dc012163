// Package ledger keeps per-customer running spend and VIP membership.
package ledger

import (
	"errors"
	"math"
	"sort"
	"sync"
)

// VIPThreshold is the cumulative spend at which a customer becomes VIP.
const VIPThreshold = 1000.0

// ErrBalanceOverflow is returned when a credit would leave a balance that
// is not a finite number. The ledger is left unchanged.
var ErrBalanceOverflow = errors.New("balance out of range")

// Entry is a customer's state after a ledger operation.
type Entry struct {
	CustomerID string
	Balance    float64
	VIP        bool
	// Promoted is set when the operation that produced this entry granted VIP.
	Promoted bool
}

// Ledger holds balances and the VIP set. All mutation goes through Settle.
type Ledger struct {
	mu       sync.RWMutex
	balances map[string]float64
	vip      map[string]struct{}
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[string]float64),
		vip:      make(map[string]struct{}),
	}
}

// Settle prices and records one order for customerID atomically.
// price receives the VIP status as it was before this order and returns the
// amount to credit. VIP is granted after crediting, so it never applies to
// the order that earns it.
func (l *Ledger) Settle(customerID string, price func(vip bool) float64) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, wasVIP := l.vip[customerID]
	amount := price(wasVIP)

	balance := l.balances[customerID] + amount
	if math.IsInf(balance, 0) || math.IsNaN(balance) {
		return Entry{}, ErrBalanceOverflow
	}
	l.balances[customerID] = balance

	if balance >= VIPThreshold {
		l.vip[customerID] = struct{}{}
	}
	_, isVIP := l.vip[customerID]

	return Entry{
		CustomerID: customerID,
		Balance:    balance,
		VIP:        isVIP,
		Promoted:   isVIP && !wasVIP,
	}, nil
}

// Lookup returns the customer's entry, or false if the customer never ordered.
func (l *Ledger) Lookup(customerID string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	balance, ok := l.balances[customerID]
	if !ok {
		return Entry{}, false
	}
	_, vip := l.vip[customerID]
	return Entry{CustomerID: customerID, Balance: balance, VIP: vip}, true
}

// IsVIP reports current VIP membership.
func (l *Ledger) IsVIP(customerID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.vip[customerID]
	return ok
}

// Customers returns every known customer ordered by ID.
func (l *Ledger) Customers() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]Entry, 0, len(l.balances))
	for id, balance := range l.balances {
		_, vip := l.vip[id]
		entries = append(entries, Entry{CustomerID: id, Balance: balance, VIP: vip})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CustomerID < entries[j].CustomerID
	})
	return entries
}
