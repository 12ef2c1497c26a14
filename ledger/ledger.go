package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is returned when a debit would take a balance below
// zero.
var ErrInsufficientFunds = errors.New("ledger: insufficient funds")

// BalanceLedger atomically debits and credits account balances. The trading
// core treats its internals as external; failures after a committed match
// are logged, never rolled back.
type BalanceLedger interface {
	// Adjust applies delta (positive credit, negative debit) to the
	// account's balance in the given currency.
	Adjust(accountID uint64, currency string, delta decimal.Decimal) error
	// Balance reports the current available balance.
	Balance(accountID uint64, currency string) decimal.Decimal
}

type balanceKey struct {
	accountID uint64
	currency  string
}

// MemoryLedger is a mutex-guarded in-process ledger used by the daemon and
// by tests.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[balanceKey]decimal.Decimal
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[balanceKey]decimal.Decimal),
	}
}

func (l *MemoryLedger) Adjust(accountID uint64, currency string, delta decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := balanceKey{accountID: accountID, currency: currency}
	next := l.balances[key].Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("%w: account %d %s short by %s", ErrInsufficientFunds, accountID, currency, next.Neg())
	}

	l.balances[key] = next
	return nil
}

func (l *MemoryLedger) Balance(accountID uint64, currency string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balances[balanceKey{accountID: accountID, currency: currency}]
}

// Deposit credits an account, creating the balance if it does not exist.
func (l *MemoryLedger) Deposit(accountID uint64, currency string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("ledger: deposit amount must be positive, got %s", amount)
	}
	return l.Adjust(accountID, currency, amount)
}
