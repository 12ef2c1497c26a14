package oracle

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable is returned when no price has been observed yet for
// the requested pair.
var ErrPriceUnavailable = errors.New("oracle: price unavailable")

// PriceOracle supplies the last observed price per trading pair. The
// matching engine feeds it from executed trades; deployments may also feed
// it from an external source.
type PriceOracle interface {
	GetLastPrice(pair string) (decimal.Decimal, error)
}

// PriceWriter is the feeding half, kept separate so consumers that only
// read prices cannot move them.
type PriceWriter interface {
	SetLastPrice(pair string, price decimal.Decimal)
}

// MemoryOracle is the in-process oracle used by the core and by tests.
type MemoryOracle struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

func NewMemoryOracle() *MemoryOracle {
	return &MemoryOracle{
		prices: make(map[string]decimal.Decimal),
	}
}

func (o *MemoryOracle) GetLastPrice(pair string) (decimal.Decimal, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	price, found := o.prices[pair]
	if !found {
		return decimal.Zero, ErrPriceUnavailable
	}
	return price, nil
}

func (o *MemoryOracle) SetLastPrice(pair string, price decimal.Decimal) {
	if !price.IsPositive() {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[pair] = price
}
