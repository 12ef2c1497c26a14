package matching

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

// Engine is the single serialization point for one pair's order book. All
// submissions and cancellations, client-originated or derived by the
// conditional and margin monitors, pass through it; a cancellation can
// never race a match for the same order and FIFO priority holds under
// concurrent arrivals.
type Engine struct {
	matchingMutex sync.Mutex

	Pair      string
	OrderBook *OrderBook
}

func NewEngine(pair string, book *OrderBook) *Engine {
	return &Engine{
		Pair:      pair,
		OrderBook: book,
	}
}

// Submit runs the order through validation and the matching loop. It
// returns the accepted order and the trades produced so far.
func (e *Engine) Submit(o *Order) (*Order, []*Trade, error) {
	e.matchingMutex.Lock()
	defer e.matchingMutex.Unlock()

	trades, err := e.OrderBook.Submit(o)
	if err != nil {
		return nil, nil, err
	}

	return o, trades, nil
}

func (e *Engine) Cancel(orderID, accountID uint64) (*Order, error) {
	e.matchingMutex.Lock()
	defer e.matchingMutex.Unlock()

	return e.OrderBook.Cancel(orderID, accountID)
}

// Snapshot aggregates the top price levels per side. Reads take the depth's
// read lock only.
func (e *Engine) Snapshot(limit int) *BookSnapshot {
	return e.OrderBook.Depth.Snapshot(limit)
}

func (e *Engine) OpenOrders(accountID uint64) []*Order {
	e.matchingMutex.Lock()
	defer e.matchingMutex.Unlock()

	return e.OrderBook.OpenOrders(accountID)
}

func (e *Engine) CalcMarketOrder(side types.OrderSide, quantity, volume decimal.NullDecimal) (decimal.Decimal, decimal.Decimal) {
	e.matchingMutex.Lock()
	defer e.matchingMutex.Unlock()

	return e.OrderBook.CalcMarketOrder(side, quantity, volume)
}

// LastPrice is the price of the pair's most recent trade.
func (e *Engine) LastPrice() decimal.Decimal {
	e.matchingMutex.Lock()
	defer e.matchingMutex.Unlock()

	return e.OrderBook.MarketPrice
}
