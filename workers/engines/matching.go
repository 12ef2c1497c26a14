package engines

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/config"
	"github.com/Leyfach/congenialexchangeascii-sub000/events"
	"github.com/Leyfach/congenialexchangeascii-sub000/ledger"
	"github.com/Leyfach/congenialexchangeascii-sub000/matching"
	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

// OrderLoader supplies previously persisted open orders so a pair's book
// can be rebuilt on startup. The book itself is volatile in-memory state.
type OrderLoader interface {
	OpenOrders(pair string) ([]*matching.Order, error)
}

// MatchingWorker routes submissions to the per-pair engines. Each engine
// serializes its own book; the worker only resolves the pair.
type MatchingWorker struct {
	mu      sync.RWMutex
	engines map[string]*matching.Engine

	ledger    ledger.BalanceLedger
	sink      events.EventSink
	recorder  matching.Recorder
	priceFeed matching.PriceFeed
	observers []matching.FillObserver
}

func NewMatchingWorker(bl ledger.BalanceLedger, sink events.EventSink, recorder matching.Recorder, feed matching.PriceFeed) *MatchingWorker {
	return &MatchingWorker{
		engines:   make(map[string]*matching.Engine),
		ledger:    bl,
		sink:      sink,
		recorder:  recorder,
		priceFeed: feed,
	}
}

// RegisterFillObserver attaches the observer to every current and future
// engine.
func (w *MatchingWorker) RegisterFillObserver(observer matching.FillObserver) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.observers = append(w.observers, observer)
	for _, engine := range w.engines {
		engine.OrderBook.RegisterFillObserver(observer)
	}
}

func (w *MatchingWorker) AddMarket(pair string) *matching.Engine {
	w.mu.Lock()
	defer w.mu.Unlock()

	if engine, found := w.engines[pair]; found {
		return engine
	}

	book := matching.NewOrderBook(pair, w.ledger, w.sink, w.recorder, w.priceFeed)
	for _, observer := range w.observers {
		book.RegisterFillObserver(observer)
	}

	engine := matching.NewEngine(pair, book)
	w.engines[pair] = engine

	config.Logger.Infof("[engines] %s engine initialized", pair)

	return engine
}

func (w *MatchingWorker) Engine(pair string) (*matching.Engine, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	engine, found := w.engines[pair]
	return engine, found
}

func (w *MatchingWorker) Submit(o *matching.Order) (*matching.Order, []*matching.Trade, error) {
	engine, found := w.Engine(o.Pair)
	if !found {
		return nil, nil, fmt.Errorf("%w: %s", matching.ErrUnknownMarket, o.Pair)
	}

	return engine.Submit(o)
}

func (w *MatchingWorker) Cancel(pair string, orderID, accountID uint64) (*matching.Order, error) {
	engine, found := w.Engine(pair)
	if !found {
		return nil, fmt.Errorf("%w: %s", matching.ErrUnknownMarket, pair)
	}

	return engine.Cancel(orderID, accountID)
}

func (w *MatchingWorker) Snapshot(pair string, limit int) (*matching.BookSnapshot, error) {
	engine, found := w.Engine(pair)
	if !found {
		return nil, fmt.Errorf("%w: %s", matching.ErrUnknownMarket, pair)
	}

	return engine.Snapshot(limit), nil
}

// OpenOrders collects the account's resting orders across every pair.
func (w *MatchingWorker) OpenOrders(accountID uint64) []*matching.Order {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := make([]*matching.Order, 0)
	for _, engine := range w.engines {
		result = append(result, engine.OpenOrders(accountID)...)
	}
	return result
}

// Reload rebuilds a pair's book from persisted open orders, in original
// sequence order.
func (w *MatchingWorker) Reload(pair string, loader OrderLoader) error {
	engine := w.AddMarket(pair)

	orders, err := loader.OpenOrders(pair)
	if err != nil {
		return err
	}

	for _, o := range orders {
		if _, _, err := engine.Submit(o); err != nil {
			config.Logger.Errorf("[engines] reload %s order %d: %v", pair, o.ID, err)
		}
	}

	config.Logger.Infof("[engines] %s engine reloaded with %d orders", pair, len(orders))

	return nil
}

// CalcMarketOrder reports obtainable quantity and required funds for a
// prospective market order on the pair.
func (w *MatchingWorker) CalcMarketOrder(pair string, side types.OrderSide, quantity, volume decimal.NullDecimal) (decimal.Decimal, decimal.Decimal, error) {
	engine, found := w.Engine(pair)
	if !found {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %s", matching.ErrUnknownMarket, pair)
	}

	obtained, required := engine.CalcMarketOrder(side, quantity, volume)
	return obtained, required, nil
}
