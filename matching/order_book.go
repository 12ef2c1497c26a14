package matching

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/config"
	"github.com/Leyfach/congenialexchangeascii-sub000/events"
	"github.com/Leyfach/congenialexchangeascii-sub000/ledger"
	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

// Recorder persists orders and trades best-effort. A missing record never
// blocks matching.
type Recorder interface {
	RecordOrder(o *Order)
	RecordTrade(t *Trade)
}

// PriceFeed receives the last trade price of a pair.
type PriceFeed interface {
	SetLastPrice(pair string, price decimal.Decimal)
}

// FillObserver is notified after an order receives a fill. Callbacks run
// inside the engine's serialization point and must not submit or cancel
// synchronously; enqueue and return.
type FillObserver interface {
	OrderFilled(o *Order, t *Trade)
}

// OrderBook owns the resting orders of one pair. It is not safe for
// concurrent use by itself: all mutations go through the owning Engine,
// which serializes them.
type OrderBook struct {
	Pair        string
	Base        string
	Quote       string
	MarketPrice decimal.Decimal
	Depth       *Depth

	sequence      uint64
	orders        map[uint64]*Order
	accountOrders map[uint64]map[uint64]*Order

	ledger    ledger.BalanceLedger
	sink      events.EventSink
	recorder  Recorder
	priceFeed PriceFeed
	observers []FillObserver
}

func NewOrderBook(pair string, bl ledger.BalanceLedger, sink events.EventSink, recorder Recorder, feed PriceFeed) *OrderBook {
	base, quote := types.SplitPair(pair)

	return &OrderBook{
		Pair:          pair,
		Base:          base,
		Quote:         quote,
		Depth:         NewDepth(pair, sink),
		orders:        make(map[uint64]*Order),
		accountOrders: make(map[uint64]map[uint64]*Order),
		ledger:        bl,
		sink:          sink,
		recorder:      recorder,
		priceFeed:     feed,
	}
}

func (ob *OrderBook) RegisterFillObserver(observer FillObserver) {
	ob.observers = append(ob.observers, observer)
}

// Submit validates and matches an incoming order. Limit remainders rest in
// the book unless the time in force forbids it; market remainders are
// discarded. Validation failures return before any state change.
func (ob *OrderBook) Submit(o *Order) ([]*Trade, error) {
	if err := o.Valid(); err != nil {
		return nil, err
	}

	if o.Type != types.TypeMarket && o.Type != types.TypeLimit {
		return nil, newValidationError("type", "conditional orders must be registered with the monitor")
	}

	if o.Type == types.TypeMarket && ob.Depth.Best(o.Side.Opposite()) == nil {
		return nil, ErrNoLiquidity
	}

	ob.accept(o)

	if o.TimeInForce == types.FOK && ob.fillableQuantity(o).LessThan(o.UnfilledQuantity()) {
		// Kill without touching the book: no partial fill persists.
		o.Status = types.StatusCancelled
		ob.publishOrder(o)
		return []*Trade{}, nil
	}

	trades := ob.match(o)

	if o.UnfilledQuantity().IsPositive() {
		switch {
		case o.Type == types.TypeMarket, o.TimeInForce == types.IOC:
			// Remainder is discarded, never rested.
			if len(trades) == 0 {
				o.Status = types.StatusCancelled
			}

		default:
			ob.rest(o)
		}
	}

	ob.publishOrder(o)

	return trades, nil
}

// Cancel removes a resting order if it belongs to the requesting account.
func (ob *OrderBook) Cancel(orderID, accountID uint64) (*Order, error) {
	o, found := ob.orders[orderID]
	if !found || !o.Open() {
		return nil, ErrOrderNotFound
	}

	if o.AccountID != accountID {
		return nil, ErrUnauthorized
	}

	ob.Depth.Remove(o)
	ob.dropIndex(o)
	o.Status = types.StatusCancelled
	ob.publishOrder(o)

	return o, nil
}

// OpenOrders returns the account's resting orders in priority order.
func (ob *OrderBook) OpenOrders(accountID uint64) []*Order {
	owned := ob.accountOrders[accountID]

	result := make([]*Order, 0, len(owned))
	for _, o := range owned {
		result = append(result, o)
	}

	for i := 1; i < len(result); i++ {
		for j := i; j > 0 && result[j-1].Sequence > result[j].Sequence; j-- {
			result[j-1], result[j] = result[j], result[j-1]
		}
	}

	return result
}

// CalcMarketOrder walks current depth and reports the quantity obtainable
// by a prospective market order and the funds it would consume. Exactly one
// of quantity or volume is expected.
func (ob *OrderBook) CalcMarketOrder(side types.OrderSide, quantity, volume decimal.NullDecimal) (obtained, required decimal.Decimal) {
	levels := ob.Depth.side(side.Opposite())

	var expected decimal.Decimal
	if quantity.Valid {
		expected = quantity.Decimal
	} else {
		expected = volume.Decimal
	}

	if !expected.IsPositive() {
		return decimal.Zero, decimal.Zero
	}

	it := levels.Iterator()
	it.End()
	for it.Prev() && expected.IsPositive() {
		pl := it.Value().(*PriceLevel)

		if quantity.Valid {
			v := decimal.Min(pl.Total(), expected)
			obtained = obtained.Add(v)
			expected = expected.Sub(v)
			required = required.Add(pl.Price.Mul(v))
		} else {
			v := decimal.Min(pl.Price.Mul(pl.Total()), expected)
			required = required.Add(v)
			expected = expected.Sub(v)
			obtained = obtained.Add(v.Div(pl.Price))
		}
	}

	return obtained, required
}

func (ob *OrderBook) accept(o *Order) {
	ob.sequence++
	o.Sequence = ob.sequence

	if o.ID == 0 {
		o.ID = NextOrderID()
	}
	if o.UUID == uuid.Nil {
		o.UUID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	if o.TimeInForce == "" {
		o.TimeInForce = types.GTC
	}

	// Reloaded orders may already carry fills.
	if o.FilledQuantity.IsPositive() {
		o.Status = types.StatusPartiallyFilled
	} else {
		o.Status = types.StatusOpen
	}
}

func (ob *OrderBook) rest(o *Order) {
	ob.Depth.Add(o)
	ob.orders[o.ID] = o

	owned, found := ob.accountOrders[o.AccountID]
	if !found {
		owned = make(map[uint64]*Order)
		ob.accountOrders[o.AccountID] = owned
	}
	owned[o.ID] = o
}

func (ob *OrderBook) dropIndex(o *Order) {
	delete(ob.orders, o.ID)

	if owned, found := ob.accountOrders[o.AccountID]; found {
		delete(owned, o.ID)
		if len(owned) == 0 {
			delete(ob.accountOrders, o.AccountID)
		}
	}
}

// match runs the canonical matching loop: while the incoming order crosses
// the best opposing level, trade min(remaining) at the resting order's
// price, FIFO within a level.
func (ob *OrderBook) match(taker *Order) []*Trade {
	trades := []*Trade{}

	opposing := taker.Side.Opposite()

	for taker.UnfilledQuantity().IsPositive() {
		best := ob.Depth.Best(opposing)
		if best == nil {
			break
		}

		if taker.Type == types.TypeLimit && !taker.IsCrossed(best.Price) {
			break
		}

		maker := best.Top()
		if maker == nil {
			break
		}

		quantity := decimal.Min(maker.UnfilledQuantity(), taker.UnfilledQuantity())

		maker.Fill(quantity)
		taker.Fill(quantity)

		trade := newTrade(ob.Pair, maker, taker, quantity)
		trades = append(trades, trade)

		if maker.Filled() {
			ob.Depth.Remove(maker)
			ob.dropIndex(maker)
		} else {
			ob.Depth.Touch(maker)
		}

		ob.setMarketPrice(trade.Price)
		ob.settle(trade)
		ob.notifyFill(maker, trade)
		ob.notifyFill(taker, trade)
		ob.publishOrder(maker)
	}

	return trades
}

// fillableQuantity sums the opposing quantity the order could consume
// immediately, honoring its limit price.
func (ob *OrderBook) fillableQuantity(o *Order) decimal.Decimal {
	available := decimal.Zero
	needed := o.UnfilledQuantity()

	levels := ob.Depth.side(o.Side.Opposite())

	it := levels.Iterator()
	it.End()
	for it.Prev() {
		pl := it.Value().(*PriceLevel)

		if o.Type == types.TypeLimit && !o.IsCrossed(pl.Price) {
			break
		}

		available = available.Add(pl.Total())
		if available.GreaterThanOrEqual(needed) {
			break
		}
	}

	return available
}

func (ob *OrderBook) setMarketPrice(price decimal.Decimal) {
	ob.MarketPrice = price

	if ob.priceFeed != nil {
		ob.priceFeed.SetLastPrice(ob.Pair, price)
	}
}

// settle pushes a committed trade to the ledger, the recorder and the event
// sink. The match has already committed quantity changes; a ledger failure
// is logged, never rolled back.
func (ob *OrderBook) settle(t *Trade) {
	if ob.ledger != nil {
		postings := []struct {
			accountID uint64
			currency  string
			delta     decimal.Decimal
		}{
			{t.BuyerID, ob.Base, t.Quantity},
			{t.BuyerID, ob.Quote, t.Total.Neg()},
			{t.SellerID, ob.Base, t.Quantity.Neg()},
			{t.SellerID, ob.Quote, t.Total},
		}

		for _, p := range postings {
			if err := ob.ledger.Adjust(p.accountID, p.currency, p.delta); err != nil {
				config.Logger.Errorf("[matching] ledger adjust failed for trade %s account %d %s %s: %v",
					t.ID, p.accountID, p.currency, p.delta, err)
			}
		}
	}

	if ob.recorder != nil {
		ob.recorder.RecordTrade(t)
	}
	if ob.sink != nil {
		ob.sink.Publish(types.TopicTrade, t)
	}
}

func (ob *OrderBook) notifyFill(o *Order, t *Trade) {
	for _, observer := range ob.observers {
		observer.OrderFilled(o, t)
	}
}

func (ob *OrderBook) publishOrder(o *Order) {
	if ob.recorder != nil {
		ob.recorder.RecordOrder(o)
	}
	if ob.sink != nil {
		ob.sink.Publish(types.TopicOrder, o)
	}
}
