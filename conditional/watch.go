package conditional

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/matching"
	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

// Watch is the monitor's per-order state for one active conditional order.
// The monitor owns it exclusively; the book is only reached through the
// engine's submit contract.
type Watch struct {
	ID    uuid.UUID         `json:"id"`
	Order *matching.Order   `json:"order"`
	State types.OrderStatus `json:"state"`

	// Trailing stops: best price seen since registration and the stop
	// derived from it. The derived stop only ratchets favorably.
	WaterMark   decimal.Decimal `json:"water_mark,omitempty"`
	DerivedStop decimal.Decimal `json:"derived_stop,omitempty"`

	// Icebergs: quantity still hidden and the slice currently resting.
	HiddenQuantity decimal.Decimal `json:"hidden_quantity,omitempty"`
	SliceQuantity  decimal.Decimal `json:"slice_quantity,omitempty"`
	SliceCount     int             `json:"slice_count,omitempty"`

	// Resting child order (iceberg slice or OCO limit leg), zero when the
	// watch has nothing in the book.
	BookOrderID uint64 `json:"book_order_id,omitempty"`

	// OCO group this watch belongs to, empty otherwise.
	GroupID string `json:"group_id,omitempty"`
}

func newWatch(o *matching.Order) *Watch {
	return &Watch{
		ID:    uuid.New(),
		Order: o,
		State: types.StatusPending,
	}
}

// trailDistance resolves the configured trail to an absolute price offset
// for the given water mark.
func (w *Watch) trailDistance(mark decimal.Decimal) decimal.Decimal {
	if w.Order.TrailAmount.Valid {
		return w.Order.TrailAmount.Decimal
	}
	return mark.Mul(w.Order.TrailPercent.Decimal).Div(decimal.NewFromInt(100))
}

// updateTrail ratchets the water mark in the favorable direction and
// recomputes the derived stop. The stop never moves unfavorably.
func (w *Watch) updateTrail(price decimal.Decimal) {
	if w.Order.IsAsk() {
		if price.GreaterThan(w.WaterMark) {
			w.WaterMark = price
			w.DerivedStop = w.WaterMark.Sub(w.trailDistance(w.WaterMark))
		}
		return
	}

	if price.LessThan(w.WaterMark) {
		w.WaterMark = price
		w.DerivedStop = w.WaterMark.Add(w.trailDistance(w.WaterMark))
	}
}

// stopPrice is the price the trigger test compares against.
func (w *Watch) stopPrice() decimal.Decimal {
	if w.Order.Type == types.TypeTrailingStop {
		return w.DerivedStop
	}
	return w.Order.StopPrice.Decimal
}

// shouldTrigger applies the crossing test: sell-side triggers when price
// drops to or through the stop, buy-side when it rises to or through it.
func (w *Watch) shouldTrigger(price decimal.Decimal) bool {
	stop := w.stopPrice()
	if !stop.IsPositive() {
		return false
	}

	if w.Order.IsAsk() {
		return price.LessThanOrEqual(stop)
	}
	return price.GreaterThanOrEqual(stop)
}

// priceWatched reports whether the watch is evaluated against the oracle
// each tick. Icebergs and resting OCO limit legs are driven by fills.
func (w *Watch) priceWatched() bool {
	switch w.Order.Type {
	case types.TypeStopLoss, types.TypeTakeProfit, types.TypeStopLimit, types.TypeTrailingStop:
		return true
	case types.TypeOCO:
		return w.Order.StopPrice.Valid && w.Order.StopPrice.Decimal.IsPositive()
	}
	return false
}
