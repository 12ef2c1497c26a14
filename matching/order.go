package matching

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/validate"
	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

var lastOrderID uint64

// NextOrderID hands out process-wide unique numeric order ids. Books and
// the conditional monitor share it so ids never collide across owners.
func NextOrderID() uint64 {
	return atomic.AddUint64(&lastOrderID, 1)
}

// Order is a client- or engine-originated instruction against one pair.
// Sequence is assigned by the book on acceptance and is the time-priority
// tiebreak: strictly increasing even when wall-clock timestamps collide.
type Order struct {
	ID        uint64          `json:"id"`
	UUID      uuid.UUID       `json:"uuid"`
	AccountID uint64          `json:"account_id" validate:"required"`
	Pair      string          `json:"pair" validate:"required"`
	Side      types.OrderSide `json:"side"`
	Type      types.OrderType `json:"type"`

	Quantity       decimal.Decimal `json:"quantity"`
	FilledQuantity decimal.Decimal `json:"filled_quantity"`

	Price           decimal.NullDecimal `json:"price"`
	StopPrice       decimal.NullDecimal `json:"stop_price"`
	TrailAmount     decimal.NullDecimal `json:"trail_amount"`
	TrailPercent    decimal.NullDecimal `json:"trail_percent"`
	VisibleQuantity decimal.NullDecimal `json:"visible_quantity"`

	OCOGroupID string `json:"oco_group_id,omitempty"`
	ParentID   uint64 `json:"parent_id,omitempty"`

	TimeInForce types.TimeInForce `json:"time_in_force"`
	Status      types.OrderStatus `json:"status"`
	Sequence    uint64            `json:"sequence"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (o Order) Messages() map[string]string {
	return validate.MS{
		"required": "order.invalid_{field}",
	}
}

// UnfilledQuantity is the remaining quantity. The invariant
// filled + remaining == original holds at all times.
func (o *Order) UnfilledQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

// Fill records an executed quantity and moves the status forward.
func (o *Order) Fill(quantity decimal.Decimal) {
	o.FilledQuantity = o.FilledQuantity.Add(quantity)

	if o.Filled() {
		o.Status = types.StatusFilled
	} else if o.FilledQuantity.IsPositive() {
		o.Status = types.StatusPartiallyFilled
	}
}

func (o *Order) Filled() bool {
	return o.FilledQuantity.GreaterThanOrEqual(o.Quantity)
}

// IsCrossed reports whether a limit order at o.Price trades against the
// given opposing price.
func (o *Order) IsCrossed(price decimal.Decimal) bool {
	if o.Side == types.SideSell {
		return price.GreaterThanOrEqual(o.Price.Decimal)
	}
	return price.LessThanOrEqual(o.Price.Decimal)
}

func (o *Order) IsBid() bool {
	return o.Side == types.SideBuy
}

func (o *Order) IsAsk() bool {
	return o.Side == types.SideSell
}

// Open reports whether the order can still rest in or enter the book.
func (o *Order) Open() bool {
	return o.Status == types.StatusOpen || o.Status == types.StatusPartiallyFilled
}

// Valid checks the order fields for the book's submit contract. It returns
// a *ValidationError without side effects on failure.
func (o *Order) Valid() error {
	v := validate.Struct(o)
	if !v.Validate() {
		return newValidationError("order", v.Errors.One())
	}

	if o.Side != types.SideBuy && o.Side != types.SideSell {
		return newValidationError("side", "must be buy or sell")
	}

	if !o.Quantity.IsPositive() {
		return newValidationError("quantity", "must be positive")
	}

	if o.FilledQuantity.IsNegative() || o.FilledQuantity.GreaterThan(o.Quantity) {
		return newValidationError("filled_quantity", "out of range")
	}

	switch o.TimeInForce {
	case "", types.GTC, types.IOC, types.FOK:
	default:
		return newValidationError("time_in_force", "unknown value")
	}

	switch o.Type {
	case types.TypeMarket:
		// Market orders carry no price.

	case types.TypeLimit, types.TypeIceberg:
		if !o.Price.Valid || !o.Price.Decimal.IsPositive() {
			return newValidationError("price", "limit orders require a positive price")
		}

	case types.TypeStopLoss, types.TypeTakeProfit:
		if !o.StopPrice.Valid || !o.StopPrice.Decimal.IsPositive() {
			return newValidationError("stop_price", "must be positive")
		}

	case types.TypeStopLimit:
		if !o.StopPrice.Valid || !o.StopPrice.Decimal.IsPositive() {
			return newValidationError("stop_price", "must be positive")
		}
		if !o.Price.Valid || !o.Price.Decimal.IsPositive() {
			return newValidationError("price", "stop limit orders require a positive limit price")
		}

	case types.TypeTrailingStop:
		hasAmount := o.TrailAmount.Valid && o.TrailAmount.Decimal.IsPositive()
		hasPercent := o.TrailPercent.Valid && o.TrailPercent.Decimal.IsPositive()
		if hasAmount == hasPercent {
			return newValidationError("trail", "exactly one of trail_amount or trail_percent required")
		}

	case types.TypeOCO:
		if o.OCOGroupID == "" {
			return newValidationError("oco_group_id", "required for oco orders")
		}
		hasStop := o.StopPrice.Valid && o.StopPrice.Decimal.IsPositive()
		hasLimit := o.Price.Valid && o.Price.Decimal.IsPositive()
		if !hasStop && !hasLimit {
			return newValidationError("price", "oco orders require a stop or limit price")
		}

	default:
		return newValidationError("type", "unknown order type")
	}

	if o.Type == types.TypeIceberg {
		if !o.VisibleQuantity.Valid || !o.VisibleQuantity.Decimal.IsPositive() {
			return newValidationError("visible_quantity", "must be positive")
		}
		if o.VisibleQuantity.Decimal.GreaterThan(o.Quantity) {
			return newValidationError("visible_quantity", "exceeds total quantity")
		}
	}

	return nil
}
