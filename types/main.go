package types

import "strings"

type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// Opposite returns the side a matching counter-order would have.
func (s OrderSide) Opposite() OrderSide {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

type OrderType string

const (
	TypeMarket       OrderType = "market"
	TypeLimit        OrderType = "limit"
	TypeStopLoss     OrderType = "stop_loss"
	TypeTakeProfit   OrderType = "take_profit"
	TypeStopLimit    OrderType = "stop_limit"
	TypeTrailingStop OrderType = "trailing_stop"
	TypeIceberg      OrderType = "iceberg"
	TypeOCO          OrderType = "oco"
)

// Conditional reports whether orders of this type are parked with the
// conditional monitor instead of entering the book directly.
func (t OrderType) Conditional() bool {
	switch t {
	case TypeStopLoss, TypeTakeProfit, TypeStopLimit, TypeTrailingStop, TypeIceberg, TypeOCO:
		return true
	}
	return false
}

type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusOpen            OrderStatus = "open"
	StatusPartiallyFilled OrderStatus = "partially_filled"
	StatusFilled          OrderStatus = "filled"
	StatusCancelled       OrderStatus = "cancelled"
	StatusExpired         OrderStatus = "expired"
	StatusTriggered       OrderStatus = "triggered"
)

type TimeInForce string

const (
	GTC TimeInForce = "gtc"
	IOC TimeInForce = "ioc"
	FOK TimeInForce = "fok"
)

type PositionSide string

const (
	PositionLong  PositionSide = "long"
	PositionShort PositionSide = "short"
)

type PositionStatus string

const (
	PositionOpen       PositionStatus = "open"
	PositionClosed     PositionStatus = "closed"
	PositionLiquidated PositionStatus = "liquidated"
)

// Event topics published to the event sink.
const (
	TopicDepth         = "depth"
	TopicDepthSnapshot = "depth_snapshot"
	TopicTrade         = "trade"
	TopicOrder         = "order"
	TopicPosition      = "position"
	TopicWatch         = "conditional"
	TopicLiquidate     = "liquidation"
)

// SplitPair breaks a market symbol such as "BTC/USDT" into its base and
// quote currencies. A symbol without a separator yields the symbol itself
// as base and an empty quote.
func SplitPair(pair string) (base, quote string) {
	parts := strings.SplitN(pair, "/", 2)
	base = parts[0]
	if len(parts) == 2 {
		quote = parts[1]
	}
	return
}
