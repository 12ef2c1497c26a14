package margin

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

// Position is one leveraged exposure. The liquidation price is computed at
// open time and fixed thereafter; the unrealized P&L is recomputed on each
// monitor pass.
type Position struct {
	ID        uint64             `json:"id"`
	UUID      uuid.UUID          `json:"uuid"`
	AccountID uint64             `json:"account_id"`
	Pair      string             `json:"pair"`
	Side      types.PositionSide `json:"side"`

	Size       decimal.Decimal `json:"size"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	Leverage   int64           `json:"leverage"`
	Margin     decimal.Decimal `json:"margin"`

	LiquidationPrice decimal.Decimal `json:"liquidation_price"`
	UnrealizedPnL    decimal.Decimal `json:"unrealized_pnl"`
	RealizedPnL      decimal.Decimal `json:"realized_pnl"`

	Status   types.PositionStatus `json:"status"`
	OpenedAt time.Time            `json:"opened_at"`
	ClosedAt time.Time            `json:"closed_at,omitempty"`
}

// PnL is the profit of closing the position at the given price:
// size × (close − entry) for longs, negated for shorts.
func (p *Position) PnL(closePrice decimal.Decimal) decimal.Decimal {
	diff := closePrice.Sub(p.EntryPrice)
	if p.Side == types.PositionShort {
		diff = diff.Neg()
	}
	return p.Size.Mul(diff)
}

// Notional is the position's exposure at entry.
func (p *Position) Notional() decimal.Decimal {
	return p.Size.Mul(p.EntryPrice)
}

// BorrowedNotional is the funded part of the exposure:
// size × entry × (leverage − 1) / leverage.
func (p *Position) BorrowedNotional() decimal.Decimal {
	lev := decimal.NewFromInt(p.Leverage)
	return p.Notional().Mul(lev.Sub(decimal.NewFromInt(1))).Div(lev)
}

// Breached reports whether the price crossed the liquidation price in the
// adverse direction.
func (p *Position) Breached(price decimal.Decimal) bool {
	if p.Side == types.PositionLong {
		return price.LessThanOrEqual(p.LiquidationPrice)
	}
	return price.GreaterThanOrEqual(p.LiquidationPrice)
}

// liquidationPrice applies the deterministic formula
// entry × (1 ∓ leverageFactor) with
// leverageFactor = 1/leverage − maintenanceMarginRate − liquidationFee.
func liquidationPrice(side types.PositionSide, entry decimal.Decimal, leverage int64, maintenanceRate, feeRate decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)

	factor := one.Div(decimal.NewFromInt(leverage)).Sub(maintenanceRate).Sub(feeRate)

	if side == types.PositionLong {
		return entry.Mul(one.Sub(factor))
	}
	return entry.Mul(one.Add(factor))
}
