package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/margin"
)

type Position struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	UUID      uuid.UUID `json:"uuid"`
	AccountID uint64    `json:"account_id" gorm:"index"`
	Pair      string    `json:"pair" gorm:"index"`
	Side      string    `json:"side"`

	Size       decimal.Decimal `json:"size" gorm:"type:decimal(32,16)"`
	EntryPrice decimal.Decimal `json:"entry_price" gorm:"type:decimal(32,16)"`
	Leverage   int64           `json:"leverage"`
	Margin     decimal.Decimal `json:"margin" gorm:"type:decimal(32,16)"`

	LiquidationPrice decimal.Decimal `json:"liquidation_price" gorm:"type:decimal(32,16)"`
	RealizedPnL      decimal.Decimal `json:"realized_pnl" gorm:"type:decimal(32,16);default:0.0"`

	Status    string    `json:"status" gorm:"index"`
	OpenedAt  time.Time `json:"opened_at"`
	ClosedAt  time.Time `json:"closed_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func PositionRow(p *margin.Position) *Position {
	return &Position{
		ID:               p.ID,
		UUID:             p.UUID,
		AccountID:        p.AccountID,
		Pair:             p.Pair,
		Side:             string(p.Side),
		Size:             p.Size,
		EntryPrice:       p.EntryPrice,
		Leverage:         p.Leverage,
		Margin:           p.Margin,
		LiquidationPrice: p.LiquidationPrice,
		RealizedPnL:      p.RealizedPnL,
		Status:           string(p.Status),
		OpenedAt:         p.OpenedAt,
		ClosedAt:         p.ClosedAt,
	}
}
