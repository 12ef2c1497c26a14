package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/matching"
)

type Trade struct {
	ID           uuid.UUID       `json:"id" gorm:"primaryKey"`
	Pair         string          `json:"pair" gorm:"index"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(32,16)"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:decimal(32,16)"`
	Total        decimal.Decimal `json:"total" gorm:"type:decimal(32,16)"`
	MakerOrderID uint64          `json:"maker_order_id"`
	TakerOrderID uint64          `json:"taker_order_id"`
	BuyerID      uint64          `json:"buyer_id" gorm:"index"`
	SellerID     uint64          `json:"seller_id" gorm:"index"`
	TakerSide    string          `json:"taker_side"`
	CreatedAt    time.Time       `json:"created_at"`
}

func TradeRow(t *matching.Trade) *Trade {
	return &Trade{
		ID:           t.ID,
		Pair:         t.Pair,
		Price:        t.Price,
		Quantity:     t.Quantity,
		Total:        t.Total,
		MakerOrderID: t.MakerOrderID,
		TakerOrderID: t.TakerOrderID,
		BuyerID:      t.BuyerID,
		SellerID:     t.SellerID,
		TakerSide:    t.TakerSide,
		CreatedAt:    t.CreatedAt,
	}
}
