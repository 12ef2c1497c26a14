package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/matching"
)

// Order is the persistence row for a core order. The book is rebuilt from
// rows whose status is still open.
type Order struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	UUID      uuid.UUID `json:"uuid"`
	AccountID uint64    `json:"account_id" gorm:"index"`
	Pair      string    `json:"pair" gorm:"index"`
	Side      string    `json:"side"`
	Type      string    `json:"type"`

	Quantity       decimal.Decimal `json:"quantity" gorm:"type:decimal(32,16)"`
	FilledQuantity decimal.Decimal `json:"filled_quantity" gorm:"type:decimal(32,16);default:0.0"`

	Price           decimal.NullDecimal `json:"price" gorm:"type:decimal(32,16)"`
	StopPrice       decimal.NullDecimal `json:"stop_price" gorm:"type:decimal(32,16)"`
	TrailAmount     decimal.NullDecimal `json:"trail_amount" gorm:"type:decimal(32,16)"`
	TrailPercent    decimal.NullDecimal `json:"trail_percent" gorm:"type:decimal(32,16)"`
	VisibleQuantity decimal.NullDecimal `json:"visible_quantity" gorm:"type:decimal(32,16)"`

	OCOGroupID string `json:"oco_group_id"`
	ParentID   uint64 `json:"parent_id"`

	TimeInForce string    `json:"time_in_force"`
	Status      string    `json:"status" gorm:"index"`
	Sequence    uint64    `json:"sequence"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func OrderRow(o *matching.Order) *Order {
	return &Order{
		ID:              o.ID,
		UUID:            o.UUID,
		AccountID:       o.AccountID,
		Pair:            o.Pair,
		Side:            string(o.Side),
		Type:            string(o.Type),
		Quantity:        o.Quantity,
		FilledQuantity:  o.FilledQuantity,
		Price:           o.Price,
		StopPrice:       o.StopPrice,
		TrailAmount:     o.TrailAmount,
		TrailPercent:    o.TrailPercent,
		VisibleQuantity: o.VisibleQuantity,
		OCOGroupID:      o.OCOGroupID,
		ParentID:        o.ParentID,
		TimeInForce:     string(o.TimeInForce),
		Status:          string(o.Status),
		Sequence:        o.Sequence,
		CreatedAt:       o.CreatedAt,
	}
}

// ToMatching rebuilds the core order from its row.
func (row *Order) ToMatching() *matching.Order {
	return &matching.Order{
		ID:              row.ID,
		UUID:            row.UUID,
		AccountID:       row.AccountID,
		Pair:            row.Pair,
		Side:            sideFromString(row.Side),
		Type:            typeFromString(row.Type),
		Quantity:        row.Quantity,
		FilledQuantity:  row.FilledQuantity,
		Price:           row.Price,
		StopPrice:       row.StopPrice,
		TrailAmount:     row.TrailAmount,
		TrailPercent:    row.TrailPercent,
		VisibleQuantity: row.VisibleQuantity,
		OCOGroupID:      row.OCOGroupID,
		ParentID:        row.ParentID,
		TimeInForce:     tifFromString(row.TimeInForce),
		Status:          statusFromString(row.Status),
		Sequence:        row.Sequence,
		CreatedAt:       row.CreatedAt,
	}
}
