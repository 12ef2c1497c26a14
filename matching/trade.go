package matching

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade is the immutable record of two matched orders. The executed price
// is always the resting (maker) order's price. Trades are created only by
// the matching loop and never mutated afterwards.
type Trade struct {
	ID           uuid.UUID       `json:"id"`
	Pair         string          `json:"pair"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	Total        decimal.Decimal `json:"total"`
	MakerOrderID uint64          `json:"maker_order_id"`
	TakerOrderID uint64          `json:"taker_order_id"`
	BuyerID      uint64          `json:"buyer_id"`
	SellerID     uint64          `json:"seller_id"`
	TakerSide    string          `json:"taker_side"`
	CreatedAt    time.Time       `json:"created_at"`
}

func newTrade(pair string, maker, taker *Order, quantity decimal.Decimal) *Trade {
	price := maker.Price.Decimal

	trade := &Trade{
		ID:           uuid.New(),
		Pair:         pair,
		Price:        price,
		Quantity:     quantity,
		Total:        price.Mul(quantity),
		MakerOrderID: maker.ID,
		TakerOrderID: taker.ID,
		TakerSide:    string(taker.Side),
		CreatedAt:    time.Now(),
	}

	if taker.IsBid() {
		trade.BuyerID = taker.AccountID
		trade.SellerID = maker.AccountID
	} else {
		trade.BuyerID = maker.AccountID
		trade.SellerID = taker.AccountID
	}

	return trade
}
