package matching

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

type onChange func(side types.OrderSide, price decimal.Decimal, total decimal.Decimal)

// PriceLevel holds the resting orders at one price, in arrival-sequence
// order. Equal-price orders execute strictly FIFO by sequence.
type PriceLevel struct {
	Side     types.OrderSide
	Price    decimal.Decimal
	Orders   []*Order
	onChange onChange
}

type PriceLevelKey struct {
	Side  types.OrderSide
	Price decimal.Decimal
}

func NewPriceLevel(side types.OrderSide, price decimal.Decimal, fn onChange) *PriceLevel {
	return &PriceLevel{
		Side:     side,
		Price:    price,
		Orders:   make([]*Order, 0),
		onChange: fn,
	}
}

func (p *PriceLevel) Key() *PriceLevelKey {
	return &PriceLevelKey{
		Side:  p.Side,
		Price: p.Price,
	}
}

func (p *PriceLevel) Add(order *Order) {
	for _, o := range p.Orders {
		if o.ID == order.ID {
			return
		}
	}

	p.Orders = append(p.Orders, order)
	sort.Slice(p.Orders, func(i, j int) bool {
		return p.Orders[i].Sequence < p.Orders[j].Sequence
	})

	p.onChange(p.Side, p.Price, p.Total())
}

// Top returns the order with time priority at this level.
func (p *PriceLevel) Top() *Order {
	if p.Empty() {
		return nil
	}
	return p.Orders[0]
}

func (p *PriceLevel) Empty() bool {
	return len(p.Orders) == 0
}

func (p *PriceLevel) Size() int {
	return len(p.Orders)
}

func (p *PriceLevel) Total() decimal.Decimal {
	total := decimal.Zero
	for _, order := range p.Orders {
		total = total.Add(order.UnfilledQuantity())
	}
	return total
}

func (p *PriceLevel) Remove(orderID uint64) {
	for index, o := range p.Orders {
		if o.ID == orderID {
			p.Orders = append(p.Orders[:index], p.Orders[index+1:]...)
			break
		}
	}

	p.onChange(p.Side, p.Price, p.Total())
}

// Touch republishes the level total after an in-place fill.
func (p *PriceLevel) Touch() {
	p.onChange(p.Side, p.Price, p.Total())
}
