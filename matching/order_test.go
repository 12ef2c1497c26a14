package matching

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

func TestOrderValid(t *testing.T) {
	cases := []struct {
		name  string
		order Order
		ok    bool
	}{
		{
			name: "market",
			order: Order{
				AccountID: 1, Pair: testPair,
				Side: types.SideBuy, Type: types.TypeMarket, Quantity: d("1"),
			},
			ok: true,
		},
		{
			name: "limit without price",
			order: Order{
				AccountID: 1, Pair: testPair,
				Side: types.SideBuy, Type: types.TypeLimit, Quantity: d("1"),
			},
			ok: false,
		},
		{
			name: "missing account",
			order: Order{
				Pair: testPair,
				Side: types.SideBuy, Type: types.TypeMarket, Quantity: d("1"),
			},
			ok: false,
		},
		{
			name: "zero quantity",
			order: Order{
				AccountID: 1, Pair: testPair,
				Side: types.SideSell, Type: types.TypeMarket, Quantity: decimal.Zero,
			},
			ok: false,
		},
		{
			name: "bad side",
			order: Order{
				AccountID: 1, Pair: testPair,
				Side: "short", Type: types.TypeMarket, Quantity: d("1"),
			},
			ok: false,
		},
		{
			name: "bad time in force",
			order: Order{
				AccountID: 1, Pair: testPair,
				Side: types.SideBuy, Type: types.TypeMarket, Quantity: d("1"),
				TimeInForce: "day",
			},
			ok: false,
		},
		{
			name: "stop without stop price",
			order: Order{
				AccountID: 1, Pair: testPair,
				Side: types.SideSell, Type: types.TypeStopLoss, Quantity: d("1"),
			},
			ok: false,
		},
		{
			name: "stop limit",
			order: Order{
				AccountID: 1, Pair: testPair,
				Side: types.SideSell, Type: types.TypeStopLimit, Quantity: d("1"),
				StopPrice: nd("95"), Price: nd("94"),
			},
			ok: true,
		},
		{
			name: "trailing with both amount and percent",
			order: Order{
				AccountID: 1, Pair: testPair,
				Side: types.SideSell, Type: types.TypeTrailingStop, Quantity: d("1"),
				TrailAmount: nd("5"), TrailPercent: nd("2"),
			},
			ok: false,
		},
		{
			name: "trailing with percent",
			order: Order{
				AccountID: 1, Pair: testPair,
				Side: types.SideSell, Type: types.TypeTrailingStop, Quantity: d("1"),
				TrailPercent: nd("2"),
			},
			ok: true,
		},
		{
			name: "iceberg visible above total",
			order: Order{
				AccountID: 1, Pair: testPair,
				Side: types.SideSell, Type: types.TypeIceberg, Quantity: d("1"),
				Price: nd("100"), VisibleQuantity: nd("2"),
			},
			ok: false,
		},
		{
			name: "iceberg",
			order: Order{
				AccountID: 1, Pair: testPair,
				Side: types.SideSell, Type: types.TypeIceberg, Quantity: d("10"),
				Price: nd("100"), VisibleQuantity: nd("2"),
			},
			ok: true,
		},
		{
			name: "oco without group",
			order: Order{
				AccountID: 1, Pair: testPair,
				Side: types.SideSell, Type: types.TypeOCO, Quantity: d("1"),
				StopPrice: nd("95"),
			},
			ok: false,
		},
		{
			name: "oco stop leg",
			order: Order{
				AccountID: 1, Pair: testPair,
				Side: types.SideSell, Type: types.TypeOCO, Quantity: d("1"),
				StopPrice: nd("95"), OCOGroupID: "g1",
			},
			ok: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.order.Valid()
			if c.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !c.ok && err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestOrderFillProgression(t *testing.T) {
	o := Order{Quantity: d("3"), Status: types.StatusOpen}

	o.Fill(d("1"))
	if o.Status != types.StatusPartiallyFilled {
		t.Errorf("expected partially filled, got %s", o.Status)
	}
	if !o.UnfilledQuantity().Equal(d("2")) {
		t.Errorf("expected 2 unfilled, got %s", o.UnfilledQuantity())
	}

	o.Fill(d("2"))
	if o.Status != types.StatusFilled {
		t.Errorf("expected filled, got %s", o.Status)
	}
	if !o.UnfilledQuantity().IsZero() {
		t.Errorf("expected nothing unfilled, got %s", o.UnfilledQuantity())
	}
}

func TestNextOrderIDMonotonic(t *testing.T) {
	a := NextOrderID()
	b := NextOrderID()
	if b <= a {
		t.Errorf("ids must increase: %d then %d", a, b)
	}
}
