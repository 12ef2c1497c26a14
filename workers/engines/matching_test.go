package engines

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/ledger"
	"github.com/Leyfach/congenialexchangeascii-sub000/matching"
	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func nd(value string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(value), Valid: true}
}

func newTestWorker() *MatchingWorker {
	bl := ledger.NewMemoryLedger()
	for _, account := range []uint64{1, 2} {
		bl.Deposit(account, "BTC", d("1000"))
		bl.Deposit(account, "ETH", d("1000"))
		bl.Deposit(account, "USDT", d("1000000"))
	}

	w := NewMatchingWorker(bl, nil, nil, nil)
	w.AddMarket("BTC/USDT")
	w.AddMarket("ETH/USDT")
	return w
}

func limit(account uint64, pair string, side types.OrderSide, quantity, price string) *matching.Order {
	return &matching.Order{
		AccountID: account,
		Pair:      pair,
		Side:      side,
		Type:      types.TypeLimit,
		Quantity:  d(quantity),
		Price:     nd(price),
	}
}

func TestWorkerRoutesByPair(t *testing.T) {
	w := newTestWorker()

	if _, _, err := w.Submit(limit(1, "BTC/USDT", types.SideSell, "1", "100")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, _, err := w.Submit(limit(1, "ETH/USDT", types.SideSell, "1", "10")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	btc, _ := w.Snapshot("BTC/USDT", 10)
	eth, _ := w.Snapshot("ETH/USDT", 10)

	if len(btc.Asks) != 1 || !btc.Asks[0][0].Equal(d("100")) {
		t.Errorf("btc book: expected one ask at 100, got %+v", btc.Asks)
	}
	if len(eth.Asks) != 1 || !eth.Asks[0][0].Equal(d("10")) {
		t.Errorf("eth book: expected one ask at 10, got %+v", eth.Asks)
	}

	if open := w.OpenOrders(1); len(open) != 2 {
		t.Errorf("expected open orders across both pairs, got %d", len(open))
	}
}

func TestWorkerUnknownMarket(t *testing.T) {
	w := newTestWorker()

	_, _, err := w.Submit(limit(1, "DOGE/USDT", types.SideSell, "1", "1"))
	if !errors.Is(err, matching.ErrUnknownMarket) {
		t.Fatalf("expected ErrUnknownMarket, got %v", err)
	}

	if _, err := w.Snapshot("DOGE/USDT", 10); !errors.Is(err, matching.ErrUnknownMarket) {
		t.Errorf("expected ErrUnknownMarket for snapshot, got %v", err)
	}
	if _, err := w.Cancel("DOGE/USDT", 1, 1); !errors.Is(err, matching.ErrUnknownMarket) {
		t.Errorf("expected ErrUnknownMarket for cancel, got %v", err)
	}
}

type stubLoader struct {
	orders []*matching.Order
}

func (l *stubLoader) OpenOrders(pair string) ([]*matching.Order, error) {
	return l.orders, nil
}

func TestWorkerReload(t *testing.T) {
	w := newTestWorker()

	loader := &stubLoader{orders: []*matching.Order{
		limit(1, "BTC/USDT", types.SideBuy, "1", "99"),
		limit(2, "BTC/USDT", types.SideSell, "1", "101"),
	}}

	if err := w.Reload("BTC/USDT", loader); err != nil {
		t.Fatalf("reload: %v", err)
	}

	snapshot, _ := w.Snapshot("BTC/USDT", 10)
	if len(snapshot.Bids) != 1 || len(snapshot.Asks) != 1 {
		t.Fatalf("expected both orders restored, got %+v", snapshot)
	}
}

func TestWorkerReloadKeepsPartialFill(t *testing.T) {
	w := newTestWorker()

	partial := limit(1, "BTC/USDT", types.SideBuy, "2", "99")
	partial.FilledQuantity = d("0.5")

	if err := w.Reload("BTC/USDT", &stubLoader{orders: []*matching.Order{partial}}); err != nil {
		t.Fatalf("reload: %v", err)
	}

	open := w.OpenOrders(1)
	if len(open) != 1 {
		t.Fatalf("expected the order restored, got %d", len(open))
	}
	if open[0].Status != types.StatusPartiallyFilled {
		t.Errorf("expected partially_filled after reload, got %s", open[0].Status)
	}
	if !open[0].UnfilledQuantity().Equal(d("1.5")) {
		t.Errorf("expected 1.5 unfilled, got %s", open[0].UnfilledQuantity())
	}

	snapshot, _ := w.Snapshot("BTC/USDT", 10)
	if !snapshot.Bids[0][1].Equal(d("1.5")) {
		t.Errorf("book must carry the unfilled remainder, got %s", snapshot.Bids[0][1])
	}
}
