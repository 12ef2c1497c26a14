package margin

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/config"
	"github.com/Leyfach/congenialexchangeascii-sub000/events"
	"github.com/Leyfach/congenialexchangeascii-sub000/ledger"
	"github.com/Leyfach/congenialexchangeascii-sub000/matching"
	"github.com/Leyfach/congenialexchangeascii-sub000/oracle"
	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

var (
	// ErrInsufficientCollateral rejects an open when available collateral
	// is less than the required margin.
	ErrInsufficientCollateral = errors.New("margin: insufficient collateral")

	// ErrPositionNotFound is returned for a close targeting an unknown or
	// already settled position.
	ErrPositionNotFound = errors.New("margin: position not found")

	// ErrUnauthorized is returned for a close targeting another account's
	// position.
	ErrUnauthorized = errors.New("margin: position belongs to another account")

	// ErrInvalidPosition rejects out-of-range open parameters.
	ErrInvalidPosition = errors.New("margin: invalid position parameters")
)

// Recorder persists positions best-effort.
type Recorder interface {
	RecordPosition(p *Position)
}

// OrderGateway submits the closing market orders that unwind liquidated
// exposure in the book. It is the same serialized entry point client
// orders use.
type OrderGateway interface {
	Submit(o *matching.Order) (*matching.Order, []*matching.Trade, error)
}

// Engine owns all leveraged positions. Opens and closes are synchronous;
// the liquidation pass runs as a periodic background task.
type Engine struct {
	mu sync.Mutex

	ledger   ledger.BalanceLedger
	oracle   oracle.PriceOracle
	sink     events.EventSink
	recorder Recorder
	gateway  OrderGateway

	maxLeverage     int64
	maintenanceRate decimal.Decimal
	feeRate         decimal.Decimal
	hourlyRate      decimal.Decimal

	positions  map[uint64]*Position
	lastPosSeq uint64
}

func NewEngine(bl ledger.BalanceLedger, po oracle.PriceOracle, sink events.EventSink, recorder Recorder, gateway OrderGateway, settings config.MarginSettings) *Engine {
	return &Engine{
		ledger:          bl,
		oracle:          po,
		sink:            sink,
		recorder:        recorder,
		gateway:         gateway,
		maxLeverage:     settings.MaxLeverage,
		maintenanceRate: decimal.NewFromFloat(settings.MaintenanceMarginRate),
		feeRate:         decimal.NewFromFloat(settings.LiquidationFeeRate),
		hourlyRate:      decimal.NewFromFloat(settings.HourlyInterestRate),
		positions:       make(map[uint64]*Position),
	}
}

// OpenPosition debits the required margin (size × entry / leverage) from
// the account's collateral and opens the position with its liquidation
// price fixed.
func (e *Engine) OpenPosition(accountID uint64, pair string, side types.PositionSide, size decimal.Decimal, leverage int64, entryPrice decimal.Decimal) (*Position, error) {
	if side != types.PositionLong && side != types.PositionShort {
		return nil, fmt.Errorf("%w: side %q", ErrInvalidPosition, side)
	}
	if !size.IsPositive() || !entryPrice.IsPositive() {
		return nil, fmt.Errorf("%w: size and entry price must be positive", ErrInvalidPosition)
	}
	if leverage < 1 || leverage > e.maxLeverage {
		return nil, fmt.Errorf("%w: leverage %d outside [1, %d]", ErrInvalidPosition, leverage, e.maxLeverage)
	}

	_, quote := types.SplitPair(pair)

	required := size.Mul(entryPrice).Div(decimal.NewFromInt(leverage))

	if err := e.ledger.Adjust(accountID, quote, required.Neg()); err != nil {
		return nil, fmt.Errorf("%w: need %s %s: %v", ErrInsufficientCollateral, required, quote, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastPosSeq++
	p := &Position{
		ID:         e.lastPosSeq,
		UUID:       uuid.New(),
		AccountID:  accountID,
		Pair:       pair,
		Side:       side,
		Size:       size,
		EntryPrice: entryPrice,
		Leverage:   leverage,
		Margin:     required,
		LiquidationPrice: liquidationPrice(
			side, entryPrice, leverage,
			e.maintenanceRate, e.feeRate,
		),
		Status:   types.PositionOpen,
		OpenedAt: time.Now(),
	}

	e.positions[p.ID] = p
	e.record(p)

	return p, nil
}

// ClosePosition settles the position at the given price, crediting
// margin + P&L back to collateral.
func (e *Engine) ClosePosition(positionID, accountID uint64, closePrice decimal.Decimal) (*Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, found := e.positions[positionID]
	if !found || p.Status != types.PositionOpen {
		return nil, ErrPositionNotFound
	}
	if p.AccountID != accountID {
		return nil, ErrUnauthorized
	}

	e.settle(p, closePrice, decimal.Zero, types.PositionClosed)

	return p, nil
}

// Position returns a position by id.
func (e *Engine) Position(positionID uint64) (*Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, found := e.positions[positionID]
	return p, found
}

// OpenPositions lists the account's open positions.
func (e *Engine) OpenPositions(accountID uint64) []*Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]*Position, 0)
	for _, p := range e.positions {
		if p.AccountID == accountID && p.Status == types.PositionOpen {
			result = append(result, p)
		}
	}
	return result
}

// LiquidationPass recomputes unrealized P&L for every open position and
// force-closes the ones whose price crossed the liquidation price. A
// liquidation fee is deducted from the returned margin and a closing
// market order sized to the position unwinds its exposure in the book.
func (e *Engine) LiquidationPass() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range e.positions {
		if p.Status != types.PositionOpen {
			continue
		}

		price, err := e.oracle.GetLastPrice(p.Pair)
		if err != nil {
			continue
		}

		p.UnrealizedPnL = p.PnL(price)

		if !p.Breached(price) {
			continue
		}

		e.liquidate(p)
	}
}

func (e *Engine) liquidate(p *Position) {
	fee := p.Notional().Mul(e.feeRate)

	config.Logger.Infof("[margin] liquidating position %d (%s %s %s@%s, liq %s)",
		p.ID, p.Pair, p.Side, p.Size, p.EntryPrice, p.LiquidationPrice)

	e.settle(p, p.LiquidationPrice, fee, types.PositionLiquidated)

	closing := &matching.Order{
		AccountID: p.AccountID,
		Pair:      p.Pair,
		Side:      closingSide(p.Side),
		Type:      types.TypeMarket,
		Quantity:  p.Size,
	}

	if _, _, err := e.gateway.Submit(closing); err != nil {
		config.Logger.Errorf("[margin] closing order for position %d: %v", p.ID, err)
	}

	if e.sink != nil {
		e.sink.Publish(types.TopicLiquidate, p)
	}
}

// settle marks the position settled at closePrice and returns
// margin + P&L − fee to collateral. Ledger failure after the position
// state change is logged, not retried.
func (e *Engine) settle(p *Position, closePrice, fee decimal.Decimal, status types.PositionStatus) {
	pnl := p.PnL(closePrice)

	p.RealizedPnL = pnl.Sub(fee)
	p.UnrealizedPnL = decimal.Zero
	p.Status = status
	p.ClosedAt = time.Now()

	_, quote := types.SplitPair(p.Pair)

	refund := p.Margin.Add(pnl).Sub(fee)
	if refund.IsNegative() {
		refund = decimal.Zero
	}

	if refund.IsPositive() {
		if err := e.ledger.Adjust(p.AccountID, quote, refund); err != nil {
			config.Logger.Errorf("[margin] collateral credit for position %d: %v", p.ID, err)
		}
	}

	e.record(p)
}

// AccrueInterest charges one hour of interest on every open position's
// borrowed notional at the configured hourly rate.
func (e *Engine) AccrueInterest() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range e.positions {
		if p.Status != types.PositionOpen {
			continue
		}

		interest := p.BorrowedNotional().Mul(e.hourlyRate)
		if !interest.IsPositive() {
			continue
		}

		_, quote := types.SplitPair(p.Pair)

		if err := e.ledger.Adjust(p.AccountID, quote, interest.Neg()); err != nil {
			config.Logger.Errorf("[margin] interest charge for position %d: %v", p.ID, err)
		}
	}
}

func (e *Engine) record(p *Position) {
	if e.recorder != nil {
		e.recorder.RecordPosition(p)
	}
	if e.sink != nil {
		e.sink.Publish(types.TopicPosition, p)
	}
}

func closingSide(side types.PositionSide) types.OrderSide {
	if side == types.PositionLong {
		return types.SideSell
	}
	return types.SideBuy
}
