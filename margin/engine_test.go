package margin

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/Leyfach/congenialexchangeascii-sub000/config"
	"github.com/Leyfach/congenialexchangeascii-sub000/ledger"
	"github.com/Leyfach/congenialexchangeascii-sub000/matching"
	"github.com/Leyfach/congenialexchangeascii-sub000/oracle"
	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

const testPair = "BTC/USDT"

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// captureGateway records the closing orders liquidation submits.
type captureGateway struct {
	orders []*matching.Order
}

func (g *captureGateway) Submit(o *matching.Order) (*matching.Order, []*matching.Trade, error) {
	g.orders = append(g.orders, o)
	return o, []*matching.Trade{}, nil
}

type MarginEngineTestSuite struct {
	suite.Suite

	ledger  *ledger.MemoryLedger
	oracle  *oracle.MemoryOracle
	gateway *captureGateway
	engine  *Engine
}

func (s *MarginEngineTestSuite) SetupTest() {
	s.ledger = ledger.NewMemoryLedger()
	s.oracle = oracle.NewMemoryOracle()
	s.gateway = &captureGateway{}

	s.ledger.Deposit(1, "USDT", d("100"))

	s.engine = NewEngine(s.ledger, s.oracle, nil, nil, s.gateway, config.MarginSettings{
		MaxLeverage:           10,
		MaintenanceMarginRate: 0.05,
		LiquidationFeeRate:    0.005,
		HourlyInterestRate:    0.0001,
	})
}

func (s *MarginEngineTestSuite) TestLiquidationPriceLong() {
	p, err := s.engine.OpenPosition(1, testPair, types.PositionLong, d("1"), 5, d("100"))
	s.Require().NoError(err)

	// factor = 1/5 − 0.05 − 0.005 = 0.145, long: 100 × 0.855
	s.True(p.LiquidationPrice.Equal(d("85.5")), "got %s", p.LiquidationPrice)
	s.True(p.Margin.Equal(d("20")))
	s.True(s.ledger.Balance(1, "USDT").Equal(d("80")))
}

func (s *MarginEngineTestSuite) TestLiquidationPriceShort() {
	p, err := s.engine.OpenPosition(1, testPair, types.PositionShort, d("1"), 5, d("100"))
	s.Require().NoError(err)

	s.True(p.LiquidationPrice.Equal(d("114.5")), "got %s", p.LiquidationPrice)
}

func (s *MarginEngineTestSuite) TestOpenValidation() {
	_, err := s.engine.OpenPosition(1, testPair, types.PositionLong, d("1"), 11, d("100"))
	s.ErrorIs(err, ErrInvalidPosition)

	_, err = s.engine.OpenPosition(1, testPair, types.PositionLong, d("1"), 0, d("100"))
	s.ErrorIs(err, ErrInvalidPosition)

	_, err = s.engine.OpenPosition(1, testPair, types.PositionLong, d("0"), 5, d("100"))
	s.ErrorIs(err, ErrInvalidPosition)

	_, err = s.engine.OpenPosition(1, testPair, "sideways", d("1"), 5, d("100"))
	s.ErrorIs(err, ErrInvalidPosition)
}

func (s *MarginEngineTestSuite) TestInsufficientCollateral() {
	// Margin would be 1000 × 100 / 5 = 20000 against a 100 USDT balance.
	_, err := s.engine.OpenPosition(1, testPair, types.PositionLong, d("1000"), 5, d("100"))
	s.ErrorIs(err, ErrInsufficientCollateral)
	s.True(s.ledger.Balance(1, "USDT").Equal(d("100")), "failed open must not move funds")
}

func (s *MarginEngineTestSuite) TestCloseLongProfit() {
	p, err := s.engine.OpenPosition(1, testPair, types.PositionLong, d("2"), 4, d("100"))
	s.Require().NoError(err)
	s.True(s.ledger.Balance(1, "USDT").Equal(d("50")))

	closed, err := s.engine.ClosePosition(p.ID, 1, d("110"))
	s.Require().NoError(err)

	s.Equal(types.PositionClosed, closed.Status)
	s.True(closed.RealizedPnL.Equal(d("20")))
	// 50 margin + 20 profit returned.
	s.True(s.ledger.Balance(1, "USDT").Equal(d("120")))
}

func (s *MarginEngineTestSuite) TestCloseShortLoss() {
	p, err := s.engine.OpenPosition(1, testPair, types.PositionShort, d("1"), 2, d("100"))
	s.Require().NoError(err)

	closed, err := s.engine.ClosePosition(p.ID, 1, d("110"))
	s.Require().NoError(err)

	s.True(closed.RealizedPnL.Equal(d("-10")))
	// 50 margin − 10 loss returned.
	s.True(s.ledger.Balance(1, "USDT").Equal(d("90")))
}

func (s *MarginEngineTestSuite) TestCloseAuthorization() {
	p, err := s.engine.OpenPosition(1, testPair, types.PositionLong, d("1"), 5, d("100"))
	s.Require().NoError(err)

	_, err = s.engine.ClosePosition(p.ID, 2, d("100"))
	s.ErrorIs(err, ErrUnauthorized)

	_, err = s.engine.ClosePosition(424242, 1, d("100"))
	s.ErrorIs(err, ErrPositionNotFound)

	_, err = s.engine.ClosePosition(p.ID, 1, d("100"))
	s.Require().NoError(err)

	_, err = s.engine.ClosePosition(p.ID, 1, d("100"))
	s.ErrorIs(err, ErrPositionNotFound, "a settled position cannot be closed again")
}

func (s *MarginEngineTestSuite) TestLiquidationPass() {
	p, err := s.engine.OpenPosition(1, testPair, types.PositionLong, d("1"), 5, d("100"))
	s.Require().NoError(err)

	s.oracle.SetLastPrice(testPair, d("86"))
	s.engine.LiquidationPass()
	s.Equal(types.PositionOpen, p.Status, "above the liquidation price nothing happens")
	s.True(p.UnrealizedPnL.Equal(d("-14")))

	s.oracle.SetLastPrice(testPair, d("85"))
	s.engine.LiquidationPass()

	s.Equal(types.PositionLiquidated, p.Status)

	// Settled at the fixed liquidation price 85.5: P&L −14.5, fee
	// 100 × 0.005 = 0.5, refund 20 − 14.5 − 0.5 = 5.
	s.True(s.ledger.Balance(1, "USDT").Equal(d("85")), "got %s", s.ledger.Balance(1, "USDT"))

	s.Require().Len(s.gateway.orders, 1)
	closing := s.gateway.orders[0]
	s.Equal(types.SideSell, closing.Side)
	s.Equal(types.TypeMarket, closing.Type)
	s.True(closing.Quantity.Equal(d("1")))
}

func (s *MarginEngineTestSuite) TestRefundFloorsAtZero() {
	p, err := s.engine.OpenPosition(1, testPair, types.PositionLong, d("1"), 5, d("100"))
	s.Require().NoError(err)
	s.True(s.ledger.Balance(1, "USDT").Equal(d("80")))

	// Loss of 30 against a margin of 20: the refund floors at zero, the
	// account never goes below the margin already posted.
	_, err = s.engine.ClosePosition(p.ID, 1, d("70"))
	s.Require().NoError(err)

	s.True(s.ledger.Balance(1, "USDT").Equal(d("80")), "got %s", s.ledger.Balance(1, "USDT"))
}

func (s *MarginEngineTestSuite) TestBorrowedNotionalAndInterest() {
	p, err := s.engine.OpenPosition(1, testPair, types.PositionLong, d("1"), 5, d("100"))
	s.Require().NoError(err)

	s.True(p.BorrowedNotional().Equal(d("80")))

	s.engine.AccrueInterest()

	// 80 × 0.0001 = 0.008 charged against collateral.
	s.True(s.ledger.Balance(1, "USDT").Equal(d("79.992")), "got %s", s.ledger.Balance(1, "USDT"))
}

func (s *MarginEngineTestSuite) TestOpenPositionsListing() {
	_, err := s.engine.OpenPosition(1, testPair, types.PositionLong, d("1"), 5, d("100"))
	s.Require().NoError(err)
	p2, err := s.engine.OpenPosition(1, testPair, types.PositionShort, d("0.5"), 2, d("100"))
	s.Require().NoError(err)

	s.Len(s.engine.OpenPositions(1), 2)
	s.Len(s.engine.OpenPositions(2), 0)

	_, err = s.engine.ClosePosition(p2.ID, 1, d("100"))
	s.Require().NoError(err)
	s.Len(s.engine.OpenPositions(1), 1)
}

func TestMarginEngine(t *testing.T) {
	suite.Run(t, new(MarginEngineTestSuite))
}
