package persistence

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leyfach/congenialexchangeascii-sub000/config"
	"github.com/Leyfach/congenialexchangeascii-sub000/margin"
	"github.com/Leyfach/congenialexchangeascii-sub000/matching"
	"github.com/Leyfach/congenialexchangeascii-sub000/models"
	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

// GormStore records orders, trades and positions best-effort. Failures are
// logged, never surfaced to the matching path: absence of a record must
// not block matching.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&models.Order{}, &models.Trade{}, &models.Position{}); err != nil {
		return nil, err
	}

	return &GormStore{db: db}, nil
}

func (s *GormStore) RecordOrder(o *matching.Order) {
	row := models.OrderRow(o)

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		config.Logger.Errorf("[persistence] record order %d: %v", o.ID, err)
	}
}

func (s *GormStore) RecordTrade(t *matching.Trade) {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(models.TradeRow(t)).Error
	if err != nil {
		config.Logger.Errorf("[persistence] record trade %s: %v", t.ID, err)
	}
}

func (s *GormStore) RecordPosition(p *margin.Position) {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(models.PositionRow(p)).Error
	if err != nil {
		config.Logger.Errorf("[persistence] record position %d: %v", p.ID, err)
	}
}

// OpenOrders loads the pair's still-open orders in sequence order so the
// volatile book can be rebuilt on restart.
func (s *GormStore) OpenOrders(pair string) ([]*matching.Order, error) {
	var rows []*models.Order

	err := s.db.
		Where("pair = ? AND status IN ?", pair, []string{
			string(types.StatusOpen),
			string(types.StatusPartiallyFilled),
		}).
		Order("sequence asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*matching.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.ToMatching())
	}

	return orders, nil
}

// NoopStore satisfies the recorder contracts for deployments without a
// database and for tests.
type NoopStore struct{}

func (NoopStore) RecordOrder(*matching.Order)     {}
func (NoopStore) RecordTrade(*matching.Trade)     {}
func (NoopStore) RecordPosition(*margin.Position) {}

func (NoopStore) OpenOrders(string) ([]*matching.Order, error) {
	return nil, nil
}
