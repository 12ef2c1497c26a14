package matching

import (
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/config"
	"github.com/Leyfach/congenialexchangeascii-sub000/events"
	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

// snapshotLevelLimit caps the price levels carried by a published snapshot.
const snapshotLevelLimit = 300

// Depth owns the two price-level ladders of one pair. Bids and asks are
// red-black trees of price levels; the comparator places the best price at
// the right-most node of either tree.
type Depth struct {
	depthMutex sync.RWMutex

	Pair     string
	Asks     *redblacktree.Tree
	Bids     *redblacktree.Tree
	Sequence uint64

	// Snapshot cadence: a full snapshot is republished once enough
	// increments accumulated (subject to the min period) or the max
	// period elapsed, so consumers joining mid-stream can resync.
	snapshotTime      time.Time
	incrementCount    int64
	minIncrementCount int64
	minSnapshotPeriod time.Duration
	maxSnapshotPeriod time.Duration

	sink events.EventSink
}

// BookSnapshot is the read-only aggregation of the top price levels per
// side, quantity summed per price.
type BookSnapshot struct {
	Pair     string              `json:"pair"`
	Asks     [][]decimal.Decimal `json:"asks"`
	Bids     [][]decimal.Decimal `json:"bids"`
	Sequence uint64              `json:"sequence"`
}

// DepthIncrement is a per-level delta published after every book mutation.
type DepthIncrement struct {
	Pair     string          `json:"pair"`
	Side     types.OrderSide `json:"side"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
	Sequence uint64          `json:"sequence"`
}

func NewDepth(pair string, sink events.EventSink) *Depth {
	settings := config.Snapshot()

	return &Depth{
		Pair:              pair,
		Asks:              redblacktree.NewWith(priceComparator),
		Bids:              redblacktree.NewWith(priceComparator),
		minIncrementCount: settings.MinIncrementCount,
		minSnapshotPeriod: settings.MinPeriod(),
		maxSnapshotPeriod: settings.MaxPeriod(),
		sink:              sink,
	}
}

func (d *Depth) side(s types.OrderSide) *redblacktree.Tree {
	if s == types.SideSell {
		return d.Asks
	}
	return d.Bids
}

func (d *Depth) Add(o *Order) {
	d.depthMutex.Lock()
	defer d.depthMutex.Unlock()

	levels := d.side(o.Side)

	pl := NewPriceLevel(o.Side, o.Price.Decimal, d.publishIncrement)

	value, found := levels.Get(pl.Key())
	if !found {
		// Insert before Add so the level is visible to a snapshot
		// published from the increment callback.
		levels.Put(pl.Key(), pl)
		pl.Add(o)
		return
	}

	value.(*PriceLevel).Add(o)
}

func (d *Depth) Remove(o *Order) {
	d.depthMutex.Lock()
	defer d.depthMutex.Unlock()

	levels := d.side(o.Side)

	key := &PriceLevelKey{Side: o.Side, Price: o.Price.Decimal}

	value, found := levels.Get(key)
	if !found {
		return
	}

	pl := value.(*PriceLevel)
	pl.Remove(o.ID)

	if pl.Empty() || pl.Total().IsZero() {
		levels.Remove(key)
	}
}

// Touch republishes the level holding the order after an in-place fill and
// drops the level when it has no quantity left.
func (d *Depth) Touch(o *Order) {
	d.depthMutex.Lock()
	defer d.depthMutex.Unlock()

	levels := d.side(o.Side)

	key := &PriceLevelKey{Side: o.Side, Price: o.Price.Decimal}

	value, found := levels.Get(key)
	if !found {
		return
	}

	pl := value.(*PriceLevel)
	pl.Touch()

	if pl.Empty() || pl.Total().IsZero() {
		levels.Remove(key)
	}
}

// Best returns the price level with priority on the given side, nil when
// the side is empty.
func (d *Depth) Best(side types.OrderSide) *PriceLevel {
	d.depthMutex.RLock()
	defer d.depthMutex.RUnlock()

	node := d.side(side).Right()
	if node == nil {
		return nil
	}
	return node.Value.(*PriceLevel)
}

// BestPrice returns the best price on the given side.
func (d *Depth) BestPrice(side types.OrderSide) (decimal.Decimal, bool) {
	best := d.Best(side)
	if best == nil {
		return decimal.Zero, false
	}
	return best.Price, true
}

// Snapshot aggregates the top limit levels per side.
func (d *Depth) Snapshot(limit int) *BookSnapshot {
	d.depthMutex.RLock()
	defer d.depthMutex.RUnlock()

	return d.snapshot(limit)
}

// snapshot is the lock-free body shared by the pull API and the publish
// path, which already holds the write lock.
func (d *Depth) snapshot(limit int) *BookSnapshot {
	result := &BookSnapshot{
		Pair:     d.Pair,
		Asks:     make([][]decimal.Decimal, 0, limit),
		Bids:     make([][]decimal.Decimal, 0, limit),
		Sequence: d.Sequence,
	}

	ait := d.Asks.Iterator()
	ait.End()
	for ait.Prev() && len(result.Asks) < limit {
		pl := ait.Value().(*PriceLevel)
		if total := pl.Total(); total.IsPositive() {
			result.Asks = append(result.Asks, []decimal.Decimal{pl.Price, total})
		}
	}

	bit := d.Bids.Iterator()
	bit.End()
	for bit.Prev() && len(result.Bids) < limit {
		pl := bit.Value().(*PriceLevel)
		if total := pl.Total(); total.IsPositive() {
			result.Bids = append(result.Bids, []decimal.Decimal{pl.Price, total})
		}
	}

	return result
}

func (d *Depth) publishIncrement(side types.OrderSide, price, total decimal.Decimal) {
	d.Sequence++

	if d.sink == nil {
		return
	}

	d.sink.Publish(types.TopicDepth, &DepthIncrement{
		Pair:     d.Pair,
		Side:     side,
		Price:    price,
		Total:    total,
		Sequence: d.Sequence,
	})

	d.maybePublishSnapshot()
}

// maybePublishSnapshot republishes the full book once enough increments
// accumulated or the max period elapsed. A fresh depth publishes on its
// first increment so consumers can sync from the start of the stream.
func (d *Depth) maybePublishSnapshot() {
	d.incrementCount++

	elapsed := time.Since(d.snapshotTime)
	if !d.snapshotTime.IsZero() {
		if elapsed < d.minSnapshotPeriod {
			return
		}
		if d.incrementCount < d.minIncrementCount && elapsed < d.maxSnapshotPeriod {
			return
		}
	}

	d.sink.Publish(types.TopicDepthSnapshot, d.snapshot(snapshotLevelLimit))
	d.snapshotTime = time.Now()
	d.incrementCount = 0
}

// priceComparator orders both ladders so the best price sits right-most:
// bids ascending, asks descending.
func priceComparator(a, b interface{}) int {
	this := a.(*PriceLevelKey)
	that := b.(*PriceLevelKey)

	switch {
	case this.Side == types.SideSell && this.Price.LessThan(that.Price):
		return 1

	case this.Side == types.SideSell && this.Price.GreaterThan(that.Price):
		return -1

	case this.Side == types.SideBuy && this.Price.LessThan(that.Price):
		return -1

	case this.Side == types.SideBuy && this.Price.GreaterThan(that.Price):
		return 1

	default:
		return 0
	}
}
