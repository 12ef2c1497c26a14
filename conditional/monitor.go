package conditional

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jasonlvhit/gocron"
	"github.com/shopspring/decimal"

	"github.com/Leyfach/congenialexchangeascii-sub000/config"
	"github.com/Leyfach/congenialexchangeascii-sub000/events"
	"github.com/Leyfach/congenialexchangeascii-sub000/matching"
	"github.com/Leyfach/congenialexchangeascii-sub000/oracle"
	"github.com/Leyfach/congenialexchangeascii-sub000/types"
)

// ErrNotConditional rejects registration of plain market/limit orders.
var ErrNotConditional = errors.New("conditional: order type is not conditional")

// ErrWatchNotFound is returned when cancelling an unknown watch.
var ErrWatchNotFound = errors.New("conditional: watch not found")

// Gateway is the serialized order entry point the monitor submits derived
// orders through. Implemented by workers/engines.MatchingWorker.
type Gateway interface {
	Submit(o *matching.Order) (*matching.Order, []*matching.Trade, error)
	Cancel(pair string, orderID, accountID uint64) (*matching.Order, error)
}

type fillEvent struct {
	orderID  uint64
	parentID uint64
	quantity decimal.Decimal
	filled   bool
}

// Monitor owns all pending stop, trailing, iceberg and OCO orders. A
// periodic pass evaluates trigger conditions against the price oracle; on
// trigger a derived order is handed to the matching engine through the
// gateway. Fill notifications from the books drive iceberg refills and OCO
// sibling cancellation.
type Monitor struct {
	mu sync.Mutex

	gateway Gateway
	oracle  oracle.PriceOracle
	sink    events.EventSink

	watches map[uint64]*Watch
	groups  map[string][]uint64

	fills     chan fillEvent
	quit      chan struct{}
	scheduler *gocron.Scheduler
	stopped   chan bool
}

func NewMonitor(gateway Gateway, po oracle.PriceOracle, sink events.EventSink) *Monitor {
	return &Monitor{
		gateway: gateway,
		oracle:  po,
		sink:    sink,
		watches: make(map[uint64]*Watch),
		groups:  make(map[string][]uint64),
		fills:   make(chan fillEvent, 1024),
		quit:    make(chan struct{}),
	}
}

// Start launches the fill loop and the periodic evaluation pass.
func (m *Monitor) Start(tickSeconds uint64) {
	go m.fillLoop()

	m.scheduler = gocron.NewScheduler()
	m.scheduler.Every(tickSeconds).Seconds().Do(m.Tick)
	m.stopped = m.scheduler.Start()
}

func (m *Monitor) Stop() {
	close(m.quit)
	if m.stopped != nil {
		m.stopped <- true
	}
}

// Register accepts a conditional order and returns its watch id. For
// icebergs the first slice is submitted immediately; for OCO limit legs
// the leg is rested in the book right away.
func (m *Monitor) Register(o *matching.Order) (uuid.UUID, error) {
	if err := o.Valid(); err != nil {
		return uuid.Nil, err
	}

	if !o.Type.Conditional() {
		return uuid.Nil, ErrNotConditional
	}

	if o.ID == 0 {
		o.ID = matching.NextOrderID()
	}
	if o.UUID == uuid.Nil {
		o.UUID = uuid.New()
	}
	o.Status = types.StatusPending

	m.mu.Lock()
	defer m.mu.Unlock()

	w := newWatch(o)

	switch o.Type {
	case types.TypeTrailingStop:
		price, err := m.oracle.GetLastPrice(o.Pair)
		if err != nil {
			return uuid.Nil, fmt.Errorf("conditional: trailing stop needs a market price: %w", err)
		}
		w.WaterMark = price
		if o.IsAsk() {
			w.DerivedStop = price.Sub(w.trailDistance(price))
		} else {
			w.DerivedStop = price.Add(w.trailDistance(price))
		}

	case types.TypeIceberg:
		w.HiddenQuantity = o.Quantity
		w.SliceQuantity = o.VisibleQuantity.Decimal
		if err := m.submitSlice(w); err != nil {
			return uuid.Nil, err
		}

	case types.TypeOCO:
		members := m.groups[o.OCOGroupID]
		if len(members) >= 2 {
			return uuid.Nil, &matching.ValidationError{Field: "oco_group_id", Reason: "group already has two siblings"}
		}
		w.GroupID = o.OCOGroupID
		m.groups[o.OCOGroupID] = append(members, o.ID)

		// A leg without a stop price is a plain limit leg resting in the
		// book from registration.
		if !w.priceWatched() {
			if err := m.submitLimitLeg(w); err != nil {
				m.unlink(w)
				return uuid.Nil, err
			}
		}
	}

	m.watches[o.ID] = w
	m.publishWatch(w)

	return w.ID, nil
}

// CancelWatch withdraws a pending conditional order, removing any resting
// child order from the book.
func (m *Monitor) CancelWatch(orderID, accountID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, found := m.watches[orderID]
	if !found {
		return ErrWatchNotFound
	}
	if w.Order.AccountID != accountID {
		return matching.ErrUnauthorized
	}

	if w.BookOrderID != 0 {
		if _, err := m.gateway.Cancel(w.Order.Pair, w.BookOrderID, accountID); err != nil && !errors.Is(err, matching.ErrOrderNotFound) {
			config.Logger.Errorf("[conditional] cancel child order %d: %v", w.BookOrderID, err)
		}
	}

	m.drop(w, types.StatusCancelled)
	return nil
}

// PendingWatches reports the number of orders currently monitored.
func (m *Monitor) PendingWatches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watches)
}

// Watch returns the live watch state for an order id.
func (m *Monitor) Watch(orderID uint64) (*Watch, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, found := m.watches[orderID]
	return w, found
}

// Tick is one evaluation pass over every pending price-watched order.
func (m *Monitor) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	triggered := matching.NewOrderQueue(16)

	for _, w := range m.watches {
		if w.State != types.StatusPending || !w.priceWatched() {
			continue
		}

		price, err := m.oracle.GetLastPrice(w.Order.Pair)
		if err != nil {
			continue
		}

		if w.Order.Type == types.TypeTrailingStop {
			w.updateTrail(price)
		}

		if w.shouldTrigger(price) {
			triggered.Push(w.Order)
		}
	}

	for {
		o := triggered.Pop()
		if o == nil {
			break
		}
		m.trigger(m.watches[o.ID])
	}
}

// OrderFilled implements matching.FillObserver. It runs inside the engine
// lock, so it only enqueues.
func (m *Monitor) OrderFilled(o *matching.Order, t *matching.Trade) {
	if o.ParentID == 0 {
		return
	}

	event := fillEvent{
		orderID:  o.ID,
		parentID: o.ParentID,
		quantity: t.Quantity,
		filled:   o.Filled(),
	}

	select {
	case m.fills <- event:
	default:
		config.Logger.Errorf("[conditional] fill queue full, dropping fill for order %d", o.ID)
	}
}

func (m *Monitor) fillLoop() {
	for {
		select {
		case event := <-m.fills:
			m.handleFill(event)
		case <-m.quit:
			return
		}
	}
}

func (m *Monitor) handleFill(event fillEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Only one child order rests per watch at a time, so the parent id is
	// enough to route the fill.
	w, found := m.watches[event.parentID]
	if !found {
		return
	}

	w.Order.Fill(event.quantity)

	switch w.Order.Type {
	case types.TypeIceberg:
		if !event.filled {
			return
		}
		w.BookOrderID = 0
		if w.HiddenQuantity.IsPositive() {
			if err := m.submitSlice(w); err != nil {
				config.Logger.Errorf("[conditional] iceberg %d slice submit: %v", w.Order.ID, err)
				m.drop(w, types.StatusCancelled)
			}
			return
		}
		m.drop(w, types.StatusFilled)

	case types.TypeOCO:
		if !event.filled {
			return
		}
		// The limit leg filled: the group is consumed, cancel the sibling
		// in the same logical step.
		m.cancelSibling(w)
		m.drop(w, types.StatusFilled)
	}
}

// trigger fires a pending watch: for OCO members the sibling is withdrawn
// first, aborting if it already executed; then the derived order enters
// the book through the gateway. A submission failure removes the watch and
// marks the order cancelled; it is not retried.
func (m *Monitor) trigger(w *Watch) {
	if w == nil || w.State != types.StatusPending {
		return
	}

	if w.GroupID != "" && !m.consumeGroup(w) {
		m.drop(w, types.StatusCancelled)
		return
	}

	derived := m.deriveOrder(w)

	if _, _, err := m.gateway.Submit(derived); err != nil {
		config.Logger.Errorf("[conditional] order %d trigger submit failed, cancelling watch: %v", w.Order.ID, err)
		m.drop(w, types.StatusCancelled)
		return
	}

	w.Order.Status = types.StatusTriggered
	w.State = types.StatusTriggered
	m.publishWatch(w)
	delete(m.watches, w.Order.ID)
	m.unlink(w)
}

// deriveOrder converts a triggered watch into the concrete order submitted
// to the book: stop-limit becomes a limit order at its pre-set price,
// everything else becomes a market order.
func (m *Monitor) deriveOrder(w *Watch) *matching.Order {
	o := w.Order

	derived := &matching.Order{
		ID:        matching.NextOrderID(),
		AccountID: o.AccountID,
		Pair:      o.Pair,
		Side:      o.Side,
		Quantity:  o.UnfilledQuantity(),
		ParentID:  o.ID,
	}

	if o.Type == types.TypeStopLimit {
		derived.Type = types.TypeLimit
		derived.Price = o.Price
	} else {
		derived.Type = types.TypeMarket
	}

	return derived
}

// consumeGroup atomically claims an OCO group for the triggering watch.
// The sibling's resting leg is cancelled through the serialized engine; a
// not-found result means the sibling already filled, so the claim fails.
func (m *Monitor) consumeGroup(w *Watch) bool {
	sibling := m.sibling(w)
	if sibling == nil {
		return true
	}

	if sibling.BookOrderID != 0 {
		_, err := m.gateway.Cancel(sibling.Order.Pair, sibling.BookOrderID, sibling.Order.AccountID)
		if errors.Is(err, matching.ErrOrderNotFound) {
			return false
		}
		if err != nil {
			config.Logger.Errorf("[conditional] oco sibling cancel %d: %v", sibling.BookOrderID, err)
			return false
		}
	}

	m.drop(sibling, types.StatusCancelled)
	return true
}

func (m *Monitor) cancelSibling(w *Watch) {
	sibling := m.sibling(w)
	if sibling == nil {
		return
	}

	if sibling.BookOrderID != 0 {
		if _, err := m.gateway.Cancel(sibling.Order.Pair, sibling.BookOrderID, sibling.Order.AccountID); err != nil && !errors.Is(err, matching.ErrOrderNotFound) {
			config.Logger.Errorf("[conditional] oco sibling cancel %d: %v", sibling.BookOrderID, err)
		}
	}

	m.drop(sibling, types.StatusCancelled)
}

func (m *Monitor) sibling(w *Watch) *Watch {
	for _, id := range m.groups[w.GroupID] {
		if id == w.Order.ID {
			continue
		}
		if sibling, found := m.watches[id]; found {
			return sibling
		}
	}
	return nil
}

// submitSlice rests the next iceberg slice. The visible quantity in the
// book never exceeds the configured slice size.
func (m *Monitor) submitSlice(w *Watch) error {
	quantity := decimal.Min(w.SliceQuantity, w.HiddenQuantity)

	slice := &matching.Order{
		ID:        matching.NextOrderID(),
		AccountID: w.Order.AccountID,
		Pair:      w.Order.Pair,
		Side:      w.Order.Side,
		Type:      types.TypeLimit,
		Price:     w.Order.Price,
		Quantity:  quantity,
		ParentID:  w.Order.ID,
	}

	if _, _, err := m.gateway.Submit(slice); err != nil {
		return err
	}

	w.HiddenQuantity = w.HiddenQuantity.Sub(quantity)
	w.SliceCount++
	if slice.Open() {
		w.BookOrderID = slice.ID
	}

	return nil
}

// submitLimitLeg rests an OCO limit leg in the book at registration time.
func (m *Monitor) submitLimitLeg(w *Watch) error {
	leg := &matching.Order{
		ID:        matching.NextOrderID(),
		AccountID: w.Order.AccountID,
		Pair:      w.Order.Pair,
		Side:      w.Order.Side,
		Type:      types.TypeLimit,
		Price:     w.Order.Price,
		Quantity:  w.Order.Quantity,
		ParentID:  w.Order.ID,
	}

	if _, _, err := m.gateway.Submit(leg); err != nil {
		return err
	}

	if leg.Open() {
		w.BookOrderID = leg.ID
	}

	return nil
}

func (m *Monitor) drop(w *Watch, status types.OrderStatus) {
	w.State = status
	w.Order.Status = status
	delete(m.watches, w.Order.ID)
	m.unlink(w)
	m.publishWatch(w)
}

func (m *Monitor) unlink(w *Watch) {
	if w.GroupID == "" {
		return
	}

	members := m.groups[w.GroupID]
	for i, id := range members {
		if id == w.Order.ID {
			m.groups[w.GroupID] = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(m.groups[w.GroupID]) == 0 {
		delete(m.groups, w.GroupID)
	}
}

func (m *Monitor) publishWatch(w *Watch) {
	if m.sink != nil {
		m.sink.Publish(types.TopicWatch, w)
	}
}
