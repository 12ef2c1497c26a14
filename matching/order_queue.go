package matching

// OrderQueue is a FIFO buffer for orders waiting to re-enter the matching
// loop, such as stop orders released by a price move.
type OrderQueue struct {
	orders []*Order
}

func NewOrderQueue(capacity int64) *OrderQueue {
	return &OrderQueue{
		orders: make([]*Order, 0, capacity),
	}
}

func (q *OrderQueue) Push(o *Order) {
	q.orders = append(q.orders, o)
}

// First returns the oldest queued order without removing it.
func (q *OrderQueue) First() *Order {
	if len(q.orders) == 0 {
		return nil
	}
	return q.orders[0]
}

func (q *OrderQueue) Pop() *Order {
	if len(q.orders) == 0 {
		return nil
	}

	o := q.orders[0]
	q.orders = q.orders[1:]
	return o
}

func (q *OrderQueue) Size() int64 {
	return int64(len(q.orders))
}

func (q *OrderQueue) Values() []*Order {
	values := make([]*Order, len(q.orders))
	copy(values, q.orders)
	return values
}

func (q *OrderQueue) Clear() {
	q.orders = q.orders[:0]
}
