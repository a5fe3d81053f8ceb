package memcache

import (
	"container/list"
	"time"
)

// node is one live entry: its value, its caller-assigned cost, the
// monotonic time of its last access, and — via the wrapping
// *list.Element — its position in the eviction order.
type node struct {
	key   string
	value interface{}
	cost  int64
	time  time.Time
}

// linkedMap is an intrusive doubly-linked list plus a hash index from
// key to list element, giving O(1) insert-at-head, move-to-head,
// remove, and remove-tail. The head is most-recently-used; the tail is
// least-recently-used. Aggregate count and cost are maintained
// incrementally here so callers never need to recompute them by
// walking the list.
type linkedMap struct {
	ll    *list.List
	index map[string]*list.Element

	totalCount int64
	totalCost  int64
}

func newLinkedMap() *linkedMap {
	return &linkedMap{
		ll:    list.New(),
		index: make(map[string]*list.Element),
	}
}

func (m *linkedMap) get(key string) (*node, bool) {
	el, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return el.Value.(*node), true
}

// insertAtHead places a new node at the head of the list and indexes
// it. The caller must not call this for a key already present.
func (m *linkedMap) insertAtHead(n *node) {
	el := m.ll.PushFront(n)
	m.index[n.key] = el
	m.totalCount++
	m.totalCost += n.cost
}

// moveToHead unlinks key's element from its current position and
// reinserts it at the head, used on every hit.
func (m *linkedMap) moveToHead(key string) {
	el, ok := m.index[key]
	if !ok {
		return
	}
	m.ll.MoveToFront(el)
}

// remove unlinks key's node, decrementing the aggregates, and returns
// the removed node so the caller can dispose of its value per the
// release policy.
func (m *linkedMap) remove(key string) (*node, bool) {
	el, ok := m.index[key]
	if !ok {
		return nil, false
	}
	n := el.Value.(*node)
	m.ll.Remove(el)
	delete(m.index, key)
	m.totalCount--
	m.totalCost -= n.cost
	return n, true
}

// update replaces an existing node's value and cost, adjusting the cost
// aggregate by the delta, refreshes its access time, and moves it to
// head. The caller must ensure key is already present.
func (m *linkedMap) update(key string, value interface{}, cost int64, now time.Time) {
	el, ok := m.index[key]
	if !ok {
		return
	}
	n := el.Value.(*node)
	m.totalCost += cost - n.cost
	n.value = value
	n.cost = cost
	n.time = now
	m.ll.MoveToFront(el)
}

// removeTail pops the least-recently-used node.
func (m *linkedMap) removeTail() (*node, bool) {
	el := m.ll.Back()
	if el == nil {
		return nil, false
	}
	n := el.Value.(*node)
	m.ll.Remove(el)
	delete(m.index, n.key)
	m.totalCount--
	m.totalCost -= n.cost
	return n, true
}

// tail returns the least-recently-used node without removing it.
func (m *linkedMap) tail() (*node, bool) {
	el := m.ll.Back()
	if el == nil {
		return nil, false
	}
	return el.Value.(*node), true
}

// removeAll clears the list and index, returning every removed node so
// the caller can dispose of them per the release policy.
func (m *linkedMap) removeAll() []*node {
	nodes := make([]*node, 0, m.ll.Len())
	for el := m.ll.Front(); el != nil; el = el.Next() {
		nodes = append(nodes, el.Value.(*node))
	}
	m.ll = list.New()
	m.index = make(map[string]*list.Element)
	m.totalCount = 0
	m.totalCost = 0
	return nodes
}

func (m *linkedMap) len() int64 {
	return m.totalCount
}

func (m *linkedMap) cost() int64 {
	return m.totalCost
}
