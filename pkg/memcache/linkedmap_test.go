package memcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLinkedMapInsertAndGet(t *testing.T) {
	m := newLinkedMap()
	m.insertAtHead(&node{key: "a", value: 1, cost: 2, time: time.Now()})

	n, ok := m.get("a")
	require.True(t, ok)
	require.Equal(t, 1, n.value)
	require.EqualValues(t, 1, m.len())
	require.EqualValues(t, 2, m.cost())
}

func TestLinkedMapMoveToHeadChangesEvictionOrder(t *testing.T) {
	m := newLinkedMap()
	m.insertAtHead(&node{key: "a", value: 1, time: time.Now()})
	m.insertAtHead(&node{key: "b", value: 2, time: time.Now()})
	m.insertAtHead(&node{key: "c", value: 3, time: time.Now()})

	// Tail is "a" (oldest). Touch it so it becomes head.
	m.moveToHead("a")

	n, ok := m.removeTail()
	require.True(t, ok)
	require.Equal(t, "b", n.key)
}

func TestLinkedMapRemoveTailOnEmpty(t *testing.T) {
	m := newLinkedMap()
	_, ok := m.removeTail()
	require.False(t, ok)
}

func TestLinkedMapRemoveAll(t *testing.T) {
	m := newLinkedMap()
	m.insertAtHead(&node{key: "a", cost: 1, time: time.Now()})
	m.insertAtHead(&node{key: "b", cost: 2, time: time.Now()})

	nodes := m.removeAll()
	require.Len(t, nodes, 2)
	require.EqualValues(t, 0, m.len())
	require.EqualValues(t, 0, m.cost())
}

func TestLinkedMapUpdateAdjustsCostDelta(t *testing.T) {
	m := newLinkedMap()
	m.insertAtHead(&node{key: "a", cost: 5, time: time.Now()})
	m.update("a", "new", 9, time.Now())

	require.EqualValues(t, 9, m.cost())
	n, _ := m.get("a")
	require.Equal(t, "new", n.value)
}
