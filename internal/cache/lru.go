package cache

import (
	"container/list"
	"time"
)

// revisionLRU maps store revisions to rendered bytes. The least recently
// read revision is evicted first once capacity is reached, and entries older
// than ttl are treated as absent. Callers hold their own lock.
type revisionLRU struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	byRev map[uint64]*list.Element
	order *list.List // front = most recently used
}

type renderEntry struct {
	revision uint64
	data     []byte
	storedAt time.Time
}

func newRevisionLRU(capacity int, ttl time.Duration) *revisionLRU {
	if capacity < 1 {
		capacity = 1
	}
	return &revisionLRU{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		byRev:    make(map[uint64]*list.Element),
		order:    list.New(),
	}
}

func (l *revisionLRU) stale(e *renderEntry, at time.Time) bool {
	return at.Sub(e.storedAt) > l.ttl
}

func (l *revisionLRU) get(rev uint64) ([]byte, bool) {
	elem, ok := l.byRev[rev]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*renderEntry)
	if l.stale(entry, l.now()) {
		l.drop(elem)
		return nil, false
	}
	l.order.MoveToFront(elem)
	return entry.data, true
}

func (l *revisionLRU) put(rev uint64, data []byte) {
	entry := &renderEntry{revision: rev, data: data, storedAt: l.now()}
	if elem, ok := l.byRev[rev]; ok {
		elem.Value = entry
		l.order.MoveToFront(elem)
		return
	}
	l.byRev[rev] = l.order.PushFront(entry)
	for l.order.Len() > l.capacity {
		l.drop(l.order.Back())
	}
}

func (l *revisionLRU) drop(elem *list.Element) {
	delete(l.byRev, elem.Value.(*renderEntry).revision)
	l.order.Remove(elem)
}

// sweep removes stale entries and reports how many went.
func (l *revisionLRU) sweep() int {
	at := l.now()
	removed := 0
	for elem := l.order.Back(); elem != nil; {
		prev := elem.Prev()
		if l.stale(elem.Value.(*renderEntry), at) {
			l.drop(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (l *revisionLRU) size() int { return len(l.byRev) }
