package domain

import (
	"math/rand"
	"sync"
)

// Queue is the ordered collection of pending items for one session. The
// currently playing item is never a member of the queue; it lives on the
// session itself.
//
// Reads are safe at any time and return snapshots. Mutations are additionally
// serialized by the owning session's writer scope, which is what gives
// concurrent operations their arrival ordering; the internal lock only keeps
// snapshot reads coherent against in-flight mutations.
type Queue struct {
	mu    sync.RWMutex
	items []*QueueItem
}

// NewQueue creates a new empty Queue.
func NewQueue() *Queue {
	return &Queue{
		items: make([]*QueueItem, 0),
	}
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}

// IsEmpty returns true if the queue has no pending items.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Append adds item(s) to the end of the queue.
func (q *Queue) Append(items ...*QueueItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

// InsertAt inserts an item at the given index. Index may equal the current
// length, which appends. Returns ErrIndexOutOfRange otherwise when the index
// does not exist.
func (q *Queue) InsertAt(index int, item *QueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index > len(q.items) {
		return ErrIndexOutOfRange
	}

	q.items = append(q.items, nil)
	copy(q.items[index+1:], q.items[index:])
	q.items[index] = item
	return nil
}

// RemoveAt removes and returns the item at the given index.
// Returns ErrIndexOutOfRange when the index does not exist: a selector taken
// from a stale page render must fail here rather than hit the wrong item.
func (q *Queue) RemoveAt(index int) (*QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.items) {
		return nil, ErrIndexOutOfRange
	}

	item := q.items[index]
	q.items = append(q.items[:index], q.items[index+1:]...)
	return item, nil
}

// RemoveItem removes the first occurrence of the given item.
// Returns true if the item was found and removed.
func (q *Queue) RemoveItem(item *QueueItem) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, it := range q.items {
		if it == item {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// MoveToFront moves the item at the given index to the head of the queue,
// making it the next item to play.
func (q *Queue) MoveToFront(index int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.items) {
		return ErrIndexOutOfRange
	}
	if index == 0 {
		return nil
	}

	item := q.items[index]
	copy(q.items[1:index+1], q.items[:index])
	q.items[0] = item
	return nil
}

// PopFront removes and returns the head of the queue, or nil if empty.
func (q *Queue) PopFront() *QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item
}

// Shuffle randomizes the order of all pending items.
func (q *Queue) Shuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()

	rand.Shuffle(len(q.items), func(i, j int) {
		q.items[i], q.items[j] = q.items[j], q.items[i]
	})
}

// Clear removes all pending items and returns how many were removed.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := len(q.items)
	q.items = make([]*QueueItem, 0)
	return count
}

// List returns a copy of all pending items.
func (q *Queue) List() []*QueueItem {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]*QueueItem, len(q.items))
	copy(result, q.items)
	return result
}

// Page returns an immutable snapshot of up to limit items starting at offset,
// along with the total pending count. The snapshot is for rendering only;
// indices derived from it must be re-validated against the live queue before
// any mutation, since the queue may have changed in between.
func (q *Queue) Page(offset, limit int) ([]*QueueItem, int) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	total := len(q.items)
	if offset < 0 || offset >= total || limit <= 0 {
		return nil, total
	}

	end := min(offset+limit, total)

	page := make([]*QueueItem, end-offset)
	copy(page, q.items[offset:end])
	return page, total
}
