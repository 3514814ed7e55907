package domain

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func newTestItem(title string) *QueueItem {
	return NewQueueItem(title, "Artist", "Album", 3*time.Minute, "", "plex://"+title, 1)
}

func TestQueueAppendAndLen(t *testing.T) {
	q := NewQueue()

	if !q.IsEmpty() {
		t.Error("new queue should be empty")
	}

	q.Append(newTestItem("a"), newTestItem("b"))

	if got := q.Len(); got != 2 {
		t.Errorf("expected length 2, got %d", got)
	}
}

func TestQueueInsertAt(t *testing.T) {
	q := NewQueue()
	q.Append(newTestItem("a"), newTestItem("c"))

	if err := q.InsertAt(1, newTestItem("b")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := q.List()
	if items[1].Title != "b" {
		t.Errorf("expected b at index 1, got %s", items[1].Title)
	}

	// Index equal to length appends.
	if err := q.InsertAt(3, newTestItem("d")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := q.List()[3].Title; got != "d" {
		t.Errorf("expected d at tail, got %s", got)
	}

	if err := q.InsertAt(10, newTestItem("x")); err != ErrIndexOutOfRange {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestQueueRemoveAt(t *testing.T) {
	q := NewQueue()
	q.Append(newTestItem("a"), newTestItem("b"), newTestItem("c"))

	item, err := q.RemoveAt(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Title != "b" {
		t.Errorf("expected to remove b, got %s", item.Title)
	}
	if q.Len() != 2 {
		t.Errorf("expected length 2 after removal, got %d", q.Len())
	}

	if _, err := q.RemoveAt(5); err != ErrIndexOutOfRange {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := q.RemoveAt(-1); err != ErrIndexOutOfRange {
		t.Errorf("expected ErrIndexOutOfRange for negative index, got %v", err)
	}
}

func TestQueueMoveToFront(t *testing.T) {
	q := NewQueue()
	q.Append(newTestItem("b"), newTestItem("c"))

	if err := q.MoveToFront(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := q.List()
	if items[0].Title != "c" || items[1].Title != "b" {
		t.Errorf("expected order [c b], got [%s %s]", items[0].Title, items[1].Title)
	}

	// Moving the head is a no-op.
	if err := q.MoveToFront(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := q.List()[0].Title; got != "c" {
		t.Errorf("expected c at head, got %s", got)
	}

	if err := q.MoveToFront(7); err != ErrIndexOutOfRange {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestQueueRemoveItem(t *testing.T) {
	q := NewQueue()
	target := newTestItem("b")
	q.Append(newTestItem("a"), target, newTestItem("c"))

	if !q.RemoveItem(target) {
		t.Error("expected item to be found and removed")
	}
	if q.Len() != 2 {
		t.Errorf("expected length 2, got %d", q.Len())
	}
	if q.RemoveItem(target) {
		t.Error("expected second removal to report not found")
	}
}

func TestQueuePopFront(t *testing.T) {
	q := NewQueue()

	if item := q.PopFront(); item != nil {
		t.Errorf("expected nil from empty queue, got %v", item)
	}

	q.Append(newTestItem("a"), newTestItem("b"))

	if item := q.PopFront(); item.Title != "a" {
		t.Errorf("expected a, got %s", item.Title)
	}
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}
}

func TestQueueClear(t *testing.T) {
	q := NewQueue()
	q.Append(newTestItem("a"), newTestItem("b"), newTestItem("c"))

	if count := q.Clear(); count != 3 {
		t.Errorf("expected 3 cleared, got %d", count)
	}
	if !q.IsEmpty() {
		t.Error("queue should be empty after clear")
	}
}

func TestQueueShuffleKeepsMembers(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 20; i++ {
		q.Append(newTestItem(strconv.Itoa(i)))
	}

	q.Shuffle()

	if q.Len() != 20 {
		t.Fatalf("expected 20 items after shuffle, got %d", q.Len())
	}
	seen := make(map[string]bool)
	for _, item := range q.List() {
		seen[item.Title] = true
	}
	if len(seen) != 20 {
		t.Errorf("shuffle lost or duplicated items, %d distinct titles", len(seen))
	}
}

func TestQueuePage(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 25; i++ {
		q.Append(newTestItem(strconv.Itoa(i)))
	}

	page, total := q.Page(0, 10)
	if total != 25 {
		t.Errorf("expected total 25, got %d", total)
	}
	if len(page) != 10 || page[0].Title != "0" || page[9].Title != "9" {
		t.Errorf("unexpected first page: %d items", len(page))
	}

	page, _ = q.Page(20, 10)
	if len(page) != 5 || page[0].Title != "20" {
		t.Errorf("unexpected last page: %d items", len(page))
	}

	page, total = q.Page(30, 10)
	if page != nil || total != 25 {
		t.Errorf("expected empty page beyond end, got %d items", len(page))
	}
}

func TestQueuePageIsSnapshot(t *testing.T) {
	q := NewQueue()
	q.Append(newTestItem("a"), newTestItem("b"))

	page, _ := q.Page(0, 10)
	q.Clear()

	if len(page) != 2 {
		t.Errorf("snapshot should survive a clear, got %d items", len(page))
	}
}

func TestQueueConcurrentAccess(t *testing.T) {
	q := NewQueue()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			q.Append(newTestItem(strconv.Itoa(n)))
		}(i)
		go func() {
			defer wg.Done()
			q.Page(0, 5)
			q.Len()
		}()
	}

	wg.Wait()

	if q.Len() != 10 {
		t.Errorf("expected 10 items, got %d", q.Len())
	}
}
