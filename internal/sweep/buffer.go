package sweep

import (
	"fmt"
	"sync"

	"github.com/roman-kulish/teb-sweep/internal/teb"
)

// node is an internal linked list node of the row buffer.
type node struct {
	index int
	row   *teb.Row // nil when the SNR slot was dropped
	next  *node
}

// RowBuffer re-orders completed SNR slots so rows are released in grid order
// even though the slots complete in arbitrary order. Slots are kept in a sorted
// linked list until every lower index has been inserted.
type RowBuffer struct {
	size int // Grid size, indexes are in [0, size)
	next int // Next index to release

	mu      sync.Mutex
	head    *node
	pending int
}

// NewRowBuffer creates a buffer for a grid of the given size.
func NewRowBuffer(size int) (*RowBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid grid size: %d", size)
	}
	return &RowBuffer{size: size}, nil
}

// Insert adds a completed slot. A nil row marks a dropped slot which only advances the cursor.
func (b *RowBuffer) Insert(index int, row *teb.Row) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < b.next || index >= b.size {
		return fmt.Errorf("slot index %d out of range [%d, %d)", index, b.next, b.size)
	}

	n := &node{index: index, row: row}

	if b.head == nil || index < b.head.index {
		n.next = b.head
		b.head = n
		b.pending++
		return nil
	}

	current := b.head
	for {
		if current.index == index {
			return fmt.Errorf("slot index %d inserted twice", index)
		}
		if current.next == nil || current.next.index > index {
			n.next = current.next
			current.next = n
			b.pending++
			return nil
		}
		current = current.next
	}
}

// Flush removes and returns the rows of the contiguous run of slots starting at the
// release cursor. Dropped slots are consumed without producing a row.
func (b *RowBuffer) Flush() []teb.Row {
	b.mu.Lock()
	defer b.mu.Unlock()

	var rows []teb.Row
	for b.head != nil && b.head.index == b.next {
		if b.head.row != nil {
			rows = append(rows, *b.head.row)
		}
		b.head = b.head.next
		b.pending--
		b.next++
	}
	return rows
}

// Pending returns the number of slots waiting for a lower index.
func (b *RowBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Done reports whether every slot of the grid has been released.
func (b *RowBuffer) Done() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.next == b.size
}
