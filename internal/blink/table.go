package blink

// Table holds one slot per scheduled event, indexed by event id. Slot 0 is
// the header. Workers write disjoint slots, so no locking is needed as long
// as the table is read only after every writer has finished.
type Table struct {
	events []Event
	filled []bool
}

// NewTable allocates capacity for n events.
func NewTable(n int) *Table {
	return &Table{
		events: make([]Event, n+1),
		filled: make([]bool, n+1),
	}
}

// Capacity is the number of allocated event slots.
func (t *Table) Capacity() int {
	return len(t.events) - 1
}

// Set stores e in slot e.ID. It panics if the id is outside the table.
func (t *Table) Set(e Event) {
	if e.ID < 1 || e.ID >= len(t.events) {
		panic("blink: event id out of table range")
	}
	t.events[e.ID] = e
	t.filled[e.ID] = true
}

// Events returns the assigned events in id order.
func (t *Table) Events() []Event {
	out := make([]Event, 0, len(t.events)-1)
	for id := 1; id < len(t.events); id++ {
		if t.filled[id] {
			out = append(out, t.events[id])
		}
	}
	return out
}

// Len is the number of rows including the header.
func (t *Table) Len() int {
	n := 1
	for id := 1; id < len(t.filled); id++ {
		if t.filled[id] {
			n++
		}
	}
	return n
}

// Rows renders the header followed by one row per assigned event.
func (t *Table) Rows(precision int) []string {
	rows := make([]string, 0, len(t.events))
	rows = append(rows, Header)
	for _, e := range t.Events() {
		rows = append(rows, e.Format(precision))
	}
	return rows
}
