package filterlog

import "sync"

// Capacity is how many events a Ring holds.
const Capacity = 10

// Ring keeps the last Capacity events. head is the newest slot and moves
// backwards on every push, so reading forward from head is newest-first.
// The zero value is an empty ring.
type Ring struct {
	slots [Capacity]*Event
	head  int
}

// Push stores e, evicting the oldest event once the ring is full.
func (r *Ring) Push(e Event) {
	r.head = (r.head + Capacity - 1) % Capacity
	r.slots[r.head] = &e
}

// Events returns the stored events, newest first.
func (r *Ring) Events() []Event {
	out := make([]Event, 0, Capacity)
	for i := range Capacity {
		if e := r.slots[(r.head+i)%Capacity]; e != nil {
			out = append(out, *e)
		}
	}
	return out
}

// Len returns how many events are stored.
func (r *Ring) Len() int {
	n := 0
	for _, e := range r.slots {
		if e != nil {
			n++
		}
	}
	return n
}

// Log is a Ring shared between the tailer and the renderer.
type Log struct {
	mu   sync.Mutex
	ring Ring
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Push adds an event.
func (l *Log) Push(e Event) {
	l.mu.Lock()
	l.ring.Push(e)
	l.mu.Unlock()
}

// Snapshot copies the current events, newest first.
func (l *Log) Snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ring.Events()
}
