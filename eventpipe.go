package ecs

import (
	"reflect"

	"github.com/cubos-go/ecs/reflection"
)

// eventPipe is the type-erased handle the world keeps per registered
// event type, so World.DrainEventPipes can prune every pipe without
// knowing its payload type.
type eventPipe interface {
	drainStale()
	len() int
}

// ring is a growable buffer of T, sequence-numbered so entries can be
// addressed by an ever-increasing cursor rather than a wrapping index.
// It prunes from the front in two passes: first it drops everything
// every registered reader has already passed (spec.md §3's "the pipe
// prunes entries that every registered reader has passed"), then, as a
// backstop against a reader that never catches up, it additionally drops
// down to the configured capacity so one stalled reader cannot grow the
// pipe without bound — the same "don't grow unbounded" policy the
// teacher's SimpleCache applies to its backing map, adapted here to a
// reader-aware cursor instead of blind capacity FIFO.
type ring[T any] struct {
	buf     []T
	seq     uint64 // sequence number of buf[0] (or of the next push, if empty)
	readers []*uint64
	cap     int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity <= 0 {
		capacity = Config.EventPipeCapacity
	}
	return &ring[T]{cap: capacity}
}

func (r *ring[T]) push(v T) {
	r.buf = append(r.buf, v)
	r.prune()
}

// prune drops every entry every live reader has passed, then force-drops
// down to capacity if laggards would otherwise keep the buffer growing;
// a reader fast-forwarded past its own cursor by the backstop resumes
// from the oldest surviving event on its next Read, the same
// "dropped events are a capacity policy, not a fault" tolerance the
// reader already documents.
func (r *ring[T]) prune() {
	mark := r.seq + uint64(len(r.buf))
	for _, cursor := range r.readers {
		if *cursor < mark {
			mark = *cursor
		}
	}
	if r.cap > 0 && len(r.buf) > r.cap {
		if floor := r.seq + uint64(len(r.buf)-r.cap); mark < floor {
			mark = floor
		}
	}
	if mark <= r.seq {
		return
	}
	drop := int(mark - r.seq)
	r.buf = r.buf[drop:]
	r.seq = mark
	for _, cursor := range r.readers {
		if *cursor < r.seq {
			*cursor = r.seq
		}
	}
}

func (r *ring[T]) register(cursor *uint64) {
	r.readers = append(r.readers, cursor)
}

// unregister drops a reader's cursor from the low-water-mark set once it
// is no longer live, so a closed reader cannot pin entries forever.
func (r *ring[T]) unregister(cursor *uint64) {
	for i, c := range r.readers {
		if c == cursor {
			last := len(r.readers) - 1
			r.readers[i] = r.readers[last]
			r.readers = r.readers[:last]
			return
		}
	}
}

// EventPipe is a per-type broadcast channel: writers Push values,
// readers each keep their own cursor and see every event pushed since
// their last Read, as long as it has not yet been pruned
// (spec.md §4.8's reader-cursor model).
type EventPipe[T any] struct {
	r *ring[T]
}

// NewEventPipe creates a pipe with the given ring capacity (0 uses
// Config.EventPipeCapacity).
func NewEventPipe[T any](capacity int) *EventPipe[T] {
	return &EventPipe[T]{r: newRing[T](capacity)}
}

// Push appends an event to the pipe.
func (p *EventPipe[T]) Push(v T) { p.r.push(v) }

// Len returns the number of events currently retained.
func (p *EventPipe[T]) Len() int { return len(p.r.buf) }

// drainStale prunes entries every registered reader has already passed.
// Called once per frame by the Driver so a tick with no pushes still
// releases memory held only for a reader that has since caught up.
func (p *EventPipe[T]) drainStale() { p.r.prune() }
func (p *EventPipe[T]) len() int    { return len(p.r.buf) }

// Reader returns a new reader cursor positioned at the pipe's current
// tail, so it only observes events pushed after this call.
func (p *EventPipe[T]) Reader() *EventReader[T] {
	reader := &EventReader[T]{p: p, next: p.r.seq + uint64(len(p.r.buf))}
	p.r.register(&reader.next)
	return reader
}

// EventReader tracks one consumer's read position into an EventPipe.
type EventReader[T any] struct {
	p    *EventPipe[T]
	next uint64
}

// Close unregisters the reader from its pipe's low-water-mark tracking,
// so a reader nobody calls Read on again cannot keep the pipe from
// pruning past it.
func (r *EventReader[T]) Close() { r.p.r.unregister(&r.next) }

// Read returns every event pushed since the last Read call (or since the
// reader was created), oldest first. If the pipe pruned events before
// this reader consumed them (only possible once the capacity backstop
// forces a prune past a lagging reader), Read silently resumes from the
// oldest surviving event rather than erroring: dropped events are a
// capacity policy, not a fault (spec.md §7).
func (r *EventReader[T]) Read() []T {
	ring := r.p.r
	if r.next < ring.seq {
		r.next = ring.seq
	}
	newest := ring.seq + uint64(len(ring.buf))
	if r.next >= newest {
		return nil
	}
	out := append([]T(nil), ring.buf[r.next-ring.seq:]...)
	r.next = newest
	return out
}

// RegisterEvent registers T as an event payload type and creates its
// pipe, returning both the type id and a typed pipe handle.
func RegisterEvent[T any](w *World, capacity int) (DataTypeId, *EventPipe[T], error) {
	var zero T
	goType := reflect.TypeOf(zero)
	refl := reflection.NewType(typeName(goType), goType)
	refl.With(reflection.ConstructibleFor[T]())

	id, err := w.types.RegisterEvent(refl)
	if err != nil {
		return 0, nil, err
	}
	pipe := NewEventPipe[T](capacity)
	w.eventPipes[id] = pipe
	return id, pipe, nil
}
