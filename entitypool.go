package ecs

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// entitySlot tracks the bookkeeping the pool keeps per index: the
// recycle count reported by the row's table.Entry (used the same way
// the teacher's own entity.Recycled() is used, as the generation that
// detects a stale handle) plus the archetype it currently lives in and
// whether it has been destroyed.
type entitySlot struct {
	recycled  uint32
	archetype ArchetypeId
	alive     bool
}

// EntityPool tracks, for every entity index the table layer has ever
// assigned, which archetype it currently lives in. Row identity and
// generation recycling are delegated to the shared table.EntryIndex
// (spec.md §4.2); the pool exists because the table layer has no notion
// of "archetype" and cannot answer "which entities satisfy this column
// set" across many tables on its own.
type EntityPool struct {
	slots []entitySlot
}

// NewEntityPool creates an empty pool. Index 0 is reserved so it never
// aliases the Null entity.
func NewEntityPool() *EntityPool {
	return &EntityPool{slots: make([]entitySlot, 1)}
}

// Track registers the entity living at table-assigned index idx, in the
// given archetype, with recycled as its generation. Called by World
// immediately after a row is created or an existing index is reused.
func (p *EntityPool) Track(idx uint32, archetype ArchetypeId, recycled uint32) Entity {
	for uint32(len(p.slots)) <= idx {
		p.slots = append(p.slots, entitySlot{})
	}
	p.slots[idx] = entitySlot{recycled: recycled, archetype: archetype, alive: true}
	return Entity{Index: idx, Generation: recycled}
}

// Destroy marks e as no longer alive. Destroying an already-invalid or
// already-dead handle is a silent no-op, matching the "stale handles are
// tolerated" policy (spec.md §7).
func (p *EntityPool) Destroy(e Entity) {
	if !p.IsValid(e) {
		return
	}
	p.slots[e.Index].alive = false
}

// SetArchetype updates the archetype an entity is currently assigned to.
func (p *EntityPool) SetArchetype(e Entity, archetype ArchetypeId) {
	if p.IsValid(e) {
		p.slots[e.Index].archetype = archetype
	}
}

// Archetype returns the archetype currently assigned to e. It aborts on
// an invalid handle per spec.md §4.2 (programmer error: the caller
// should have checked IsValid first).
func (p *EntityPool) Archetype(e Entity) ArchetypeId {
	if !p.IsValid(e) {
		panic(bark.AddTrace(fmt.Errorf("ecs: Archetype called with invalid entity handle %v", e)))
	}
	return p.slots[e.Index].archetype
}

// EntityAt reconstructs the live Entity handle for a tracked index. Used
// by callers that hold a raw row index from storage (e.g. the query
// engine's relation traversal, which reads fromIndex/toIndex straight out
// of a sparse relation row) and need the full generation-checked handle
// back.
func (p *EntityPool) EntityAt(idx uint32) Entity {
	if idx == 0 || int(idx) >= len(p.slots) {
		return Null
	}
	return Entity{Index: idx, Generation: p.slots[idx].recycled}
}

// IsValid reports whether e's index is in range and its generation
// matches the pool's current record.
func (p *EntityPool) IsValid(e Entity) bool {
	if e.Index == 0 || int(e.Index) >= len(p.slots) {
		return false
	}
	return p.slots[e.Index].recycled == e.Generation
}

// IsAlive additionally requires the entity to not have been destroyed.
func (p *EntityPool) IsAlive(e Entity) bool {
	return p.IsValid(e) && p.slots[e.Index].alive
}

// Iterate calls yield once for every alive entity whose archetype
// satisfies matches, starting at cursor and returning the cursor to
// resume from. Passing cursor 0 starts from the beginning.
func (p *EntityPool) Iterate(cursor uint32, matches func(ArchetypeId) bool, yield func(Entity) bool) uint32 {
	i := cursor
	if i == 0 {
		i = 1
	}
	for ; i < uint32(len(p.slots)); i++ {
		slot := p.slots[i]
		if !slot.alive {
			continue
		}
		if matches != nil && !matches(slot.archetype) {
			continue
		}
		if !yield(Entity{Index: i, Generation: slot.recycled}) {
			return i + 1
		}
	}
	return i
}

// Len returns the number of index slots ever allocated, including freed
// ones (an upper bound on the number of live entities).
func (p *EntityPool) Len() int {
	return len(p.slots) - 1
}
