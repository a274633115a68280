package ecs

import "github.com/TheBitDrifter/table"

// Config holds process-wide tunables that have no natural single owner:
// the teacher's own config.go pattern, generalized from "table event
// callbacks" to the handful of knobs the rest of the runtime needs.
var Config config = config{
	ObserverCycleLimit:  8,
	EventPipeCapacity:   256,
	RelationBucketHint:  16,
}

type config struct {
	tableEvents table.TableEvents

	// ObserverCycleLimit bounds how many times observer-enqueued
	// commands may be flushed within a single commit before it is
	// treated as runaway recursion (spec.md §4.9).
	ObserverCycleLimit int

	// EventPipeCapacity is the default ring capacity for EventPipe[T]
	// when none is specified explicitly.
	EventPipeCapacity int

	// RelationBucketHint sizes the initial row capacity of a newly
	// created sparse relation table.
	RelationBucketHint int
}

// SetTableEvents configures the dense table event callbacks (insert,
// swap-erase, column write) that back change detection.
func (c *config) SetTableEvents(te table.TableEvents) {
	c.tableEvents = te
}
