package ecs

// ObserverTrigger identifies what kind of structural change an observer
// reacts to (spec.md §4.9).
type ObserverTrigger int

const (
	// OnAdd fires after a column is added to an entity.
	OnAdd ObserverTrigger = iota
	// OnRemove fires just before a column is removed from an entity.
	OnRemove
	// OnDestroy fires just before an entity is destroyed.
	OnDestroy
	// OnRelate fires after a relation row is inserted between two
	// entities, once for each endpoint.
	OnRelate
	// OnUnrelate fires after a relation row is removed between two
	// entities, once for each endpoint.
	OnUnrelate
)

// Observer is a callback registered against a trigger and a column; it
// receives the world and the affected entity and may itself enqueue
// commands (spec.md §4.9: "observers may enqueue further commands,
// subject to a bounded recursion depth").
type Observer func(w *World, e Entity)

type observerEntry struct {
	trigger ObserverTrigger
	column  ColumnId
	fn      Observer
}

// ObserverRegistry holds every registered observer and enforces the
// bounded-recursion rule when a commit's own observer callbacks enqueue
// further commands (Config.ObserverCycleLimit, spec.md §4.9).
type ObserverRegistry struct {
	w         *World
	observers []observerEntry
	depth     int
}

// NewObserverRegistry creates an empty registry bound to w.
func NewObserverRegistry(w *World) *ObserverRegistry {
	return &ObserverRegistry{w: w}
}

// On registers fn to run whenever trigger fires for column.
func (r *ObserverRegistry) On(trigger ObserverTrigger, column ColumnId, fn Observer) {
	r.observers = append(r.observers, observerEntry{trigger: trigger, column: column, fn: fn})
}

// Fire invokes every observer registered for (trigger, column) against
// e. It is called by the command buffer's commit step, inside the
// recursion guard maintained by enterCycle/exitCycle.
func (r *ObserverRegistry) Fire(trigger ObserverTrigger, column ColumnId, e Entity) {
	for _, obs := range r.observers {
		if obs.trigger == trigger && obs.column == column {
			obs.fn(r.w, e)
		}
	}
}

// enterCycle increments the nested-commit depth, returning an error once
// Config.ObserverCycleLimit is exceeded rather than recursing forever
// when an observer's own commands re-trigger observers.
func (r *ObserverRegistry) enterCycle(path []string) error {
	r.depth++
	if r.depth > Config.ObserverCycleLimit {
		depth := r.depth
		r.depth--
		return ObserverRecursionError{Limit: Config.ObserverCycleLimit, Path: append(append([]string(nil), path...), depthLabel(depth))}
	}
	return nil
}

func (r *ObserverRegistry) exitCycle() {
	if r.depth > 0 {
		r.depth--
	}
}

func depthLabel(depth int) string {
	const digits = "0123456789"
	if depth < 10 {
		return string(digits[depth])
	}
	return "10+"
}
