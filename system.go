package ecs

// AccessKind distinguishes a read access from a write access when a
// system declares what it touches.
type AccessKind int

const (
	AccessRead AccessKind = iota
	AccessWrite
)

// Access is one declared column touched by a system, used by the
// scheduler's conflict analysis (spec.md §6).
type Access struct {
	Column ColumnId
	Kind   AccessKind
}

// SystemFunc is the function a registered system runs each tick. It
// receives the world for queries/resource access and a Commands handle
// bound to the stage's own command buffer.
type SystemFunc func(w *World, cmd Commands) error

// System is one scheduled unit of work plus the access and ordering
// declarations the scheduler needs to place it safely.
type System struct {
	Name   string
	Run    SystemFunc
	Access []Access
	Before []string
	After  []string
}

// SystemOption configures a System at registration time.
type SystemOption func(*System)

// Reads declares read-only access to columns.
func Reads(columns ...ColumnId) SystemOption {
	return func(s *System) {
		for _, c := range columns {
			s.Access = append(s.Access, Access{Column: c, Kind: AccessRead})
		}
	}
}

// Writes declares mutable access to columns.
func Writes(columns ...ColumnId) SystemOption {
	return func(s *System) {
		for _, c := range columns {
			s.Access = append(s.Access, Access{Column: c, Kind: AccessWrite})
		}
	}
}

// Before declares that this system must run before every named system
// within the same schedule.
func Before(names ...string) SystemOption {
	return func(s *System) { s.Before = append(s.Before, names...) }
}

// After declares that this system must run after every named system
// within the same schedule.
func After(names ...string) SystemOption {
	return func(s *System) { s.After = append(s.After, names...) }
}

// SystemRegistry holds every system registered against a schedule name,
// in registration order, before the scheduler plans their execution.
type SystemRegistry struct {
	byName map[string]*System
	order  []*System
}

// NewSystemRegistry creates an empty registry.
func NewSystemRegistry() *SystemRegistry {
	return &SystemRegistry{byName: make(map[string]*System)}
}

// Register adds a system under name, applying opts to declare its
// access and ordering constraints.
func (r *SystemRegistry) Register(name string, run SystemFunc, opts ...SystemOption) *System {
	s := &System{Name: name, Run: run}
	for _, opt := range opts {
		opt(s)
	}
	r.byName[name] = s
	r.order = append(r.order, s)
	return s
}

// All returns every registered system, in registration order.
func (r *SystemRegistry) All() []*System {
	return append([]*System(nil), r.order...)
}

func (r *System) writes() []ColumnId {
	var out []ColumnId
	for _, a := range r.Access {
		if a.Kind == AccessWrite {
			out = append(out, a.Column)
		}
	}
	return out
}

func (r *System) reads() []ColumnId {
	var out []ColumnId
	for _, a := range r.Access {
		if a.Kind == AccessRead {
			out = append(out, a.Column)
		}
	}
	return out
}

func conflicts(a, b *System) bool {
	aw, bw := a.writes(), b.writes()
	ar, br := a.reads(), b.reads()
	for _, w := range aw {
		for _, c := range br {
			if w == c {
				return true
			}
		}
		for _, c := range bw {
			if w == c {
				return true
			}
		}
	}
	for _, w := range bw {
		for _, c := range ar {
			if w == c {
				return true
			}
		}
	}
	return false
}
