// Package ecs implements an archetype-indexed, relation-aware
// Entity-Component-System runtime: a reflection-backed type registry,
// an archetype graph, dense per-archetype storage backed by
// github.com/TheBitDrifter/table, sparse relation tables, a query
// planner, a deferred command buffer and a deterministic system
// scheduler.
//
// A minimal game loop looks like:
//
//	w := ecs.NewWorld()
//	position, _ := ecs.RegisterComponent[Position](w)
//	velocity, _ := ecs.RegisterComponent[Velocity](w)
//
//	systems := ecs.NewSystemRegistry()
//	systems.Register("integrate", func(w *ecs.World, cmd ecs.Commands) error {
//		c := ecs.NewCursor(w, ecs.Has(position.Column(), velocity.Column()))
//		pos := ecs.NewWrite(position)
//		vel := ecs.NewRead(velocity)
//		for c.Next() {
//			p, v := pos.Get(c), vel.Get(c)
//			p.X += v.X
//			p.Y += v.Y
//		}
//		return nil
//	}, ecs.Reads(velocity.Column()), ecs.Writes(position.Column()))
//
//	scheduler := ecs.NewScheduler(w, systems)
//	if err := scheduler.Run(context.Background()); err != nil {
//		log.Fatal(err)
//	}
package ecs
