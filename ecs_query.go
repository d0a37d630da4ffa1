package glc

import (
	"reflect"
)

// Queries visit every entity carrying all of their component types. A type
// passed in optionals may be missing, in which case Map receives nil for it.
// Returning false from the callback stops the iteration.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }
type Query3[A, B, C any] struct{ ecs *Ecs }
type Query4[A, B, C, D any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]       { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B] { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] {
	return Query3[A, B, C]{ecs: cmd.app.ecs}
}
func MakeQuery4[A, B, C, D any](cmd *Commands) Query4[A, B, C, D] {
	return Query4[A, B, C, D]{ecs: cmd.app.ecs}
}

func (q Query1[A]) Map(m func(EntityId, *A) bool, optionals ...any) {
	idA := componentIdFor[A](q.ecs)
	opt := q.ecs.optionalSet(optionals...)

	for _, arch := range q.ecs.archetypes {
		colA, skip := column[A](arch, idA, opt)
		if skip {
			continue
		}
		for eid, r := range arch.entities {
			if !m(eid, at(colA, r)) {
				return
			}
		}
	}
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	idA, idB := componentIdFor[A](q.ecs), componentIdFor[B](q.ecs)
	opt := q.ecs.optionalSet(optionals...)

	for _, arch := range q.ecs.archetypes {
		colA, skipA := column[A](arch, idA, opt)
		colB, skipB := column[B](arch, idB, opt)
		if skipA || skipB {
			continue
		}
		for eid, r := range arch.entities {
			if !m(eid, at(colA, r), at(colB, r)) {
				return
			}
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	idA, idB, idC := componentIdFor[A](q.ecs), componentIdFor[B](q.ecs), componentIdFor[C](q.ecs)
	opt := q.ecs.optionalSet(optionals...)

	for _, arch := range q.ecs.archetypes {
		colA, skipA := column[A](arch, idA, opt)
		colB, skipB := column[B](arch, idB, opt)
		colC, skipC := column[C](arch, idC, opt)
		if skipA || skipB || skipC {
			continue
		}
		for eid, r := range arch.entities {
			if !m(eid, at(colA, r), at(colB, r), at(colC, r)) {
				return
			}
		}
	}
}

func (q Query4[A, B, C, D]) Map(m func(EntityId, *A, *B, *C, *D) bool, optionals ...any) {
	idA, idB := componentIdFor[A](q.ecs), componentIdFor[B](q.ecs)
	idC, idD := componentIdFor[C](q.ecs), componentIdFor[D](q.ecs)
	opt := q.ecs.optionalSet(optionals...)

	for _, arch := range q.ecs.archetypes {
		colA, skipA := column[A](arch, idA, opt)
		colB, skipB := column[B](arch, idB, opt)
		colC, skipC := column[C](arch, idC, opt)
		colD, skipD := column[D](arch, idD, opt)
		if skipA || skipB || skipC || skipD {
			continue
		}
		for eid, r := range arch.entities {
			if !m(eid, at(colA, r), at(colB, r), at(colC, r), at(colD, r)) {
				return
			}
		}
	}
}

// GetComponent returns a pointer into the storage of entityId's T component.
// The pointer is valid until the next structural change of the entity.
func GetComponent[T any](cmd *Commands, entityId EntityId) (*T, bool) {
	ecs := cmd.app.ecs
	arch, r, ok := ecs.locate(entityId)
	if !ok {
		return nil, false
	}
	data, ok := arch.columns[componentIdFor[T](ecs)]
	if !ok {
		return nil, false
	}
	return &data.([]T)[r], true
}

func componentIdFor[T any](ecs *Ecs) componentId {
	return ecs.componentIdOf(reflect.TypeFor[T]())
}

func (ecs *Ecs) optionalSet(optionals ...any) set[componentId] {
	if len(optionals) == 0 {
		return nil
	}
	res := make(set[componentId], len(optionals))
	for _, id := range ecs.keyOf(optionals...) {
		res[id] = struct{}{}
	}
	return res
}

// column returns the T column of arch. skip is set when the archetype lacks a
// required component; a missing optional component yields a nil column.
func column[T any](arch *archetype, id componentId, optional set[componentId]) (col []T, skip bool) {
	if data, ok := arch.columns[id]; ok {
		return data.([]T), false
	}
	_, isOptional := optional[id]
	return nil, !isOptional
}

func at[T any](col []T, r row) *T {
	if col == nil {
		return nil
	}
	return &col[r]
}
