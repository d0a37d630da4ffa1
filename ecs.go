package glc

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"reflect"
	"slices"
	"sync"
)

type EntityId uint64
type archetypeId uint64
type componentId uint32
type row int

// archetypeKey is the sorted, deduplicated list of component ids of an archetype.
type archetypeKey []componentId

type set[T comparable] = map[T]struct{}

// Ecs stores entities grouped by the exact set of components they carry.
// Every component type gets one typed slice per archetype.
type Ecs struct {
	archetypes  map[archetypeId]*archetype
	entityIndex map[EntityId]archetypeId

	idLock        sync.Mutex
	nextEntity    EntityId
	typeLock      sync.Mutex
	nextComponent componentId
	idsByType     map[reflect.Type]componentId
	typesById     map[componentId]reflect.Type
}

type archetype struct {
	id       archetypeId
	key      archetypeKey
	entities map[EntityId]row
	columns  map[componentId]any // []T for the component type T
	free     []row
}

func MakeEcs() Ecs {
	return Ecs{
		archetypes:  make(map[archetypeId]*archetype),
		entityIndex: make(map[EntityId]archetypeId),
		idsByType:   make(map[reflect.Type]componentId),
		typesById:   make(map[componentId]reflect.Type),
	}
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	return ecs.insertEntity(ecs.nextEntityId(), components...)
}

func (ecs *Ecs) insertEntity(entityId EntityId, components ...any) EntityId {
	arch := ecs.archetypeFor(ecs.keyOf(components...))
	r := ecs.reserveRow(arch)
	for _, c := range components {
		ecs.writeComponent(arch, r, c)
	}
	arch.entities[entityId] = r
	ecs.entityIndex[entityId] = arch.id
	return entityId
}

func (ecs *Ecs) hasEntity(entityId EntityId) bool {
	_, ok := ecs.entityIndex[entityId]
	return ok
}

func (ecs *Ecs) removeEntity(entityId EntityId) {
	if !ecs.hasEntity(entityId) {
		return
	}
	ecs.releaseRow(entityId)
}

func (ecs *Ecs) addComponents(entityId EntityId, components ...any) {
	src, srcRow, ok := ecs.locate(entityId)
	if !ok {
		return
	}
	key := dedupAndSort(append(slices.Clone(src.key), ecs.keyOf(components...)...))
	dst := ecs.archetypeFor(key)
	if dst == src {
		for _, c := range components {
			ecs.writeComponent(src, srcRow, c)
		}
		return
	}

	dstRow := ecs.reserveRow(dst)
	ecs.copyRow(src, srcRow, dst, dstRow)
	for _, c := range components {
		ecs.writeComponent(dst, dstRow, c)
	}
	ecs.releaseRow(entityId)
	dst.entities[entityId] = dstRow
	ecs.entityIndex[entityId] = dst.id
}

func (ecs *Ecs) removeComponents(entityId EntityId, components ...any) {
	src, srcRow, ok := ecs.locate(entityId)
	if !ok {
		return
	}
	drop := make(set[componentId])
	for _, id := range ecs.keyOf(components...) {
		drop[id] = struct{}{}
	}
	var key archetypeKey
	for _, id := range src.key {
		if _, found := drop[id]; !found {
			key = append(key, id)
		}
	}
	dst := ecs.archetypeFor(key)
	if dst == src {
		return
	}

	dstRow := ecs.reserveRow(dst)
	ecs.copyRow(src, srcRow, dst, dstRow)
	ecs.releaseRow(entityId)
	dst.entities[entityId] = dstRow
	ecs.entityIndex[entityId] = dst.id
}

// components returns copies of every component of entityId.
func (ecs *Ecs) components(entityId EntityId) []any {
	arch, r, ok := ecs.locate(entityId)
	if !ok {
		return nil
	}
	res := make([]any, 0, len(arch.key))
	for _, id := range arch.key {
		res = append(res, reflect.ValueOf(arch.columns[id]).Index(int(r)).Interface())
	}
	return res
}

func (ecs *Ecs) locate(entityId EntityId) (*archetype, row, bool) {
	archId, ok := ecs.entityIndex[entityId]
	if !ok {
		return nil, 0, false
	}
	arch := ecs.archetypes[archId]
	return arch, arch.entities[entityId], true
}

// copyRow copies the components both archetypes share.
func (ecs *Ecs) copyRow(src *archetype, srcRow row, dst *archetype, dstRow row) {
	for _, id := range src.key {
		dstCol, ok := dst.columns[id]
		if !ok {
			continue
		}
		v := reflect.ValueOf(src.columns[id]).Index(int(srcRow))
		reflect.ValueOf(dstCol).Index(int(dstRow)).Set(v)
	}
}

func (ecs *Ecs) writeComponent(arch *archetype, r row, component any) {
	v := reflect.ValueOf(component)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		panic(fmt.Sprintf("component must be a struct or a pointer to a struct, got %s", v.Kind()))
	}
	id := ecs.componentIdOf(v.Type())
	reflect.ValueOf(arch.columns[id]).Index(int(r)).Set(v)
}

func (ecs *Ecs) releaseRow(entityId EntityId) {
	arch, r, _ := ecs.locate(entityId)
	for _, id := range arch.key {
		col := reflect.ValueOf(arch.columns[id])
		col.Index(int(r)).Set(reflect.Zero(col.Type().Elem()))
	}
	arch.free = append(arch.free, r)
	delete(arch.entities, entityId)
	delete(ecs.entityIndex, entityId)
}

func (ecs *Ecs) reserveRow(arch *archetype) row {
	if n := len(arch.free); n > 0 {
		r := arch.free[n-1]
		arch.free = arch.free[:n-1]
		return r
	}
	r := row(len(arch.entities))
	for _, id := range arch.key {
		col := reflect.ValueOf(arch.columns[id])
		arch.columns[id] = reflect.Append(col, reflect.Zero(col.Type().Elem())).Interface()
	}
	return r
}

func (ecs *Ecs) archetypeFor(key archetypeKey) *archetype {
	id := hashKey(key)
	if arch, ok := ecs.archetypes[id]; ok {
		return arch
	}
	arch := &archetype{
		id:       id,
		key:      key,
		entities: make(map[EntityId]row),
		columns:  make(map[componentId]any, len(key)),
	}
	for _, c := range key {
		arch.columns[c] = reflect.MakeSlice(reflect.SliceOf(ecs.typesById[c]), 0, 1).Interface()
	}
	ecs.archetypes[id] = arch
	return arch
}

func (ecs *Ecs) keyOf(components ...any) archetypeKey {
	key := make(archetypeKey, 0, len(components))
	for _, c := range components {
		t := reflect.TypeOf(c)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			panic(fmt.Sprintf("component must be a struct, got %s", t))
		}
		key = append(key, ecs.componentIdOf(t))
	}
	return dedupAndSort(key)
}

func dedupAndSort(key archetypeKey) archetypeKey {
	slices.Sort(key)
	return slices.Compact(key)
}

// hashKey derives the archetype id from its key. Collisions are not handled.
func hashKey(key archetypeKey) archetypeId {
	h := fnv.New64a()
	var b [4]byte
	for _, id := range key {
		binary.LittleEndian.PutUint32(b[:], uint32(id))
		h.Write(b[:])
	}
	return archetypeId(h.Sum64())
}

func (ecs *Ecs) nextEntityId() EntityId {
	ecs.idLock.Lock()
	defer ecs.idLock.Unlock()
	id := ecs.nextEntity
	ecs.nextEntity++
	return id
}

func (ecs *Ecs) componentIdOf(t reflect.Type) componentId {
	ecs.typeLock.Lock()
	defer ecs.typeLock.Unlock()
	if id, ok := ecs.idsByType[t]; ok {
		return id
	}
	id := ecs.nextComponent
	ecs.nextComponent++
	ecs.idsByType[t] = id
	ecs.typesById[id] = t
	return id
}
