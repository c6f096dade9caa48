// Package ecs provides the entity/component store the event engine dispatches
// against. The store is deliberately minimal: the engine only ever asks whether
// an entity carries a component type and fetches component instances to pass
// into handlers. All store access happens on the simulation's owning goroutine,
// so there is no internal locking.
package ecs

// ComponentType tags a category of per-entity data.
type ComponentType string

// Component is a typed unit of per-entity data.
type Component interface {
	ComponentType() ComponentType
}

// EntityID identifies an entity for the lifetime of the store.
type EntityID uint64

// EntityRef is a stable handle to an entity. Refs remain valid after the
// entity is destroyed; they simply report Exists() == false and stop matching
// components.
type EntityRef interface {
	ID() EntityID
	Exists() bool
	HasComponent(ct ComponentType) bool
	// Component returns the entity's component of the given type, or nil if
	// the entity does not carry one.
	Component(ct ComponentType) Component
}

// Store holds entities and their components.
type Store struct {
	nextID   EntityID
	entities map[EntityID]map[ComponentType]Component
}

// NewStore creates an empty entity store.
func NewStore() *Store {
	return &Store{
		entities: make(map[EntityID]map[ComponentType]Component),
	}
}

// Create allocates a new entity and returns a ref to it.
func (s *Store) Create(components ...Component) EntityRef {
	s.nextID++
	id := s.nextID
	comps := make(map[ComponentType]Component, len(components))
	for _, c := range components {
		comps[c.ComponentType()] = c
	}
	s.entities[id] = comps
	return &entityRef{store: s, id: id}
}

// Destroy removes an entity and all its components. Outstanding refs to the
// entity become dead.
func (s *Store) Destroy(id EntityID) {
	delete(s.entities, id)
}

// Ref returns a handle to the given entity ID. The ref is valid even if the
// entity does not exist (it reports Exists() == false).
func (s *Store) Ref(id EntityID) EntityRef {
	return &entityRef{store: s, id: id}
}

// Add attaches a component to an entity, replacing any existing component of
// the same type. Adding to a destroyed entity is a no-op.
func (s *Store) Add(id EntityID, c Component) {
	if comps, ok := s.entities[id]; ok {
		comps[c.ComponentType()] = c
	}
}

// Remove detaches a component type from an entity.
func (s *Store) Remove(id EntityID, ct ComponentType) {
	if comps, ok := s.entities[id]; ok {
		delete(comps, ct)
	}
}

// Count returns the number of live entities.
func (s *Store) Count() int {
	return len(s.entities)
}

type entityRef struct {
	store *Store
	id    EntityID
}

func (r *entityRef) ID() EntityID { return r.id }

func (r *entityRef) Exists() bool {
	_, ok := r.store.entities[r.id]
	return ok
}

func (r *entityRef) HasComponent(ct ComponentType) bool {
	comps, ok := r.store.entities[r.id]
	if !ok {
		return false
	}
	_, ok = comps[ct]
	return ok
}

func (r *entityRef) Component(ct ComponentType) Component {
	comps, ok := r.store.entities[r.id]
	if !ok {
		return nil
	}
	return comps[ct]
}
