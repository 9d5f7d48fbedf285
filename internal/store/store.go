// Package store owns the in-memory collections backing the API. Each
// collection assigns monotonically increasing integer identifiers that are
// never reused after deletion; the counters are process-lifetime scoped.
package store

import "sync"

// Collection is an ordered in-memory record set guarded for concurrent
// handler access. id extracts a record's identifier, withID returns a copy
// carrying a newly assigned one.
type Collection[T any] struct {
	mu     sync.RWMutex
	items  []T
	nextID int64
	id     func(T) int64
	withID func(T, int64) T
}

func NewCollection[T any](id func(T) int64, withID func(T, int64) T) *Collection[T] {
	return &Collection[T]{
		nextID: 1,
		id:     id,
		withID: withID,
	}
}

// Insert assigns the next identifier, appends the record and returns it.
func (c *Collection[T]) Insert(record T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertLocked(record)
}

// InsertIf inserts record unless an existing record matches conflict, as a
// single critical section. On conflict the collection is left untouched and
// the first conflicting record is returned with ok=false.
func (c *Collection[T]) InsertIf(record T, conflict func(T) bool) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if conflict(item) {
			return item, false
		}
	}
	return c.insertLocked(record), true
}

// UpdateIf replaces the record with the given identifier unless another
// record matches conflict, as a single critical section. found reports
// whether the identifier exists; on conflict the collection is left
// untouched and the conflicting record is returned with conflicted=true.
func (c *Collection[T]) UpdateIf(id int64, patch func(T) T, conflict func(T) bool) (record T, found bool, conflicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	index := -1
	conflictIndex := -1
	for i, item := range c.items {
		if c.id(item) == id {
			index = i
			continue
		}
		if conflictIndex < 0 && conflict(item) {
			conflictIndex = i
		}
	}
	if index < 0 {
		var zero T
		return zero, false, false
	}
	if conflictIndex >= 0 {
		return c.items[conflictIndex], true, true
	}
	updated := c.withID(patch(c.items[index]), id)
	c.items[index] = updated
	return updated, true, false
}

func (c *Collection[T]) insertLocked(record T) T {
	record = c.withID(record, c.nextID)
	c.nextID++
	c.items = append(c.items, record)
	return record
}

// Update replaces the record with the given identifier in place. It reports
// false, leaving the collection untouched, when the identifier is absent.
func (c *Collection[T]) Update(id int64, patch func(T) T) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if c.id(item) == id {
			updated := c.withID(patch(item), id)
			c.items[i] = updated
			return updated, true
		}
	}
	var zero T
	return zero, false
}

// Delete removes the record with the given identifier, reporting whether
// anything was removed.
func (c *Collection[T]) Delete(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if c.id(item) == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Collection[T]) FindByID(id int64) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.findByIDLocked(id)
}

func (c *Collection[T]) findByIDLocked(id int64) (T, bool) {
	for _, item := range c.items {
		if c.id(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// List returns a copy of the collection in insertion order.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Filter returns the records matching pred, preserving insertion order.
func (c *Collection[T]) Filter(pred func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Store bundles the mock collections. It is constructed once at startup and
// handed to the service; there are no package-level instances.
type Store struct {
	Hospitals *Collection[Hospital]
	Documents *Collection[Document]
	Users     *Collection[User]
}

// InsertDocumentIfHospital inserts doc only while its hospital exists,
// holding the hospital read lock across the insert so a concurrent hospital
// delete cannot slip between check and append. Lock order is always
// Hospitals before Documents.
func (s *Store) InsertDocumentIfHospital(doc Document) (Document, bool) {
	s.Hospitals.mu.RLock()
	defer s.Hospitals.mu.RUnlock()
	if _, ok := s.Hospitals.findByIDLocked(doc.HospitalID); !ok {
		return Document{}, false
	}
	return s.Documents.Insert(doc), true
}

// UpdateDocumentIfHospital replaces the document under the same hospital
// read lock. found reports whether the document identifier exists, linked
// whether the referenced hospital still does.
func (s *Store) UpdateDocumentIfHospital(id int64, doc Document) (updated Document, found bool, linked bool) {
	s.Hospitals.mu.RLock()
	defer s.Hospitals.mu.RUnlock()
	if _, ok := s.Hospitals.findByIDLocked(doc.HospitalID); !ok {
		return Document{}, false, false
	}
	updated, found = s.Documents.Update(id, func(Document) Document { return doc })
	return updated, found, true
}

func New() *Store {
	return &Store{
		Hospitals: NewCollection(
			func(h Hospital) int64 { return h.ID },
			func(h Hospital, id int64) Hospital { h.ID = id; return h },
		),
		Documents: NewCollection(
			func(d Document) int64 { return d.ID },
			func(d Document, id int64) Document { d.ID = id; return d },
		),
		Users: NewCollection(
			func(u User) int64 { return u.ID },
			func(u User, id int64) User { u.ID = id; return u },
		),
	}
}
