package docstore

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps documents in process memory. Documents are stored in
// their JSON form so filters behave like the PostgreSQL backend.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

type memTable struct {
	docs    []memDoc
	indexes []Index
}

type memDoc struct {
	id   string
	body map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]*memTable)}
}

// table returns the named table, creating it. Callers hold s.mu.
func (s *MemoryStore) table(name string) *memTable {
	t, ok := s.tables[name]
	if !ok {
		t = &memTable{}
		s.tables[name] = t
	}
	return t
}

// lookup returns the named table without creating it, so it is safe under
// s.mu.RLock. A missing table reads as empty.
func (s *MemoryStore) lookup(name string) *memTable {
	if t, ok := s.tables[name]; ok {
		return t
	}
	return &memTable{}
}

func (s *MemoryStore) EnsureIndexes(_ context.Context, collection string, indexes ...Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(collection)
	for _, idx := range indexes {
		if err := checkField(idx.Field); err != nil {
			return err
		}
		replaced := false
		for i := range t.indexes {
			if t.indexes[i].Field == idx.Field {
				t.indexes[i] = idx
				replaced = true
			}
		}
		if !replaced {
			t.indexes = append(t.indexes, idx)
		}
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }

func (t *memTable) first(f Filter) int {
	for i, d := range t.docs {
		if d.matches(f) {
			return i
		}
	}
	return -1
}

// conflicts reports whether body would break a unique index when stored
// under id.
func (t *memTable) conflicts(id string, body map[string]any) bool {
	for _, idx := range t.indexes {
		if !idx.Unique {
			continue
		}
		v, ok := body[idx.Field]
		if !ok && idx.Sparse {
			continue
		}
		for _, other := range t.docs {
			if other.id == id {
				continue
			}
			ov, ook := other.body[idx.Field]
			if !ook && idx.Sparse {
				continue
			}
			if reflect.DeepEqual(v, ov) {
				return true
			}
		}
	}
	return false
}

func (d memDoc) field(name string) (any, bool) {
	if name == IDField {
		return d.id, true
	}
	v, ok := d.body[name]
	return v, ok
}

func (d memDoc) matches(f Filter) bool {
	for _, c := range f {
		v, ok := d.field(c.Field)
		want := normalize(c.Value)
		switch c.op {
		case opEq:
			if !ok || !reflect.DeepEqual(v, want) {
				return false
			}
		case opNe:
			if ok && reflect.DeepEqual(v, want) {
				return false
			}
		case opGte:
			n, comparable := compareValues(v, want)
			if !ok || !comparable || n < 0 {
				return false
			}
		case opLte:
			n, comparable := compareValues(v, want)
			if !ok || !comparable || n > 0 {
				return false
			}
		}
	}
	return true
}

// compareValues orders two JSON values. Strings holding RFC 3339
// timestamps compare chronologically.
func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		at, aerr := time.Parse(time.RFC3339Nano, av)
		bt, berr := time.Parse(time.RFC3339Nano, bv)
		if aerr == nil && berr == nil {
			return at.Compare(bt), true
		}
		return strings.Compare(av, bv), true
	}
	return 0, false
}

func applyUpdate(body map[string]any, u Update) map[string]any {
	out := make(map[string]any, len(body)+len(u.Set))
	for k, v := range body {
		out[k] = v
	}
	for k, v := range u.Set {
		out[k] = normalize(v)
	}
	for k, n := range u.Inc {
		cur, _ := out[k].(float64)
		out[k] = cur + float64(n)
	}
	return out
}

type memCollection[T any] struct {
	name  string
	store *MemoryStore
}

func (c *memCollection[T]) wrap(op string, err error) error {
	return fmt.Errorf("docstore: %s %s: %w", op, c.name, err)
}

func (c *memCollection[T]) Insert(_ context.Context, doc T) (InsertResult, error) {
	id, body, err := encodeDoc(doc)
	if err != nil {
		return InsertResult{}, c.wrap("insert", err)
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	t := c.store.table(c.name)
	for _, d := range t.docs {
		if d.id == id {
			return InsertResult{}, c.wrap("insert", ErrDuplicateKey)
		}
	}
	if t.conflicts(id, body) {
		return InsertResult{}, c.wrap("insert", ErrDuplicateKey)
	}
	t.docs = append(t.docs, memDoc{id: id, body: body})
	return InsertResult{InsertedID: id}, nil
}

func (c *memCollection[T]) Find(_ context.Context, filter Filter, opts ...FindOption) ([]T, error) {
	if err := checkFilter(filter); err != nil {
		return nil, c.wrap("find", err)
	}
	o := collectOptions(opts)

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	out := make([]T, 0)
	for _, d := range c.store.lookup(c.name).docs {
		if !d.matches(filter) {
			continue
		}
		doc, err := decodeDoc[T](d.id, d.body, o.projection)
		if err != nil {
			return nil, c.wrap("find", err)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *memCollection[T]) FindOne(_ context.Context, filter Filter, opts ...FindOption) (T, bool, error) {
	var zero T
	if err := checkFilter(filter); err != nil {
		return zero, false, c.wrap("find one", err)
	}
	o := collectOptions(opts)

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	t := c.store.lookup(c.name)
	i := t.first(filter)
	if i < 0 {
		return zero, false, nil
	}
	doc, err := decodeDoc[T](t.docs[i].id, t.docs[i].body, o.projection)
	if err != nil {
		return zero, false, c.wrap("find one", err)
	}
	return doc, true, nil
}

func (c *memCollection[T]) Update(_ context.Context, filter Filter, u Update) (UpdateResult, error) {
	if err := checkFilter(filter); err != nil {
		return UpdateResult{}, c.wrap("update", err)
	}
	if err := checkUpdate(u); err != nil {
		return UpdateResult{}, c.wrap("update", err)
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	t := c.store.table(c.name)
	i := t.first(filter)
	if i < 0 {
		return UpdateResult{}, nil
	}
	next := applyUpdate(t.docs[i].body, u)
	if reflect.DeepEqual(next, t.docs[i].body) {
		return UpdateResult{MatchedCount: 1}, nil
	}
	if t.conflicts(t.docs[i].id, next) {
		return UpdateResult{}, c.wrap("update", ErrDuplicateKey)
	}
	t.docs[i].body = next
	return UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (c *memCollection[T]) Delete(_ context.Context, filter Filter) (DeleteResult, error) {
	if err := checkFilter(filter); err != nil {
		return DeleteResult{}, c.wrap("delete", err)
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	t := c.store.table(c.name)
	i := t.first(filter)
	if i < 0 {
		return DeleteResult{}, nil
	}
	t.docs = append(t.docs[:i], t.docs[i+1:]...)
	return DeleteResult{DeletedCount: 1}, nil
}

func (c *memCollection[T]) Upsert(_ context.Context, filter Filter, doc T) (UpdateResult, error) {
	if err := checkFilter(filter); err != nil {
		return UpdateResult{}, c.wrap("upsert", err)
	}
	id, body, err := encodeDoc(doc)
	if err != nil {
		return UpdateResult{}, c.wrap("upsert", err)
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	t := c.store.table(c.name)
	if i := t.first(filter); i >= 0 {
		if t.conflicts(t.docs[i].id, body) {
			return UpdateResult{}, c.wrap("upsert", ErrDuplicateKey)
		}
		modified := int64(0)
		if !reflect.DeepEqual(t.docs[i].body, body) {
			modified = 1
		}
		t.docs[i].body = body
		return UpdateResult{MatchedCount: 1, ModifiedCount: modified}, nil
	}

	if t.conflicts(id, body) {
		return UpdateResult{}, c.wrap("upsert", ErrDuplicateKey)
	}
	t.docs = append(t.docs, memDoc{id: id, body: body})
	return UpdateResult{UpsertedID: id}, nil
}
