// Package docstore is a small document repository with interchangeable
// backends: MongoDB, PostgreSQL (JSONB) and an in-memory store.
//
// A Collection[T] is bound to one named collection of a Store. Documents
// are plain structs whose bson and json tags carry identical field names;
// the identifier lives in a string field tagged `bson:"_id" json:"id"`.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// IDField addresses the document identifier in filters.
const IDField = "_id"

// jsonIDKey is the key the identifier takes in the JSON encoding.
const jsonIDKey = "id"

var (
	// ErrDuplicateKey is returned by the memory backend on unique index
	// violations. Use IsDuplicate to recognise violations on any backend.
	ErrDuplicateKey = errors.New("docstore: duplicate key")

	ErrEmptyUpdate  = errors.New("docstore: empty update")
	ErrInvalidField = errors.New("docstore: invalid field name")
)

type op int

const (
	opEq op = iota
	opNe
	opGte
	opLte
)

// Cond is a single field condition.
type Cond struct {
	Field string
	op    op
	Value any
}

func Eq(field string, value any) Cond  { return Cond{Field: field, op: opEq, Value: value} }
func Ne(field string, value any) Cond  { return Cond{Field: field, op: opNe, Value: value} }
func Gte(field string, value any) Cond { return Cond{Field: field, op: opGte, Value: value} }
func Lte(field string, value any) Cond { return Cond{Field: field, op: opLte, Value: value} }

// Filter is a conjunction of conditions. The empty filter matches every
// document.
type Filter []Cond

// Where builds a Filter.
func Where(conds ...Cond) Filter { return Filter(conds) }

// All matches every document.
var All = Filter(nil)

// Update is a partial modification: Set merges the given fields into the
// document, Inc adds to integer fields (missing fields count as zero).
type Update struct {
	Set map[string]any
	Inc map[string]int64
}

func (u Update) empty() bool { return len(u.Set) == 0 && len(u.Inc) == 0 }

type InsertResult struct {
	InsertedID string
}

type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
	UpsertedID    string
}

type DeleteResult struct {
	DeletedCount int64
}

// Index describes a single-field index.
type Index struct {
	Field  string
	Unique bool
	// Sparse skips documents that do not carry the field.
	Sparse bool
}

type findOptions struct {
	projection []string
}

// FindOption tunes Find and FindOne.
type FindOption func(*findOptions)

// Project limits the returned fields to fields plus the identifier.
func Project(fields ...string) FindOption {
	return func(o *findOptions) { o.projection = append(o.projection, fields...) }
}

func collectOptions(opts []FindOption) findOptions {
	var o findOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Collection is the typed CRUD surface over one collection.
//
// Find returns matches in insertion order. FindOne reports found=false
// rather than an error when nothing matches. Update, Delete and Upsert act
// on the first match only. Driver errors are returned wrapped with the
// collection name and are otherwise unchanged.
type Collection[T any] interface {
	Insert(ctx context.Context, doc T) (InsertResult, error)
	Find(ctx context.Context, filter Filter, opts ...FindOption) ([]T, error)
	FindOne(ctx context.Context, filter Filter, opts ...FindOption) (T, bool, error)
	Update(ctx context.Context, filter Filter, update Update) (UpdateResult, error)
	Delete(ctx context.Context, filter Filter) (DeleteResult, error)
	// Upsert replaces the first match with doc, or inserts doc when
	// nothing matches. The identifier of a replaced document is kept.
	Upsert(ctx context.Context, filter Filter, doc T) (UpdateResult, error)
}

// Store is a database holding named collections.
type Store interface {
	EnsureIndexes(ctx context.Context, collection string, indexes ...Index) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Bind returns the collection called name in s.
func Bind[T any](s Store, name string) Collection[T] {
	switch st := s.(type) {
	case *MongoStore:
		return &mongoCollection[T]{name: name, coll: st.db.Collection(name)}
	case *PostgresStore:
		return &pgCollection[T]{table: name, db: st.db}
	case *MemoryStore:
		return &memCollection[T]{name: name, store: st}
	default:
		panic(fmt.Sprintf("docstore: unsupported store %T", s))
	}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkField(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	return nil
}

func checkFilter(f Filter) error {
	for _, c := range f {
		if err := checkField(c.Field); err != nil {
			return err
		}
	}
	return nil
}

func checkUpdate(u Update) error {
	if u.empty() {
		return ErrEmptyUpdate
	}
	for k := range u.Set {
		if k == IDField || k == jsonIDKey {
			return fmt.Errorf("%w: identifier is immutable", ErrInvalidField)
		}
		if err := checkField(k); err != nil {
			return err
		}
	}
	for k := range u.Inc {
		if err := checkField(k); err != nil {
			return err
		}
	}
	return nil
}
