package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/folio/internal/dbx"
	"github.com/dmitrijs2005/folio/internal/server/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresStore keeps each collection in a table
// (seq bigserial, id text primary key, doc jsonb). Tables are created by
// the embedded goose migrations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects with the pgx driver and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("docstore: open postgres: %w", err)
	}
	s := NewPostgresStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate runs the embedded migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("docstore: migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) EnsureIndexes(ctx context.Context, collection string, indexes ...Index) error {
	if err := checkField(collection); err != nil {
		return err
	}
	for _, idx := range indexes {
		if err := checkField(idx.Field); err != nil {
			return err
		}
		name := collection + "_" + strings.ToLower(idx.Field) + "_idx"
		q := "CREATE INDEX IF NOT EXISTS "
		if idx.Unique {
			q = "CREATE UNIQUE INDEX IF NOT EXISTS "
		}
		q += name + " ON " + collection + " ((doc->>'" + idx.Field + "'))"
		if idx.Sparse {
			q += " WHERE doc ? '" + idx.Field + "'"
		}
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("docstore: create index %s: %w", name, err)
		}
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}

// sqlArgs accumulates positional parameters.
type sqlArgs []any

func (a *sqlArgs) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

// pgWhere renders f as a boolean SQL expression over the doc column.
func pgWhere(f Filter, args *sqlArgs) (string, error) {
	if err := checkFilter(f); err != nil {
		return "", err
	}
	if len(f) == 0 {
		return "TRUE", nil
	}

	parts := make([]string, 0, len(f))
	for _, c := range f {
		if c.Field == IDField {
			switch c.op {
			case opEq:
				parts = append(parts, "id = "+args.add(fmt.Sprint(c.Value)))
			case opNe:
				parts = append(parts, "id <> "+args.add(fmt.Sprint(c.Value)))
			case opGte:
				parts = append(parts, "id >= "+args.add(fmt.Sprint(c.Value)))
			case opLte:
				parts = append(parts, "id <= "+args.add(fmt.Sprint(c.Value)))
			}
			continue
		}

		switch c.op {
		case opEq, opNe:
			probe, err := json.Marshal(map[string]any{c.Field: c.Value})
			if err != nil {
				return "", err
			}
			expr := "doc @> " + args.add(string(probe)) + "::jsonb"
			if c.op == opNe {
				expr = "NOT (" + expr + ")"
			}
			parts = append(parts, expr)
		case opGte, opLte:
			cmp := ">="
			if c.op == opLte {
				cmp = "<="
			}
			lhs := "doc->>'" + c.Field + "'"
			switch c.Value.(type) {
			case time.Time:
				lhs = "(" + lhs + ")::timestamptz"
			case int, int32, int64, float32, float64:
				lhs = "(" + lhs + ")::numeric"
			}
			parts = append(parts, lhs+" "+cmp+" "+args.add(c.Value))
		}
	}
	return strings.Join(parts, " AND "), nil
}

// pgPatch renders the new value of doc after applying u.
func pgPatch(u Update, args *sqlArgs) (string, error) {
	if err := checkUpdate(u); err != nil {
		return "", err
	}
	expr := "doc"
	if len(u.Set) > 0 {
		set, err := json.Marshal(u.Set)
		if err != nil {
			return "", err
		}
		expr = "(" + expr + " || " + args.add(string(set)) + "::jsonb)"
	}

	keys := make([]string, 0, len(u.Inc))
	for k := range u.Inc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		expr = "jsonb_set(" + expr + ", '{" + k + "}', to_jsonb(COALESCE((doc->>'" + k + "')::bigint, 0) + " +
			args.add(u.Inc[k]) + "::bigint))"
	}
	return expr, nil
}

type pgCollection[T any] struct {
	table string
	db    *sql.DB
}

func (c *pgCollection[T]) wrap(op string, err error) error {
	return fmt.Errorf("docstore: %s %s: %w", op, c.table, err)
}

func (c *pgCollection[T]) Insert(ctx context.Context, doc T) (InsertResult, error) {
	id, body, err := encodeDoc(doc)
	if err != nil {
		return InsertResult{}, c.wrap("insert", err)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return InsertResult{}, c.wrap("insert", err)
	}

	q := "INSERT INTO " + c.table + " (id, doc) VALUES ($1, $2::jsonb)"
	if _, err := c.db.ExecContext(ctx, q, id, string(raw)); err != nil {
		return InsertResult{}, c.wrap("insert", err)
	}
	return InsertResult{InsertedID: id}, nil
}

func (c *pgCollection[T]) query(ctx context.Context, filter Filter, limit bool, opts []FindOption) ([]T, error) {
	var args sqlArgs
	where, err := pgWhere(filter, &args)
	if err != nil {
		return nil, err
	}
	q := "SELECT id, doc FROM " + c.table + " WHERE " + where + " ORDER BY seq"
	if limit {
		q += " LIMIT 1"
	}

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	o := collectOptions(opts)
	out := make([]T, 0)
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, err
		}
		doc, err := decodeDoc[T](id, body, o.projection)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (c *pgCollection[T]) Find(ctx context.Context, filter Filter, opts ...FindOption) ([]T, error) {
	out, err := c.query(ctx, filter, false, opts)
	if err != nil {
		return nil, c.wrap("find", err)
	}
	return out, nil
}

func (c *pgCollection[T]) FindOne(ctx context.Context, filter Filter, opts ...FindOption) (T, bool, error) {
	var zero T
	out, err := c.query(ctx, filter, true, opts)
	if err != nil {
		return zero, false, c.wrap("find one", err)
	}
	if len(out) == 0 {
		return zero, false, nil
	}
	return out[0], true, nil
}

func (c *pgCollection[T]) Update(ctx context.Context, filter Filter, u Update) (UpdateResult, error) {
	var args sqlArgs
	where, err := pgWhere(filter, &args)
	if err != nil {
		return UpdateResult{}, c.wrap("update", err)
	}
	patch, err := pgPatch(u, &args)
	if err != nil {
		return UpdateResult{}, c.wrap("update", err)
	}

	q := "WITH target AS (SELECT id FROM " + c.table + " WHERE " + where + " ORDER BY seq LIMIT 1 FOR UPDATE), " +
		"changed AS (UPDATE " + c.table + " SET doc = " + patch + " FROM target WHERE " + c.table + ".id = target.id" +
		" AND " + c.table + ".doc IS DISTINCT FROM " + patch + " RETURNING " + c.table + ".id) " +
		"SELECT (SELECT count(*) FROM target), (SELECT count(*) FROM changed)"

	var res UpdateResult
	if err := c.db.QueryRowContext(ctx, q, args...).Scan(&res.MatchedCount, &res.ModifiedCount); err != nil {
		return UpdateResult{}, c.wrap("update", err)
	}
	return res, nil
}

func (c *pgCollection[T]) Delete(ctx context.Context, filter Filter) (DeleteResult, error) {
	var args sqlArgs
	where, err := pgWhere(filter, &args)
	if err != nil {
		return DeleteResult{}, c.wrap("delete", err)
	}

	q := "DELETE FROM " + c.table + " WHERE id = (SELECT id FROM " + c.table + " WHERE " + where + " ORDER BY seq LIMIT 1)"
	res, err := c.db.ExecContext(ctx, q, args...)
	if err != nil {
		return DeleteResult{}, c.wrap("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return DeleteResult{}, c.wrap("delete", err)
	}
	return DeleteResult{DeletedCount: n}, nil
}

// Upsert locks the first match and replaces its document, or inserts doc
// when nothing matches, in one transaction.
func (c *pgCollection[T]) Upsert(ctx context.Context, filter Filter, doc T) (UpdateResult, error) {
	var args sqlArgs
	where, err := pgWhere(filter, &args)
	if err != nil {
		return UpdateResult{}, c.wrap("upsert", err)
	}
	id, body, err := encodeDoc(doc)
	if err != nil {
		return UpdateResult{}, c.wrap("upsert", err)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return UpdateResult{}, c.wrap("upsert", err)
	}

	var res UpdateResult
	err = dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var existing string
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM "+c.table+" WHERE "+where+" ORDER BY seq LIMIT 1 FOR UPDATE", args...).Scan(&existing)
		if errors.Is(err, sql.ErrNoRows) {
			_, err = tx.ExecContext(ctx, "INSERT INTO "+c.table+" (id, doc) VALUES ($1, $2::jsonb)", id, string(raw))
			if err != nil {
				return err
			}
			res.UpsertedID = id
			return nil
		}
		if err != nil {
			return err
		}

		r, err := tx.ExecContext(ctx,
			"UPDATE "+c.table+" SET doc = $1::jsonb WHERE id = $2 AND doc IS DISTINCT FROM $1::jsonb", string(raw), existing)
		if err != nil {
			return err
		}
		res.MatchedCount = 1
		res.ModifiedCount, err = r.RowsAffected()
		return err
	})
	if err != nil {
		return UpdateResult{}, c.wrap("upsert", err)
	}
	return res, nil
}
