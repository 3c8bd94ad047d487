package docstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPGWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func exact(q string) string {
	return "^" + regexp.QuoteMeta(q) + "$"
}

func TestPostgres_Insert(t *testing.T) {
	s, mock := newPGWithMock(t)
	c := Bind[note](s, "notes")

	mock.ExpectExec(exact(`INSERT INTO notes (id, doc) VALUES ($1, $2::jsonb)`)).
		WithArgs(sqlmock.AnyArg(), `{"at":"0001-01-01T00:00:00Z","hits":0,"owner":"alice","title":"t"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := c.Insert(context.Background(), note{Owner: "alice", Title: "t"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.InsertedID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertKeepsExplicitID(t *testing.T) {
	s, mock := newPGWithMock(t)
	c := Bind[note](s, "notes")

	mock.ExpectExec(`INSERT INTO notes`).
		WithArgs("n-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := c.Insert(context.Background(), note{ID: "n-1", Owner: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "n-1", res.InsertedID)
}

func TestPostgres_InsertDuplicate(t *testing.T) {
	s, mock := newPGWithMock(t)
	c := Bind[note](s, "notes")

	mock.ExpectExec(`INSERT INTO notes`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	_, err := c.Insert(context.Background(), note{Owner: "alice"})
	require.Error(t, err)
	assert.True(t, IsDuplicate(err))
	assert.Contains(t, err.Error(), "insert notes")
}

func TestPostgres_FindWithFilterAndProjection(t *testing.T) {
	s, mock := newPGWithMock(t)
	c := Bind[note](s, "notes")

	rows := sqlmock.NewRows([]string{"id", "doc"}).
		AddRow("n-1", []byte(`{"owner":"alice","title":"one","hits":3}`)).
		AddRow("n-2", []byte(`{"owner":"alice","title":"two","hits":5}`))
	mock.ExpectQuery(exact(`SELECT id, doc FROM notes WHERE doc @> $1::jsonb AND NOT (doc @> $2::jsonb) ORDER BY seq`)).
		WithArgs(`{"owner":"alice"}`, `{"tag":"draft"}`).
		WillReturnRows(rows)

	got, err := c.Find(context.Background(), Where(Eq("owner", "alice"), Ne("tag", "draft")), Project("title"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, note{ID: "n-1", Title: "one"}, got[0])
	assert.Equal(t, note{ID: "n-2", Title: "two"}, got[1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindTimeRange(t *testing.T) {
	s, mock := newPGWithMock(t)
	c := Bind[note](s, "notes")

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	mock.ExpectQuery(exact(`SELECT id, doc FROM notes WHERE (doc->>'at')::timestamptz >= $1 AND (doc->>'at')::timestamptz <= $2 ORDER BY seq`)).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"id", "doc"}))

	got, err := c.Find(context.Background(), Where(Gte("at", from), Lte("at", to)))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPostgres_FindOne(t *testing.T) {
	s, mock := newPGWithMock(t)
	c := Bind[note](s, "notes")

	mock.ExpectQuery(exact(`SELECT id, doc FROM notes WHERE id = $1 ORDER BY seq LIMIT 1`)).
		WithArgs("n-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "doc"}).AddRow("n-1", []byte(`{"owner":"bob","hits":7}`)))

	got, found, err := c.FindOne(context.Background(), Where(Eq(IDField, "n-1")))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "bob", got.Owner)
	assert.Equal(t, int64(7), got.Hits)

	mock.ExpectQuery(`SELECT id, doc FROM notes`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "doc"}))

	_, found, err = c.FindOne(context.Background(), Where(Eq(IDField, "missing")))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPostgres_FindDBError(t *testing.T) {
	s, mock := newPGWithMock(t)
	c := Bind[note](s, "notes")

	mock.ExpectQuery(`SELECT id, doc FROM notes`).WillReturnError(errors.New("db down"))

	_, err := c.Find(context.Background(), All)
	require.Error(t, err)
	assert.Regexp(t, `find notes: .*db down`, err.Error())
}

func TestPostgres_Update(t *testing.T) {
	s, mock := newPGWithMock(t)
	c := Bind[note](s, "notes")

	patch := `jsonb_set((doc || $2::jsonb), '{hits}', to_jsonb(COALESCE((doc->>'hits')::bigint, 0) + $3::bigint))`
	q := `WITH target AS (SELECT id FROM notes WHERE doc @> $1::jsonb ORDER BY seq LIMIT 1 FOR UPDATE), ` +
		`changed AS (UPDATE notes SET doc = ` + patch + ` FROM target WHERE notes.id = target.id AND notes.doc IS DISTINCT FROM ` + patch +
		` RETURNING notes.id) SELECT (SELECT count(*) FROM target), (SELECT count(*) FROM changed)`

	mock.ExpectQuery(exact(q)).
		WithArgs(`{"owner":"alice"}`, `{"tag":"x"}`, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"matched", "modified"}).AddRow(int64(1), int64(1)))

	res, err := c.Update(context.Background(), Where(Eq("owner", "alice")), Update{
		Set: map[string]any{"tag": "x"},
		Inc: map[string]int64{"hits": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{MatchedCount: 1, ModifiedCount: 1}, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateRejectsEmpty(t *testing.T) {
	s, _ := newPGWithMock(t)
	c := Bind[note](s, "notes")

	_, err := c.Update(context.Background(), All, Update{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)
}

func TestPostgres_Delete(t *testing.T) {
	s, mock := newPGWithMock(t)
	c := Bind[note](s, "notes")

	mock.ExpectExec(exact(`DELETE FROM notes WHERE id = (SELECT id FROM notes WHERE id = $1 ORDER BY seq LIMIT 1)`)).
		WithArgs("n-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := c.Delete(context.Background(), Where(Eq(IDField, "n-1")))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.DeletedCount)
}

func TestPostgres_UpsertInserts(t *testing.T) {
	s, mock := newPGWithMock(t)
	c := Bind[note](s, "notes")

	mock.ExpectBegin()
	mock.ExpectQuery(exact(`SELECT id FROM notes WHERE doc @> $1::jsonb ORDER BY seq LIMIT 1 FOR UPDATE`)).
		WithArgs(`{"owner":"alice"}`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(exact(`INSERT INTO notes (id, doc) VALUES ($1, $2::jsonb)`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := c.Upsert(context.Background(), Where(Eq("owner", "alice")), note{Owner: "alice", Title: "v1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.UpsertedID)
	assert.Zero(t, res.MatchedCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpsertReplaces(t *testing.T) {
	s, mock := newPGWithMock(t)
	c := Bind[note](s, "notes")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM notes WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("n-1"))
	mock.ExpectExec(exact(`UPDATE notes SET doc = $1::jsonb WHERE id = $2 AND doc IS DISTINCT FROM $1::jsonb`)).
		WithArgs(sqlmock.AnyArg(), "n-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := c.Upsert(context.Background(), Where(Eq("owner", "alice")), note{Owner: "alice", Title: "v2"})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{MatchedCount: 1, ModifiedCount: 1}, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpsertRollsBackOnError(t *testing.T) {
	s, mock := newPGWithMock(t)
	c := Bind[note](s, "notes")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM notes WHERE`).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO notes`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := c.Upsert(context.Background(), Where(Eq("owner", "alice")), note{Owner: "alice"})
	require.Error(t, err)
	assert.True(t, IsDuplicate(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_EnsureIndexes(t *testing.T) {
	s, mock := newPGWithMock(t)

	mock.ExpectExec(exact(`CREATE UNIQUE INDEX IF NOT EXISTS users_username_idx ON users ((doc->>'username'))`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(exact(`CREATE UNIQUE INDEX IF NOT EXISTS users_verificationtoken_idx ON users ((doc->>'verificationToken')) WHERE doc ? 'verificationToken'`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.EnsureIndexes(context.Background(), "users",
		Index{Field: "username", Unique: true},
		Index{Field: "verificationToken", Unique: true, Sparse: true},
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.ErrorIs(t, s.EnsureIndexes(context.Background(), "users; --"), ErrInvalidField)
}

func TestPostgres_Migrate(t *testing.T) {
	s, _ := newPGWithMock(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		return nil
	}
	require.NoError(t, s.Migrate(context.Background()))

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
