package documents

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	qGet    = `(?s)^SELECT\s+body,\s*version\s+FROM\s+documents\s+WHERE\s+path\s*=\s*\$1$`
	qSet    = `(?s)^INSERT\s+INTO\s+documents.*ON\s+CONFLICT\s+\(path\)\s+DO\s+UPDATE\s+SET\s+body\s*=\s*EXCLUDED\.body,.*RETURNING\s+version$`
	qUpdate = `(?s)^INSERT\s+INTO\s+documents.*SET\s+body\s*=\s*documents\.body\s*\|\|\s*EXCLUDED\.body,.*RETURNING\s+version$`
	qCreate = `(?s)^INSERT\s+INTO\s+documents.*ON\s+CONFLICT\s+\(path\)\s+DO\s+NOTHING\s+RETURNING\s+version$`
	qCAS    = `(?s)^UPDATE\s+documents\s+SET\s+body\s*=\s*\$2.*WHERE\s+path\s*=\s*\$1\s+AND\s+version\s*=\s*\$3\s+RETURNING\s+version$`
	qList   = `(?s)^SELECT\s+path,\s*body,\s*version\s+FROM\s+documents\s+WHERE\s+parent\s*=\s*\$1\s+ORDER\s+BY\s+path$`
	qDump   = `(?s)^SELECT\s+path,\s*body,\s*version\s+FROM\s+documents\s+ORDER\s+BY\s+path$`
)

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qGet).
		WithArgs("users/u1").
		WillReturnRows(sqlmock.NewRows([]string{"body", "version"}).
			AddRow([]byte(`{"points":5,"weightProgress":[80,79]}`), int64(3)))

	got, err := repo.Get(context.Background(), "users/u1")
	require.NoError(t, err)

	want := &store.Document{
		Path:    "users/u1",
		Fields:  map[string]any{"points": 5.0, "weightProgress": []any{80.0, 79.0}},
		Version: 3,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qGet).WithArgs("users/ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "users/ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_CorruptBody(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qGet).WithArgs("users/u1").
		WillReturnRows(sqlmock.NewRows([]string{"body", "version"}).AddRow([]byte(`{oops`), int64(1)))

	_, err := repo.Get(context.Background(), "users/u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt document body")
}

func TestGet_InvalidPathSkipsDB(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.Get(context.Background(), "users/")
	require.ErrorIs(t, err, common.ErrInvalidInput)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSet_ReturnsVersion(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qSet).
		WithArgs("milestones/u1", "milestones", []byte(`{"awardPoints":50,"milestoneWeight":70}`)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(2)))

	v, err := repo.Set(context.Background(), "milestones/u1", map[string]any{"milestoneWeight": 70.0, "awardPoints": 50})
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSet_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qSet).WillReturnError(errors.New("db down"))

	_, err := repo.Set(context.Background(), "users/u1", nil)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdate_MergesWithJSONBOperator(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qUpdate).
		WithArgs("users/u1", "users", []byte(`{"dietId":"d1"}`)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))

	v, err := repo.Update(context.Background(), "users/u1", map[string]any{"dietId": "d1"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)
}

func TestCompareAndSet_CreateOnly(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qCreate).
		WithArgs("users/u1", "users", []byte(`{"points":0}`)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(1)))

	v, err := repo.CompareAndSet(context.Background(), "users/u1", map[string]any{"points": 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestCompareAndSet_CreateConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qCreate).WillReturnError(sql.ErrNoRows)

	_, err := repo.CompareAndSet(context.Background(), "users/u1", map[string]any{"points": 0}, 0)
	require.ErrorIs(t, err, common.ErrVersionConflict)
}

func TestCompareAndSet_Versioned(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qCAS).
		WithArgs("milestones/u1", []byte(`{"awardPoints":0,"milestoneWeight":0}`), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))

	v, err := repo.CompareAndSet(context.Background(), "milestones/u1",
		map[string]any{"milestoneWeight": 0, "awardPoints": 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)
}

func TestCompareAndSet_StaleVersion(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qCAS).WillReturnError(sql.ErrNoRows)

	_, err := repo.CompareAndSet(context.Background(), "milestones/u1", map[string]any{}, 3)
	require.ErrorIs(t, err, common.ErrVersionConflict)
}

func TestPush_UsesGeneratedID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	repo.newID = func() string { return "m-1" }

	mock.ExpectQuery(qSet).
		WithArgs("chats/c1/messages/m-1", "chats/c1/messages", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(1)))

	id, err := repo.Push(context.Background(), "chats/c1/messages", map[string]any{"content": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "m-1", id)
}

func TestList_DirectChildren(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qList).
		WithArgs("diets").
		WillReturnRows(sqlmock.NewRows([]string{"path", "body", "version"}).
			AddRow("diets/a", []byte(`{"name":"Keto"}`), int64(1)).
			AddRow("diets/b", []byte(`{"name":"Vegan"}`), int64(2)))

	docs, err := repo.List(context.Background(), "diets")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID())
	assert.Equal(t, "Vegan", docs[1].Fields["name"])
}

func TestList_RowError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qList).
		WithArgs("diets").
		WillReturnRows(sqlmock.NewRows([]string{"path", "body", "version"}).
			AddRow("diets/a", []byte(`{}`), int64(1)).
			RowError(0, errors.New("broken row")))

	_, err := repo.List(context.Background(), "diets")
	require.Error(t, err)
}

func TestDump_AllRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qDump).
		WillReturnRows(sqlmock.NewRows([]string{"path", "body", "version"}).
			AddRow("diets/a", []byte(`{}`), int64(1)).
			AddRow("users/u1", []byte(`{"points":1}`), int64(7)))

	docs, err := repo.Dump(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, int64(7), docs[1].Version)
}
