package identities

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ojudge/identity/internal/common"
	"github.com/ojudge/identity/internal/server/models"
	"github.com/ojudge/identity/internal/server/privilege"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func identityColumns() []string {
	return []string{"id", "email", "username", "nickname", "sex", "motto", "description", "avatar_key", "privilege", "created_at"}
}

func sampleRow(rows *sqlmock.Rows, id, username string) *sqlmock.Rows {
	return rows.AddRow(id, username+"@example.com", username, "", "", "", "", "", 1, time.Now())
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+identities\s*\(id,\s*email,\s*username,.*RETURNING\s+created_at\s*$`

	rows := sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now())
	mock.ExpectQuery(q).
		WithArgs("u-1", "zk@example.com", "zk", "", "", "", "", "", 1).
		WillReturnRows(rows)

	identity := &models.Identity{ID: "u-1", Email: "zk@example.com", Username: "zk", Privilege: privilege.Enabled}
	got, err := repo.Create(context.Background(), identity)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not populated")
	}
}

func TestCreate_UniqueViolationIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+identities`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "identities_email_key"})

	_, err := repo.Create(context.Background(), &models.Identity{ID: "u-1", Email: "dup@example.com", Username: "dup"})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+identities`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Identity{ID: "u-1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGet_ByUsername_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+id,\s*email,\s*username,.*FROM\s+identities\s+WHERE\s+username\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).
		WithArgs("zk").
		WillReturnRows(sampleRow(sqlmock.NewRows(identityColumns()), "u-1", "zk"))

	got, err := repo.Get(context.Background(), "zk", ByUsername)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.ID != "u-1" || got.Username != "zk" || got.Privilege != privilege.Enabled {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestGet_Miss(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+identities\s+WHERE\s+id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost", ByID)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_InvalidSelector(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.Get(context.Background(), "zk", By("nickname"))
	if !errors.Is(err, common.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+identities`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Identity{ID: "ghost"})
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_UniqueViolationIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+identities`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Update(context.Background(), &models.Identity{ID: "u-1", Email: "dup@example.com"})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestList_LimitOffsetAndOrder(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)FROM\s+identities\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+\$1\s+OFFSET\s+\$2`
	rows := sqlmock.NewRows(identityColumns())
	sampleRow(rows, "u-1", "alice")
	sampleRow(rows, "u-2", "bob")
	mock.ExpectQuery(q).WithArgs(20, 20).WillReturnRows(rows)

	got, err := repo.List(context.Background(), OrderByCreatedAt, Desc, 20, 20)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "u-1" || got[1].ID != "u-2" {
		t.Fatalf("unexpected page: %+v", got)
	}
}

func TestList_RejectsUnknownOrderColumn(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.List(context.Background(), OrderField("password_hash"), Asc, 20, 0)
	if !errors.Is(err, common.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}

	_, err = repo.List(context.Background(), OrderByID, Direction("SIDEWAYS"), 20, 0)
	if !errors.Is(err, common.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestSearch_MatchesAcrossColumns(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)WHERE\s+username\s+ILIKE.*OR\s+email\s+ILIKE.*OR\s+nickname\s+ILIKE.*LIMIT\s+\$2\s+OFFSET\s+\$3`
	rows := sqlmock.NewRows(identityColumns())
	sampleRow(rows, "u-1", "zkfan")
	mock.ExpectQuery(q).WithArgs("zk", 20, 0).WillReturnRows(rows)

	got, err := repo.Search(context.Background(), "zk", OrderByUsername, Asc, 20, 0)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(got) != 1 || got[0].Username != "zkfan" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestSearch_EmptyResultIsEmptySlice(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE\s+username\s+ILIKE`).
		WithArgs("nobody", 20, 0).
		WillReturnRows(sqlmock.NewRows(identityColumns()))

	got, err := repo.Search(context.Background(), "nobody", OrderByUsername, Asc, 20, 0)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	// The empty-page-is-NotFound contract lives in the store, not here.
	if len(got) != 0 {
		t.Fatalf("expected empty slice, got %+v", got)
	}
}
