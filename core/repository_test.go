package core

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

var userCols = []string{"id", "username", "email", "password_hash", "role", "created_at", "updated_at"}

func TestPgUserRepository_FindByIdentifier(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgUserRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username=$1 OR email=$1`)).
		WithArgs("admin@reconnectit.com").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(1), "admin", "admin@reconnectit.com", "$2a$04$digest", "admin", now, now))

	rec, err := repo.FindByIdentifier(context.Background(), "admin@reconnectit.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, RoleAdmin, rec.Role)
	assert.Equal(t, "$2a$04$digest", rec.PasswordHash)
}

func TestPgUserRepository_NotFoundAndBadRole(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgUserRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id=$1`)).
		WithArgs(int64(9)).
		WillReturnError(pgx.ErrNoRows)
	_, err := repo.FindByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id=$1`)).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(2), "eve", "eve@example.com", "x", "root", now, now))
	_, err = repo.FindByID(context.Background(), 2)
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestPgUserRepository_CreateAndExists(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgUserRepository(mock)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM users`)).
		WithArgs("admin", "admin@reconnectit.com").
		WillReturnError(pgx.ErrNoRows)
	exists, err := repo.Exists(ctx, "admin", "admin@reconnectit.com")
	require.NoError(t, err)
	assert.False(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("admin", "admin@reconnectit.com", "digest", "admin").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	id, err := repo.Create(ctx, "admin", "admin@reconnectit.com", "digest", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

var productCols = []string{"id", "name", "category", "price", "specs", "description", "image", "visible", "created_at", "updated_at"}

func TestPgProductRepository_ListVisible(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgProductRepository(mock)
	now := time.Now().UTC()
	img := "/img/a.png"

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE visible=TRUE ORDER BY id`)).
		WillReturnRows(pgxmock.NewRows(productCols).
			AddRow(int64(1), "ThinkPad", "laptops", 199.99, `["8GB RAM","256GB SSD"]`, "refurb", &img, true, now, now).
			AddRow(int64(2), "Dock", "accessories", 20.0, "", "", &img, true, now, now))

	items, err := repo.ListVisible(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, []string{"8GB RAM", "256GB SSD"}, items[0].Specs)
	assert.Equal(t, []string{}, items[1].Specs)
}

func TestPgProductRepository_DeleteMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgProductRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM products WHERE id=$1`)).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 3), ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM products WHERE id=$1`)).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	assert.NoError(t, repo.Delete(context.Background(), 4))
}

func TestPgProductRepository_ToggleMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgProductRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`SET visible = NOT visible`)).
		WithArgs(int64(5)).
		WillReturnError(pgx.ErrNoRows)
	_, err := repo.ToggleVisibility(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPgContactRepository_Create(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPgContactRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO contact_submissions`)).
		WithArgs("Jo", "jo@example.com", pgxmock.AnyArg(), "hello").
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "created_at"}).AddRow(int64(11), "new", now))

	c, err := repo.Create(context.Background(), " Jo ", "jo@example.com", nil, "hello ")
	require.NoError(t, err)
	assert.Equal(t, int64(11), c.ID)
	assert.Equal(t, "new", c.Status)
	assert.Equal(t, "Jo", c.Name)
}

func TestEncodeDecodeSpecs(t *testing.T) {
	s, err := encodeSpecs(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	_, err = decodeSpecs("not json")
	assert.Error(t, err)
	assert.Equal(t, 10.13, roundPrice(10.129))
}
