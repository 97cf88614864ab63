package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"profile-service/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

const testUserID = "5f0c4e9a-8d7b-4c1e-9a55-3e2f1b6d7c80"

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestUserStore(t *testing.T) (*UserStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewUserStore(db)
	s.newID = func() string { return testUserID }
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

func TestUserStoreCreate(t *testing.T) {
	s, mock := newTestUserStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id,name,email,password_hash,avatar,created_at) VALUES ($1,$2,$3,$4,$5,$6)")).
		WithArgs(testUserID, "Ada", "ada@example.com", "hash", "https://avatar", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &models.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "hash", Avatar: "https://avatar"}
	err := s.Create(context.Background(), u)

	assert.NoError(t, err)
	assert.Equal(t, testUserID, u.ID)
	assert.Equal(t, fixedNow, u.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreCreateDuplicateEmail(t *testing.T) {
	s, mock := newTestUserStore(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := s.Create(context.Background(), &models.User{Email: "ada@example.com"})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestUserStoreCreateDatabaseError(t *testing.T) {
	s, mock := newTestUserStore(t)

	mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("connection reset"))

	err := s.Create(context.Background(), &models.User{Email: "ada@example.com"})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrConflict))
}

func TestUserStoreFindByID(t *testing.T) {
	s, mock := newTestUserStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "avatar", "created_at"}).
		AddRow(testUserID, "Ada", "ada@example.com", "hash", "https://avatar", fixedNow)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, password_hash, avatar, created_at FROM users WHERE id = $1")).
		WithArgs(testUserID).
		WillReturnRows(rows)

	u, err := s.FindByID(context.Background(), testUserID)
	assert.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreFindByIDMalformed(t *testing.T) {
	s, mock := newTestUserStore(t)

	_, err := s.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, models.ErrIdentityNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreFindByEmailMissing(t *testing.T) {
	s, mock := newTestUserStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.FindByEmail(context.Background(), " ada@example.com ")
	assert.ErrorIs(t, err, models.ErrIdentityNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreDelete(t *testing.T) {
	s, mock := newTestUserStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(testUserID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, s.Delete(context.Background(), testUserID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreDeleteError(t *testing.T) {
	s, mock := newTestUserStore(t)

	mock.ExpectExec("DELETE FROM users").WillReturnError(errors.New("timeout"))

	assert.Error(t, s.Delete(context.Background(), testUserID))
}
