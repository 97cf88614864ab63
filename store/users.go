package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"profile-service/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const userColumns = "id, name, email, password_hash, avatar, created_at"

type UserStore struct {
	db    *sql.DB
	newID func() string
	now   func() time.Time
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db, newID: uuid.NewString, now: time.Now}
}

// Create inserts u, assigning its id and creation time. An email that is
// already registered yields models.ErrConflict.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	u.ID = s.newID()
	u.CreatedAt = s.now().UTC()

	query, args, err := psql.Insert("users").
		Columns("id", "name", "email", "password_hash", "avatar", "created_at").
		Values(u.ID, u.Name, u.Email, u.PasswordHash, u.Avatar, u.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", u.Email, models.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, models.ErrIdentityNotFound
	}
	return s.findOne(ctx, sq.Eq{"id": id})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, sq.Eq{"email": strings.TrimSpace(email)})
}

func (s *UserStore) findOne(ctx context.Context, where sq.Eq) (*models.User, error) {
	query, args, err := psql.Select(userColumns).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user query: %w", err)
	}

	var u models.User
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// Delete removes the user. Deleting a user that does not exist is not an
// error.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	query, args, err := psql.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete user query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
