package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"profile-service/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const postColumns = "id, owner_id, text, name, avatar, created_at"

type PostStore struct {
	db    *sql.DB
	newID func() string
	now   func() time.Time
}

func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db, newID: uuid.NewString, now: time.Now}
}

func scanPost(row scanner) (*models.Post, error) {
	var p models.Post
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Text, &p.Name, &p.Avatar, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostStore) Create(ctx context.Context, p *models.Post) error {
	p.ID = s.newID()
	p.CreatedAt = s.now().UTC()

	query, args, err := psql.Insert("posts").
		Columns("id", "owner_id", "text", "name", "avatar", "created_at").
		Values(p.ID, p.OwnerID, p.Text, p.Name, p.Avatar, p.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert post query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// List returns every post, newest first.
func (s *PostStore) List(ctx context.Context) ([]models.Post, error) {
	query, args, err := psql.Select(postColumns).From("posts").OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list posts query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post rows: %w", err)
	}
	return posts, nil
}

func (s *PostStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	if !validID(id) {
		return nil, models.ErrNotFound
	}
	query, args, err := psql.Select(postColumns).From("posts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select post query: %w", err)
	}

	p, err := scanPost(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("select post: %w", err)
	}
	return p, nil
}

func (s *PostStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return models.ErrNotFound
	}
	query, args, err := psql.Delete("posts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete post query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post rows affected: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}
