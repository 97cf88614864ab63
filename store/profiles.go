package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"profile-service/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const profileColumns = "id, owner_id, company, website, location, bio, status, githubusername, " +
	"skills, social, experience, created_at, updated_at"

const profileWithOwnerColumns = "p.id, p.owner_id, p.company, p.website, p.location, p.bio, p.status, " +
	"p.githubusername, p.skills, p.social, p.experience, p.created_at, p.updated_at, " +
	"COALESCE(u.name, ''), COALESCE(u.avatar, '')"

// ProfileStore persists the one-per-owner profile aggregate. The
// profiles_owner_id_key constraint guarantees a single row per owner.
type ProfileStore struct {
	db    *sql.DB
	newID func() string
	now   func() time.Time
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db, newID: uuid.NewString, now: time.Now}
}

func scanProfile(row scanner, withOwner bool) (*models.Profile, error) {
	var (
		p                                                   models.Profile
		company, website, location, bio, status, githubUser sql.NullString
		skills, social, experience                          []byte
	)
	dest := []any{
		&p.ID, &p.OwnerID, &company, &website, &location, &bio, &status, &githubUser,
		&skills, &social, &experience, &p.CreatedAt, &p.UpdatedAt,
	}
	if withOwner {
		dest = append(dest, &p.Owner.Name, &p.Owner.Avatar)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	p.Owner.ID = p.OwnerID
	p.Company = nullableString(company)
	p.Website = nullableString(website)
	p.Location = nullableString(location)
	p.Bio = nullableString(bio)
	p.Status = nullableString(status)
	p.GitHubUsername = nullableString(githubUser)

	if err := json.Unmarshal(skills, &p.Skills); err != nil {
		return nil, fmt.Errorf("decode skills: %w", err)
	}
	if err := json.Unmarshal(social, &p.Social); err != nil {
		return nil, fmt.Errorf("decode social: %w", err)
	}
	if err := json.Unmarshal(experience, &p.Experience); err != nil {
		return nil, fmt.Errorf("decode experience: %w", err)
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Experience == nil {
		p.Experience = []models.Experience{}
	}
	return &p, nil
}

// patchColumns translates the supplied fields of patch into column values.
// JSON columns are passed as text and cast by Postgres; social is merged
// into the stored object key by key.
func patchColumns(patch models.ProfilePatch, merge bool) (map[string]any, error) {
	columns := make(map[string]any)
	scalars := map[string]models.Optional[string]{
		"company":        patch.Company,
		"website":        patch.Website,
		"location":       patch.Location,
		"bio":            patch.Bio,
		"status":         patch.Status,
		"githubusername": patch.GitHubUsername,
	}
	for column, value := range scalars {
		if v, ok := value.Get(); ok {
			columns[column] = v
		}
	}

	if skills, ok := patch.Skills.Get(); ok {
		if skills == nil {
			skills = []string{}
		}
		encoded, err := json.Marshal(skills)
		if err != nil {
			return nil, fmt.Errorf("encode skills: %w", err)
		}
		columns["skills"] = sq.Expr("?::jsonb", string(encoded))
	}

	if len(patch.Social) > 0 {
		encoded, err := json.Marshal(patch.Social)
		if err != nil {
			return nil, fmt.Errorf("encode social: %w", err)
		}
		if merge {
			columns["social"] = sq.Expr("social || ?::jsonb", string(encoded))
		} else {
			columns["social"] = sq.Expr("?::jsonb", string(encoded))
		}
	}
	return columns, nil
}

func (s *ProfileStore) ExistsByOwner(ctx context.Context, ownerID string) (bool, error) {
	if !validID(ownerID) {
		return false, nil
	}
	query, args, err := psql.Select("1").From("profiles").Where(sq.Eq{"owner_id": ownerID}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build profile exists query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check profile exists: %w", err)
	}
	return true, nil
}

// Create inserts a profile holding only the supplied fields. A concurrent
// insert for the same owner surfaces as models.ErrConflict.
func (s *ProfileStore) Create(ctx context.Context, ownerID string, patch models.ProfilePatch) (*models.Profile, error) {
	columns, err := patchColumns(patch, false)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	columns["id"] = s.newID()
	columns["owner_id"] = ownerID
	columns["created_at"] = now
	columns["updated_at"] = now

	query, args, err := psql.Insert("profiles").SetMap(columns).
		Suffix("RETURNING " + profileColumns).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert profile query: %w", err)
	}

	p, err := scanProfile(s.db.QueryRowContext(ctx, query, args...), false)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("profile for owner %s: %w", ownerID, models.ErrConflict)
		}
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return p, nil
}

// Update applies patch to the owner's profile in place and returns the
// stored result.
func (s *ProfileStore) Update(ctx context.Context, ownerID string, patch models.ProfilePatch) (*models.Profile, error) {
	if !validID(ownerID) {
		return nil, models.ErrProfileNotFound
	}
	columns, err := patchColumns(patch, true)
	if err != nil {
		return nil, err
	}
	columns["updated_at"] = s.now().UTC()

	return s.updateReturning(ctx, psql.Update("profiles").SetMap(columns).
		Where(sq.Eq{"owner_id": ownerID}))
}

// PrependExperience puts entry at the head of the experience list in a
// single statement, so concurrent additions are never lost.
func (s *ProfileStore) PrependExperience(ctx context.Context, ownerID string, entry models.Experience) (*models.Profile, error) {
	if !validID(ownerID) {
		return nil, models.ErrProfileNotFound
	}
	encoded, err := json.Marshal([]models.Experience{entry})
	if err != nil {
		return nil, fmt.Errorf("encode experience: %w", err)
	}

	return s.updateReturning(ctx, psql.Update("profiles").
		Set("experience", sq.Expr("?::jsonb || experience", string(encoded))).
		Set("updated_at", s.now().UTC()).
		Where(sq.Eq{"owner_id": ownerID}))
}

// RemoveExperience drops the entry at index. An index past the end of the
// list yields models.ErrNotFound; a missing profile models.ErrProfileNotFound.
func (s *ProfileStore) RemoveExperience(ctx context.Context, ownerID string, index int) (*models.Profile, error) {
	if !validID(ownerID) {
		return nil, models.ErrProfileNotFound
	}
	if index < 0 {
		return nil, models.ErrNotFound
	}

	p, err := s.updateReturning(ctx, psql.Update("profiles").
		Set("experience", sq.Expr("experience - ?::int", index)).
		Set("updated_at", s.now().UTC()).
		Where(sq.And{
			sq.Eq{"owner_id": ownerID},
			sq.Expr("jsonb_array_length(experience) > ?", index),
		}))
	if !errors.Is(err, models.ErrProfileNotFound) {
		return p, err
	}

	exists, existsErr := s.ExistsByOwner(ctx, ownerID)
	if existsErr != nil {
		return nil, existsErr
	}
	if exists {
		return nil, models.ErrNotFound
	}
	return nil, models.ErrProfileNotFound
}

func (s *ProfileStore) updateReturning(ctx context.Context, builder sq.UpdateBuilder) (*models.Profile, error) {
	query, args, err := builder.Suffix("RETURNING " + profileColumns).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update profile query: %w", err)
	}

	p, err := scanProfile(s.db.QueryRowContext(ctx, query, args...), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrProfileNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

func selectProfiles() sq.SelectBuilder {
	return psql.Select(profileWithOwnerColumns).
		From("profiles p").
		LeftJoin("users u ON u.id = p.owner_id")
}

// FindByOwner loads the owner's profile together with the owner's name and
// avatar.
func (s *ProfileStore) FindByOwner(ctx context.Context, ownerID string) (*models.Profile, error) {
	if !validID(ownerID) {
		return nil, models.ErrProfileNotFound
	}
	query, args, err := selectProfiles().Where(sq.Eq{"p.owner_id": ownerID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select profile query: %w", err)
	}

	p, err := scanProfile(s.db.QueryRowContext(ctx, query, args...), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrProfileNotFound
		}
		return nil, fmt.Errorf("select profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) List(ctx context.Context) ([]models.Profile, error) {
	query, args, err := selectProfiles().OrderBy("p.created_at").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list profiles query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile rows: %w", err)
	}
	return profiles, nil
}

// DeleteByOwner removes the owner's profile if there is one.
func (s *ProfileStore) DeleteByOwner(ctx context.Context, ownerID string) error {
	if !validID(ownerID) {
		return nil
	}
	query, args, err := psql.Delete("profiles").Where(sq.Eq{"owner_id": ownerID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete profile query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
