package services

import (
	"context"
	"errors"
	"strings"

	"profile-service/events"
	"profile-service/logger"
	"profile-service/models"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ProfileInput is the body of a profile upsert. Every field is optional;
// only the supplied ones are written.
type ProfileInput struct {
	Company        models.Optional[string] `json:"company"`
	Website        models.Optional[string] `json:"website"`
	Location       models.Optional[string] `json:"location"`
	Bio            models.Optional[string] `json:"bio"`
	Status         models.Optional[string] `json:"status" validate:"required"`
	GitHubUsername models.Optional[string] `json:"githubusername"`
	Skills         models.Optional[string] `json:"skills" validate:"required"`
	YouTube        models.Optional[string] `json:"youtube"`
	Twitter        models.Optional[string] `json:"twitter"`
	Facebook       models.Optional[string] `json:"facebook"`
	LinkedIn       models.Optional[string] `json:"linkedin"`
	Instagram      models.Optional[string] `json:"instagram"`
}

// BuildProfilePatch turns the supplied input fields into a sparse patch.
func BuildProfilePatch(in ProfileInput) models.ProfilePatch {
	patch := models.ProfilePatch{
		Company:        in.Company,
		Website:        in.Website,
		Location:       in.Location,
		Bio:            in.Bio,
		Status:         in.Status,
		GitHubUsername: in.GitHubUsername,
	}

	if raw, ok := in.Skills.Get(); ok {
		patch.Skills = models.Some(SplitSkills(raw))
	}

	social := map[string]models.Optional[string]{
		"youtube":   in.YouTube,
		"twitter":   in.Twitter,
		"facebook":  in.Facebook,
		"linkedin":  in.LinkedIn,
		"instagram": in.Instagram,
	}
	for key, value := range social {
		if v, ok := value.Get(); ok {
			if patch.Social == nil {
				patch.Social = make(map[string]string)
			}
			patch.Social[key] = v
		}
	}
	return patch
}

// SplitSkills splits a comma separated list, trimming every entry and
// dropping empty ones. Order and duplicates are kept.
func SplitSkills(raw string) []string {
	skills := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if skill := strings.TrimSpace(part); skill != "" {
			skills = append(skills, skill)
		}
	}
	return skills
}

type ProfileManager struct {
	profiles  ProfileRepository
	publisher events.Publisher
	log       logger.Logger
}

func NewProfileManager(profiles ProfileRepository, publisher events.Publisher, log logger.Logger) *ProfileManager {
	return &ProfileManager{profiles: profiles, publisher: publisher, log: log}
}

// Upsert merges the supplied fields into the owner's profile, creating it
// when the owner has none.
func (m *ProfileManager) Upsert(ctx context.Context, ownerID string, in ProfileInput) (*models.Profile, error) {
	ctx, span := tracer.Start(ctx, "ProfileManager.Upsert")
	defer span.End()
	span.SetAttributes(attribute.String("owner_id", ownerID))

	patch := BuildProfilePatch(in)

	exists, err := m.profiles.ExistsByOwner(ctx, ownerID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var profile *models.Profile
	if exists {
		profile, err = m.profiles.Update(ctx, ownerID, patch)
	} else {
		profile, err = m.profiles.Create(ctx, ownerID, patch)
		if errors.Is(err, models.ErrConflict) {
			// Another request created the profile first.
			m.log.Info("profile created concurrently, merging instead", zap.String("owner_id", ownerID))
			profile, err = m.profiles.Update(ctx, ownerID, patch)
		}
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	publish(ctx, m.publisher, m.log, events.New(events.ProfileUpserted, profile.ID, ownerID))
	return profile, nil
}

// AddExperience puts entry first in the owner's experience list.
func (m *ProfileManager) AddExperience(ctx context.Context, ownerID string, entry models.Experience) (*models.Profile, error) {
	ctx, span := tracer.Start(ctx, "ProfileManager.AddExperience")
	defer span.End()

	profile, err := m.profiles.PrependExperience(ctx, ownerID, entry)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	publish(ctx, m.publisher, m.log, events.New(events.ProfileExperienceAdded, profile.ID, ownerID))
	return profile, nil
}

func (m *ProfileManager) RemoveExperience(ctx context.Context, ownerID string, index int) (*models.Profile, error) {
	ctx, span := tracer.Start(ctx, "ProfileManager.RemoveExperience")
	defer span.End()

	profile, err := m.profiles.RemoveExperience(ctx, ownerID, index)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	publish(ctx, m.publisher, m.log, events.New(events.ProfileExperienceRemoved, profile.ID, ownerID))
	return profile, nil
}

func (m *ProfileManager) Get(ctx context.Context, ownerID string) (*models.Profile, error) {
	ctx, span := tracer.Start(ctx, "ProfileManager.Get")
	defer span.End()

	return m.profiles.FindByOwner(ctx, ownerID)
}

// GetByUserID looks a profile up by a user id taken from the request path.
// Malformed ids are reported as a missing profile.
func (m *ProfileManager) GetByUserID(ctx context.Context, rawID string) (*models.Profile, error) {
	ctx, span := tracer.Start(ctx, "ProfileManager.GetByUserID")
	defer span.End()

	profile, err := m.profiles.FindByOwner(ctx, strings.TrimSpace(rawID))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return profile, nil
}

func (m *ProfileManager) List(ctx context.Context) ([]models.Profile, error) {
	ctx, span := tracer.Start(ctx, "ProfileManager.List")
	defer span.End()

	return m.profiles.List(ctx)
}
