package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"profile-service/middleware"
	"profile-service/models"
	"profile-service/services"

	"github.com/gorilla/mux"
)

type ProfileService interface {
	Upsert(ctx context.Context, ownerID string, in services.ProfileInput) (*models.Profile, error)
	AddExperience(ctx context.Context, ownerID string, entry models.Experience) (*models.Profile, error)
	RemoveExperience(ctx context.Context, ownerID string, index int) (*models.Profile, error)
	Get(ctx context.Context, ownerID string) (*models.Profile, error)
	GetByUserID(ctx context.Context, rawID string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
}

type experienceRequest struct {
	Title       string `json:"title" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Location    string `json:"location"`
	From        string `json:"from" validate:"required"`
	To          string `json:"to"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func (req experienceRequest) toExperience() (models.Experience, error) {
	var fields []middleware.FieldError

	from, ok := parseDate(req.From)
	if !ok {
		fields = append(fields, middleware.FieldError{Param: "from", Msg: "From date must be a date"})
	}

	var to *time.Time
	if strings.TrimSpace(req.To) != "" {
		parsed, ok := parseDate(req.To)
		if !ok {
			fields = append(fields, middleware.FieldError{Param: "to", Msg: "To date must be a date"})
		}
		to = &parsed
	}

	if len(fields) > 0 {
		return models.Experience{}, middleware.NewValidationError(fields...)
	}
	return models.Experience{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		From:        from,
		To:          to,
		Current:     req.Current,
		Description: req.Description,
	}, nil
}

type ProfileHandler struct {
	profiles ProfileService
	accounts AccountService
}

func NewProfileHandler(profiles ProfileService, accounts AccountService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, accounts: accounts}
}

// MeHandler handles GET /api/profile/me.
func (h *ProfileHandler) MeHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}

	profile, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, profile)
}

// UpsertHandler handles POST /api/profile. Fields left out of the body keep
// their stored values.
func (h *ProfileHandler) UpsertHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}

	var in services.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		return err
	}
	if err := validateStruct(in); err != nil {
		return err
	}

	profile, err := h.profiles.Upsert(r.Context(), id, in)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, profile)
}

// ListHandler handles GET /api/profile.
func (h *ProfileHandler) ListHandler(w http.ResponseWriter, r *http.Request) error {
	profiles, err := h.profiles.List(r.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, profiles)
}

// ByUserHandler handles GET /api/profile/user/{user_id}.
func (h *ProfileHandler) ByUserHandler(w http.ResponseWriter, r *http.Request) error {
	profile, err := h.profiles.GetByUserID(r.Context(), mux.Vars(r)["user_id"])
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, profile)
}

// DeleteHandler handles DELETE /api/profile, removing the profile and the
// account behind it.
func (h *ProfileHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}

	if err := h.accounts.DeleteAccount(r.Context(), id); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, JSONResponse{"msg": "User deleted"})
}

// AddExperienceHandler handles PUT /api/profile/experience.
func (h *ProfileHandler) AddExperienceHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}

	var req experienceRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	entry, err := req.toExperience()
	if err != nil {
		return err
	}

	profile, err := h.profiles.AddExperience(r.Context(), id, entry)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, profile)
}

// RemoveExperienceHandler handles DELETE /api/profile/experience/{index}.
func (h *ProfileHandler) RemoveExperienceHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || index < 0 {
		return middleware.NewAppError(http.StatusNotFound, "Experience not found", models.ErrNotFound)
	}

	profile, err := h.profiles.RemoveExperience(r.Context(), id, index)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return middleware.NewAppError(http.StatusNotFound, "Experience not found", err)
		}
		return err
	}
	return writeJSON(w, http.StatusOK, profile)
}
