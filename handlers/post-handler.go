package handlers

import (
	"context"
	"errors"
	"net/http"

	"profile-service/middleware"
	"profile-service/models"

	"github.com/gorilla/mux"
)

type PostService interface {
	Create(ctx context.Context, ownerID, text string) (*models.Post, error)
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	Delete(ctx context.Context, id, requesterID string) error
}

type createPostRequest struct {
	Text string `json:"text" validate:"required"`
}

type PostHandler struct {
	posts PostService
}

func NewPostHandler(posts PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

func postError(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return middleware.NewAppError(http.StatusNotFound, "Post not found", err)
	}
	return err
}

// CreateHandler handles POST /api/posts.
func (h *PostHandler) CreateHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}

	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	post, err := h.posts.Create(r.Context(), id, req.Text)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, post)
}

// ListHandler handles GET /api/posts.
func (h *PostHandler) ListHandler(w http.ResponseWriter, r *http.Request) error {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, posts)
}

// GetHandler handles GET /api/posts/{id}.
func (h *PostHandler) GetHandler(w http.ResponseWriter, r *http.Request) error {
	post, err := h.posts.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return postError(err)
	}
	return writeJSON(w, http.StatusOK, post)
}

// DeleteHandler handles DELETE /api/posts/{id}.
func (h *PostHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}

	if err := h.posts.Delete(r.Context(), mux.Vars(r)["id"], id); err != nil {
		return postError(err)
	}
	return writeJSON(w, http.StatusOK, JSONResponse{"msg": "Post removed"})
}
