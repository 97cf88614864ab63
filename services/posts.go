package services

import (
	"context"
	"fmt"

	"profile-service/events"
	"profile-service/logger"
	"profile-service/models"
	"profile-service/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type PostService struct {
	posts     PostRepository
	users     UserRepository
	publisher events.Publisher
	log       logger.Logger
}

func NewPostService(posts PostRepository, users UserRepository, publisher events.Publisher, log logger.Logger) *PostService {
	return &PostService{posts: posts, users: users, publisher: publisher, log: log}
}

// Create stores a post with a snapshot of the author's name and avatar.
func (s *PostService) Create(ctx context.Context, ownerID, text string) (*models.Post, error) {
	ctx, span := tracer.Start(ctx, "PostService.Create")
	defer span.End()

	author, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	post := &models.Post{
		OwnerID: author.ID,
		Text:    text,
		Name:    author.Name,
		Avatar:  author.Avatar,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		span.RecordError(err)
		return nil, err
	}

	publish(ctx, s.publisher, s.log, events.New(events.PostCreated, post.ID, post.OwnerID))
	return post, nil
}

func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	ctx, span := tracer.Start(ctx, "PostService.List")
	defer span.End()

	return s.posts.List(ctx)
}

func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	ctx, span := tracer.Start(ctx, "PostService.Get")
	defer span.End()

	return s.posts.FindByID(ctx, id)
}

// Delete removes the post only when requesterID owns it. The ownership check
// runs before anything is written.
func (s *PostService) Delete(ctx context.Context, id, requesterID string) error {
	ctx, span := tracer.Start(ctx, "PostService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("post_id", id), attribute.String("requester_id", requesterID))

	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if utils.Authorize(post.OwnerID, requesterID) != utils.Allowed {
		s.log.Warn("post delete denied", zap.String("post_id", id), zap.String("requester_id", requesterID))
		return fmt.Errorf("post %s: %w", id, models.ErrNotOwner)
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}

	publish(ctx, s.publisher, s.log, events.New(events.PostDeleted, id, post.OwnerID))
	return nil
}
