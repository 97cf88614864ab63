package services

import (
	"context"

	"profile-service/events"
	"profile-service/logger"
	"profile-service/models"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("services")

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type ProfileRepository interface {
	ExistsByOwner(ctx context.Context, ownerID string) (bool, error)
	Create(ctx context.Context, ownerID string, patch models.ProfilePatch) (*models.Profile, error)
	Update(ctx context.Context, ownerID string, patch models.ProfilePatch) (*models.Profile, error)
	PrependExperience(ctx context.Context, ownerID string, entry models.Experience) (*models.Profile, error)
	RemoveExperience(ctx context.Context, ownerID string, index int) (*models.Profile, error)
	FindByOwner(ctx context.Context, ownerID string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	DeleteByOwner(ctx context.Context, ownerID string) error
}

type PostRepository interface {
	Create(ctx context.Context, p *models.Post) error
	List(ctx context.Context) ([]models.Post, error)
	FindByID(ctx context.Context, id string) (*models.Post, error)
	Delete(ctx context.Context, id string) error
}

// PendingDeletions tracks accounts whose deletion was interrupted after the
// profile had already been removed.
type PendingDeletions interface {
	Record(ctx context.Context, identityID string) error
	Pending(ctx context.Context, identityID string) (bool, error)
	Resolve(ctx context.Context, identityID string) error
}

type TokenIssuer interface {
	Issue(identityID string) (string, error)
}

// publish emits event once the write it describes has been committed.
// Delivery failures are logged and otherwise ignored.
func publish(ctx context.Context, publisher events.Publisher, log logger.Logger, event events.Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish event",
			zap.String("type", event.Type),
			zap.String("aggregate_id", event.AggregateID),
			zap.Error(err),
		)
	}
}
