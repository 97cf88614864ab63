package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"profile-service/events"
	"profile-service/logger"
	"profile-service/models"
	"profile-service/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	generateFromPassword   = bcrypt.GenerateFromPassword
	compareHashAndPassword = bcrypt.CompareHashAndPassword
)

// AccountService owns registration, credential checks and account deletion.
type AccountService struct {
	users      UserRepository
	profiles   ProfileRepository
	tokens     TokenIssuer
	pending    PendingDeletions
	publisher  events.Publisher
	log        logger.Logger
	bcryptCost int
}

func NewAccountService(
	users UserRepository,
	profiles ProfileRepository,
	tokens TokenIssuer,
	pending PendingDeletions,
	publisher events.Publisher,
	log logger.Logger,
	bcryptCost int,
) *AccountService {
	return &AccountService{
		users:      users,
		profiles:   profiles,
		tokens:     tokens,
		pending:    pending,
		publisher:  publisher,
		log:        log,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new identity and returns a token for it.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "AccountService.Register")
	defer span.End()

	email = strings.TrimSpace(email)

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return "", fmt.Errorf("email %s: %w", email, models.ErrConflict)
	}
	if !errors.Is(err, models.ErrIdentityNotFound) {
		span.RecordError(err)
		return "", err
	}

	hash, err := generateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		Avatar:       utils.GravatarURL(email),
	}
	if err := s.users.Create(ctx, user); err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("user_id", user.ID))

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.log.Error("failed to issue token", err, zap.String("user_id", user.ID))
		span.RecordError(err)
		return "", err
	}

	publish(ctx, s.publisher, s.log, events.New(events.AccountRegistered, user.ID, user.ID))
	return token, nil
}

// Login checks the credentials and returns a fresh token. An account whose
// deletion was interrupted is finished off here instead of being logged in.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "AccountService.Login")
	defer span.End()

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrIdentityNotFound) {
		return "", models.ErrInvalidCredentials
	}
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	if err := compareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	pending, err := s.pending.Pending(ctx, user.ID)
	if err != nil {
		s.log.Warn("could not check pending deletions", zap.String("user_id", user.ID), zap.Error(err))
	}
	if pending {
		s.completeDeletion(ctx, user.ID)
		return "", models.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.log.Error("failed to issue token", err, zap.String("user_id", user.ID))
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("user_id", user.ID))
	return token, nil
}

// Authenticate returns the identity a verified token refers to.
func (s *AccountService) Authenticate(ctx context.Context, identityID string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "AccountService.Authenticate")
	defer span.End()

	user, err := s.users.FindByID(ctx, identityID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the profile and then the identity. The two deletes
// are independent: when the second fails the identity is journaled as
// pending and the error is returned.
func (s *AccountService) DeleteAccount(ctx context.Context, identityID string) error {
	ctx, span := tracer.Start(ctx, "AccountService.DeleteAccount")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", identityID))

	if err := s.profiles.DeleteByOwner(ctx, identityID); err != nil {
		span.RecordError(err)
		return err
	}

	if err := s.users.Delete(ctx, identityID); err != nil {
		span.RecordError(err)
		if recErr := s.pending.Record(ctx, identityID); recErr != nil {
			s.log.Error("failed to journal pending deletion", recErr, zap.String("user_id", identityID))
		}
		s.log.Error("account deletion left user without profile", err, zap.String("user_id", identityID))
		return fmt.Errorf("delete user %s after profile removal: %w", identityID, err)
	}

	publish(ctx, s.publisher, s.log, events.New(events.AccountDeleted, identityID, identityID))
	return nil
}

func (s *AccountService) completeDeletion(ctx context.Context, identityID string) {
	if err := s.profiles.DeleteByOwner(ctx, identityID); err != nil {
		s.log.Error("failed to finish pending deletion", err, zap.String("user_id", identityID))
		return
	}
	if err := s.users.Delete(ctx, identityID); err != nil {
		s.log.Error("failed to finish pending deletion", err, zap.String("user_id", identityID))
		return
	}
	if err := s.pending.Resolve(ctx, identityID); err != nil {
		s.log.Warn("failed to clear pending deletion", zap.String("user_id", identityID), zap.Error(err))
	}
	s.log.Info("finished pending account deletion", zap.String("user_id", identityID))
	publish(ctx, s.publisher, s.log, events.New(events.AccountDeleted, identityID, identityID))
}
