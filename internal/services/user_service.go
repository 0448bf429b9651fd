package services

import (
	"context"
	"strings"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

// UserService maps authenticated subjects to local users
type UserService interface {
	// Resolve returns the user for an auth subject, creating it on first use.
	Resolve(ctx context.Context, subject string) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Resolve(ctx context.Context, subject string) (*models.User, error) {
	log := logger.FromContext(ctx)

	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, errors.NewUnauthorizedError("token has no subject")
	}

	user, err := s.userRepo.GetOrCreate(ctx, subject)
	if err != nil {
		log.WithError(err).Error("failed to resolve user")
		return nil, errors.NewInternalError(err)
	}
	return user, nil
}
