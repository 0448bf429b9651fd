package repository

import (
	"context"

	"github.com/vytor/studyflash/internal/models"
)

// UserRepository handles user data access
type UserRepository interface {
	GetOrCreate(ctx context.Context, externalID string) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
}
