package repository

import (
	"context"

	"github.com/vytor/studyflash/internal/models"
)

// NoteRepository handles note data access
type NoteRepository interface {
	List(ctx context.Context, userID int64) ([]models.Note, error)
	Get(ctx context.Context, id, userID int64) (*models.Note, error)
	Create(ctx context.Context, note *models.Note) error
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, id, userID int64) (bool, error)
}
