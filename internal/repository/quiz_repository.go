package repository

import (
	"context"
	"time"

	"github.com/vytor/studyflash/internal/models"
)

// QuizRepository handles quizzes, quiz sessions and attempts. Get is not
// scoped to a user so callers can tell a foreign quiz from a missing one.
type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	Get(ctx context.Context, id string) (*models.Quiz, error)
	List(ctx context.Context, userID int64) ([]models.Quiz, error)
	Delete(ctx context.Context, id string, userID int64) (bool, error)
	// StartSession records at as the user's start time unless one exists and
	// returns the stored start time.
	StartSession(ctx context.Context, quizID string, userID int64, at time.Time) (time.Time, error)
	InsertAttempt(ctx context.Context, attempt *models.QuizAttempt) error
	ListAttempts(ctx context.Context, quizID string, userID int64) ([]models.QuizAttempt, error)
}
