package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository implementation
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetOrCreate(ctx context.Context, externalID string) (*models.User, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")

	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (external_id) VALUES (?)
ON CONFLICT(external_id) DO NOTHING
`, externalID)
	if err != nil {
		log.Error("failed to upsert user: %v", err)
		return nil, err
	}
	if created, _ := affected(res); created {
		log.Info("created user for subject %s", externalID)
	}

	var u models.User
	err = r.db.QueryRowContext(ctx, `SELECT id, external_id, created_at FROM users WHERE external_id = ?`, externalID).
		Scan(&u.ID, &u.ExternalID, &u.CreatedAt)
	if err != nil {
		log.Error("failed to load user: %v", err)
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, `SELECT id, external_id, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.ExternalID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.FromContext(ctx).WithPrefix("user_repo").Error("failed to get user: %v", err)
		return nil, err
	}
	return &u, nil
}
