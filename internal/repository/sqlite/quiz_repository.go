package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

var quizColumns = []string{"id", "user_id", "title", "description", "time_limit", "questions", "created_at"}

type quizRepository struct {
	db *sql.DB
}

// NewQuizRepository creates a new QuizRepository implementation
func NewQuizRepository(db *sql.DB) repository.QuizRepository {
	return &quizRepository{db: db}
}

func scanQuiz(row rowScanner) (models.Quiz, error) {
	var q models.Quiz
	var questions string
	if err := row.Scan(&q.ID, &q.UserID, &q.Title, &q.Description, &q.TimeLimit, &questions, &q.CreatedAt); err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(questions), &q.Questions); err != nil {
		return q, fmt.Errorf("decode questions of quiz %s: %w", q.ID, err)
	}
	return q, nil
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")

	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	query, args, err := sqlBuilder.Insert("quizzes").
		Columns("id", "user_id", "title", "description", "time_limit", "questions", "created_at").
		Values(quiz.ID, quiz.UserID, quiz.Title, quiz.Description, quiz.TimeLimit, string(questions), now).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to insert quiz: %v", err)
		return err
	}
	quiz.CreatedAt = now
	log.Info("quiz created: id=%s, questions=%d", quiz.ID, len(quiz.Questions))
	return nil
}

func (r *quizRepository) Get(ctx context.Context, id string) (*models.Quiz, error) {
	query, args, err := sqlBuilder.Select(quizColumns...).
		From("quizzes").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	q, err := scanQuiz(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.FromContext(ctx).WithPrefix("quiz_repo").Error("failed to get quiz: %v", err)
		return nil, err
	}
	return &q, nil
}

func (r *quizRepository) List(ctx context.Context, userID int64) ([]models.Quiz, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")

	query, args, err := sqlBuilder.Select(quizColumns...).
		From("quizzes").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query quizzes: %v", err)
		return nil, err
	}
	defer rows.Close()

	quizzes := []models.Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			log.Error("failed to scan quiz row: %v", err)
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (r *quizRepository) Delete(ctx context.Context, id string, userID int64) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")

	var deleted bool
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return err
		}
		if deleted, err = affected(res); err != nil || !deleted {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_attempts WHERE quiz_id = ?`, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM quiz_sessions WHERE quiz_id = ?`, id)
		return err
	})
	if err != nil {
		log.Error("failed to delete quiz: %v", err)
		return false, err
	}
	return deleted, nil
}

func (r *quizRepository) StartSession(ctx context.Context, quizID string, userID int64, at time.Time) (time.Time, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")

	if _, err := r.db.ExecContext(ctx, `
INSERT INTO quiz_sessions (quiz_id, user_id, started_at) VALUES (?, ?, ?)
ON CONFLICT(quiz_id, user_id) DO NOTHING
`, quizID, userID, at.UTC()); err != nil {
		log.Error("failed to start quiz session: %v", err)
		return time.Time{}, err
	}

	var started time.Time
	err := r.db.QueryRowContext(ctx, `SELECT started_at FROM quiz_sessions WHERE quiz_id = ? AND user_id = ?`, quizID, userID).
		Scan(&started)
	if err != nil {
		log.Error("failed to read quiz session: %v", err)
		return time.Time{}, err
	}
	return started, nil
}

func (r *quizRepository) InsertAttempt(ctx context.Context, a *models.QuizAttempt) error {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	query, args, err := sqlBuilder.Insert("quiz_attempts").
		Columns("quiz_id", "user_id", "answers", "score", "total", "completed", "started_at", "completed_at").
		Values(a.QuizID, a.UserID, string(answers), a.Score, a.Total, a.Completed, a.StartedAt.UTC(), a.CompletedAt).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("quiz_repo").Error("failed to insert quiz attempt: %v", err)
		return err
	}
	a.ID, err = res.LastInsertId()
	return err
}

func (r *quizRepository) ListAttempts(ctx context.Context, quizID string, userID int64) ([]models.QuizAttempt, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")

	query, args, err := sqlBuilder.Select("id", "quiz_id", "user_id", "answers", "score", "total", "completed", "started_at", "completed_at").
		From("quiz_attempts").
		Where(squirrel.Eq{"quiz_id": quizID, "user_id": userID}).
		OrderBy("started_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query quiz attempts: %v", err)
		return nil, err
	}
	defer rows.Close()

	attempts := []models.QuizAttempt{}
	for rows.Next() {
		var a models.QuizAttempt
		var answers string
		var completedAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.QuizID, &a.UserID, &answers, &a.Score, &a.Total, &a.Completed, &a.StartedAt, &completedAt); err != nil {
			log.Error("failed to scan quiz attempt row: %v", err)
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of attempt %d: %w", a.ID, err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			a.CompletedAt = &t
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
