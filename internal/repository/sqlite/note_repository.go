package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

var noteColumns = []string{"id", "user_id", "title", "content", "source_type", "source_info", "created_at", "updated_at"}

type noteRepository struct {
	db *sql.DB
}

// NewNoteRepository creates a new NoteRepository implementation
func NewNoteRepository(db *sql.DB) repository.NoteRepository {
	return &noteRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (models.Note, error) {
	var n models.Note
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.SourceType, &n.SourceInfo, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func (r *noteRepository) List(ctx context.Context, userID int64) ([]models.Note, error) {
	log := logger.FromContext(ctx).WithPrefix("note_repo")

	query, args, err := sqlBuilder.Select(noteColumns...).
		From("notes").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query notes: %v", err)
		return nil, err
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			log.Error("failed to scan note row: %v", err)
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *noteRepository) Get(ctx context.Context, id, userID int64) (*models.Note, error) {
	query, args, err := sqlBuilder.Select(noteColumns...).
		From("notes").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	n, err := scanNote(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.FromContext(ctx).WithPrefix("note_repo").Error("failed to get note: %v", err)
		return nil, err
	}
	return &n, nil
}

func (r *noteRepository) Create(ctx context.Context, note *models.Note) error {
	log := logger.FromContext(ctx).WithPrefix("note_repo")

	now := time.Now().UTC()
	query, args, err := sqlBuilder.Insert("notes").
		Columns("user_id", "title", "content", "source_type", "source_info", "created_at", "updated_at").
		Values(note.UserID, note.Title, note.Content, note.SourceType, note.SourceInfo, now, now).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to insert note: %v", err)
		return err
	}
	if note.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	note.CreatedAt, note.UpdatedAt = now, now
	log.Info("note created: id=%d", note.ID)
	return nil
}

func (r *noteRepository) Update(ctx context.Context, note *models.Note) error {
	now := time.Now().UTC()
	query, args, err := sqlBuilder.Update("notes").
		Set("title", note.Title).
		Set("content", note.Content).
		Set("source_type", note.SourceType).
		Set("source_info", note.SourceInfo).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": note.ID, "user_id": note.UserID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).WithPrefix("note_repo").Error("failed to update note: %v", err)
		return err
	}
	note.UpdatedAt = now
	return nil
}

func (r *noteRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("note_repo").Error("failed to delete note: %v", err)
		return false, err
	}
	return affected(res)
}
