package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/vytor/studyflash/internal/content"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
	"github.com/vytor/studyflash/internal/study"
)

const (
	noteTitleMax        = 50
	sourcePromptMax     = 200
	defaultNoteTitle    = "Generated Study Notes"
	generatedNotePrefix = "Study Notes - "
)

// UpdateNoteInput carries the fields to change; nil fields are left as is.
type UpdateNoteInput struct {
	Title      *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content    *string `json:"content"`
	SourceType *string `json:"source_type" validate:"omitempty,oneof=manual pdf youtube mixed"`
	SourceInfo *string `json:"source_info"`
}

// NoteService handles study note business logic
type NoteService interface {
	GenerateNote(ctx context.Context, userID int64, src content.Sources) (*models.Note, error)
	ListNotes(ctx context.Context, userID int64) ([]models.Note, error)
	GetNote(ctx context.Context, userID, id int64) (*models.Note, error)
	UpdateNote(ctx context.Context, userID, id int64, in UpdateNoteInput) (*models.Note, error)
	DeleteNote(ctx context.Context, userID, id int64) error
}

type noteService struct {
	noteRepo  repository.NoteRepository
	gatherer  SourceGatherer
	generator *study.NoteGenerator
}

// NewNoteService creates a new NoteService
func NewNoteService(noteRepo repository.NoteRepository, gatherer SourceGatherer, generator *study.NoteGenerator) NoteService {
	return &noteService{noteRepo: noteRepo, gatherer: gatherer, generator: generator}
}

// noteTitle names a generated note after the prompt that produced it.
func noteTitle(prompt string) string {
	if prompt == "" {
		return defaultNoteTitle
	}
	r := []rune(prompt)
	if len(r) > noteTitleMax {
		r = r[:noteTitleMax]
	}
	title := []rune(generatedNotePrefix + string(r))
	if len(title) > noteTitleMax {
		return string(title[:noteTitleMax-3]) + "..."
	}
	return string(title)
}

func sourceType(files, links int) string {
	switch {
	case files > 0 && links > 0:
		return models.SourceMixed
	case files > 0:
		return models.SourcePDF
	case links > 0:
		return models.SourceYouTube
	}
	return models.SourceManual
}

func (s *noteService) GenerateNote(ctx context.Context, userID int64, src content.Sources) (*models.Note, error) {
	log := logger.FromContext(ctx)

	material, err := gatherMaterial(ctx, s.gatherer, src, true)
	if err != nil {
		return nil, err
	}

	lecture := joinNonEmpty(material.PDFText, material.VideoText, material.Prompt)
	notes, err := s.generator.Generate(ctx, lecture)
	if err != nil {
		return nil, errors.NewUpstreamError("llm", err)
	}

	info := models.NoteSourceInfo{
		Files:  make([]string, 0, len(src.Files)),
		Links:  make([]string, 0, len(src.Links)),
		Prompt: clip(material.Prompt, sourcePromptMax),
	}
	for _, f := range src.Files {
		info.Files = append(info.Files, f.Name)
	}
	for _, l := range src.Links {
		if l = strings.TrimSpace(l); l != "" {
			info.Links = append(info.Links, l)
		}
	}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	note := &models.Note{
		UserID:     userID,
		Title:      noteTitle(material.Prompt),
		Content:    notes.Markdown,
		SourceType: sourceType(len(info.Files), len(info.Links)),
		SourceInfo: string(infoJSON),
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		log.WithError(err).Error("failed to save note")
		return nil, errors.NewInternalError(err)
	}
	log.Info("generated note saved: id=%d, source_type=%s", note.ID, note.SourceType)
	return note, nil
}

func (s *noteService) ListNotes(ctx context.Context, userID int64) ([]models.Note, error) {
	notes, err := s.noteRepo.List(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list notes: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if notes == nil {
		notes = []models.Note{}
	}
	return notes, nil
}

func (s *noteService) GetNote(ctx context.Context, userID, id int64) (*models.Note, error) {
	note, err := s.noteRepo.Get(ctx, id, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get note: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if note == nil {
		return nil, errors.NewNotFoundError("note", id)
	}
	return note, nil
}

func (s *noteService) UpdateNote(ctx context.Context, userID, id int64, in UpdateNoteInput) (*models.Note, error) {
	log := logger.FromContext(ctx)
	log.Debug("updating note: id=%d", id)

	note, err := s.GetNote(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, errors.NewValidationError("title", "cannot be empty")
		}
		note.Title = title
	}
	if in.Content != nil {
		note.Content = *in.Content
	}
	if in.SourceType != nil {
		note.SourceType = *in.SourceType
	}
	if in.SourceInfo != nil {
		if !json.Valid([]byte(*in.SourceInfo)) {
			return nil, errors.NewValidationError("source_info", "must be valid JSON")
		}
		note.SourceInfo = *in.SourceInfo
	}

	if err := s.noteRepo.Update(ctx, note); err != nil {
		log.WithError(err).Error("failed to update note")
		return nil, errors.NewInternalError(err)
	}
	return note, nil
}

func (s *noteService) DeleteNote(ctx context.Context, userID, id int64) error {
	deleted, err := s.noteRepo.Delete(ctx, id, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to delete note: %v", err)
		return errors.NewInternalError(err)
	}
	if !deleted {
		return errors.NewNotFoundError("note", id)
	}
	return nil
}
