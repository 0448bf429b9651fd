package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/studyflash/internal/content"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
	"github.com/vytor/studyflash/internal/study"
)

const (
	DefaultQuizCount     = 10
	DefaultQuizTimeLimit = 300
	quizTitleMax         = 50
)

type GenerateQuizInput struct {
	Sources   content.Sources
	Count     int
	Mix       map[string]int
	TimeLimit int
}

type VerifyQuizInput struct {
	QuizID  string              `json:"quiz_id" validate:"required"`
	Answers []models.QuizAnswer `json:"answers" validate:"dive"`
}

// QuizView is a quiz as handed to the quiz taker.
type QuizView struct {
	QuizID    string                `json:"quiz_id"`
	Questions []models.QuizQuestion `json:"questions"`
	TimeLimit int                   `json:"time_limit"`
}

// QuizService handles quiz generation, taking and grading
type QuizService interface {
	GenerateQuiz(ctx context.Context, userID int64, in GenerateQuizInput) (*QuizView, error)
	GetQuiz(ctx context.Context, userID int64, id string) (*QuizView, error)
	VerifyQuiz(ctx context.Context, userID int64, in VerifyQuizInput) (*models.QuizResult, error)
	ListQuizzes(ctx context.Context, userID int64) ([]models.Quiz, error)
	ListAttempts(ctx context.Context, userID int64, id string) ([]models.QuizAttempt, error)
	DeleteQuiz(ctx context.Context, userID int64, id string) error
}

type quizService struct {
	quizRepo  repository.QuizRepository
	gatherer  SourceGatherer
	generator *study.QuizGenerator
	grader    *study.Grader
	newID     func() string
	now       func() time.Time
}

// NewQuizService creates a new QuizService
func NewQuizService(quizRepo repository.QuizRepository, gatherer SourceGatherer, generator *study.QuizGenerator, grader *study.Grader) QuizService {
	return &quizService{
		quizRepo:  quizRepo,
		gatherer:  gatherer,
		generator: generator,
		grader:    grader,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

func quizTitle(prompt string) string {
	if prompt == "" {
		return "Generated Quiz"
	}
	r := []rune(prompt)
	if len(r) > quizTitleMax {
		r = r[:quizTitleMax]
	}
	return "Quiz - " + string(r)
}

func (s *quizService) GenerateQuiz(ctx context.Context, userID int64, in GenerateQuizInput) (*QuizView, error) {
	log := logger.FromContext(ctx)

	if in.Count < minGenerateCount || in.Count > maxGenerateCount {
		return nil, errors.NewValidationError("count", "must be between 1 and 100")
	}
	if in.TimeLimit <= 0 {
		return nil, errors.NewValidationError("time_limit", "must be a positive number of seconds")
	}
	for kind, pct := range in.Mix {
		if !models.ValidQuestionType(kind) {
			return nil, errors.NewValidationError("mix_config", fmt.Sprintf("unknown question type %q", kind))
		}
		if pct < 0 || pct > 100 {
			return nil, errors.NewValidationError("mix_config", "percentages must be between 0 and 100")
		}
	}

	material, err := gatherMaterial(ctx, s.gatherer, in.Sources, false)
	if err != nil {
		return nil, err
	}

	questions, err := s.generator.Generate(ctx, material.Text(), in.Mix, in.Count)
	if err != nil {
		if stderrors.Is(err, study.ErrNoQuestions) {
			return nil, errors.NewInternalError(err)
		}
		return nil, errors.NewUpstreamError("llm", err)
	}

	quiz := &models.Quiz{
		ID:          s.newID(),
		UserID:      userID,
		Title:       quizTitle(material.Prompt),
		Description: fmt.Sprintf("Generated from context with %d questions", len(questions)),
		TimeLimit:   in.TimeLimit,
		Questions:   questions,
	}
	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		log.WithError(err).Error("failed to save quiz")
		return nil, errors.NewInternalError(err)
	}

	log.Info("quiz generated: id=%s, questions=%d", quiz.ID, len(questions))
	return &QuizView{QuizID: quiz.ID, Questions: quiz.Questions, TimeLimit: quiz.TimeLimit}, nil
}

// ownedQuiz loads a quiz and tells a foreign quiz (403) from a missing one (404).
func (s *quizService) ownedQuiz(ctx context.Context, userID int64, id string) (*models.Quiz, error) {
	quiz, err := s.quizRepo.Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get quiz: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if quiz == nil {
		return nil, errors.NewNotFoundError("quiz", id)
	}
	if quiz.UserID != userID {
		return nil, errors.NewForbiddenError("not your quiz")
	}
	return quiz, nil
}

func (s *quizService) startSession(ctx context.Context, quiz *models.Quiz, userID int64, now time.Time) (time.Time, error) {
	started, err := s.quizRepo.StartSession(ctx, quiz.ID, userID, now)
	if err != nil {
		logger.FromContext(ctx).Error("failed to start quiz session: %v", err)
		return time.Time{}, errors.NewInternalError(err)
	}
	return started, nil
}

func (s *quizService) GetQuiz(ctx context.Context, userID int64, id string) (*QuizView, error) {
	quiz, err := s.ownedQuiz(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.startSession(ctx, quiz, userID, s.now()); err != nil {
		return nil, err
	}
	return &QuizView{QuizID: quiz.ID, Questions: quiz.WithoutAnswers(), TimeLimit: quiz.TimeLimit}, nil
}

func (s *quizService) VerifyQuiz(ctx context.Context, userID int64, in VerifyQuizInput) (*models.QuizResult, error) {
	log := logger.FromContext(ctx).WithField("quiz_id", in.QuizID)

	quiz, err := s.ownedQuiz(ctx, userID, in.QuizID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	started, err := s.startSession(ctx, quiz, userID, now)
	if err != nil {
		return nil, err
	}
	overtime := now.Sub(started) > time.Duration(quiz.TimeLimit)*time.Second

	given := make(map[string]string, len(in.Answers))
	for _, a := range in.Answers {
		given[a.ID] = a.Answer
	}

	items := make([]models.ScoredItem, len(quiz.Questions))
	var freeform []study.FreeformAnswer
	for i, q := range quiz.Questions {
		items[i] = models.ScoredItem{ID: q.ID, Correct: q.Answer}
		answer, ok := given[q.ID]
		if !ok || strings.TrimSpace(answer) == "" {
			continue
		}
		if q.IsFreeform() {
			freeform = append(freeform, study.FreeformAnswer{ID: q.ID, Correct: q.Answer, Given: answer})
			continue
		}
		if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.Answer)) {
			items[i].Score = 1
			items[i].Correct = ""
		}
	}

	if len(freeform) > 0 {
		grades, err := s.grader.Grade(ctx, freeform)
		if err != nil {
			log.WithError(err).Error("failed to grade free-form answers")
		}
		for i := range items {
			g, ok := grades[items[i].ID]
			if !ok {
				continue
			}
			items[i].Score = g.Score
			items[i].Feedback = g.Feedback
			if g.Score > 0 {
				items[i].Correct = ""
			}
		}
	}

	result := &models.QuizResult{Total: len(items), Overtime: overtime, Items: items}
	for _, item := range items {
		result.Correct += item.Score
	}

	completed := now.UTC()
	attempt := &models.QuizAttempt{
		QuizID:      quiz.ID,
		UserID:      userID,
		Answers:     in.Answers,
		Score:       result.Correct,
		Total:       result.Total,
		Completed:   true,
		StartedAt:   started,
		CompletedAt: &completed,
	}
	if attempt.Answers == nil {
		attempt.Answers = []models.QuizAnswer{}
	}
	if err := s.quizRepo.InsertAttempt(ctx, attempt); err != nil {
		log.WithError(err).Error("failed to save quiz attempt")
	}

	log.Info("quiz verified: score=%d/%d, overtime=%v", result.Correct, result.Total, overtime)
	return result, nil
}

func (s *quizService) ListQuizzes(ctx context.Context, userID int64) ([]models.Quiz, error) {
	quizzes, err := s.quizRepo.List(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list quizzes: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if quizzes == nil {
		quizzes = []models.Quiz{}
	}
	return quizzes, nil
}

func (s *quizService) ListAttempts(ctx context.Context, userID int64, id string) ([]models.QuizAttempt, error) {
	quiz, err := s.quizRepo.Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get quiz: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if quiz == nil || quiz.UserID != userID {
		return nil, errors.NewNotFoundError("quiz", id)
	}

	attempts, err := s.quizRepo.ListAttempts(ctx, id, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list quiz attempts: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if attempts == nil {
		attempts = []models.QuizAttempt{}
	}
	return attempts, nil
}

func (s *quizService) DeleteQuiz(ctx context.Context, userID int64, id string) error {
	deleted, err := s.quizRepo.Delete(ctx, id, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to delete quiz: %v", err)
		return errors.NewInternalError(err)
	}
	if !deleted {
		return errors.NewNotFoundError("quiz", id)
	}
	return nil
}
