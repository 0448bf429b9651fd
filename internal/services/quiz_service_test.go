package services

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/content"
	"github.com/vytor/studyflash/internal/llm"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/study"
	"github.com/vytor/studyflash/internal/testutil/mocks"
)

var quizNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestQuizService(repo *mocks.MockQuizRepository, client llm.Client) *quizService {
	svc := NewQuizService(repo, content.NewGatherer(nil), study.NewQuizGenerator(client), study.NewGrader(client)).(*quizService)
	svc.newID = func() string { return "quiz-1" }
	svc.now = func() time.Time { return quizNow }
	return svc
}

func sampleQuiz() *models.Quiz {
	return &models.Quiz{
		ID:        "quiz-1",
		UserID:    7,
		TimeLimit: 300,
		Questions: []models.QuizQuestion{
			{ID: "q1", Type: models.QuestionMCQ, Prompt: "Powerhouse?", Options: []string{"Mitochondria", "Nucleus"}, Answer: "Mitochondria"},
			{ID: "q2", Type: models.QuestionTF, Prompt: "DNA is a protein", Answer: "False"},
			{ID: "q3", Type: models.QuestionShort, Prompt: "Define osmosis", Answer: "Diffusion of water across a membrane"},
			{ID: "q4", Type: models.QuestionLong, Prompt: "Explain mitosis", Answer: "Cell division producing two identical cells"},
		},
	}
}

func TestQuizTitle(t *testing.T) {
	assert.Equal(t, "Generated Quiz", quizTitle(""))
	assert.Equal(t, "Quiz - photosynthesis", quizTitle("photosynthesis"))
}

func TestGenerateQuiz(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.RequireFunction == "quiz_batch"
	})).Return(mocks.CallResponse("quiz_batch", `{"questions": [
		{"id": "a", "type": "tf", "prompt": "Water boils at 100C at sea level", "answer": "True"},
		{"id": "b", "type": "short", "prompt": "Name the freezing point of water", "answer": "0C"}
	]}`), nil)

	repo := new(mocks.MockQuizRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(q *models.Quiz) bool {
		return q.ID == "quiz-1" && q.Title == "Quiz - water" &&
			q.Description == "Generated from context with 2 questions" && q.TimeLimit == 120
	})).Return(nil)

	view, err := newTestQuizService(repo, client).GenerateQuiz(context.Background(), 7, GenerateQuizInput{
		Sources:   content.Sources{Prompt: "water"},
		Count:     2,
		Mix:       map[string]int{"tf": 50, "short": 50},
		TimeLimit: 120,
	})
	require.NoError(t, err)
	assert.Equal(t, "quiz-1", view.QuizID)
	assert.Equal(t, 120, view.TimeLimit)
	require.Len(t, view.Questions, 2)
	assert.Equal(t, "True", view.Questions[0].Answer)
	repo.AssertExpectations(t)
}

func TestGenerateQuiz_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   GenerateQuizInput
	}{
		{"count", GenerateQuizInput{Sources: content.Sources{Prompt: "x"}, Count: 0, TimeLimit: 60}},
		{"time limit", GenerateQuizInput{Sources: content.Sources{Prompt: "x"}, Count: 3, TimeLimit: 0}},
		{"mix type", GenerateQuizInput{Sources: content.Sources{Prompt: "x"}, Count: 3, TimeLimit: 60, Mix: map[string]int{"essay": 100}}},
		{"no content", GenerateQuizInput{Count: 3, TimeLimit: 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestQuizService(new(mocks.MockQuizRepository), new(mocks.MockLLMClient)).
				GenerateQuiz(context.Background(), 7, tt.in)
			assertStatus(t, err, http.StatusBadRequest)
		})
	}
}

func TestGetQuiz_HidesAnswersAndStartsSession(t *testing.T) {
	repo := new(mocks.MockQuizRepository)
	repo.On("Get", mock.Anything, "quiz-1").Return(sampleQuiz(), nil)
	repo.On("StartSession", mock.Anything, "quiz-1", int64(7), quizNow).Return(quizNow, nil)

	view, err := newTestQuizService(repo, nil).GetQuiz(context.Background(), 7, "quiz-1")
	require.NoError(t, err)
	for _, q := range view.Questions {
		assert.Empty(t, q.Answer)
	}
	assert.Equal(t, []string{"Mitochondria", "Nucleus"}, view.Questions[0].Options)
	repo.AssertExpectations(t)
}

func TestGetQuiz_Ownership(t *testing.T) {
	repo := new(mocks.MockQuizRepository)
	repo.On("Get", mock.Anything, "quiz-1").Return(sampleQuiz(), nil)
	repo.On("Get", mock.Anything, "missing").Return(nil, nil)
	svc := newTestQuizService(repo, nil)

	_, err := svc.GetQuiz(context.Background(), 8, "quiz-1")
	assertStatus(t, err, http.StatusForbidden)

	_, err = svc.GetQuiz(context.Background(), 7, "missing")
	assertStatus(t, err, http.StatusNotFound)
}

func TestVerifyQuiz(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.RequireFunction == "grade_freeform_batch"
	})).Return(mocks.CallResponse("grade_freeform_batch", `{"results": [
		{"id": "q3", "score": 1, "feedback": "Good"}
	]}`), nil)

	repo := new(mocks.MockQuizRepository)
	repo.On("Get", mock.Anything, "quiz-1").Return(sampleQuiz(), nil)
	repo.On("StartSession", mock.Anything, "quiz-1", int64(7), quizNow).Return(quizNow.Add(-time.Minute), nil)
	repo.On("InsertAttempt", mock.Anything, mock.MatchedBy(func(a *models.QuizAttempt) bool {
		return a.Score == 2 && a.Total == 4 && a.Completed && a.CompletedAt != nil
	})).Return(nil)

	result, err := newTestQuizService(repo, client).VerifyQuiz(context.Background(), 7, VerifyQuizInput{
		QuizID: "quiz-1",
		Answers: []models.QuizAnswer{
			{ID: "q1", Answer: "  mitochondria "},
			{ID: "q2", Answer: "true"},
			{ID: "q3", Answer: "water moving through a membrane"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Correct)
	assert.False(t, result.Overtime)
	assert.Equal(t, []models.ScoredItem{
		{ID: "q1", Score: 1},
		{ID: "q2", Score: 0, Correct: "False"},
		{ID: "q3", Score: 1, Feedback: "Good"},
		{ID: "q4", Score: 0, Correct: "Cell division producing two identical cells"},
	}, result.Items)
	repo.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestVerifyQuiz_GradingFailureKeepsZero(t *testing.T) {
	client := new(mocks.MockLLMClient)
	client.On("Complete", mock.Anything, mock.Anything).Return(nil, stderrors.New("timeout"))

	repo := new(mocks.MockQuizRepository)
	repo.On("Get", mock.Anything, "quiz-1").Return(sampleQuiz(), nil)
	repo.On("StartSession", mock.Anything, "quiz-1", int64(7), quizNow).Return(quizNow, nil)
	repo.On("InsertAttempt", mock.Anything, mock.Anything).Return(stderrors.New("disk full"))

	result, err := newTestQuizService(repo, client).VerifyQuiz(context.Background(), 7, VerifyQuizInput{
		QuizID:  "quiz-1",
		Answers: []models.QuizAnswer{{ID: "q3", Answer: "something"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Correct)
	assert.Equal(t, "Diffusion of water across a membrane", result.Items[2].Correct)
}

func TestVerifyQuiz_Overtime(t *testing.T) {
	repo := new(mocks.MockQuizRepository)
	repo.On("Get", mock.Anything, "quiz-1").Return(sampleQuiz(), nil)
	repo.On("StartSession", mock.Anything, "quiz-1", int64(7), quizNow).Return(quizNow.Add(-10*time.Minute), nil)
	repo.On("InsertAttempt", mock.Anything, mock.Anything).Return(nil)

	result, err := newTestQuizService(repo, nil).VerifyQuiz(context.Background(), 7, VerifyQuizInput{
		QuizID:  "quiz-1",
		Answers: []models.QuizAnswer{{ID: "q1", Answer: "Mitochondria"}},
	})
	require.NoError(t, err)
	assert.True(t, result.Overtime)
	assert.Equal(t, 1, result.Correct)
}

func TestVerifyQuiz_ForeignQuiz(t *testing.T) {
	repo := new(mocks.MockQuizRepository)
	repo.On("Get", mock.Anything, "quiz-1").Return(sampleQuiz(), nil)

	_, err := newTestQuizService(repo, nil).VerifyQuiz(context.Background(), 8, VerifyQuizInput{QuizID: "quiz-1"})
	assertStatus(t, err, http.StatusForbidden)
	repo.AssertNotCalled(t, "InsertAttempt", mock.Anything, mock.Anything)
}

func TestListAttempts_ForeignQuizIsNotFound(t *testing.T) {
	repo := new(mocks.MockQuizRepository)
	repo.On("Get", mock.Anything, "quiz-1").Return(sampleQuiz(), nil)

	_, err := newTestQuizService(repo, nil).ListAttempts(context.Background(), 8, "quiz-1")
	assertStatus(t, err, http.StatusNotFound)
}

func TestDeleteQuiz(t *testing.T) {
	repo := new(mocks.MockQuizRepository)
	repo.On("Delete", mock.Anything, "quiz-1", int64(7)).Return(true, nil)
	repo.On("Delete", mock.Anything, "quiz-1", int64(8)).Return(false, nil)
	svc := newTestQuizService(repo, nil)

	require.NoError(t, svc.DeleteQuiz(context.Background(), 7, "quiz-1"))
	assertStatus(t, svc.DeleteQuiz(context.Background(), 8, "quiz-1"), http.StatusNotFound)
}
