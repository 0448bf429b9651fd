package models

import "time"

// Question types.
const (
	QuestionMCQ   = "mcq"
	QuestionTF    = "tf"
	QuestionShort = "short"
	QuestionLong  = "long"
)

type Quiz struct {
	ID          string         `json:"id"`
	UserID      int64          `json:"-"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	TimeLimit   int            `json:"time_limit"`
	Questions   []QuizQuestion `json:"questions"`
	CreatedAt   time.Time      `json:"created_at"`
}

type QuizQuestion struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"`
	Answer  string   `json:"answer"`
}

// ValidQuestionType reports whether t is one of the known question types.
func ValidQuestionType(t string) bool {
	switch t {
	case QuestionMCQ, QuestionTF, QuestionShort, QuestionLong:
		return true
	}
	return false
}

// IsFreeform reports whether the question needs model grading.
func (q QuizQuestion) IsFreeform() bool {
	return q.Type == QuestionShort || q.Type == QuestionLong
}

// WithoutAnswers returns copies of the questions with answers blanked.
func (q Quiz) WithoutAnswers() []QuizQuestion {
	out := make([]QuizQuestion, len(q.Questions))
	for i, question := range q.Questions {
		question.Answer = ""
		out[i] = question
	}
	return out
}

type QuizAnswer struct {
	ID     string `json:"id"`
	Answer string `json:"answer"`
}

type QuizAttempt struct {
	ID          int64        `json:"id"`
	QuizID      string       `json:"quiz_id"`
	UserID      int64        `json:"-"`
	Answers     []QuizAnswer `json:"answers"`
	Score       int          `json:"score"`
	Total       int          `json:"total"`
	Completed   bool         `json:"completed"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at"`
}

// ScoredItem is the verdict for one question of an attempt.
type ScoredItem struct {
	ID       string `json:"id"`
	Score    int    `json:"score"`
	Correct  string `json:"correct,omitempty"`
	Feedback string `json:"feedback,omitempty"`
}

type QuizResult struct {
	Total    int          `json:"total"`
	Correct  int          `json:"correct"`
	Overtime bool         `json:"overtime"`
	Items    []ScoredItem `json:"items"`
}
