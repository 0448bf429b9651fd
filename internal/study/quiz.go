package study

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/vytor/studyflash/internal/llm"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

const (
	quizBatchFunction  = "quiz_batch"
	gradeBatchFunction = "grade_freeform_batch"
	quizTemperature    = 0.3
)

var ErrNoQuestions = errors.New("model returned no usable questions")

const quizSystemPrompt = "You are a quiz-authoring AI. Create clear, unambiguous test questions. " +
	"Respect the requested mix percentages. Vary difficulty from basic recall to higher-order thinking."

const gradeSystemPrompt = "You are a strict grader. Score 1 if the learner's answer expresses the same key facts as the correct answer. " +
	"Otherwise score 0 and give concise feedback."

var quizBatchDefinition = llm.FunctionDefinition{
	Name:        quizBatchFunction,
	Description: "Generate a batch of quiz questions covering the provided material.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":      map[string]any{"type": "string"},
						"type":    map[string]any{"type": "string", "enum": []string{models.QuestionMCQ, models.QuestionTF, models.QuestionShort, models.QuestionLong}},
						"prompt":  map[string]any{"type": "string"},
						"options": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"answer":  map[string]any{"type": "string"},
					},
					"required": []string{"id", "type", "prompt", "answer"},
				},
				"minItems": 1,
			},
		},
		"required": []string{"questions"},
	},
}

var gradeBatchDefinition = llm.FunctionDefinition{
	Name:        gradeBatchFunction,
	Description: "Grade many free-form answers (short/long). Return 1 if the user's answer is essentially correct, else 0, plus helpful feedback.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"results": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":       map[string]any{"type": "string"},
						"score":    map[string]any{"type": "integer", "enum": []int{0, 1}},
						"feedback": map[string]any{"type": "string"},
					},
					"required": []string{"id", "score"},
				},
				"minItems": 1,
			},
		},
		"required": []string{"results"},
	},
}

type QuizGenerator struct {
	client llm.Client
	newID  func() string
}

func NewQuizGenerator(client llm.Client) *QuizGenerator {
	return &QuizGenerator{client: client, newID: uuid.NewString}
}

// Generate asks the model for count questions following mix, a map of
// question type to percentage. Questions with an unknown type, no prompt or
// no answer are dropped; missing or repeated ids are replaced.
func (g *QuizGenerator) Generate(ctx context.Context, material string, mix map[string]int, count int) ([]models.QuizQuestion, error) {
	log := logger.FromContext(ctx).WithPrefix("study")

	var args struct {
		Questions []models.QuizQuestion `json:"questions"`
	}
	err := llm.CallFunction(ctx, g.client, llm.Request{
		System: quizSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleAssistant, Content: truncate(material, maxContextChars)},
			{Role: llm.RoleUser, Content: fmt.Sprintf(
				"Create %d questions. Mix config (percentages): %s. Allowed types: mcq, tf, short, long. Include the correct answer for each.",
				count, formatMix(mix))},
		},
		Functions:   []llm.FunctionDefinition{quizBatchDefinition},
		Temperature: quizTemperature,
	}, quizBatchFunction, &args)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(args.Questions))
	questions := make([]models.QuizQuestion, 0, len(args.Questions))
	for _, q := range args.Questions {
		q.Type = strings.ToLower(strings.TrimSpace(q.Type))
		if !models.ValidQuestionType(q.Type) || strings.TrimSpace(q.Prompt) == "" || strings.TrimSpace(q.Answer) == "" {
			log.Warn("dropping malformed question: type=%q id=%q", q.Type, q.ID)
			continue
		}
		if q.ID == "" || seen[q.ID] {
			q.ID = g.newID()
		}
		seen[q.ID] = true
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	log.Info("generated %d quiz questions", len(questions))
	return questions, nil
}

func formatMix(mix map[string]int) string {
	if len(mix) == 0 {
		return "any"
	}
	keys := make([]string, 0, len(mix))
	for k := range mix {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d%%", k, mix[k]))
	}
	return strings.Join(parts, ", ")
}

// FreeformAnswer is one short or long answer to grade.
type FreeformAnswer struct {
	ID      string
	Correct string
	Given   string
}

type Grade struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

type Grader struct {
	client llm.Client
}

func NewGrader(client llm.Client) *Grader {
	return &Grader{client: client}
}

// Grade scores all answers in one model call and returns grades by id.
// Answers the model did not grade are absent from the result.
func (g *Grader) Grade(ctx context.Context, answers []FreeformAnswer) (map[string]Grade, error) {
	if len(answers) == 0 {
		return map[string]Grade{}, nil
	}

	var sb strings.Builder
	for _, a := range answers {
		fmt.Fprintf(&sb, "\nQID:%s\nCorrect:%s\nUser:%s\n---", a.ID, a.Correct, a.Given)
	}

	var args struct {
		Results []struct {
			ID       string          `json:"id"`
			Score    json.RawMessage `json:"score"`
			Feedback string          `json:"feedback"`
		} `json:"results"`
	}
	err := llm.CallFunction(ctx, g.client, llm.Request{
		System:      gradeSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: sb.String()}},
		Functions:   []llm.FunctionDefinition{gradeBatchDefinition},
		Temperature: 0,
	}, gradeBatchFunction, &args)
	if err != nil {
		return nil, err
	}

	grades := make(map[string]Grade, len(args.Results))
	for _, r := range args.Results {
		grades[r.ID] = Grade{Score: parseScore(r.Score), Feedback: strings.TrimSpace(r.Feedback)}
	}
	return grades, nil
}

// parseScore accepts 1, 1.0 or "1" as a pass; anything else scores 0.
func parseScore(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f >= 1 {
			return 1
		}
		return 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) == "1" {
		return 1
	}
	return 0
}
