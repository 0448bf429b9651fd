// Package study holds the LLM-backed generators: flashcard decks, markdown
// study notes, quizzes and free-form answer grading.
package study

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vytor/studyflash/internal/llm"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

const (
	createDeckFunction = "create_deck"
	deckTemperature    = 0.7
	maxContextChars    = 8000
)

var ErrNoCards = errors.New("model returned no cards")

type DeckRequest struct {
	Prompt      string
	Count       int
	FrontLength string
	BackLength  string
	// Material is text gathered from uploads and links.
	Material string
}

// GeneratedDeck is an unsaved deck proposed by the model.
type GeneratedDeck struct {
	Name        string
	Description string
	Cards       []models.Card
}

type DeckGenerator struct {
	client llm.Client
}

func NewDeckGenerator(client llm.Client) *DeckGenerator {
	return &DeckGenerator{client: client}
}

var createDeckDefinition = llm.FunctionDefinition{
	Name:        createDeckFunction,
	Description: "Create a flashcard deck covering the provided material.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string", "description": "Short deck title"},
			"description": map[string]any{"type": "string", "description": "One sentence describing the deck"},
			"cards": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"answer":   map[string]any{"type": "string"},
					},
					"required": []string{"question", "answer"},
				},
				"minItems": 1,
			},
		},
		"required": []string{"name", "cards"},
	},
}

type createDeckArgs struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Cards       []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"cards"`
}

func (g *DeckGenerator) Generate(ctx context.Context, req DeckRequest) (*GeneratedDeck, error) {
	log := logger.FromContext(ctx).WithPrefix("study")

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create exactly %d flashcards.\n", req.Count)
	if req.FrontLength != "" {
		fmt.Fprintf(&sb, "Question length: %s.\n", req.FrontLength)
	}
	if req.BackLength != "" {
		fmt.Fprintf(&sb, "Answer length: %s.\n", req.BackLength)
	}
	if p := strings.TrimSpace(req.Prompt); p != "" {
		fmt.Fprintf(&sb, "Instructions from the learner: %s\n", p)
	}

	messages := []llm.Message{}
	if m := strings.TrimSpace(req.Material); m != "" {
		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: truncate(m, maxContextChars)})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: sb.String()})

	var args createDeckArgs
	err := llm.CallFunction(ctx, g.client, llm.Request{
		System:      "You write concise, accurate study flashcards. Each card tests one fact or idea.",
		Messages:    messages,
		Functions:   []llm.FunctionDefinition{createDeckDefinition},
		Temperature: deckTemperature,
	}, createDeckFunction, &args)
	if err != nil {
		return nil, err
	}

	deck := &GeneratedDeck{
		Name:        strings.TrimSpace(args.Name),
		Description: strings.TrimSpace(args.Description),
	}
	if deck.Name == "" {
		deck.Name = "Generated Deck"
	}
	for _, c := range args.Cards {
		q, a := strings.TrimSpace(c.Question), strings.TrimSpace(c.Answer)
		if q == "" || a == "" {
			continue
		}
		deck.Cards = append(deck.Cards, models.Card{Question: q, Answer: a})
	}
	if req.Count > 0 && len(deck.Cards) > req.Count {
		deck.Cards = deck.Cards[:req.Count]
	}
	if len(deck.Cards) == 0 {
		return nil, ErrNoCards
	}

	log.Info("generated deck %q with %d cards", deck.Name, len(deck.Cards))
	return deck, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
