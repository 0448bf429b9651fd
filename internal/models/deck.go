package models

import (
	"strconv"
	"time"
)

type Deck struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Cards       []Card    `json:"cards"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Card is a persisted question/answer pair belonging to a deck.
type Card struct {
	ID       int64  `json:"id"`
	DeckID   int64  `json:"-"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FlashCard is the editor's view of a card. Ids are opaque strings so that
// cards proposed by the model can exist before they are persisted.
type FlashCard struct {
	ID    string `json:"id" validate:"required"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

// DeckSnapshot is a caller-owned copy of a deck's cards at one point in time.
type DeckSnapshot struct {
	Cards []FlashCard `json:"cards" validate:"dive"`
}

// IDs returns the set of card ids in the snapshot.
func (s DeckSnapshot) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Cards))
	for _, c := range s.Cards {
		ids[c.ID] = struct{}{}
	}
	return ids
}

// Snapshot converts a persisted deck to the editor representation.
func (d Deck) Snapshot() DeckSnapshot {
	cards := make([]FlashCard, 0, len(d.Cards))
	for _, c := range d.Cards {
		cards = append(cards, FlashCard{
			ID:    strconv.FormatInt(c.ID, 10),
			Front: c.Question,
			Back:  c.Answer,
		})
	}
	return DeckSnapshot{Cards: cards}
}
