package repository

import (
	"context"

	"github.com/vytor/studyflash/internal/models"
)

// DeckRepository handles deck and card data access. Lookups are scoped to
// the owning user and return nil when nothing matches.
type DeckRepository interface {
	List(ctx context.Context, userID int64) ([]models.Deck, error)
	Get(ctx context.Context, id, userID int64) (*models.Deck, error)
	Create(ctx context.Context, deck *models.Deck) error
	Update(ctx context.Context, deck *models.Deck, replaceCards bool) error
	Delete(ctx context.Context, id, userID int64) (bool, error)
	GetCard(ctx context.Context, cardID, userID int64) (*models.Card, error)
}
