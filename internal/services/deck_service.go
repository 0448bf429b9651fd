package services

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/vytor/studyflash/internal/content"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
	"github.com/vytor/studyflash/internal/study"
)

const (
	minGenerateCount = 1
	maxGenerateCount = 100
)

type CardInput struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

type CreateDeckInput struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Description string      `json:"description"`
	Cards       []CardInput `json:"cards" validate:"dive"`
}

// UpdateDeckInput changes name and description. Cards replace the deck's
// cards when non-nil; an empty slice clears the deck.
type UpdateDeckInput struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Description string      `json:"description"`
	Cards       []CardInput `json:"cards" validate:"omitempty,dive"`
}

type GenerateDeckInput struct {
	Sources     content.Sources
	Count       int
	FrontLength string
	BackLength  string
}

// SourceGatherer turns uploads and links into text.
type SourceGatherer interface {
	Gather(ctx context.Context, src content.Sources, strictLinks bool) (content.Material, error)
}

// DeckService handles deck-related business logic
type DeckService interface {
	ListDecks(ctx context.Context, userID int64) ([]models.Deck, error)
	GetDeck(ctx context.Context, userID, id int64) (*models.Deck, error)
	CreateDeck(ctx context.Context, userID int64, in CreateDeckInput) (*models.Deck, error)
	UpdateDeck(ctx context.Context, userID, id int64, in UpdateDeckInput) (*models.Deck, error)
	DeleteDeck(ctx context.Context, userID, id int64) error
	GetCard(ctx context.Context, userID, cardID int64) (*models.Card, error)
	Snapshot(ctx context.Context, userID, id int64) (models.DeckSnapshot, error)
	GenerateDeck(ctx context.Context, userID int64, in GenerateDeckInput) (*models.Deck, error)
}

type deckService struct {
	deckRepo  repository.DeckRepository
	gatherer  SourceGatherer
	generator *study.DeckGenerator
}

// NewDeckService creates a new DeckService
func NewDeckService(deckRepo repository.DeckRepository, gatherer SourceGatherer, generator *study.DeckGenerator) DeckService {
	return &deckService{deckRepo: deckRepo, gatherer: gatherer, generator: generator}
}

func toCards(in []CardInput) []models.Card {
	cards := make([]models.Card, 0, len(in))
	for _, c := range in {
		cards = append(cards, models.Card{
			Question: strings.TrimSpace(c.Question),
			Answer:   strings.TrimSpace(c.Answer),
		})
	}
	return cards
}

func (s *deckService) ListDecks(ctx context.Context, userID int64) ([]models.Deck, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing decks: user_id=%d", userID)

	decks, err := s.deckRepo.List(ctx, userID)
	if err != nil {
		log.WithError(err).Error("failed to list decks")
		return nil, errors.NewInternalError(err)
	}
	if decks == nil {
		decks = []models.Deck{}
	}
	return decks, nil
}

func (s *deckService) GetDeck(ctx context.Context, userID, id int64) (*models.Deck, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting deck: id=%d", id)

	deck, err := s.deckRepo.Get(ctx, id, userID)
	if err != nil {
		log.WithError(err).Error("failed to get deck")
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", id)
	}
	return deck, nil
}

func (s *deckService) CreateDeck(ctx context.Context, userID int64, in CreateDeckInput) (*models.Deck, error) {
	log := logger.FromContext(ctx)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}

	deck := &models.Deck{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Cards:       toCards(in.Cards),
	}
	if err := s.deckRepo.Create(ctx, deck); err != nil {
		log.WithError(err).Error("failed to create deck")
		return nil, errors.NewInternalError(err)
	}
	return deck, nil
}

func (s *deckService) UpdateDeck(ctx context.Context, userID, id int64, in UpdateDeckInput) (*models.Deck, error) {
	log := logger.FromContext(ctx)
	log.Debug("updating deck: id=%d, replace_cards=%v", id, in.Cards != nil)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}

	deck, err := s.GetDeck(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	deck.Name = name
	deck.Description = strings.TrimSpace(in.Description)
	replace := in.Cards != nil
	if replace {
		deck.Cards = toCards(in.Cards)
	}
	if err := s.deckRepo.Update(ctx, deck, replace); err != nil {
		log.WithError(err).Error("failed to update deck")
		return nil, errors.NewInternalError(err)
	}
	return deck, nil
}

func (s *deckService) DeleteDeck(ctx context.Context, userID, id int64) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting deck: id=%d", id)

	deleted, err := s.deckRepo.Delete(ctx, id, userID)
	if err != nil {
		log.WithError(err).Error("failed to delete deck")
		return errors.NewInternalError(err)
	}
	if !deleted {
		return errors.NewNotFoundError("deck", id)
	}
	return nil
}

func (s *deckService) GetCard(ctx context.Context, userID, cardID int64) (*models.Card, error) {
	card, err := s.deckRepo.GetCard(ctx, cardID, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if card == nil {
		return nil, errors.NewNotFoundError("card", cardID)
	}
	return card, nil
}

func (s *deckService) Snapshot(ctx context.Context, userID, id int64) (models.DeckSnapshot, error) {
	deck, err := s.GetDeck(ctx, userID, id)
	if err != nil {
		return models.DeckSnapshot{}, err
	}
	return deck.Snapshot(), nil
}

func (s *deckService) GenerateDeck(ctx context.Context, userID int64, in GenerateDeckInput) (*models.Deck, error) {
	log := logger.FromContext(ctx)

	if in.Count < minGenerateCount || in.Count > maxGenerateCount {
		return nil, errors.NewValidationError("count", "must be between 1 and 100")
	}

	material, err := gatherMaterial(ctx, s.gatherer, in.Sources, false)
	if err != nil {
		return nil, err
	}
	log.Debug("generating deck: count=%d, material_chars=%d", in.Count, len(material.Text()))

	generated, err := s.generator.Generate(ctx, study.DeckRequest{
		Prompt:      material.Prompt,
		Count:       in.Count,
		FrontLength: in.FrontLength,
		BackLength:  in.BackLength,
		Material:    joinNonEmpty(material.PDFText, material.VideoText),
	})
	if err != nil {
		if stderrors.Is(err, study.ErrNoCards) {
			log.Error("deck generation produced no cards")
			return nil, errors.NewInternalError(err)
		}
		return nil, errors.NewUpstreamError("llm", err)
	}

	deck := &models.Deck{
		UserID:      userID,
		Name:        generated.Name,
		Description: generated.Description,
		Cards:       generated.Cards,
	}
	if err := s.deckRepo.Create(ctx, deck); err != nil {
		log.WithError(err).Error("failed to save generated deck")
		return nil, errors.NewInternalError(err)
	}
	log.Info("generated deck saved: id=%d, cards=%d", deck.ID, len(deck.Cards))
	return deck, nil
}
