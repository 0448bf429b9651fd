package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/studyflash/internal/deckedit"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/llm"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/proposal"
)

type ChatInput struct {
	Message  string              `json:"message" validate:"required"`
	Snapshot models.DeckSnapshot `json:"deckSnapshot"`
	History  []llm.Message       `json:"history" validate:"dive"`
}

type ApplyInput struct {
	ProposalID      string              `json:"proposalId" validate:"required"`
	AcceptedIndexes []int               `json:"acceptedIndexes"`
	Snapshot        models.DeckSnapshot `json:"deckSnapshot"`
}

// DeckEditService turns chat messages into proposals of deck edits and
// applies the accepted part of a proposal to a deck snapshot.
type DeckEditService interface {
	Chat(ctx context.Context, userID int64, in ChatInput) (*deckedit.ProposalPacket, error)
	Apply(ctx context.Context, userID int64, in ApplyInput) (models.DeckSnapshot, error)
}

type deckEditService struct {
	client       llm.Client
	store        proposal.Store
	interpreter  *deckedit.Interpreter
	historyLimit int
	newID        func() string
	now          func() time.Time
}

// NewDeckEditService creates a new DeckEditService
func NewDeckEditService(client llm.Client, store proposal.Store, interpreter *deckedit.Interpreter, historyLimit int) DeckEditService {
	return &deckEditService{
		client:       client,
		store:        store,
		interpreter:  interpreter,
		historyLimit: historyLimit,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

func (s *deckEditService) Chat(ctx context.Context, userID int64, in ChatInput) (*deckedit.ProposalPacket, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_edit")

	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, errors.NewValidationError("message", "cannot be empty")
	}
	log.Debug("chat turn: cards=%d, history=%d", len(in.Snapshot.Cards), len(in.History))

	resp, err := s.client.Complete(ctx, deckedit.BuildRequest(message, in.Snapshot, in.History, s.historyLimit))
	if err != nil {
		log.WithError(err).Error("llm request failed")
		return nil, errors.NewUpstreamError("llm", err)
	}

	raws, err := deckedit.ParseResponse(resp)
	if err != nil {
		log.WithError(err).Warn("unusable model response")
		return nil, errors.NewBadRequestError(err.Error()).Wrap(err)
	}
	cmds, err := deckedit.DecodeAll(raws)
	if err != nil {
		log.WithError(err).Warn("model proposed invalid command")
		return nil, errors.NewBadRequestError(err.Error()).Wrap(err)
	}
	if err := deckedit.ValidateIDs(in.Snapshot, cmds); err != nil {
		log.WithError(err).Warn("model referenced unknown card")
		return nil, errors.NewBadRequestError(err.Error()).Wrap(err)
	}

	encoded := make([]deckedit.RawCommand, 0, len(cmds))
	for _, cmd := range cmds {
		raw, err := deckedit.Encode(cmd)
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		encoded = append(encoded, raw)
	}

	p := &proposal.Proposal{
		ID:        s.newID(),
		UserID:    userID,
		Commands:  encoded,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Put(ctx, p); err != nil {
		log.WithError(err).Error("failed to store proposal")
		return nil, errors.NewInternalError(err)
	}

	log.Info("proposal created: id=%s, commands=%d", p.ID, len(encoded))
	return &deckedit.ProposalPacket{
		ProposalID:   p.ID,
		Commands:     encoded,
		HumanSummary: deckedit.Summaries(cmds),
	}, nil
}

func (s *deckEditService) Apply(ctx context.Context, userID int64, in ApplyInput) (models.DeckSnapshot, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_edit").WithField("proposal_id", in.ProposalID)

	p, err := s.store.Get(ctx, in.ProposalID)
	if err != nil {
		if stderrors.Is(err, proposal.ErrNotFound) {
			return models.DeckSnapshot{}, errors.NewNotFoundError("proposal", in.ProposalID)
		}
		log.WithError(err).Error("failed to load proposal")
		return models.DeckSnapshot{}, errors.NewInternalError(err)
	}
	if p.UserID != userID {
		log.Warn("proposal belongs to another user")
		return models.DeckSnapshot{}, errors.NewNotFoundError("proposal", in.ProposalID)
	}

	selected, err := deckedit.Select(p.Commands, in.AcceptedIndexes)
	if err != nil {
		return models.DeckSnapshot{}, errors.NewBadRequestError(err.Error()).Wrap(err)
	}
	cmds, err := deckedit.DecodeAll(selected)
	if err != nil {
		log.WithError(err).Error("stored proposal does not decode")
		return models.DeckSnapshot{}, errors.NewInternalError(err)
	}

	result, err := s.interpreter.Apply(in.Snapshot, cmds)
	if err != nil {
		var unknown *deckedit.UnknownCardError
		if stderrors.As(err, &unknown) {
			log.WithError(err).Warn("snapshot diverged from proposal")
			return models.DeckSnapshot{}, errors.NewConflictError(err.Error()).Wrap(err)
		}
		log.WithError(err).Error("failed to apply proposal")
		return models.DeckSnapshot{}, errors.NewInternalError(err)
	}

	if err := s.store.Delete(ctx, p.ID); err != nil {
		log.WithError(err).Warn("failed to delete applied proposal")
	}
	log.Info("proposal applied: accepted=%d, cards=%d", len(cmds), len(result.Cards))
	return result, nil
}
