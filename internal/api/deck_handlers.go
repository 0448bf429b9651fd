package api

import (
	"net/http"
	"strings"

	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/services"
)

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	decks, err := s.DeckService.ListDecks(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, decks)
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	deck, err := s.DeckService.GetDeck(r.Context(), userFromContext(r.Context()).ID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, deck)
}

func (s *Server) handleDeckSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	snap, err := s.DeckService.Snapshot(r.Context(), userFromContext(r.Context()).ID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	var in services.CreateDeckInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleError(w, r, err)
		return
	}
	deck, err := s.DeckService.CreateDeck(r.Context(), userFromContext(r.Context()).ID, in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, deck)
}

func (s *Server) handleUpdateDeck(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var in services.UpdateDeckInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleError(w, r, err)
		return
	}
	deck, err := s.DeckService.UpdateDeck(r.Context(), userFromContext(r.Context()).ID, id, in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, deck)
}

func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.DeckService.DeleteDeck(r.Context(), userFromContext(r.Context()).ID, id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	card, err := s.DeckService.GetCard(r.Context(), userFromContext(r.Context()).ID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

// handleGenerateDeck builds a deck from uploaded sources.
func (s *Server) handleGenerateDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	src, err := s.parseSources(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	count, err := formInt(r, "count", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log = log.WithFields(map[string]any{
		"count": count,
		"files": len(src.Files),
		"links": len(src.Links),
	})
	log.Info("generating deck")

	deck, err := s.DeckService.GenerateDeck(logger.NewContext(r.Context(), log), userFromContext(r.Context()).ID, services.GenerateDeckInput{
		Sources:     src,
		Count:       count,
		FrontLength: strings.TrimSpace(r.FormValue("front_text_length")),
		BackLength:  strings.TrimSpace(r.FormValue("back_text_length")),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, deck)
}
