package api

import (
	"net/http"

	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/services"
)

type applyResponse struct {
	NewDeck models.DeckSnapshot `json:"newDeck"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var in services.ChatInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleError(w, r, err)
		return
	}
	packet, err := s.DeckEditService.Chat(r.Context(), userFromContext(r.Context()).ID, in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, packet)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var in services.ApplyInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleError(w, r, err)
		return
	}
	deck, err := s.DeckEditService.Apply(r.Context(), userFromContext(r.Context()).ID, in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, applyResponse{NewDeck: deck})
}
