package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/services"
)

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	src, err := s.parseSources(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	count, err := formInt(r, "count", services.DefaultQuizCount)
	if err != nil {
		handleError(w, r, err)
		return
	}
	timeLimit, err := formInt(r, "time_limit", services.DefaultQuizTimeLimit)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var mix map[string]int
	if raw := strings.TrimSpace(r.FormValue("mix_config")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mix); err != nil {
			handleError(w, r, errors.NewValidationError("mix_config", "must be a JSON object of type to percent"))
			return
		}
	}

	view, err := s.QuizService.GenerateQuiz(r.Context(), userFromContext(r.Context()).ID, services.GenerateQuizInput{
		Sources:   src,
		Count:     count,
		Mix:       mix,
		TimeLimit: timeLimit,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, view)
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	view, err := s.QuizService.GetQuiz(r.Context(), userFromContext(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleVerifyQuiz(w http.ResponseWriter, r *http.Request) {
	var in services.VerifyQuizInput
	if err := decodeJSON(w, r, &in); err != nil {
		handleError(w, r, err)
		return
	}
	result, err := s.QuizService.VerifyQuiz(r.Context(), userFromContext(r.Context()).ID, in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := s.QuizService.ListQuizzes(r.Context(), userFromContext(r.Context()).ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, quizzes)
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := s.QuizService.ListAttempts(r.Context(), userFromContext(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, attempts)
}

func (s *Server) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := s.QuizService.DeleteQuiz(r.Context(), userFromContext(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
