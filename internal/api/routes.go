package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(corsMiddleware(s.CORSOrigins))
	r.Use(securityHeadersMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusNotFound, map[string]any{
			"error": map[string]string{"code": "NOT_FOUND", "message": "route not found"},
		})
	})

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/me", s.handleMe)

		r.Get("/decks/me", s.handleListDecks)
		r.Post("/decks", s.handleCreateDeck)
		r.Get("/decks/{id}", s.handleGetDeck)
		r.Put("/decks/{id}", s.handleUpdateDeck)
		r.Delete("/decks/{id}", s.handleDeleteDeck)
		r.Get("/decks/{id}/snapshot", s.handleDeckSnapshot)
		r.Get("/cards/{id}", s.handleGetCard)

		r.Post("/flashcards/apply", s.handleApply)

		r.Get("/notes/me", s.handleListNotes)
		r.Get("/notes/{id}", s.handleGetNote)
		r.Put("/notes/{id}", s.handleUpdateNote)
		r.Delete("/notes/{id}", s.handleDeleteNote)

		r.Get("/quizzes/me", s.handleListQuizzes)
		r.Get("/quiz/{id}", s.handleGetQuiz)
		r.Get("/quiz/{id}/attempts", s.handleListAttempts)
		r.Delete("/quiz/{id}", s.handleDeleteQuiz)

		// Routes that call the LLM.
		limiter := newUserRateLimiter(s.RateLimitRPS, s.RateLimitBurst)
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)

			r.Post("/flashcards/chat", s.handleChat)
			r.Post("/generate", s.handleGenerateDeck)
			r.Post("/generateNotes", s.handleGenerateNote)
			r.Post("/quiz/generate", s.handleGenerateQuiz)
			r.Post("/quiz/verify", s.handleVerifyQuiz)
		})
	})

	return r
}
