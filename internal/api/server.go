package api

import (
	"context"

	"github.com/vytor/studyflash/internal/auth"
	"github.com/vytor/studyflash/internal/services"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	UserService     services.UserService
	DeckService     services.DeckService
	DeckEditService services.DeckEditService
	NoteService     services.NoteService
	QuizService     services.QuizService

	Verifier *auth.Verifier
	DB       Pinger
	// Checks are optional extra readiness probes, keyed by name.
	Checks map[string]func(context.Context) error

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxUploadMB    int
}
