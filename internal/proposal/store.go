// Package proposal stores staged edit proposals between a chat turn and the
// apply that accepts them.
package proposal

import (
	"context"
	"errors"
	"time"

	"github.com/vytor/studyflash/internal/deckedit"
)

var ErrNotFound = errors.New("proposal not found")

// Proposal is the set of commands produced by one chat turn, awaiting user
// acceptance. Commands are kept in wire form.
type Proposal struct {
	ID        string                `json:"id"`
	UserID    int64                 `json:"user_id"`
	Commands  []deckedit.RawCommand `json:"commands"`
	CreatedAt time.Time             `json:"created_at"`
}

// Store holds proposals until they are applied or expire. Get returns
// ErrNotFound for ids that were never stored, were deleted or have expired.
type Store interface {
	Put(ctx context.Context, p *Proposal) error
	Get(ctx context.Context, id string) (*Proposal, error)
	Delete(ctx context.Context, id string) error
}
