package mailer

import (
	"context"

	"github.com/core-coin/mailnet/internal/runtime"
)

// Store persists the Mailer singleton and its per-sender claim accounts.
// Production code backs this with the gorm repository; tests use an
// in-memory implementation.
type Store interface {
	LoadState(ctx context.Context) (*State, bool, error)
	CreateState(ctx context.Context, state *State) error
	SaveState(ctx context.Context, state *State) error

	LoadClaim(ctx context.Context, sender runtime.Principal) (*Claim, bool, error)
	SaveClaim(ctx context.Context, claim *Claim) error

	// ListClaims returns every claim with a nonzero amount, for the
	// background sweep that surfaces expired ones to the owner.
	ListClaims(ctx context.Context) ([]*Claim, error)
}
