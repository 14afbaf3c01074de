package mailservice

import (
	"context"

	"github.com/core-coin/mailnet/internal/runtime"
)

// Store persists the MailService singleton and its per-delegator
// delegation accounts.
type Store interface {
	LoadState(ctx context.Context) (*State, bool, error)
	CreateState(ctx context.Context, state *State) error
	SaveState(ctx context.Context, state *State) error

	LoadDelegation(ctx context.Context, delegator runtime.Principal) (*Delegation, bool, error)
	SaveDelegation(ctx context.Context, delegation *Delegation) error
}
