// Package ledger provides reference implementations of the
// runtime.Custodian trusted external token-transfer primitive: an
// in-process balance table for tests and local demos, and a
// gorm-backed one for the cmd/mailnet bootstrap.
package ledger

import (
	"context"
	"sync"

	"github.com/core-coin/mailnet/internal/runtime"
)

// Memory is an in-process UNIT balance table guarded by a single mutex,
// standing in for the host runtime's per-account transaction locking
// (spec section 5: "the runtime's account-locking at transaction
// granularity subsumes" per-user locks).
type Memory struct {
	mu       sync.Mutex
	balances map[runtime.Principal]uint64
}

func NewMemory() *Memory {
	return &Memory{balances: make(map[runtime.Principal]uint64)}
}

// Credit seeds a principal's balance, for test setup only (not part of
// the Custodian interface — a real token module has no such bypass).
func (m *Memory) Credit(principal runtime.Principal, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[principal] += amount
}

func (m *Memory) Balance(_ context.Context, principal runtime.Principal) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[principal], nil
}

func (m *Memory) Transfer(_ context.Context, from, to, _ runtime.Principal, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.balances[from] < amount {
		return runtime.Asset(runtime.ErrInsufficientFunds)
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	return nil
}

var _ runtime.Custodian = (*Memory)(nil)
