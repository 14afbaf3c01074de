// Package mailer implements the Mailer state machine of spec section
// 4.1: per-message fee collection, the priority path's sender revenue
// share, and the two claim paths (sender, and owner-after-expiry).
package mailer

import (
	"github.com/core-coin/mailnet/internal/runtime"
)

// Basis-points constants from spec section 4.1. RECIPIENT_SHARE_BPS is
// documented for completeness; only OWNER_SHARE_BPS is needed to compute
// a split, since the recipient always gets the floor remainder.
const (
	RecipientShareBps = 9000
	OwnerShareBps     = 1000

	// ClaimWindowSeconds is the 60-day claim window (spec: CLAIM_WINDOW_SECS).
	ClaimWindowSeconds int64 = 60 * 24 * 3600

	// DefaultSendFee is 0.1 UNIT at 6 decimals (spec section 3.1).
	DefaultSendFee uint64 = 100_000

	// MaxFee caps administrative fee updates (spec section 9 open
	// question: guards against a fee-spike griefing window between
	// simulation and commit). 1000 UNIT at 6 decimals.
	MaxFee uint64 = 1_000_000_000
)

// Seeds used for deterministic account derivation (spec section 6.3).
var (
	SeedMailer = []byte("mailer")
	SeedClaim  = []byte("claim")
)

// State is the Mailer singleton account (spec section 3.1, seed
// ["mailer"]). It carries no gorm tags of its own: runtime.Principal has
// no database/sql Scanner/Valuer (it is a fixed-size byte array from
// core-coin/go-core), so internal/repository maps this to a row type
// with string-encoded addresses, the same convention the teacher's own
// models package uses for every address-shaped column.
type State struct {
	Owner          runtime.Principal
	UnitMint       runtime.Principal
	SendFee        uint64
	OwnerClaimable uint64
	Bump           uint8
}

// Claim is a per-sender RecipientClaim account (spec section 3.1, seed
// ["claim", sender_principal]). Its address is content-derived from the
// sender, so Recipient doubles as both the account's logical key and the
// value compared in Invariant checks.
type Claim struct {
	Recipient runtime.Principal
	Amount    uint64
	Timestamp int64
	Bump      uint8
}

// Address derives this claim account's deterministic address under the
// given Mailer program identifier, per spec section 6.3.
func (c *Claim) Address(programID runtime.Principal) (runtime.Principal, uint8) {
	return runtime.FindProgramAddress([][]byte{SeedClaim, c.Recipient.Bytes()}, programID)
}

// IsOpen reports whether the claim window is still open at "now" —
// boundary behavior from spec section 8.3: exactly timestamp+window
// still succeeds.
func (c *Claim) IsOpen(now int64) bool {
	return now <= c.Timestamp+ClaimWindowSeconds
}

// IsExpired is the owner-reclaim counterpart: strictly past the window.
func (c *Claim) IsExpired(now int64) bool {
	return now > c.Timestamp+ClaimWindowSeconds
}
