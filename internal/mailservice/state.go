// Package mailservice implements the MailService state machine of spec
// section 4.2: domain registration fees, delegate-routing announcements,
// and owner fee administration, all funded by the same UNIT custody
// vault a MailService deployment owns.
package mailservice

import (
	"github.com/core-coin/mailnet/internal/runtime"
)

const (
	// DefaultRegistrationFee is charged per register_domain call (spec
	// section 3.1: ~100 UNIT at 6 decimals).
	DefaultRegistrationFee uint64 = 100_000_000

	// DefaultDelegationFee is charged only when setting a non-empty
	// delegate (spec section 4.2: clearing a delegation is free).
	DefaultDelegationFee uint64 = 10_000_000

	// MaxFee mirrors the mailer package's administrative fee ceiling
	// (shared open-question decision: no fee setter may exceed it).
	MaxFee uint64 = 1_000_000_000
)

var SeedMailService = []byte("mail_service")
var SeedDelegation = []byte("delegation")

// State is the MailService singleton account (seed ["mail_service"]). No
// gorm tags here either, for the same reason as mailer.State: see
// internal/repository for the string-address row mapping.
type State struct {
	Owner           runtime.Principal
	UnitMint        runtime.Principal
	RegistrationFee uint64
	DelegationFee   uint64
	Bump            uint8
}

// Delegation is a per-delegator account (seed ["delegation",
// delegator_principal]) recording who a delegator has routed their mail
// handling to, if anyone.
type Delegation struct {
	Delegator   runtime.Principal
	Delegate    runtime.Principal
	HasDelegate bool
	Bump        uint8
}

// Address derives this delegation account's deterministic address.
func (d *Delegation) Address(programID runtime.Principal) (runtime.Principal, uint8) {
	return runtime.FindProgramAddress([][]byte{SeedDelegation, d.Delegator.Bytes()}, programID)
}
