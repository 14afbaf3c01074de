package mailservice

import "github.com/core-coin/mailnet/internal/runtime"

type MailServiceInitialized struct {
	Owner    runtime.Principal
	UnitMint runtime.Principal
}

func (MailServiceInitialized) Name() string { return "MailServiceInitialized" }

// DelegationSet is emitted both when a delegator sets or clears their own
// delegate, and when a delegate rejects a delegation pointed at them —
// the original program's reject_delegation path produces the exact same
// event shape as a delegator clearing it themselves (open-question
// decision: no separate "DelegationRejected" event exists).
type DelegationSet struct {
	Delegator   runtime.Principal
	Delegate    runtime.Principal
	HasDelegate bool
}

func (DelegationSet) Name() string { return "DelegationSet" }

type DelegationFeeUpdated struct {
	OldFee uint64
	NewFee uint64
}

func (DelegationFeeUpdated) Name() string { return "DelegationFeeUpdated" }

type RegistrationFeeUpdated struct {
	OldFee uint64
	NewFee uint64
}

func (RegistrationFeeUpdated) Name() string { return "RegistrationFeeUpdated" }

type DomainRegistered struct {
	Registrant  runtime.Principal
	DomainName  string
	IsExtension bool
	Fee         uint64
}

func (DomainRegistered) Name() string { return "DomainRegistered" }

type FeesWithdrawn struct {
	Owner  runtime.Principal
	Amount uint64
}

func (FeesWithdrawn) Name() string { return "FeesWithdrawn" }
