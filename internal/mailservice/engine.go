package mailservice

import (
	"context"

	"github.com/core-coin/mailnet/internal/runtime"
)

// Engine drives the MailService state machine: delegate routing
// announcements and domain-registration/delegation fee collection, all
// settling into the same custody vault WithdrawFees later drains.
type Engine struct {
	programID runtime.Principal
	store     Store
	custodian runtime.Custodian
	emitter   runtime.Emitter
}

func NewEngine(programID runtime.Principal, store Store, custodian runtime.Custodian, emitter runtime.Emitter) *Engine {
	return &Engine{programID: programID, store: store, custodian: custodian, emitter: emitter}
}

func (e *Engine) vault() (runtime.Principal, uint8) {
	return runtime.FindProgramAddress([][]byte{SeedMailService}, e.programID)
}

// refundDelegationFee reverses the fee transfer DelegateTo took when the
// delegation record it was paying for never lands, the same all-or-nothing
// guard SendPriority applies to its own fee-then-bookkeeping ordering.
// Best-effort: if the refund itself fails there is nothing further to roll
// back to.
func (e *Engine) refundDelegationFee(ctx context.Context, delegator runtime.Principal, fee uint64) {
	vault, _ := e.vault()
	_ = e.custodian.Transfer(ctx, vault, delegator, vault, fee)
}

// Initialize creates the MailService singleton with the protocol default
// fees. May run exactly once per deployment.
func (e *Engine) Initialize(ctx context.Context, owner, unitMint runtime.Principal) error {
	if _, ok, err := e.store.LoadState(ctx); err != nil {
		return err
	} else if ok {
		return runtime.State(runtime.ErrAlreadyInitialized)
	}

	_, bump := e.vault()
	state := &State{
		Owner:           owner,
		UnitMint:        unitMint,
		RegistrationFee: DefaultRegistrationFee,
		DelegationFee:   DefaultDelegationFee,
		Bump:            bump,
	}
	if err := e.store.CreateState(ctx, state); err != nil {
		return err
	}
	e.emitter.Emit(MailServiceInitialized{Owner: owner, UnitMint: unitMint})
	return nil
}

// DelegateTo points delegator's mail handling at a delegate, or clears it
// if newDelegate is nil. Setting a delegate charges DelegationFee;
// clearing one is free (spec section 4.2).
func (e *Engine) DelegateTo(ctx context.Context, delegator runtime.Principal, newDelegate *runtime.Principal) error {
	if newDelegate != nil && *newDelegate == delegator {
		return runtime.Argument(runtime.ErrSelfDelegation)
	}

	state, ok, err := e.store.LoadState(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return runtime.State(runtime.ErrNotInitialized)
	}

	if newDelegate != nil {
		vault, _ := e.vault()
		if err := e.custodian.Transfer(ctx, delegator, vault, delegator, state.DelegationFee); err != nil {
			return err
		}
	}

	delegation, ok, err := e.store.LoadDelegation(ctx, delegator)
	if err != nil {
		if newDelegate != nil {
			e.refundDelegationFee(ctx, delegator, state.DelegationFee)
		}
		return err
	}
	if !ok {
		delegation = &Delegation{Delegator: delegator}
	}

	if newDelegate != nil {
		delegation.Delegate = *newDelegate
		delegation.HasDelegate = true
	} else {
		delegation.Delegate = runtime.ZeroPrincipal
		delegation.HasDelegate = false
	}
	if err := e.store.SaveDelegation(ctx, delegation); err != nil {
		if newDelegate != nil {
			e.refundDelegationFee(ctx, delegator, state.DelegationFee)
		}
		return err
	}

	e.emitter.Emit(DelegationSet{Delegator: delegator, Delegate: delegation.Delegate, HasDelegate: delegation.HasDelegate})
	return nil
}

// RejectDelegation lets the current delegate disown a delegation pointed
// at them, without the delegator's participation. Emits the same
// DelegationSet shape DelegateTo's clear path does.
func (e *Engine) RejectDelegation(ctx context.Context, caller, delegator runtime.Principal) error {
	delegation, ok, err := e.store.LoadDelegation(ctx, delegator)
	if err != nil {
		return err
	}
	if !ok || !delegation.HasDelegate {
		return runtime.State(runtime.ErrNoDelegationToReject)
	}
	if delegation.Delegate != caller {
		return runtime.Authorization(runtime.ErrUnauthorizedRejector)
	}

	delegation.Delegate = runtime.ZeroPrincipal
	delegation.HasDelegate = false
	if err := e.store.SaveDelegation(ctx, delegation); err != nil {
		return err
	}

	e.emitter.Emit(DelegationSet{Delegator: delegator, Delegate: runtime.ZeroPrincipal, HasDelegate: false})
	return nil
}

// RegisterDomain charges the current registration fee and announces a
// domain/extension claim. No domain record is kept: the call only checks
// the name is non-empty, collects the fee into the vault and emits
// DomainRegistered.
func (e *Engine) RegisterDomain(ctx context.Context, registrant runtime.Principal, name string, isExtension bool) error {
	if name == "" {
		return runtime.Argument(runtime.ErrEmptyDomain)
	}

	state, ok, err := e.store.LoadState(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return runtime.State(runtime.ErrNotInitialized)
	}

	vault, _ := e.vault()
	if err := e.custodian.Transfer(ctx, registrant, vault, registrant, state.RegistrationFee); err != nil {
		return err
	}

	e.emitter.Emit(DomainRegistered{Registrant: registrant, DomainName: name, IsExtension: isExtension, Fee: state.RegistrationFee})
	return nil
}

// SetRegistrationFee changes the per-registration fee. Owner-only;
// bounded by MaxFee.
func (e *Engine) SetRegistrationFee(ctx context.Context, caller runtime.Principal, newFee uint64) error {
	state, ok, err := e.store.LoadState(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return runtime.State(runtime.ErrNotInitialized)
	}
	if caller != state.Owner {
		return runtime.Authorization(runtime.ErrOnlyOwner)
	}
	if newFee > MaxFee {
		return runtime.Argument(runtime.ErrInvalidParameter)
	}

	oldFee := state.RegistrationFee
	state.RegistrationFee = newFee
	if err := e.store.SaveState(ctx, state); err != nil {
		return err
	}
	e.emitter.Emit(RegistrationFeeUpdated{OldFee: oldFee, NewFee: newFee})
	return nil
}

// SetDelegationFee changes the per-delegation fee. Owner-only; bounded
// by MaxFee.
func (e *Engine) SetDelegationFee(ctx context.Context, caller runtime.Principal, newFee uint64) error {
	state, ok, err := e.store.LoadState(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return runtime.State(runtime.ErrNotInitialized)
	}
	if caller != state.Owner {
		return runtime.Authorization(runtime.ErrOnlyOwner)
	}
	if newFee > MaxFee {
		return runtime.Argument(runtime.ErrInvalidParameter)
	}

	oldFee := state.DelegationFee
	state.DelegationFee = newFee
	if err := e.store.SaveState(ctx, state); err != nil {
		return err
	}
	e.emitter.Emit(DelegationFeeUpdated{OldFee: oldFee, NewFee: newFee})
	return nil
}

// WithdrawFees pays the owner out of the shared registration/delegation
// fee vault. Both fee kinds settle into one balance (open-question
// decision: there is no separate per-source accumulator), so this only
// checks the vault can cover amount.
func (e *Engine) WithdrawFees(ctx context.Context, caller runtime.Principal, amount uint64) error {
	state, ok, err := e.store.LoadState(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return runtime.State(runtime.ErrNotInitialized)
	}
	if caller != state.Owner {
		return runtime.Authorization(runtime.ErrOnlyOwner)
	}

	vault, _ := e.vault()
	balance, err := e.custodian.Balance(ctx, vault)
	if err != nil {
		return err
	}
	if balance < amount {
		return runtime.Asset(runtime.ErrInsufficientFunds)
	}

	if err := e.custodian.Transfer(ctx, vault, caller, vault, amount); err != nil {
		return err
	}

	e.emitter.Emit(FeesWithdrawn{Owner: caller, Amount: amount})
	return nil
}
