package mailer

import (
	"context"

	"github.com/core-coin/mailnet/internal/runtime"
)

// Engine drives the Mailer state machine. It never touches a database or
// a token balance directly — both are injected collaborators, the way
// the original program treats its Anchor accounts and CPI targets as
// capabilities rather than owned resources.
type Engine struct {
	programID runtime.Principal
	store     Store
	custodian runtime.Custodian
	emitter   runtime.Emitter
	clock     runtime.Clock
}

func NewEngine(programID runtime.Principal, store Store, custodian runtime.Custodian, emitter runtime.Emitter, clock runtime.Clock) *Engine {
	return &Engine{
		programID: programID,
		store:     store,
		custodian: custodian,
		emitter:   emitter,
		clock:     clock,
	}
}

// vault is the Mailer program's own custody principal: the PDA derived
// from the ["mailer"] seed, used both as the singleton state's address
// and as the account UNIT fees are transferred into and out of.
func (e *Engine) vault() (runtime.Principal, uint8) {
	return runtime.FindProgramAddress([][]byte{SeedMailer}, e.programID)
}

// Initialize creates the Mailer singleton. It may run exactly once per
// deployment (spec section 8.2, invariant I1's precondition).
func (e *Engine) Initialize(ctx context.Context, owner, unitMint runtime.Principal) error {
	if _, ok, err := e.store.LoadState(ctx); err != nil {
		return err
	} else if ok {
		return runtime.State(runtime.ErrAlreadyInitialized)
	}

	_, bump := e.vault()
	state := &State{
		Owner:          owner,
		UnitMint:       unitMint,
		SendFee:        DefaultSendFee,
		OwnerClaimable: 0,
		Bump:           bump,
	}
	if err := e.store.CreateState(ctx, state); err != nil {
		return err
	}
	e.emitter.Emit(MailerInitialized{Owner: owner, UnitMint: unitMint})
	return nil
}

// SetFee changes the per-message send fee. Owner-only (spec section
// 4.1); bounded by MaxFee per the fee-ceiling open-question decision.
func (e *Engine) SetFee(ctx context.Context, caller runtime.Principal, newFee uint64) error {
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

	oldFee := state.SendFee
	state.SendFee = newFee
	if err := e.store.SaveState(ctx, state); err != nil {
		return err
	}
	e.emitter.Emit(FeeUpdated{OldFee: oldFee, NewFee: newFee})
	return nil
}

// SendPriority charges the current send fee and splits it: OwnerShareBps
// goes straight to the owner's claimable balance, the remainder accrues
// to the sender's own RecipientClaim for later self-service claiming —
// the revenue-share incentive for using the priority path.
func (e *Engine) SendPriority(ctx context.Context, sender runtime.Principal, subject, body string) error {
	fee, err := e.chargeFee(ctx, sender)
	if err != nil {
		return err
	}
	if err := e.recordShare(ctx, sender, fee); err != nil {
		e.refundFee(ctx, sender, fee)
		return err
	}
	e.emitter.Emit(MailSent{Sender: sender, Subject: subject, Body: body, Fee: fee})
	return nil
}

// SendPriorityPrepared is SendPriority for a message whose content was
// already published out of band; only a reference id is carried on
// chain.
func (e *Engine) SendPriorityPrepared(ctx context.Context, sender runtime.Principal, mailID string) error {
	fee, err := e.chargeFee(ctx, sender)
	if err != nil {
		return err
	}
	if err := e.recordShare(ctx, sender, fee); err != nil {
		e.refundFee(ctx, sender, fee)
		return err
	}
	e.emitter.Emit(PreparedMailSent{Sender: sender, MailID: mailID, Fee: fee})
	return nil
}

// Send is the discount path: it forgoes any sender rebate, so only
// OwnerShareBps of the current send fee is ever charged — the sender
// never pays the RecipientShareBps portion because no claim accrues.
func (e *Engine) Send(ctx context.Context, sender runtime.Principal, subject, body string) error {
	fee, err := e.chargeStandardFee(ctx, sender)
	if err != nil {
		return err
	}
	e.emitter.Emit(MailSent{Sender: sender, Subject: subject, Body: body, Fee: fee})
	return nil
}

// SendPrepared is Send for an out-of-band message body.
func (e *Engine) SendPrepared(ctx context.Context, sender runtime.Principal, mailID string) error {
	fee, err := e.chargeStandardFee(ctx, sender)
	if err != nil {
		return err
	}
	e.emitter.Emit(PreparedMailSent{Sender: sender, MailID: mailID, Fee: fee})
	return nil
}

// chargeFee loads the current fee and transfers the full amount from
// sender to the program vault, for the priority path where the fee is
// split between owner and sender only after the full amount has moved.
func (e *Engine) chargeFee(ctx context.Context, sender runtime.Principal) (uint64, error) {
	state, ok, err := e.store.LoadState(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, runtime.State(runtime.ErrNotInitialized)
	}
	vault, _ := e.vault()
	if err := e.custodian.Transfer(ctx, sender, vault, sender, state.SendFee); err != nil {
		return 0, err
	}
	return state.SendFee, nil
}

// refundFee reverses chargeFee's transfer when the bookkeeping step that
// was supposed to follow it (recordShare) never lands — otherwise the
// fee would sit in the vault with no claim or owner-claimable entry
// crediting it to anyone, violating the all-or-nothing guarantee every
// other operation in this file upholds. Best-effort, like the
// compensating SaveClaim/SaveState calls below: if the refund itself
// fails there is nothing further to roll back to.
func (e *Engine) refundFee(ctx context.Context, sender runtime.Principal, fee uint64) {
	vault, _ := e.vault()
	_ = e.custodian.Transfer(ctx, vault, sender, vault, fee)
}

// chargeStandardFee is the standard-path counterpart to chargeFee: only
// OwnerShareBps of the current send fee is ever transferred or credited
// (spec section 4.1: "the fee charged equals owner_part only"), and it
// returns that charged amount so callers emit the right Fee in their
// send event.
func (e *Engine) chargeStandardFee(ctx context.Context, sender runtime.Principal) (uint64, error) {
	state, ok, err := e.store.LoadState(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, runtime.State(runtime.ErrNotInitialized)
	}

	ownerPart, _ := runtime.SplitBps(state.SendFee, OwnerShareBps)

	newOwnerClaimable, err := runtime.CheckedAdd(state.OwnerClaimable, ownerPart)
	if err != nil {
		return 0, err
	}

	vault, _ := e.vault()
	if err := e.custodian.Transfer(ctx, sender, vault, sender, ownerPart); err != nil {
		return 0, err
	}

	state.OwnerClaimable = newOwnerClaimable
	if err := e.store.SaveState(ctx, state); err != nil {
		_ = e.custodian.Transfer(ctx, vault, sender, vault, ownerPart)
		return 0, err
	}
	return ownerPart, nil
}

// recordShare splits fee and credits the owner's claimable balance plus
// the sender's own claim, resetting the claim's timestamp on every
// accrual — not only when the claim was previously empty, which is a
// deliberate divergence from the original program's "first accrual
// only" reset so every new share reopens the full claim window.
func (e *Engine) recordShare(ctx context.Context, sender runtime.Principal, fee uint64) error {
	state, ok, err := e.store.LoadState(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return runtime.State(runtime.ErrNotInitialized)
	}

	ownerPart, recipientPart := runtime.SplitBps(fee, OwnerShareBps)

	claim, ok, err := e.store.LoadClaim(ctx, sender)
	if err != nil {
		return err
	}
	if !ok {
		claim = &Claim{Recipient: sender}
	}

	newAmount, err := runtime.CheckedAdd(claim.Amount, recipientPart)
	if err != nil {
		return err
	}
	newOwnerClaimable, err := runtime.CheckedAdd(state.OwnerClaimable, ownerPart)
	if err != nil {
		return err
	}

	prevAmount, prevTimestamp := claim.Amount, claim.Timestamp
	claim.Amount = newAmount
	claim.Timestamp = e.clock.Now()
	state.OwnerClaimable = newOwnerClaimable

	if err := e.store.SaveClaim(ctx, claim); err != nil {
		return err
	}
	if err := e.store.SaveState(ctx, state); err != nil {
		claim.Amount = prevAmount
		claim.Timestamp = prevTimestamp
		_ = e.store.SaveClaim(ctx, claim)
		return err
	}
	e.emitter.Emit(SharesRecorded{Sender: sender, OwnerPart: ownerPart, Amount: recipientPart, Timestamp: claim.Timestamp})
	return nil
}

// ClaimRecipientShare pays out a sender's accrued revenue share. State is
// zeroed before the transfer runs; if the transfer fails the zeroing is
// compensated back, so the caller sees no partial effect (spec section
// 5: operations are all-or-nothing).
func (e *Engine) ClaimRecipientShare(ctx context.Context, caller runtime.Principal) error {
	claim, ok, err := e.store.LoadClaim(ctx, caller)
	if err != nil {
		return err
	}
	if !ok || claim.Amount == 0 {
		return runtime.State(runtime.ErrNoClaimableAmount)
	}
	// spec section 3.1's caller precondition: "any principal with an
	// existing RecipientClaim whose stored recipient == caller" — always
	// true given LoadClaim is keyed by caller, but checked explicitly
	// rather than trusted implicitly from the lookup key.
	if claim.Recipient != caller {
		return runtime.State(runtime.ErrInvalidRecipient)
	}
	now := e.clock.Now()
	if !claim.IsOpen(now) {
		return runtime.Timing(runtime.ErrClaimExpired)
	}

	amount := claim.Amount
	prevTimestamp := claim.Timestamp
	claim.Amount = 0
	claim.Timestamp = 0
	if err := e.store.SaveClaim(ctx, claim); err != nil {
		return err
	}

	vault, _ := e.vault()
	if err := e.custodian.Transfer(ctx, vault, caller, vault, amount); err != nil {
		claim.Amount = amount
		claim.Timestamp = prevTimestamp
		_ = e.store.SaveClaim(ctx, claim)
		return err
	}

	e.emitter.Emit(RecipientClaimed{Recipient: caller, Amount: amount})
	return nil
}

// ClaimOwnerShare pays out the owner's accrued fee share.
func (e *Engine) ClaimOwnerShare(ctx context.Context, caller runtime.Principal) error {
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
	if state.OwnerClaimable == 0 {
		return runtime.State(runtime.ErrNoClaimableAmount)
	}

	amount := state.OwnerClaimable
	state.OwnerClaimable = 0
	if err := e.store.SaveState(ctx, state); err != nil {
		return err
	}

	vault, _ := e.vault()
	if err := e.custodian.Transfer(ctx, vault, caller, vault, amount); err != nil {
		state.OwnerClaimable = amount
		_ = e.store.SaveState(ctx, state)
		return err
	}

	e.emitter.Emit(OwnerClaimed{Owner: caller, Amount: amount})
	return nil
}

// ClaimExpiredShares lets the owner sweep a sender's claim once its
// window has lapsed unclaimed. Owner-only; the counterpart timing check
// to ClaimRecipientShare's.
func (e *Engine) ClaimExpiredShares(ctx context.Context, caller, sender runtime.Principal) error {
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

	claim, ok, err := e.store.LoadClaim(ctx, sender)
	if err != nil {
		return err
	}
	if !ok || claim.Amount == 0 {
		return runtime.State(runtime.ErrNoClaimableAmount)
	}
	now := e.clock.Now()
	if !claim.IsExpired(now) {
		return runtime.Timing(runtime.ErrClaimPeriodNotExpired)
	}

	amount := claim.Amount
	prevTimestamp := claim.Timestamp
	claim.Amount = 0
	claim.Timestamp = 0
	if err := e.store.SaveClaim(ctx, claim); err != nil {
		return err
	}

	vault, _ := e.vault()
	if err := e.custodian.Transfer(ctx, vault, caller, vault, amount); err != nil {
		claim.Amount = amount
		claim.Timestamp = prevTimestamp
		_ = e.store.SaveClaim(ctx, claim)
		return err
	}

	e.emitter.Emit(ExpiredSharesClaimed{Sender: sender, Amount: amount})
	return nil
}

// ExpiredClaimants lists senders whose claim window has lapsed, for the
// cmd/mailnet background sweep that reminds the owner to reclaim them —
// the protocol never expires claims automatically, only the owner's
// ClaimExpiredShares call does.
func (e *Engine) ExpiredClaimants(ctx context.Context) ([]runtime.Principal, error) {
	claims, err := e.store.ListClaims(ctx)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	var expired []runtime.Principal
	for _, c := range claims {
		if c.Amount > 0 && c.IsExpired(now) {
			expired = append(expired, c.Recipient)
		}
	}
	return expired, nil
}
