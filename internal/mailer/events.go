package mailer

import "github.com/core-coin/mailnet/internal/runtime"

// Events mirror the Anchor `emit!` call sites of the original Mailer
// program almost field-for-field (spec section 6.2).

type MailerInitialized struct {
	Owner    runtime.Principal
	UnitMint runtime.Principal
}

func (MailerInitialized) Name() string { return "MailerInitialized" }

type MailSent struct {
	Sender  runtime.Principal
	Subject string
	Body    string
	Fee     uint64
}

func (MailSent) Name() string { return "MailSent" }

type PreparedMailSent struct {
	Sender runtime.Principal
	MailID string
	Fee    uint64
}

func (PreparedMailSent) Name() string { return "PreparedMailSent" }

type SharesRecorded struct {
	Sender    runtime.Principal
	OwnerPart uint64
	Amount    uint64
	Timestamp int64
}

func (SharesRecorded) Name() string { return "SharesRecorded" }

type RecipientClaimed struct {
	Recipient runtime.Principal
	Amount    uint64
}

func (RecipientClaimed) Name() string { return "RecipientClaimed" }

type OwnerClaimed struct {
	Owner  runtime.Principal
	Amount uint64
}

func (OwnerClaimed) Name() string { return "OwnerClaimed" }

type ExpiredSharesClaimed struct {
	Sender runtime.Principal
	Amount uint64
}

func (ExpiredSharesClaimed) Name() string { return "ExpiredSharesClaimed" }

type FeeUpdated struct {
	OldFee uint64
	NewFee uint64
}

func (FeeUpdated) Name() string { return "FeeUpdated" }
