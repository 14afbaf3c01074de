package runtime

import "context"

// Custodian is the trusted external token-transfer primitive spec
// section 1 treats as an out-of-scope collaborator: a fungible UNIT
// transfer that either fully succeeds or fully fails, with the entire
// enclosing operation reverting on failure. Neither engine ever touches
// a balance except through this interface.
type Custodian interface {
	// Transfer moves amount smallest-UNIT-units from "from" to "to",
	// authorized by authority (the program's signer PDA for outbound
	// program→user transfers, or the caller itself for user→program
	// transfers). It returns ErrInsufficientFunds if "from" cannot cover
	// amount, and an Asset-kind error (ErrTokenTransferFailed where the
	// implementation names the failure) for any other custody failure.
	Transfer(ctx context.Context, from, to, authority Principal, amount uint64) error

	// Balance returns the current UNIT balance of a principal's custody
	// account. Used by invariant checks (MC1 and its MailService
	// analogue) in tests, and by MailService's WithdrawFees to check the
	// vault can cover a withdrawal.
	Balance(ctx context.Context, principal Principal) (uint64, error)
}
