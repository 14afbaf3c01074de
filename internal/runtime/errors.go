package runtime

import (
	"github.com/pkg/errors"
)

// Kind classifies a protocol error per the taxonomy of spec section 7:
// authorization, argument, state, timing, asset and arithmetic errors all
// abort their enclosing operation with no partial state change.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindArgument      Kind = "argument"
	KindState         Kind = "state"
	KindTiming        Kind = "timing"
	KindAsset         Kind = "asset"
	KindArithmetic    Kind = "arithmetic"
)

// Error is a protocol-level error: a classification plus the sentinel it
// wraps. Callers branch on Kind to decide whether a retry is ever
// sensible (spec section 7: never for semantic errors).
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func classify(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// Sentinel errors, one per taxonomy entry named in spec section 7.
var (
	ErrOnlyOwner             = errors.New("only the owner can perform this action")
	ErrUnauthorizedRejector  = errors.New("caller is not the current delegate")
	ErrSelfDelegation        = errors.New("a principal cannot delegate to itself")
	ErrEmptyDomain           = errors.New("domain name must not be empty")
	ErrInvalidParameter      = errors.New("parameter exceeds the allowed range")
	ErrAlreadyInitialized    = errors.New("state account already initialized")
	ErrNotInitialized        = errors.New("state account has not been initialized")
	ErrNoDelegationToReject  = errors.New("no delegation to reject")
	ErrNoClaimableAmount     = errors.New("no claimable amount available")
	ErrClaimExpired          = errors.New("claim period has expired")
	ErrClaimPeriodNotExpired = errors.New("claim period has not expired yet")
	ErrInvalidRecipient      = errors.New("recipient claim does not belong to caller")
	ErrInsufficientFunds     = errors.New("insufficient UNIT balance for transfer")
	ErrTokenTransferFailed   = errors.New("token transfer failed")
	ErrMathOverflow          = errors.New("arithmetic overflow")
)

// Classification helpers keep call sites (engine methods) terse while
// still tagging every returned error with its Kind.
func Authorization(err error) error { return classify(KindAuthorization, err) }
func Argument(err error) error      { return classify(KindArgument, err) }
func State(err error) error         { return classify(KindState, err) }
func Timing(err error) error        { return classify(KindTiming, err) }
func Asset(err error) error         { return classify(KindAsset, err) }
func Arithmetic(err error) error    { return classify(KindArithmetic, err) }

// WrapAsset annotates an underlying custody/transfer failure (from the
// trusted external token module) with a stack trace and the Asset kind,
// the way the teacher's repository layer wraps gorm/pgx failures.
func WrapAsset(err error, msg string) error {
	if err == nil {
		return nil
	}
	return classify(KindAsset, errors.Wrap(err, msg))
}
