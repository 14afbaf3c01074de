package runtime

import "math"

// CheckedAdd adds two smallest-UNIT-unit amounts, returning ErrMathOverflow
// instead of silently wrapping, per spec section 7 ("use checked
// arithmetic throughout").
func CheckedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, Arithmetic(ErrMathOverflow)
	}
	return a + b, nil
}

// SplitBps splits an amount into an owner share (floor division at the
// given basis-points rate) and the remainder, which stays with the
// counterparty — the sender-favoring floor rule of spec section 4.1.
func SplitBps(amount, ownerShareBps uint64) (ownerPart, remainderPart uint64) {
	ownerPart = (amount * ownerShareBps) / 10_000
	remainderPart = amount - ownerPart
	return
}
