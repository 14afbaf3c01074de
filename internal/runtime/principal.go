// Package runtime holds the pieces shared by the Mailer and MailService
// engines: principal addressing, deterministic account derivation, the
// typed error taxonomy, token custody, and event emission. Neither engine
// package imports the other; both import runtime.
package runtime

import (
	"github.com/core-coin/go-core/v2/common"
)

// Principal is a runtime-unique signing identity — a Core blockchain
// address (22 bytes, 44 hex characters). Both engines address owners,
// senders, delegators and delegates this way.
type Principal = common.Address

// ZeroPrincipal is the sentinel "no principal" value, used where the spec
// models an Option<principal> (e.g. Delegation.delegate == None).
var ZeroPrincipal = common.Address{}

// ParsePrincipal validates and normalizes a hex-encoded address string
// into a Principal, the same 22-byte address convention the teacher
// parses with common.HexToAddress in internal/blockchain/gocore.go.
func ParsePrincipal(hexAddr string) (Principal, error) {
	return common.HexToAddress(hexAddr)
}
