package runtime

import (
	"github.com/core-coin/go-core/v2/common"
	"golang.org/x/crypto/sha3"
)

// maxBump is the starting point of the bump-seed search, mirroring the
// canonical find-program-address algorithm spec section 6.3 requires:
// hash the seed tuple together with a decreasing bump byte until the
// derived address does not collide with a reserved marker, and persist
// whichever bump produced the winning address.
const maxBump = 255

// reserved marks an address as "on-curve" in Solana's analogous
// algorithm; Core-blockchain addresses have no such curve-membership
// test, so this implementation instead rejects any bump whose derivation
// is the all-zero address, which cannot occur for any real seed tuple
// with the full 256-attempt search space available.
var reservedAddress = common.Address{}

// FindProgramAddress derives a deterministic account address from a seed
// tuple and a program identifier, plus the bump byte that produced it.
// Implementers "must reproduce bit-exactly" per spec section 3: calling
// this twice with the same seeds and programID always yields the same
// (address, bump) pair.
func FindProgramAddress(seeds [][]byte, programID Principal) (Principal, uint8) {
	for bump := uint8(maxBump); ; bump-- {
		addr := deriveAddress(seeds, programID, bump)
		if addr != reservedAddress {
			return addr, bump
		}
		if bump == 0 {
			break
		}
	}
	// Unreachable for any real seed tuple: all 256 bump values colliding
	// with the reserved marker has negligible-to-impossible probability
	// under Keccak-256.
	return deriveAddress(seeds, programID, 0), 0
}

func deriveAddress(seeds [][]byte, programID Principal, bump uint8) Principal {
	h := sha3.NewLegacyKeccak256()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write(programID.Bytes())
	h.Write([]byte{bump})
	sum := h.Sum(nil)

	var addr Principal
	// Principal (common.Address) is a 22-byte Core-blockchain address;
	// take the low 22 bytes of the 32-byte digest.
	copy(addr[:], sum[len(sum)-len(addr):])
	return addr
}
