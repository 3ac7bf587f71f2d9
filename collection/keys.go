package collection

import (
	"golang.org/x/crypto/sha3"

	"github.com/nativemint/nfm/native"
)

// holderFunc picks the holder for the index-th selected key (1-based, in
// canonical order).
type holderFunc func(t native.KeyType, index int) native.Key

// contractHolder delegates a capability to the manager contract itself:
// whoever controls the contract, including future governance changes,
// controls the capability.
func contractHolder(contract native.Address) holderFunc {
	return func(t native.KeyType, index int) native.Key {
		return native.Key{Type: t, Holder: contract}
	}
}

// accountHolder assigns a capability to an externally supplied authority.
func accountHolder(account native.Address) holderFunc {
	return func(t native.KeyType, index int) native.Key {
		return native.Key{Type: t, Holder: account}
	}
}

// derivedHolder rotates a capability to an unrecoverable public key derived
// from the seed.
func derivedHolder(seed [32]byte) holderFunc {
	return func(t native.KeyType, index int) native.Key {
		return native.Key{Type: t, Ed25519: DeriveNeutralKey(seed, t, index)}
	}
}

// keysFor translates a key bitmask into the ordered key list a creation or
// rotation call needs. Entries always come out in canonical order (admin,
// kyc, freeze, wipe, supply, fee, pause) no matter which bits are set; an
// empty mask yields an empty slice.
func keysFor(mask uint8, holder holderFunc) []native.Key {
	var keys []native.Key
	for _, t := range native.KeyTypes {
		if mask&uint8(t) == 0 {
			continue
		}
		keys = append(keys, holder(t, len(keys)+1))
	}
	return keys
}

// DeriveNeutralKey computes the replacement public key for one neutralized
// capability: SHA3-256 over the seed, the key type byte and the 1-based
// selection index. The derivation is published so third parties can verify
// a neutralization record independently.
func DeriveNeutralKey(seed [32]byte, t native.KeyType, index int) []byte {
	buf := make([]byte, 0, len(seed)+2)
	buf = append(buf, seed[:]...)
	buf = append(buf, byte(t), byte(index))
	sum := sha3.Sum256(buf)
	return sum[:]
}
