package native

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Address is a 20-byte ledger account or contract address.
type Address [20]byte

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func AddressFromHex(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("invalid address %s", s)
	}
	if len(b) != len(a) {
		return a, fmt.Errorf("invalid address length %d", len(b))
	}
	copy(a[:], b)
	return a, nil
}

// KeyType identifies one token capability. The values double as the bits of
// the key mask accepted by collection creation and key rotation.
type KeyType uint8

const (
	KeyAdmin       KeyType = 1
	KeyKYC         KeyType = 2
	KeyFreeze      KeyType = 4
	KeyWipe        KeyType = 8
	KeySupply      KeyType = 16
	KeyFeeSchedule KeyType = 32
	KeyPause       KeyType = 64

	KeyMaskAll uint8 = 127
)

// KeyTypes lists every capability in canonical order. Key arrays sent to the
// token service are always built in this order.
var KeyTypes = []KeyType{
	KeyAdmin,
	KeyKYC,
	KeyFreeze,
	KeyWipe,
	KeySupply,
	KeyFeeSchedule,
	KeyPause,
}

func (t KeyType) String() string {
	switch t {
	case KeyAdmin:
		return "admin"
	case KeyKYC:
		return "kyc"
	case KeyFreeze:
		return "freeze"
	case KeyWipe:
		return "wipe"
	case KeySupply:
		return "supply"
	case KeyFeeSchedule:
		return "fee"
	case KeyPause:
		return "pause"
	}
	panic(t)
}

// Key assigns one capability to a holder. Either Holder is a ledger address
// that controls the capability, or Ed25519 is a raw 32-byte public key.
type Key struct {
	Type    KeyType
	Holder  Address
	Ed25519 []byte
}

// RoyaltyFee is one entry of a collection's fee schedule. The fallback fee is
// charged in native currency when an exchange has no fungible value.
type RoyaltyFee struct {
	Numerator   int64
	Denominator int64
	FallbackFee decimal.Decimal
	Collector   Address
}

type SupplyType int

const (
	SupplyInfinite SupplyType = iota
	SupplyFinite
)

// CollectionConfig is the creation payload for a non-fungible collection.
type CollectionConfig struct {
	Name             string
	Symbol           string
	Memo             string
	Treasury         Address
	FreezeDefault    bool
	SupplyType       SupplyType
	MaxSupply        int64
	Keys             []Key
	AutoRenewAccount Address
	AutoRenewPeriod  int64
	Payment          decimal.Decimal
}

// MaxMetadataSize is the per-serial metadata ceiling enforced by the token
// service.
const MaxMetadataSize = 100
