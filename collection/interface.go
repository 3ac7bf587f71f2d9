package collection

import (
	"time"

	"github.com/nativemint/nfm/native"
)

// State holds the few fields the manager genuinely owns. Everything else
// about the collection lives in the token service and is never cached.
type State struct {
	Token            native.Address
	Initialized      bool
	LastIssuedSerial int64
	ScanLimit        int64
}

// Neutralization is the audit record of one key neutralization. Anyone can
// recompute the derived keys from the seed and verify that no known private
// key corresponds to them.
type Neutralization struct {
	Mask      uint8
	Seed      []byte
	CreatedAt time.Time
}

type Store interface {
	ReadState() (*State, error)
	WriteState(s *State) error

	WriteNeutralization(r *Neutralization) error
	ListNeutralizations(limit int) ([]*Neutralization, error)
}
