package collection

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/nativemint/nfm/native"
)

// Neutralize irreversibly disables the selected capabilities by rotating them
// to freshly derived public keys nobody holds a private key for. Selecting
// the admin key requires the explicit confirm flag, since that forecloses all
// future rotations. The seed and mask are persisted as the audit trail; the
// derivation is DeriveNeutralKey, so any third party can recompute every
// replacement key from the record.
func (m *Manager) Neutralize(ctx context.Context, caller native.Address, mask uint8, confirm bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Initialized {
		return ErrNotInitialized
	}
	if !m.authorize(caller) {
		return ErrUnauthorized
	}
	if mask&^native.KeyMaskAll != 0 {
		return ErrKeyMaskRange
	}
	if mask == 0 {
		return ErrNoKeysSelected
	}
	if mask&uint8(native.KeyAdmin) != 0 && !confirm {
		return ErrAdminConfirmRequired
	}

	seed, err := m.rand.Seed(ctx)
	if err != nil {
		return fmt.Errorf("randomness seed: %w", err)
	}

	keys := keysFor(mask, derivedHolder(seed))
	err = m.svc.Update(ctx, m.self, func(txn native.Txn) error {
		if code := txn.UpdateKeys(m.state.Token, keys); code != native.CodeOK {
			return &native.CallError{Op: "updateKeys", Code: code}
		}
		return nil
	})
	if err != nil {
		return err
	}

	record := &Neutralization{
		Mask:      mask,
		Seed:      seed[:],
		CreatedAt: time.Now(),
	}
	if err := m.store.WriteNeutralization(record); err != nil {
		return err
	}
	m.log.Info().
		Uint8("mask", mask).
		Str("seed", hex.EncodeToString(seed[:])).
		Msg("keys neutralized")
	return nil
}
