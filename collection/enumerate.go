package collection

import (
	"context"

	"github.com/nativemint/nfm/native"
)

// TokenByIndex returns the index-th live serial (0-based), scanning serials
// in increasing order. Burned or otherwise unanswerable serials are skipped.
// The scan refuses to start when the issued range exceeds the scan limit;
// that guard is the only defense against unbounded linear cost, and large
// collections should use an off-chain indexer instead.
func (m *Manager) TokenByIndex(ctx context.Context, index int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Initialized {
		return 0, ErrNotInitialized
	}
	if index < 0 {
		return 0, ErrIndexOutOfBounds
	}
	if m.state.LastIssuedSerial > m.state.ScanLimit {
		return 0, ErrScanTooCostly
	}

	var seen int64
	for id := int64(1); id <= m.state.LastIssuedSerial; id++ {
		owner, err := m.svc.OwnerOf(ctx, m.state.Token, id)
		if err != nil || owner.IsZero() {
			continue
		}
		if seen == index {
			return id, nil
		}
		seen++
	}
	return 0, ErrIndexOutOfBounds
}

// TokensOfOwner returns, in ascending order, every live serial among
// 1..maxScan currently owned by owner. A maxScan of zero or beyond the issued
// range is clamped to the issued range.
func (m *Manager) TokensOfOwner(ctx context.Context, owner native.Address, maxScan int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Initialized {
		return nil, ErrNotInitialized
	}
	if m.state.LastIssuedSerial > m.state.ScanLimit {
		return nil, ErrScanTooCostly
	}
	if maxScan <= 0 || maxScan > m.state.LastIssuedSerial {
		maxScan = m.state.LastIssuedSerial
	}

	var serials []int64
	for id := int64(1); id <= maxScan; id++ {
		cur, err := m.svc.OwnerOf(ctx, m.state.Token, id)
		if err != nil || cur.IsZero() {
			continue
		}
		if cur == owner {
			serials = append(serials, id)
		}
	}
	return serials, nil
}

// SetScanLimit adjusts the enumeration cost ceiling. Zero and values above
// MaxScanLimit are rejected.
func (m *Manager) SetScanLimit(caller native.Address, limit int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Initialized {
		return ErrNotInitialized
	}
	if !m.authorize(caller) {
		return ErrUnauthorized
	}
	if limit <= 0 || limit > MaxScanLimit {
		return ErrScanLimitRange
	}

	next := m.state
	next.ScanLimit = limit
	if err := m.store.WriteState(&next); err != nil {
		return err
	}
	m.state = next
	return nil
}
