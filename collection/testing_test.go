package collection

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nativemint/nfm/native"
)

func testAddress(b byte) native.Address {
	var a native.Address
	a[19] = b
	return a
}

type memStore struct {
	state   *State
	records []*Neutralization
}

func (s *memStore) ReadState() (*State, error) {
	if s.state == nil {
		return nil, nil
	}
	c := *s.state
	return &c, nil
}

func (s *memStore) WriteState(st *State) error {
	c := *st
	s.state = &c
	return nil
}

func (s *memStore) WriteNeutralization(r *Neutralization) error {
	s.records = append(s.records, r)
	return nil
}

func (s *memStore) ListNeutralizations(limit int) ([]*Neutralization, error) {
	if limit > 0 && limit < len(s.records) {
		return s.records[:limit], nil
	}
	return s.records, nil
}

type testEnv struct {
	self, owner native.Address
	ledger      *native.MemLedger
	store       *memStore
	mgr         *Manager
}

func newTestEnv(t *testing.T, svc native.Service) *testEnv {
	env := &testEnv{
		self:   testAddress(1),
		owner:  testAddress(2),
		ledger: native.NewMemLedger(decimal.Zero),
		store:  &memStore{},
	}
	if svc == nil {
		svc = env.ledger
	}
	mgr, err := NewManager(env.self, env.owner, svc, env.ledger, env.store, zerolog.Nop())
	require.NoError(t, err)
	env.mgr = mgr
	return env
}

func (env *testEnv) initialize(t *testing.T, mask uint8) native.Address {
	token, err := env.mgr.Initialize(context.Background(), env.owner, InitConfig{
		Name:    "Test Collection",
		Symbol:  "TST",
		Memo:    "test",
		KeyMask: mask,
		Payment: decimal.Zero,
	})
	require.NoError(t, err)
	require.False(t, token.IsZero())
	return token
}
