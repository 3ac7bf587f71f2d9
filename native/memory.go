package native

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrTokenNotFound  = errors.New("token not found")
	ErrSerialNotFound = errors.New("serial not found")
)

// MemLedger is an in-process reference implementation of Service and
// Randomness. It backs the daemon's simulation mode and the test suite, and
// mirrors the host service semantics the facades rely on: sequential 1-based
// serials, treasury custody, key-gated management calls, freeze, KYC and
// pause enforcement, approval checks on third-party transfers.
type MemLedger struct {
	mu          sync.Mutex
	creationFee decimal.Decimal
	tokenSeq    uint64
	tokens      map[Address]*memToken

	// SeedFunc overrides the crypto/rand seed source.
	SeedFunc func() ([32]byte, error)
}

type memToken struct {
	name          string
	symbol        string
	memo          string
	treasury      Address
	freezeDefault bool
	paused        bool
	deleted       bool
	keys          map[KeyType]Key
	fees          []RoyaltyFee
	serialSeq     int64
	serials       map[int64]*memSerial
	frozen        map[Address]bool
	kyc           map[Address]bool
	approvals     map[int64]Address
	operators     map[Address]map[Address]bool
}

type memSerial struct {
	owner    Address
	metadata []byte
}

func NewMemLedger(creationFee decimal.Decimal) *MemLedger {
	return &MemLedger{
		creationFee: creationFee,
		tokens:      make(map[Address]*memToken),
	}
}

func (l *MemLedger) Update(ctx context.Context, caller Address, fn func(Txn) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make(map[Address]*memToken, len(l.tokens))
	for a, t := range l.tokens {
		snapshot[a] = t.clone()
	}
	seq := l.tokenSeq

	err := fn(&memTxn{ledger: l, caller: caller})
	if err != nil {
		l.tokens = snapshot
		l.tokenSeq = seq
	}
	return err
}

func (l *MemLedger) OwnerOf(ctx context.Context, token Address, serial int64) (Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ownerOf(token, serial)
}

func (l *MemLedger) BalanceOf(ctx context.Context, token, account Address) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.tokens[token]
	if t == nil || t.deleted {
		return 0, ErrTokenNotFound
	}
	var n int64
	for _, s := range t.serials {
		if s.owner == account {
			n++
		}
	}
	return n, nil
}

func (l *MemLedger) GetApproved(ctx context.Context, token Address, serial int64) (Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.tokens[token]
	if t == nil || t.deleted {
		return Address{}, ErrTokenNotFound
	}
	if _, ok := t.serials[serial]; !ok {
		return Address{}, ErrSerialNotFound
	}
	return t.approvals[serial], nil
}

func (l *MemLedger) IsApprovedForAll(ctx context.Context, token Address, owner, operator Address) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.tokens[token]
	if t == nil || t.deleted {
		return false, ErrTokenNotFound
	}
	return t.operators[owner][operator], nil
}

// Approve grants a per-serial transfer allowance, as the standard token
// surface would for a direct holder call.
func (l *MemLedger) Approve(ctx context.Context, caller Address, token Address, spender Address, serial int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.tokens[token]
	if t == nil || t.deleted {
		return ErrTokenNotFound
	}
	s, ok := t.serials[serial]
	if !ok {
		return ErrSerialNotFound
	}
	if s.owner != caller {
		return errors.New("caller does not own serial")
	}
	t.approvals[serial] = spender
	return nil
}

// SetApprovalForAll grants or revokes an operator over every serial the
// caller holds.
func (l *MemLedger) SetApprovalForAll(ctx context.Context, caller Address, token Address, operator Address, approved bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.tokens[token]
	if t == nil || t.deleted {
		return ErrTokenNotFound
	}
	if t.operators[caller] == nil {
		t.operators[caller] = make(map[Address]bool)
	}
	t.operators[caller][operator] = approved
	return nil
}

func (l *MemLedger) Seed(ctx context.Context) ([32]byte, error) {
	if l.SeedFunc != nil {
		return l.SeedFunc()
	}
	var seed [32]byte
	_, err := rand.Read(seed[:])
	return seed, err
}

func (l *MemLedger) ownerOf(token Address, serial int64) (Address, error) {
	t := l.tokens[token]
	if t == nil || t.deleted {
		return Address{}, ErrTokenNotFound
	}
	s, ok := t.serials[serial]
	if !ok {
		return Address{}, ErrSerialNotFound
	}
	return s.owner, nil
}

func (t *memToken) clone() *memToken {
	n := *t
	n.keys = make(map[KeyType]Key, len(t.keys))
	for k, v := range t.keys {
		n.keys[k] = v
	}
	n.fees = append([]RoyaltyFee(nil), t.fees...)
	n.serials = make(map[int64]*memSerial, len(t.serials))
	for id, s := range t.serials {
		c := *s
		n.serials[id] = &c
	}
	n.frozen = make(map[Address]bool, len(t.frozen))
	for a, v := range t.frozen {
		n.frozen[a] = v
	}
	n.kyc = make(map[Address]bool, len(t.kyc))
	for a, v := range t.kyc {
		n.kyc[a] = v
	}
	n.approvals = make(map[int64]Address, len(t.approvals))
	for id, a := range t.approvals {
		n.approvals[id] = a
	}
	n.operators = make(map[Address]map[Address]bool, len(t.operators))
	for a, ops := range t.operators {
		m := make(map[Address]bool, len(ops))
		for o, v := range ops {
			m[o] = v
		}
		n.operators[a] = m
	}
	return &n
}

func (t *memToken) frozenFor(account Address) bool {
	if v, ok := t.frozen[account]; ok {
		return v
	}
	return t.freezeDefault
}

func (t *memToken) kycOK(account Address) bool {
	if _, ok := t.keys[KeyKYC]; !ok {
		return true
	}
	return t.kyc[account]
}

type memTxn struct {
	ledger *MemLedger
	caller Address
}

func (tx *memTxn) token(addr Address) (*memToken, Code) {
	t := tx.ledger.tokens[addr]
	if t == nil {
		return nil, CodeInvalidToken
	}
	if t.deleted {
		return nil, CodeTokenDeleted
	}
	return t, CodeOK
}

func (tx *memTxn) keyCode(t *memToken, kt KeyType) Code {
	k, ok := t.keys[kt]
	if !ok {
		return CodeMissingKey
	}
	if k.Holder.IsZero() || k.Holder != tx.caller {
		return CodeKeyNotAuthorized
	}
	return CodeOK
}

func (tx *memTxn) CreateCollection(cfg *CollectionConfig) (Code, Address) {
	if cfg.Name == "" || cfg.Symbol == "" || cfg.Treasury.IsZero() {
		return CodeInvalidConfig, Address{}
	}
	if cfg.Payment.Cmp(tx.ledger.creationFee) < 0 {
		return CodeInsufficientPayment, Address{}
	}

	tx.ledger.tokenSeq++
	var addr Address
	addr[0] = 0x0a
	binary.BigEndian.PutUint64(addr[12:], tx.ledger.tokenSeq)

	t := &memToken{
		name:          cfg.Name,
		symbol:        cfg.Symbol,
		memo:          cfg.Memo,
		treasury:      cfg.Treasury,
		freezeDefault: cfg.FreezeDefault,
		keys:          make(map[KeyType]Key, len(cfg.Keys)),
		serials:       make(map[int64]*memSerial),
		frozen:        map[Address]bool{cfg.Treasury: false},
		kyc:           map[Address]bool{cfg.Treasury: true},
		approvals:     make(map[int64]Address),
		operators:     make(map[Address]map[Address]bool),
	}
	for _, k := range cfg.Keys {
		t.keys[k.Type] = k
	}
	tx.ledger.tokens[addr] = t
	return CodeOK, addr
}

func (tx *memTxn) Mint(token Address, metadata [][]byte) (Code, []int64) {
	t, code := tx.token(token)
	if code != CodeOK {
		return code, nil
	}
	if t.paused {
		return CodeTokenPaused, nil
	}
	if code := tx.keyCode(t, KeySupply); code != CodeOK {
		return code, nil
	}
	for _, md := range metadata {
		if len(md) == 0 {
			return CodeInvalidConfig, nil
		}
		if len(md) > MaxMetadataSize {
			return CodeMetadataTooLong, nil
		}
	}

	serials := make([]int64, 0, len(metadata))
	for _, md := range metadata {
		t.serialSeq++
		t.serials[t.serialSeq] = &memSerial{
			owner:    t.treasury,
			metadata: append([]byte(nil), md...),
		}
		serials = append(serials, t.serialSeq)
	}
	return CodeOK, serials
}

func (tx *memTxn) Burn(token Address, serials []int64) Code {
	t, code := tx.token(token)
	if code != CodeOK {
		return code
	}
	if t.paused {
		return CodeTokenPaused
	}
	if code := tx.keyCode(t, KeySupply); code != CodeOK {
		return code
	}
	for _, id := range serials {
		s, ok := t.serials[id]
		if !ok {
			return CodeInvalidSerial
		}
		if s.owner != t.treasury {
			return CodeWrongOwner
		}
	}
	for _, id := range serials {
		delete(t.serials, id)
		delete(t.approvals, id)
	}
	return CodeOK
}

func (tx *memTxn) TransferFrom(token Address, from, to Address, serial int64) Code {
	t, code := tx.token(token)
	if code != CodeOK {
		return code
	}
	if t.paused {
		return CodeTokenPaused
	}
	if to.IsZero() {
		return CodeInvalidAccount
	}
	s, ok := t.serials[serial]
	if !ok {
		return CodeInvalidSerial
	}
	if s.owner != from {
		return CodeWrongOwner
	}
	if t.frozenFor(from) || t.frozenFor(to) {
		return CodeAccountFrozen
	}
	if !t.kycOK(from) || !t.kycOK(to) {
		return CodeNoKYC
	}
	if tx.caller != from && t.approvals[serial] != tx.caller && !t.operators[from][tx.caller] {
		return CodeNotApproved
	}

	s.owner = to
	delete(t.approvals, serial)
	return CodeOK
}

func (tx *memTxn) GrantKYC(token, account Address) Code {
	return tx.accountOp(token, account, KeyKYC, func(t *memToken) {
		t.kyc[account] = true
	})
}

func (tx *memTxn) RevokeKYC(token, account Address) Code {
	return tx.accountOp(token, account, KeyKYC, func(t *memToken) {
		t.kyc[account] = false
	})
}

func (tx *memTxn) Freeze(token, account Address) Code {
	return tx.accountOp(token, account, KeyFreeze, func(t *memToken) {
		t.frozen[account] = true
	})
}

func (tx *memTxn) Unfreeze(token, account Address) Code {
	return tx.accountOp(token, account, KeyFreeze, func(t *memToken) {
		t.frozen[account] = false
	})
}

func (tx *memTxn) accountOp(token, account Address, kt KeyType, apply func(*memToken)) Code {
	t, code := tx.token(token)
	if code != CodeOK {
		return code
	}
	if account.IsZero() {
		return CodeInvalidAccount
	}
	if code := tx.keyCode(t, kt); code != CodeOK {
		return code
	}
	apply(t)
	return CodeOK
}

func (tx *memTxn) Pause(token Address) Code {
	return tx.tokenOp(token, KeyPause, func(t *memToken) {
		t.paused = true
	})
}

func (tx *memTxn) Unpause(token Address) Code {
	return tx.tokenOp(token, KeyPause, func(t *memToken) {
		t.paused = false
	})
}

func (tx *memTxn) Delete(token Address) Code {
	return tx.tokenOp(token, KeyAdmin, func(t *memToken) {
		t.deleted = true
	})
}

func (tx *memTxn) tokenOp(token Address, kt KeyType, apply func(*memToken)) Code {
	t, code := tx.token(token)
	if code != CodeOK {
		return code
	}
	if code := tx.keyCode(t, kt); code != CodeOK {
		return code
	}
	apply(t)
	return CodeOK
}

func (tx *memTxn) Wipe(token, account Address, serials []int64) Code {
	t, code := tx.token(token)
	if code != CodeOK {
		return code
	}
	if account.IsZero() {
		return CodeInvalidAccount
	}
	if account == t.treasury {
		return CodeCannotWipeTreasury
	}
	if code := tx.keyCode(t, KeyWipe); code != CodeOK {
		return code
	}
	for _, id := range serials {
		s, ok := t.serials[id]
		if !ok {
			return CodeInvalidSerial
		}
		if s.owner != account {
			return CodeWrongOwner
		}
	}
	for _, id := range serials {
		delete(t.serials, id)
		delete(t.approvals, id)
	}
	return CodeOK
}

func (tx *memTxn) UpdateKeys(token Address, keys []Key) Code {
	t, code := tx.token(token)
	if code != CodeOK {
		return code
	}
	if code := tx.keyCode(t, KeyAdmin); code != CodeOK {
		return code
	}
	for _, k := range keys {
		t.keys[k.Type] = k
	}
	return CodeOK
}

func (tx *memTxn) UpdateRoyalties(token Address, fees []RoyaltyFee) Code {
	t, code := tx.token(token)
	if code != CodeOK {
		return code
	}
	if code := tx.keyCode(t, KeyFeeSchedule); code != CodeOK {
		return code
	}
	for _, f := range fees {
		if f.Numerator <= 0 || f.Denominator <= 0 || f.Numerator > f.Denominator {
			return CodeInvalidConfig
		}
		if f.Collector.IsZero() {
			return CodeInvalidAccount
		}
	}
	t.fees = append([]RoyaltyFee(nil), fees...)
	return CodeOK
}

func (tx *memTxn) OwnerOf(token Address, serial int64) (Address, error) {
	return tx.ledger.ownerOf(token, serial)
}
