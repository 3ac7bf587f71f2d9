package collection

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nativemint/nfm/native"
)

const (
	// DefaultAutoRenewPeriod is 90 days in seconds.
	DefaultAutoRenewPeriod int64 = 7776000

	DefaultScanLimit int64 = 10000
	MaxScanLimit     int64 = 1000000
)

// metadataPlaceholder replaces empty mint metadata, which the token service
// rejects outright.
var metadataPlaceholder = []byte{0x20}

// InitConfig is the one-time collection creation request.
type InitConfig struct {
	Name             string
	Symbol           string
	Memo             string
	KeyMask          uint8
	FreezeDefault    bool
	AutoRenewAccount native.Address
	AutoRenewPeriod  int64
	Payment          decimal.Decimal
}

// Manager administers one non-fungible collection backed by the host token
// service. It validates requests, issues the external calls and keeps only
// the mirror fields it genuinely owns. Operations are serialized by a single
// mutex, so an external call can never reenter the manager mid-operation.
type Manager struct {
	mu sync.Mutex

	self  native.Address
	owner native.Address
	svc   native.Service
	rand  native.Randomness
	store Store
	log   zerolog.Logger

	// authorize gates every governance operation. Defaults to caller == owner.
	authorize func(caller native.Address) bool

	state State
}

func NewManager(self, owner native.Address, svc native.Service, rand native.Randomness, store Store, logger zerolog.Logger) (*Manager, error) {
	if self.IsZero() || owner.IsZero() {
		return nil, fmt.Errorf("invalid manager addresses %s %s", self, owner)
	}
	m := &Manager{
		self:  self,
		owner: owner,
		svc:   svc,
		rand:  rand,
		store: store,
		log:   logger.With().Str("module", "collection").Logger(),
	}
	m.authorize = func(caller native.Address) bool {
		return caller == m.owner
	}

	s, err := store.ReadState()
	if err != nil {
		return nil, err
	}
	if s != nil {
		m.state = *s
	}
	if m.state.ScanLimit == 0 {
		m.state.ScanLimit = DefaultScanLimit
	}
	return m, nil
}

// SetAuthorizer replaces the governance predicate.
func (m *Manager) SetAuthorizer(fn func(caller native.Address) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authorize = fn
}

func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Initialized
}

func (m *Manager) TokenAddress() native.Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Token
}

func (m *Manager) LastIssuedSerial() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.LastIssuedSerial
}

func (m *Manager) ScanLimit() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ScanLimit
}

// Initialize creates the backing token. It can succeed at most once; every
// failure leaves the manager exactly as it was, so there is no reachable
// "initialized but broken" state.
func (m *Manager) Initialize(ctx context.Context, caller native.Address, cfg InitConfig) (native.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Initialized {
		return native.Address{}, ErrAlreadyInitialized
	}
	if !m.authorize(caller) {
		return native.Address{}, ErrUnauthorized
	}
	if cfg.KeyMask&^native.KeyMaskAll != 0 {
		return native.Address{}, ErrKeyMaskRange
	}

	renewAccount := cfg.AutoRenewAccount
	if renewAccount.IsZero() {
		renewAccount = m.self
	}
	renewPeriod := cfg.AutoRenewPeriod
	if renewPeriod <= 0 {
		renewPeriod = DefaultAutoRenewPeriod
	}

	create := &native.CollectionConfig{
		Name:             cfg.Name,
		Symbol:           cfg.Symbol,
		Memo:             cfg.Memo,
		Treasury:         m.self,
		FreezeDefault:    cfg.FreezeDefault,
		SupplyType:       native.SupplyInfinite,
		MaxSupply:        0,
		Keys:             keysFor(cfg.KeyMask, contractHolder(m.self)),
		AutoRenewAccount: renewAccount,
		AutoRenewPeriod:  renewPeriod,
		Payment:          cfg.Payment,
	}

	var token native.Address
	err := m.svc.Update(ctx, m.self, func(txn native.Txn) error {
		code, addr := txn.CreateCollection(create)
		if code != native.CodeOK {
			return &native.CallError{Op: "createCollection", Code: code}
		}
		if addr.IsZero() {
			return &native.CallError{Op: "createCollection", Code: native.CodeCallFailed}
		}
		token = addr
		return nil
	})
	if err != nil {
		return native.Address{}, err
	}

	next := m.state
	next.Token = token
	next.Initialized = true
	if err := m.store.WriteState(&next); err != nil {
		return native.Address{}, err
	}
	m.state = next
	m.log.Info().Str("token", token.String()).Msg("collection initialized")
	return token, nil
}

// MintTo issues one serial into the treasury and forwards it to recipient in
// the same host transaction. Both steps succeed or neither does.
func (m *Manager) MintTo(ctx context.Context, caller, recipient native.Address, metadata []byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Initialized {
		return 0, ErrNotInitialized
	}
	if !m.authorize(caller) {
		return 0, ErrUnauthorized
	}
	if recipient.IsZero() {
		return 0, ErrZeroRecipient
	}
	if len(metadata) > native.MaxMetadataSize {
		return 0, ErrMetadataTooLarge
	}
	if len(metadata) == 0 {
		metadata = metadataPlaceholder
	}

	var serial int64
	err := m.svc.Update(ctx, m.self, func(txn native.Txn) error {
		code, serials := txn.Mint(m.state.Token, [][]byte{metadata})
		if code != native.CodeOK {
			return &native.CallError{Op: "mint", Code: code}
		}
		if len(serials) != 1 {
			return &native.CallError{Op: "mint", Code: native.CodeCallFailed}
		}
		serial = serials[0]

		if code := txn.TransferFrom(m.state.Token, m.self, recipient, serial); code != native.CodeOK {
			return &native.CallError{Op: "transferFrom", Code: code}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	next := m.state
	next.LastIssuedSerial = serial
	if err := m.store.WriteState(&next); err != nil {
		return 0, err
	}
	m.state = next
	m.log.Info().Int64("serial", serial).Str("recipient", recipient.String()).Msg("minted")
	return serial, nil
}

// Burn destroys a serial already held by the treasury.
func (m *Manager) Burn(ctx context.Context, caller native.Address, serial uint64) error {
	return m.burn(ctx, caller, m.self, serial, false)
}

// BurnFrom pulls a serial from holder into the treasury first, which requires
// the holder to have approved the treasury on the token beforehand, then
// burns it.
func (m *Manager) BurnFrom(ctx context.Context, caller, holder native.Address, serial uint64) error {
	return m.burn(ctx, caller, holder, serial, true)
}

func (m *Manager) burn(ctx context.Context, caller, holder native.Address, serial uint64, pull bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Initialized {
		return ErrNotInitialized
	}
	if !m.authorize(caller) {
		return ErrUnauthorized
	}
	if serial > math.MaxInt64 {
		return ErrNumericOverflow
	}
	id := int64(serial)

	err := m.svc.Update(ctx, m.self, func(txn native.Txn) error {
		if pull {
			owner, err := txn.OwnerOf(m.state.Token, id)
			if err != nil {
				return &native.CallError{Op: "ownerOf", Code: native.CodeInvalidSerial}
			}
			if owner != m.self {
				if code := txn.TransferFrom(m.state.Token, holder, m.self, id); code != native.CodeOK {
					return &native.CallError{Op: "transferFrom", Code: code}
				}
			}
		}
		if code := txn.Burn(m.state.Token, []int64{id}); code != native.CodeOK {
			return &native.CallError{Op: "burn", Code: code}
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.log.Info().Int64("serial", id).Msg("burned")
	return nil
}

// control is the shared path of every management passthrough: authorize,
// require initialization, issue exactly one external call, surface any
// non-success code as a CallError.
func (m *Manager) control(ctx context.Context, caller native.Address, op string, fn func(txn native.Txn, token native.Address) native.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Initialized {
		return ErrNotInitialized
	}
	if !m.authorize(caller) {
		return ErrUnauthorized
	}

	err := m.svc.Update(ctx, m.self, func(txn native.Txn) error {
		if code := fn(txn, m.state.Token); code != native.CodeOK {
			return &native.CallError{Op: op, Code: code}
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.log.Info().Str("op", op).Msg("management call succeeded")
	return nil
}

func (m *Manager) GrantKYC(ctx context.Context, caller, account native.Address) error {
	return m.control(ctx, caller, "grantKYC", func(txn native.Txn, token native.Address) native.Code {
		return txn.GrantKYC(token, account)
	})
}

func (m *Manager) RevokeKYC(ctx context.Context, caller, account native.Address) error {
	return m.control(ctx, caller, "revokeKYC", func(txn native.Txn, token native.Address) native.Code {
		return txn.RevokeKYC(token, account)
	})
}

func (m *Manager) Freeze(ctx context.Context, caller, account native.Address) error {
	return m.control(ctx, caller, "freeze", func(txn native.Txn, token native.Address) native.Code {
		return txn.Freeze(token, account)
	})
}

func (m *Manager) Unfreeze(ctx context.Context, caller, account native.Address) error {
	return m.control(ctx, caller, "unfreeze", func(txn native.Txn, token native.Address) native.Code {
		return txn.Unfreeze(token, account)
	})
}

func (m *Manager) Pause(ctx context.Context, caller native.Address) error {
	return m.control(ctx, caller, "pause", func(txn native.Txn, token native.Address) native.Code {
		return txn.Pause(token)
	})
}

func (m *Manager) Unpause(ctx context.Context, caller native.Address) error {
	return m.control(ctx, caller, "unpause", func(txn native.Txn, token native.Address) native.Code {
		return txn.Unpause(token)
	})
}

func (m *Manager) Wipe(ctx context.Context, caller, account native.Address, serials []uint64) error {
	ids := make([]int64, len(serials))
	for i, s := range serials {
		if s > math.MaxInt64 {
			return ErrNumericOverflow
		}
		ids[i] = int64(s)
	}
	return m.control(ctx, caller, "wipe", func(txn native.Txn, token native.Address) native.Code {
		return txn.Wipe(token, account, ids)
	})
}

func (m *Manager) UpdateRoyalties(ctx context.Context, caller native.Address, fees []native.RoyaltyFee) error {
	return m.control(ctx, caller, "updateRoyalties", func(txn native.Txn, token native.Address) native.Code {
		return txn.UpdateRoyalties(token, fees)
	})
}

// Delete permanently removes the backing token. The manager's own
// initialized flag is never reset, so the collection cannot be recreated
// through this facade.
func (m *Manager) Delete(ctx context.Context, caller native.Address) error {
	return m.control(ctx, caller, "delete", func(txn native.Txn, token native.Address) native.Code {
		return txn.Delete(token)
	})
}

// RotateKeys reassigns the selected capabilities to an externally supplied
// holder in a single key update. An empty mask is a no-op, gated like every
// other management call.
func (m *Manager) RotateKeys(ctx context.Context, caller native.Address, mask uint8, holder native.Address) error {
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
		return nil
	}
	if holder.IsZero() {
		return ErrZeroRecipient
	}

	keys := keysFor(mask, accountHolder(holder))
	err := m.svc.Update(ctx, m.self, func(txn native.Txn) error {
		if code := txn.UpdateKeys(m.state.Token, keys); code != native.CodeOK {
			return &native.CallError{Op: "updateKeys", Code: code}
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.log.Info().Str("op", "updateKeys").Msg("management call succeeded")
	return nil
}
