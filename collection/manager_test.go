package collection

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativemint/nfm/native"
)

// every capability except kyc, so transfers need no grants
var testMask = native.KeyMaskAll &^ uint8(native.KeyKYC)

func TestInitializeLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	recipient := testAddress(9)

	_, err := env.mgr.MintTo(ctx, env.owner, recipient, []byte("a"))
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, env.mgr.Pause(ctx, env.owner), ErrNotInitialized)
	assert.ErrorIs(t, env.mgr.Burn(ctx, env.owner, 1), ErrNotInitialized)
	_, err = env.mgr.TokenByIndex(ctx, 0)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = env.mgr.Initialize(ctx, testAddress(7), InitConfig{Name: "x", Symbol: "X"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, env.mgr.Initialized())

	_, err = env.mgr.Initialize(ctx, env.owner, InitConfig{Name: "x", Symbol: "X", KeyMask: 255})
	assert.ErrorIs(t, err, ErrKeyMaskRange)

	token := env.initialize(t, uint8(native.KeyAdmin)|uint8(native.KeySupply))
	assert.True(t, env.mgr.Initialized())
	assert.Equal(t, token, env.mgr.TokenAddress())

	_, err = env.mgr.Initialize(ctx, env.owner, InitConfig{Name: "y", Symbol: "Y"})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.Equal(t, token, env.mgr.TokenAddress())
}

func TestInitializeCreateFailure(t *testing.T) {
	ctx := context.Background()
	self, owner := testAddress(1), testAddress(2)
	ledger := native.NewMemLedger(decimal.RequireFromString("5"))
	mgr, err := NewManager(self, owner, ledger, ledger, &memStore{}, zerolog.Nop())
	require.NoError(t, err)

	_, err = mgr.Initialize(ctx, owner, InitConfig{Name: "x", Symbol: "X", Payment: decimal.Zero})
	var ce *native.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "createCollection", ce.Op)
	assert.Equal(t, native.CodeInsufficientPayment, ce.Code)
	assert.False(t, mgr.Initialized())
	assert.True(t, mgr.TokenAddress().IsZero())

	_, err = mgr.Initialize(ctx, owner, InitConfig{Name: "x", Symbol: "X", Payment: decimal.RequireFromString("5")})
	require.NoError(t, err)
	assert.True(t, mgr.Initialized())
}

func TestMintMonotonicSerials(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	token := env.initialize(t, testMask)
	recipient := testAddress(9)

	for want := int64(1); want <= 3; want++ {
		serial, err := env.mgr.MintTo(ctx, env.owner, recipient, []byte{byte(want)})
		require.NoError(t, err)
		assert.Equal(t, want, serial)
		assert.Equal(t, want, env.mgr.LastIssuedSerial())
	}

	owner, err := env.ledger.OwnerOf(ctx, token, 1)
	require.NoError(t, err)
	assert.Equal(t, recipient, owner)
}

func TestMintValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.initialize(t, testMask)
	recipient := testAddress(9)

	_, err := env.mgr.MintTo(ctx, testAddress(7), recipient, []byte("a"))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.mgr.MintTo(ctx, env.owner, native.Address{}, []byte("a"))
	assert.ErrorIs(t, err, ErrZeroRecipient)

	_, err = env.mgr.MintTo(ctx, env.owner, recipient, make([]byte, native.MaxMetadataSize+1))
	assert.ErrorIs(t, err, ErrMetadataTooLarge)

	_, err = env.mgr.MintTo(ctx, env.owner, recipient, make([]byte, native.MaxMetadataSize))
	assert.NoError(t, err)

	// empty metadata is replaced with the placeholder, not rejected
	_, err = env.mgr.MintTo(ctx, env.owner, recipient, nil)
	assert.NoError(t, err)
}

func TestMintAtomicity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.initialize(t, testMask)
	frozen, recipient := testAddress(8), testAddress(9)

	require.NoError(t, env.mgr.Freeze(ctx, env.owner, frozen))

	_, err := env.mgr.MintTo(ctx, env.owner, frozen, []byte("a"))
	var ce *native.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "transferFrom", ce.Op)
	assert.Equal(t, native.CodeAccountFrozen, ce.Code)
	assert.Equal(t, int64(0), env.mgr.LastIssuedSerial())

	// the raw mint was unwound with the transfer: the next serial is still 1
	serial, err := env.mgr.MintTo(ctx, env.owner, recipient, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), serial)
}

func TestBurn(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	token := env.initialize(t, testMask)
	holder := testAddress(9)

	serial, err := env.mgr.MintTo(ctx, env.owner, holder, []byte("a"))
	require.NoError(t, err)

	// not in treasury custody
	err = env.mgr.Burn(ctx, env.owner, uint64(serial))
	var ce *native.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, native.CodeWrongOwner, ce.Code)

	// pulling without a prior approval fails
	err = env.mgr.BurnFrom(ctx, env.owner, holder, uint64(serial))
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "transferFrom", ce.Op)
	assert.Equal(t, native.CodeNotApproved, ce.Code)

	require.NoError(t, env.ledger.Approve(ctx, holder, token, env.self, serial))
	require.NoError(t, env.mgr.BurnFrom(ctx, env.owner, holder, uint64(serial)))

	_, err = env.ledger.OwnerOf(ctx, token, serial)
	assert.ErrorIs(t, err, native.ErrSerialNotFound)

	err = env.mgr.BurnFrom(ctx, env.owner, holder, uint64(serial))
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "ownerOf", ce.Op)
	assert.Equal(t, native.CodeInvalidSerial, ce.Code)
}

func TestBurnSerialOverflow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.initialize(t, testMask)

	err := env.mgr.Burn(ctx, env.owner, uint64(math.MaxInt64)+1)
	assert.ErrorIs(t, err, ErrNumericOverflow)
	err = env.mgr.Wipe(ctx, env.owner, testAddress(9), []uint64{uint64(math.MaxInt64) + 1})
	assert.ErrorIs(t, err, ErrNumericOverflow)
}

func TestKYCGating(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.initialize(t, native.KeyMaskAll)
	recipient := testAddress(9)

	_, err := env.mgr.MintTo(ctx, env.owner, recipient, []byte("a"))
	var ce *native.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, native.CodeNoKYC, ce.Code)

	require.NoError(t, env.mgr.GrantKYC(ctx, env.owner, recipient))
	_, err = env.mgr.MintTo(ctx, env.owner, recipient, []byte("a"))
	require.NoError(t, err)

	require.NoError(t, env.mgr.RevokeKYC(ctx, env.owner, recipient))
	_, err = env.mgr.MintTo(ctx, env.owner, recipient, []byte("a"))
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, native.CodeNoKYC, ce.Code)
}

func TestPauseBlocksMint(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.initialize(t, testMask)
	recipient := testAddress(9)

	require.NoError(t, env.mgr.Pause(ctx, env.owner))
	_, err := env.mgr.MintTo(ctx, env.owner, recipient, []byte("a"))
	var ce *native.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, native.CodeTokenPaused, ce.Code)

	require.NoError(t, env.mgr.Unpause(ctx, env.owner))
	_, err = env.mgr.MintTo(ctx, env.owner, recipient, []byte("a"))
	assert.NoError(t, err)
}

func TestFreezeBlocksTransfers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.initialize(t, testMask)
	recipient := testAddress(9)

	require.NoError(t, env.mgr.Freeze(ctx, env.owner, recipient))
	_, err := env.mgr.MintTo(ctx, env.owner, recipient, []byte("a"))
	var ce *native.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, native.CodeAccountFrozen, ce.Code)

	require.NoError(t, env.mgr.Unfreeze(ctx, env.owner, recipient))
	_, err = env.mgr.MintTo(ctx, env.owner, recipient, []byte("a"))
	assert.NoError(t, err)
}

func TestWipe(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	token := env.initialize(t, testMask)
	holder := testAddress(9)

	serial, err := env.mgr.MintTo(ctx, env.owner, holder, []byte("a"))
	require.NoError(t, err)

	err = env.mgr.Wipe(ctx, env.owner, env.self, []uint64{uint64(serial)})
	var ce *native.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, native.CodeCannotWipeTreasury, ce.Code)

	require.NoError(t, env.mgr.Wipe(ctx, env.owner, holder, []uint64{uint64(serial)}))
	_, err = env.ledger.OwnerOf(ctx, token, serial)
	assert.ErrorIs(t, err, native.ErrSerialNotFound)
}

func TestUpdateRoyalties(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.initialize(t, testMask)
	collector := testAddress(5)

	err := env.mgr.UpdateRoyalties(ctx, env.owner, []native.RoyaltyFee{{
		Numerator:   5,
		Denominator: 100,
		FallbackFee: decimal.RequireFromString("0.1"),
		Collector:   collector,
	}})
	assert.NoError(t, err)

	err = env.mgr.UpdateRoyalties(ctx, env.owner, []native.RoyaltyFee{{
		Numerator:   5,
		Denominator: 0,
		Collector:   collector,
	}})
	var ce *native.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "updateRoyalties", ce.Op)
	assert.Equal(t, native.CodeInvalidConfig, ce.Code)
}

func TestDeleteIsTerminal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.initialize(t, testMask)

	require.NoError(t, env.mgr.Delete(ctx, env.owner))
	assert.True(t, env.mgr.Initialized())

	_, err := env.mgr.MintTo(ctx, env.owner, testAddress(9), []byte("a"))
	var ce *native.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, native.CodeTokenDeleted, ce.Code)
}

func TestRotateKeysGates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	external := testAddress(6)

	// the no-op path is gated like any other management call
	assert.ErrorIs(t, env.mgr.RotateKeys(ctx, env.owner, 0, external), ErrNotInitialized)
	err := env.mgr.RotateKeys(ctx, env.owner, uint8(native.KeyPause), external)
	assert.ErrorIs(t, err, ErrNotInitialized)

	env.initialize(t, testMask)

	assert.ErrorIs(t, env.mgr.RotateKeys(ctx, testAddress(7), 0, external), ErrUnauthorized)
	err = env.mgr.RotateKeys(ctx, env.owner, 255, external)
	assert.ErrorIs(t, err, ErrKeyMaskRange)
	err = env.mgr.RotateKeys(ctx, env.owner, uint8(native.KeyPause), native.Address{})
	assert.ErrorIs(t, err, ErrZeroRecipient)
}

func TestRotateKeys(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.initialize(t, testMask)
	external := testAddress(6)

	// empty mask is a no-op
	require.NoError(t, env.mgr.RotateKeys(ctx, env.owner, 0, external))

	require.NoError(t, env.mgr.RotateKeys(ctx, env.owner, uint8(native.KeySupply), external))
	_, err := env.mgr.MintTo(ctx, env.owner, testAddress(9), []byte("a"))
	var ce *native.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "mint", ce.Op)
	assert.Equal(t, native.CodeKeyNotAuthorized, ce.Code)
}

func TestAuthorizerOverride(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.initialize(t, testMask)
	operator := testAddress(7)

	_, err := env.mgr.MintTo(ctx, operator, testAddress(9), []byte("a"))
	assert.ErrorIs(t, err, ErrUnauthorized)

	env.mgr.SetAuthorizer(func(caller native.Address) bool {
		return caller == env.owner || caller == operator
	})
	_, err = env.mgr.MintTo(ctx, operator, testAddress(9), []byte("a"))
	assert.NoError(t, err)
}
