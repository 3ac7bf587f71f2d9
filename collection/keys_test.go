package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nativemint/nfm/native"
)

func TestKeysForEmptyMask(t *testing.T) {
	assert.Empty(t, keysFor(0, contractHolder(testAddress(1))))
}

func TestKeysForCanonicalOrder(t *testing.T) {
	self := testAddress(1)

	mask := uint8(native.KeyAdmin) | uint8(native.KeySupply) | uint8(native.KeyPause)
	keys := keysFor(mask, contractHolder(self))
	assert.Len(t, keys, 3)
	assert.Equal(t, native.KeyAdmin, keys[0].Type)
	assert.Equal(t, native.KeySupply, keys[1].Type)
	assert.Equal(t, native.KeyPause, keys[2].Type)
	for _, k := range keys {
		assert.Equal(t, self, k.Holder)
		assert.Nil(t, k.Ed25519)
	}

	keys = keysFor(native.KeyMaskAll, contractHolder(self))
	assert.Len(t, keys, 7)
	for i, kt := range native.KeyTypes {
		assert.Equal(t, kt, keys[i].Type)
	}
}

func TestKeysForSelectionIndex(t *testing.T) {
	var order []int
	fn := func(kt native.KeyType, index int) native.Key {
		order = append(order, index)
		return native.Key{Type: kt}
	}
	keysFor(uint8(native.KeyKYC)|uint8(native.KeyFeeSchedule), fn)
	assert.Equal(t, []int{1, 2}, order)
}

func TestDeriveNeutralKey(t *testing.T) {
	var seed [32]byte
	seed[0] = 0xff

	a := DeriveNeutralKey(seed, native.KeyAdmin, 1)
	b := DeriveNeutralKey(seed, native.KeyAdmin, 1)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	assert.NotEqual(t, a, DeriveNeutralKey(seed, native.KeySupply, 1))
	assert.NotEqual(t, a, DeriveNeutralKey(seed, native.KeyAdmin, 2))

	var other [32]byte
	assert.NotEqual(t, a, DeriveNeutralKey(other, native.KeyAdmin, 1))
}
