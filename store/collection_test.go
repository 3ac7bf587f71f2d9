package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nativemint/nfm/collection"
	"github.com/nativemint/nfm/native"
)

func openTestStore(t *testing.T) *BadgerStore {
	bs, err := OpenBadger(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		bs.Close()
	})
	return bs
}

func TestCollectionStateRoundtrip(t *testing.T) {
	bs := openTestStore(t)

	s, err := bs.ReadState()
	require.NoError(t, err)
	assert.Nil(t, s)

	var token native.Address
	token[0] = 0x0a
	token[19] = 0x01
	state := &collection.State{
		Token:            token,
		Initialized:      true,
		LastIssuedSerial: 7,
		ScanLimit:        500,
	}
	require.NoError(t, bs.WriteState(state))

	s, err = bs.ReadState()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, token, s.Token)
	assert.True(t, s.Initialized)
	assert.Equal(t, int64(7), s.LastIssuedSerial)
	assert.Equal(t, int64(500), s.ScanLimit)

	state.LastIssuedSerial = 8
	require.NoError(t, bs.WriteState(state))
	s, err = bs.ReadState()
	require.NoError(t, err)
	assert.Equal(t, int64(8), s.LastIssuedSerial)
}

func TestNeutralizationLog(t *testing.T) {
	bs := openTestStore(t)

	records, err := bs.ListNeutralizations(0)
	require.NoError(t, err)
	assert.Empty(t, records)

	base := time.Now()
	first := &collection.Neutralization{
		Mask:      uint8(native.KeySupply),
		Seed:      []byte{1, 2, 3},
		CreatedAt: base,
	}
	second := &collection.Neutralization{
		Mask:      uint8(native.KeyAdmin),
		Seed:      []byte{4, 5, 6},
		CreatedAt: base.Add(time.Second),
	}
	require.NoError(t, bs.WriteNeutralization(first))
	require.NoError(t, bs.WriteNeutralization(second))

	records, err = bs.ListNeutralizations(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.Mask, records[0].Mask)
	assert.Equal(t, first.Seed, records[0].Seed)
	assert.Equal(t, second.Mask, records[1].Mask)

	records, err = bs.ListNeutralizations(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, first.Mask, records[0].Mask)
}
