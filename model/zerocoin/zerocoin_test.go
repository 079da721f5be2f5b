package zerocoin

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDenomination(t *testing.T) {
	for _, d := range AllDenominations {
		parsed, err := ParseDenomination(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}

	for _, bad := range []string{"", "2", "-1", "ten", "10.0"} {
		_, err := ParseDenomination(bad)
		assert.Error(t, err, bad)
	}
}

func TestAmountToDenomination(t *testing.T) {
	const coin = 100_000_000
	assert.Equal(t, DenomFifty, AmountToDenomination(50*coin, coin))
	assert.Equal(t, DenomError, AmountToDenomination(3*coin, coin))
	assert.Equal(t, DenomError, AmountToDenomination(coin+1, coin))
	assert.Equal(t, DenomError, AmountToDenomination(0, coin))
}

func TestCheckpointCloneIsDeep(t *testing.T) {
	cp := NewCheckpoint(big.NewInt(961))
	require.True(t, cp.IsComplete())

	dup := cp.Clone()
	require.True(t, cp.Equal(dup))

	dup[DenomTen].SetInt64(7)
	assert.Equal(t, int64(961), cp[DenomTen].Int64())
	assert.False(t, cp.Equal(dup))

	v := cp.Value(DenomTen)
	v.SetInt64(1)
	assert.Equal(t, int64(961), cp[DenomTen].Int64())
	assert.Nil(t, Checkpoint{}.Value(DenomTen))
}

func TestSerialParsing(t *testing.T) {
	s, err := ParseSerialHex("C9c868bb")
	require.NoError(t, err)
	assert.Equal(t, "c9c868bb", SerialKey(s))

	for _, bad := range []string{"", "0x12", "12 ", "-1", "zz"} {
		_, err := ParseSerialHex(bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, "", SerialKey(nil))
}

func TestReject(t *testing.T) {
	req := NewWitnessRequest(DenomOne, big.NewInt(13), 10, nil)
	req.Sequence = 4
	res := Reject(req, NotEnoughMints, 20, "only 0 mints")
	assert.False(t, res.IsSuccess())
	assert.Equal(t, req.ID, res.RequestID)
	assert.Equal(t, uint64(4), res.Sequence)
	assert.Equal(t, "not_enough_mints", res.Rejection.Code.String())
	assert.Contains(t, res.Rejection.Error(), "height 20")
}
