package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodezero/nodezero-go/module/irrecoverable"
)

func TestDecodeCorruptedValue(t *testing.T) {
	val, err := encodeEntity(uint64(42))
	require.NoError(t, err)

	var decoded uint64
	require.NoError(t, decodeValue(val, &decoded))
	assert.Equal(t, uint64(42), decoded)

	err = decodeValue([]byte{0xff, 0xff, 0xff}, &decoded)
	assert.ErrorIs(t, err, errUncompressedValue)

	// valid snappy frame around garbage fails msgpack decoding
	garbage, err := encodeEntity("not a number")
	require.NoError(t, err)
	err = decodeValue(garbage, &decoded)
	assert.True(t, irrecoverable.IsException(err))
}
