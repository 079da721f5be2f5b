package operation

import (
	"encoding/binary"
	"fmt"
)

const (

	// codes for special database markers
	codeLatestMintHeight = 1
	codeRecalculated     = 2

	// codes for accumulator state
	codeCheckpoint = 10

	// codes for chain indexes
	codeMintsByHeight = 20
	codeSpentSerial   = 21
)

func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := make([]byte, 1)
	prefix[0] = code
	for _, key := range keys {
		prefix = append(prefix, b(key)...)
	}
	return prefix
}

func b(v interface{}) []byte {
	switch i := v.(type) {
	case uint8:
		return []byte{i}
	case uint32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, i)
		return b
	case uint64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, i)
		return b
	case string:
		return []byte(i)
	case []byte:
		return i
	default:
		panic(fmt.Sprintf("unsupported type to convert (%T)", v))
	}
}
