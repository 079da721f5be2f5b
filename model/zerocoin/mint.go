package zerocoin

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Mint is a confirmed coin commitment. Within a block, mints are totally
// ordered by Index.
type Mint struct {
	Denomination Denomination
	Commitment   *big.Int
	Height       uint64
	Index        uint32
}

// ID returns a short identifier for logging; it is the hex-encoded SHA-256
// of the commitment.
func (m *Mint) ID() string {
	if m.Commitment == nil {
		return ""
	}
	sum := sha256.Sum256(m.Commitment.Bytes())
	return hex.EncodeToString(sum[:8])
}

func (m *Mint) String() string {
	return fmt.Sprintf("mint(%s, denom=%s, height=%d, index=%d)", m.ID(), m.Denomination, m.Height, m.Index)
}
