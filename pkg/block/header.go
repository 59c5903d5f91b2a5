package block

import (
	"encoding/binary"

	"github.com/Vantar-tech/vantar-wallet/pkg/crypto"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// Header contains block metadata. Height doubles as the chain difficulty
// seen by the wallet tracker: it increases by exactly one per main-chain
// block, so comparing heights orders any two main-chain headers.
type Header struct {
	Version    uint32     `json:"version"`
	PrevHash   types.Hash `json:"prev_hash"`
	MerkleRoot types.Hash `json:"merkle_root"`
	Timestamp  uint64     `json:"timestamp"`
	Height     uint64     `json:"height"`
}

// Hash computes the block header hash.
func (h *Header) Hash() types.Hash {
	return crypto.Hash(h.SigningBytes())
}

// SigningBytes returns the canonical bytes for hashing.
// Format: version(4) | prev_hash(32) | merkle_root(32) | timestamp(8) | height(8)
func (h *Header) SigningBytes() []byte {
	buf := make([]byte, 0, 84)
	buf = binary.LittleEndian.AppendUint32(buf, h.Version)
	buf = append(buf, h.PrevHash[:]...)
	buf = append(buf, h.MerkleRoot[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, h.Timestamp)
	buf = binary.LittleEndian.AppendUint64(buf, h.Height)
	return buf
}
