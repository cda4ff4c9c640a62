package blockchain

import (
	"strings"
	"time"

	"powchain/mining"

	"golang.org/x/xerrors"
)

// HashLength is the length of a hex encoded block hash.
const HashLength = 64

// ZeroHash is the previous hash of every genesis block.
var ZeroHash = strings.Repeat("0", HashLength)

var (
	// ErrNotFound is returned when a chain file is missing or unreadable.
	ErrNotFound = xerrors.New("chain file not found")
	// ErrFormat is returned when a chain file cannot be decoded.
	ErrFormat = xerrors.New("malformed chain file")
	// ErrIndexOutOfRange is returned by Chain.Get.
	ErrIndexOutOfRange = xerrors.New("block index out of range")
	// ErrInvalidChain is wrapped by Report.Err.
	ErrInvalidChain = xerrors.New("invalid chain")
)

// Record is the serialised form of a Block. It carries the stored fields
// only; the hash is always recomputed.
type Record struct {
	Index        uint64
	Payload      string
	PreviousHash string
	Nonce        uint64
	// Timestamp in nanoseconds since Unix Epoch.
	Timestamp int64
}

// Record returns the serialisable form of the block.
func (b *Block) Record() *Record {
	return &Record{
		Index:        b.index,
		Payload:      b.payload,
		PreviousHash: b.previousHash,
		Nonce:        b.nonce,
		Timestamp:    b.timestamp.UnixNano(),
	}
}

// FromRecord restores a block exactly as it was recorded, without mining.
func FromRecord(r *Record) *Block {
	return &Block{
		index:        r.Index,
		payload:      r.Payload,
		previousHash: r.PreviousHash,
		nonce:        r.Nonce,
		timestamp:    time.Unix(0, r.Timestamp),
	}
}

func newMinedBlock(sol mining.Solution) *Block {
	return &Block{
		index:        sol.Job.Index,
		payload:      sol.Job.Payload,
		previousHash: sol.Job.PreviousHash,
		nonce:        sol.Nonce,
		timestamp:    sol.Timestamp,
	}
}
