package blockchain

import (
	"fmt"
	"strings"
	"time"

	"powchain/mining"
)

// TimeFormat is used when a block is rendered.
const TimeFormat = "2006-01-02 15:04:05.000000"

// Block is a mined record. Its fields can only be read; the hash is
// recomputed from them on every call to Hash.
type Block struct {
	// Index of the block in the chain. Index = 0 -> genesis-block.
	index uint64
	// Data is any data to be stored in that Block.
	payload string
	// Hash of the previous block in the chain.
	previousHash string
	// Nonce solving the proof-of-work.
	nonce uint64
	// Time the block was mined.
	timestamp time.Time
}

// NewBlock mines a block. It returns once a nonce satisfying the
// proof-of-work target has been found.
func NewBlock(index uint64, payload, previousHash string) *Block {
	return newMinedBlock(mining.Solve(index, payload, previousHash))
}

func (b *Block) Index() uint64 {
	return b.index
}

func (b *Block) Payload() string {
	return b.payload
}

func (b *Block) PreviousHash() string {
	return b.previousHash
}

func (b *Block) Nonce() uint64 {
	return b.nonce
}

// Timestamp is the time the nonce was found.
func (b *Block) Timestamp() time.Time {
	return b.timestamp
}

// Hash of the block as it is stored now.
func (b *Block) Hash() string {
	return mining.Digest(b.index, b.payload, b.previousHash, b.nonce)
}

// IsValid reports whether the current content of the block satisfies the
// proof-of-work target. It does not look at the chain.
func (b *Block) IsValid() bool {
	return mining.MeetsTarget(b.Hash())
}

func (b *Block) String() string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Index: %d\n", b.index))
	builder.WriteString(fmt.Sprintf("Previous Hash: %s\n", b.previousHash))
	builder.WriteString(fmt.Sprintf("Data: %s\n", b.payload))
	builder.WriteString(fmt.Sprintf("Nonce: %d\n", b.nonce))
	builder.WriteString(fmt.Sprintf("Hash: %s\n", b.Hash()))
	builder.WriteString(fmt.Sprintf("Timestamp: %s\n", b.timestamp.Format(TimeFormat)))
	return builder.String()
}

// GoString implements fmt.GoStringer.
func (b *Block) GoString() string {
	return fmt.Sprintf("Block(%d, '%s', '%s')", b.index, b.previousHash, b.payload)
}
