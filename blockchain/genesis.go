package blockchain

import (
	"powchain/mining"
)

// GenesisPayload is the payload of every genesis block.
const GenesisPayload = "Genesis Block"

// genesisJob describes the first block of every chain.
var genesisJob = mining.Job{
	Index:        0,
	Payload:      GenesisPayload,
	PreviousHash: ZeroHash,
}

// NewGenesisBlock mines the first block of a chain.
func NewGenesisBlock() *Block {
	return NewBlock(genesisJob.Index, genesisJob.Payload, genesisJob.PreviousHash)
}
