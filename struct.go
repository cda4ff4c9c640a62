package powchain

/*
This holds the replies the Client hands back to its callers.
*/

import (
	"time"
)

// Status summarizes the state of one chain.
type Status struct {
	Name   string
	Length int
	// LatestHash is empty for an empty chain.
	LatestHash string
	// Valid is the hash-linkage check alone.
	Valid bool
	// BrokenLinks, InvalidProofs and MisplacedIndices are block positions.
	BrokenLinks      []uint64
	InvalidProofs    []uint64
	MisplacedIndices []uint64
	// BlockCycle is the mean time between the most recent blocks.
	BlockCycle time.Duration
}

// Sound reports whether the chain passes every check, proof-of-work
// included.
func (s *Status) Sound() bool {
	return s.Valid && len(s.InvalidProofs) == 0 && len(s.MisplacedIndices) == 0
}
