package blockchain

import (
	"powchain/mining"

	"golang.org/x/xerrors"
)

// Report is the outcome of a full audit. All lists hold block positions.
type Report struct {
	// BrokenLinks are blocks whose previous hash does not match.
	BrokenLinks []uint64
	// InvalidProofs are blocks whose hash misses the proof-of-work target.
	InvalidProofs []uint64
	// MisplacedIndices are blocks whose index is not their position.
	MisplacedIndices []uint64
}

// OK reports whether the audit found nothing.
func (r Report) OK() bool {
	return len(r.BrokenLinks) == 0 && len(r.InvalidProofs) == 0 && len(r.MisplacedIndices) == 0
}

// Err returns nil for a clean report and an error wrapping ErrInvalidChain
// otherwise.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	return xerrors.Errorf("broken links %v, invalid proofs %v, misplaced indices %v: %w",
		r.BrokenLinks, r.InvalidProofs, r.MisplacedIndices, ErrInvalidChain)
}

// Audit checks hash linkage, the proof-of-work of every block and the
// index sequence in one pass, so the report never mixes states from before
// and after a concurrent Refresh.
func (c *Chain) Audit() Report {
	c.blocksMutex.RLock()
	defer c.blocksMutex.RUnlock()

	var report Report
	expected := ZeroHash
	for i, block := range c.blocks {
		if block.previousHash != expected {
			report.BrokenLinks = append(report.BrokenLinks, uint64(i))
		}
		hash := block.Hash()
		if !mining.MeetsTarget(hash) {
			report.InvalidProofs = append(report.InvalidProofs, uint64(i))
		}
		if block.index != uint64(i) {
			report.MisplacedIndices = append(report.MisplacedIndices, uint64(i))
		}
		expected = hash
	}
	return report
}
