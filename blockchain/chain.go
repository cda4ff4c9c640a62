package blockchain

import (
	"context"
	"sync"

	"powchain/mining"

	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// Chain is an append-only sequence of blocks linked by hash. The first
// append creates the genesis block.
type Chain struct {
	// appendMutex serialises everything that mines or rewrites the chain,
	// so at most one search contributes to the next block.
	appendMutex sync.Mutex
	blocksMutex sync.RWMutex
	blocks      []*Block

	miner  *mining.Miner
	solved chan mining.Solution
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	c := &Chain{
		solved: make(chan mining.Solution, 1),
	}
	c.miner = mining.New(c.minerCallback)
	return c
}

// Append mines a block holding payload and adds it to the chain. On an
// empty chain the genesis block is mined first.
func (c *Chain) Append(payload string) {
	c.appendMutex.Lock()
	defer c.appendMutex.Unlock()

	var pending []*Block
	last := c.Latest()
	if last == nil {
		last = NewGenesisBlock()
		pending = append(pending, last)
	}
	block := NewBlock(last.index+1, payload, last.Hash())
	c.push(append(pending, block)...)
}

// AppendContext is Append with the search running on the chain's miner.
// If ctx is done first the chain is left untouched.
func (c *Chain) AppendContext(ctx context.Context, payload string) (*Block, error) {
	c.appendMutex.Lock()
	defer c.appendMutex.Unlock()

	var pending []*Block
	last := c.Latest()
	if last == nil {
		genesis, err := c.mine(ctx, genesisJob)
		if err != nil {
			return nil, err
		}
		last = genesis
		pending = append(pending, genesis)
	}
	block, err := c.mine(ctx, mining.Job{
		Index:        last.index + 1,
		Payload:      payload,
		PreviousHash: last.Hash(),
	})
	if err != nil {
		return nil, err
	}
	c.push(append(pending, block)...)
	return block, nil
}

func (c *Chain) mine(ctx context.Context, job mining.Job) (*Block, error) {
	if err := c.miner.Start(job); err != nil {
		return nil, err
	}
	for {
		select {
		case sol := <-c.solved:
			if sol.Job != job {
				// Left over from an abandoned search.
				continue
			}
			return newMinedBlock(sol), nil
		case <-ctx.Done():
			c.miner.Stop()
			return nil, xerrors.Errorf("mining block %d: %w", job.Index, ctx.Err())
		}
	}
}

// minerCallback hands a solution to mine. The buffer only ever holds a
// stale solution when a fresh one arrives, so the stale one is dropped.
func (c *Chain) minerCallback(sol mining.Solution) {
	for {
		select {
		case c.solved <- sol:
			return
		default:
			select {
			case <-c.solved:
			default:
			}
		}
	}
}

func (c *Chain) push(blocks ...*Block) {
	c.blocksMutex.Lock()
	defer c.blocksMutex.Unlock()
	for _, block := range blocks {
		log.Lvlf2("Appending block %d / %s", block.index, block.Hash())
		c.blocks = append(c.blocks, block)
	}
}

// Len returns the number of blocks, genesis included.
func (c *Chain) Len() int {
	c.blocksMutex.RLock()
	defer c.blocksMutex.RUnlock()
	return len(c.blocks)
}

// Get returns the block at position i.
func (c *Chain) Get(i int) (*Block, error) {
	c.blocksMutex.RLock()
	defer c.blocksMutex.RUnlock()
	if i < 0 || i >= len(c.blocks) {
		return nil, xerrors.Errorf("block %d of %d: %w", i, len(c.blocks), ErrIndexOutOfRange)
	}
	return c.blocks[i], nil
}

// Latest returns the last block, or nil for an empty chain.
func (c *Chain) Latest() *Block {
	c.blocksMutex.RLock()
	defer c.blocksMutex.RUnlock()
	if len(c.blocks) == 0 {
		return nil
	}
	return c.blocks[len(c.blocks)-1]
}

// Blocks returns a copy of the ordered block list.
func (c *Chain) Blocks() []*Block {
	c.blocksMutex.RLock()
	defer c.blocksMutex.RUnlock()
	out := make([]*Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Each calls fn for every block in order until fn returns false.
func (c *Chain) Each(fn func(*Block) bool) {
	for _, block := range c.Blocks() {
		if !fn(block) {
			return
		}
	}
}

// Replace swaps the whole sequence for blocks.
func (c *Chain) Replace(blocks []*Block) {
	c.appendMutex.Lock()
	defer c.appendMutex.Unlock()
	c.replace(blocks)
}

func (c *Chain) replace(blocks []*Block) {
	c.blocksMutex.Lock()
	defer c.blocksMutex.Unlock()
	c.blocks = make([]*Block, len(blocks))
	copy(c.blocks, blocks)
}

// IsValid reports whether every stored previous hash matches the hash of
// the block before it, starting from ZeroHash. It does not check the
// proof-of-work of the blocks; see Audit.
func (c *Chain) IsValid() bool {
	return len(c.BrokenLinks()) == 0
}

// BrokenLinks returns the positions whose stored previous hash does not
// match. The scan never stops early: after a mismatch it continues from the
// hash of the offending block.
func (c *Chain) BrokenLinks() []uint64 {
	c.blocksMutex.RLock()
	defer c.blocksMutex.RUnlock()

	var broken []uint64
	expected := ZeroHash
	for i, block := range c.blocks {
		if block.previousHash != expected {
			broken = append(broken, uint64(i))
		}
		expected = block.Hash()
	}
	return broken
}

// Refresh relinks the chain: every stored previous hash is overwritten with
// the hash of the block before it, starting from ZeroHash.
//
// Nothing is re-mined. Since a block hash covers its previous hash, every
// block after the first rewritten one can end up failing its proof-of-work
// while IsValid reports true. Use Audit to see both.
func (c *Chain) Refresh() {
	c.appendMutex.Lock()
	defer c.appendMutex.Unlock()
	c.blocksMutex.Lock()
	defer c.blocksMutex.Unlock()

	expected := ZeroHash
	for _, block := range c.blocks {
		if block.previousHash != expected {
			log.Lvlf3("Relinking block %d", block.index)
		}
		block.setPreviousHash(expected)
		expected = block.Hash()
	}
}
