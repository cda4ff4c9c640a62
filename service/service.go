package service

import (
	"context"
	"sort"
	"sync"
	"time"

	bc "powchain/blockchain"
	"powchain/utils"

	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// Service keeps a set of named chains open, and checkpoints them into an
// archive after every change.
type Service struct {
	config  Config
	archive Archive

	chainsMutex sync.Mutex
	chains      map[string]*bc.Chain
	clocks      map[string]*PrivateClock

	// checkpointMutex orders archive writes so the last write of a chain
	// always holds its latest blocks.
	checkpointMutex sync.Mutex
}

// New opens the archive described by config.
func New(config Config) (*Service, error) {
	if err := config.Check(); err != nil {
		return nil, err
	}
	archive, err := OpenArchive(config)
	if err != nil {
		return nil, err
	}
	return NewWithArchive(config, archive), nil
}

// NewWithArchive returns a service on top of an already opened archive.
func NewWithArchive(config Config, archive Archive) *Service {
	return &Service{
		config:  config,
		archive: archive,
		chains:  make(map[string]*bc.Chain),
		clocks:  make(map[string]*PrivateClock),
	}
}

// Config returns the configuration the service was created with.
func (s *Service) Config() Config {
	return s.config
}

// Chain returns the chain called name. It is restored from the archive on
// first use, or created empty if the archive does not know it.
func (s *Service) Chain(name string) (*bc.Chain, error) {
	if err := utils.CheckChainName(name); err != nil {
		return nil, err
	}
	s.chainsMutex.Lock()
	defer s.chainsMutex.Unlock()
	if chain, ok := s.chains[name]; ok {
		return chain, nil
	}

	chain := bc.NewChain()
	clock := newPrivateClock(s.config.ClockWindow)
	blocks, err := s.archive.LoadChain(name)
	switch {
	case err == nil:
		chain.Replace(blocks)
		for _, block := range blocks {
			clock.Push(block.Timestamp())
		}
		log.Lvlf2("Restored chain %s with %d blocks", name, len(blocks))
	case xerrors.Is(err, ErrNoSuchChain):
		log.Lvl2("Creating chain", name)
	default:
		return nil, xerrors.Errorf("restoring %s: %w", name, err)
	}
	s.chains[name] = chain
	s.clocks[name] = clock
	return chain, nil
}

func (s *Service) clock(name string) *PrivateClock {
	s.chainsMutex.Lock()
	defer s.chainsMutex.Unlock()
	return s.clocks[name]
}

// Append mines a block holding payload onto the chain called name and
// checkpoints the chain. The returned block is the new last block. If the
// checkpoint fails no block is returned: the mined block stays on the open
// chain and reaches the archive with the next successful checkpoint.
func (s *Service) Append(ctx context.Context, name, payload string) (*bc.Block, error) {
	chain, err := s.Chain(name)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	block, err := chain.AppendContext(ctx, payload)
	if err != nil {
		return nil, err
	}
	log.Lvlf2("Mined block %d of %s in %s", block.Index(), name, time.Since(start))
	s.clock(name).Push(block.Timestamp())
	if err := s.Checkpoint(name); err != nil {
		return nil, err
	}
	return block, nil
}

// Refresh relinks the chain called name and checkpoints it.
func (s *Service) Refresh(name string) error {
	chain, err := s.Chain(name)
	if err != nil {
		return err
	}
	chain.Refresh()
	return s.Checkpoint(name)
}

// Checkpoint writes the current blocks of name to the archive.
func (s *Service) Checkpoint(name string) error {
	chain, err := s.Chain(name)
	if err != nil {
		return err
	}
	s.checkpointMutex.Lock()
	defer s.checkpointMutex.Unlock()
	if err := s.archive.StoreChain(name, chain.Blocks()); err != nil {
		return xerrors.Errorf("checkpointing %s: %w", name, err)
	}
	return nil
}

// Export saves the chain called name to a .blk file.
func (s *Service) Export(name, file string) error {
	chain, err := s.Chain(name)
	if err != nil {
		return err
	}
	return chain.Save(file)
}

// Import replaces the chain called name with the content of a .blk file.
// On error the chain is left as it was.
func (s *Service) Import(name, file string) error {
	chain, err := s.Chain(name)
	if err != nil {
		return err
	}
	if err := chain.Load(file); err != nil {
		return err
	}
	clock := newPrivateClock(s.config.ClockWindow)
	chain.Each(func(block *bc.Block) bool {
		clock.Push(block.Timestamp())
		return true
	})
	s.chainsMutex.Lock()
	s.clocks[name] = clock
	s.chainsMutex.Unlock()
	return s.Checkpoint(name)
}

// Chains returns the names of the archived and the open chains.
func (s *Service) Chains() ([]string, error) {
	archived, err := s.archive.Chains()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, name := range archived {
		seen[name] = true
	}
	s.chainsMutex.Lock()
	for name := range s.chains {
		seen[name] = true
	}
	s.chainsMutex.Unlock()

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// BlockCycle returns the mean time between the most recent blocks of name.
func (s *Service) BlockCycle(name string) (time.Duration, error) {
	if _, err := s.Chain(name); err != nil {
		return 0, err
	}
	return s.clock(name).Clock(), nil
}

// Close closes the archive. Open chains are not checkpointed again.
func (s *Service) Close() error {
	return s.archive.Close()
}
