package powchain

/*
The api.go defines the methods that can be called from the outside. A Client
works on one named chain of a service.Service; the command line tool in app/
is built on it.
*/

import (
	"context"

	bc "powchain/blockchain"
	"powchain/service"

	"go.dedis.ch/onet/v3/log"
)

// Client is a structure to work with one chain of a service.
type Client struct {
	service *service.Service
	name    string
	ctx     context.Context
}

// NewClient instantiates a new powchain.Client for the chain called name.
func NewClient(s *service.Service, name string) *Client {
	return &Client{
		service: s,
		name:    name,
		ctx:     context.Background(),
	}
}

// WithContext returns a copy of the client whose appends stop when ctx is
// done.
func (c *Client) WithContext(ctx context.Context) *Client {
	cc := *c
	cc.ctx = ctx
	return &cc
}

// Name returns the name of the chain the client works on.
func (c *Client) Name() string {
	return c.name
}

// Append mines a block holding payload onto the chain.
func (c *Client) Append(payload string) error {
	log.Lvl3("Appending to", c.name)
	_, err := c.service.Append(c.ctx, c.name, payload)
	return err
}

// Show renders the block at position i.
func (c *Client) Show(i int) (string, error) {
	block, err := c.Block(i)
	if err != nil {
		return "", err
	}
	return block.String(), nil
}

// Block returns the block at position i.
func (c *Client) Block(i int) (*bc.Block, error) {
	chain, err := c.service.Chain(c.name)
	if err != nil {
		return nil, err
	}
	return chain.Get(i)
}

// Latest returns the last block, or nil for an empty chain.
func (c *Client) Latest() (*bc.Block, error) {
	chain, err := c.service.Chain(c.name)
	if err != nil {
		return nil, err
	}
	return chain.Latest(), nil
}

// Blocks returns the blocks of the chain in order.
func (c *Client) Blocks() ([]*bc.Block, error) {
	chain, err := c.service.Chain(c.name)
	if err != nil {
		return nil, err
	}
	return chain.Blocks(), nil
}

// Valid runs the hash-linkage check.
func (c *Client) Valid() (bool, error) {
	chain, err := c.service.Chain(c.name)
	if err != nil {
		return false, err
	}
	return chain.IsValid(), nil
}

// Status runs every check on the chain.
func (c *Client) Status() (*Status, error) {
	chain, err := c.service.Chain(c.name)
	if err != nil {
		return nil, err
	}
	cycle, err := c.service.BlockCycle(c.name)
	if err != nil {
		return nil, err
	}
	report := chain.Audit()
	status := &Status{
		Name:             c.name,
		Length:           chain.Len(),
		Valid:            len(report.BrokenLinks) == 0,
		BrokenLinks:      report.BrokenLinks,
		InvalidProofs:    report.InvalidProofs,
		MisplacedIndices: report.MisplacedIndices,
		BlockCycle:       cycle,
	}
	if latest := chain.Latest(); latest != nil {
		status.LatestHash = latest.Hash()
	}
	return status, nil
}

// Refresh relinks the chain without mining. See blockchain.Chain.Refresh
// for what this does to the proof-of-work of the blocks.
func (c *Client) Refresh() error {
	return c.service.Refresh(c.name)
}

// Export saves the chain to a .blk file.
func (c *Client) Export(file string) error {
	return c.service.Export(c.name, file)
}

// Import replaces the chain with the blocks of a .blk file.
func (c *Client) Import(file string) error {
	return c.service.Import(c.name, file)
}
