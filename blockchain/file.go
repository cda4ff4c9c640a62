package blockchain

import (
	"io/ioutil"

	"powchain/utils"

	"go.dedis.ch/onet/v3/log"
	"go.dedis.ch/protobuf"
	"golang.org/x/xerrors"
)

const fileMagic = "powchain"

// chainFile is the content of a .blk file.
type chainFile struct {
	Magic  string
	Length uint64
	Blocks []*Record
}

// Save writes the whole chain to name, adding the .blk extension if needed.
func (c *Chain) Save(name string) error {
	file := utils.ChainFile(name)
	blocks := c.Blocks()
	content := &chainFile{
		Magic:  fileMagic,
		Length: uint64(len(blocks)),
	}
	for _, block := range blocks {
		content.Blocks = append(content.Blocks, block.Record())
	}
	buf, err := protobuf.Encode(content)
	if err != nil {
		return xerrors.Errorf("encoding chain: %w", err)
	}
	if err := ioutil.WriteFile(file, buf, 0644); err != nil {
		return xerrors.Errorf("writing %s: %w", file, err)
	}
	log.Lvlf2("Saved %d blocks to %s", len(blocks), file)
	return nil
}

// Load replaces the chain with the blocks saved in name. The .blk extension
// is added if needed. Errors wrap ErrNotFound or ErrFormat.
func (c *Chain) Load(name string) error {
	file := utils.ChainFile(name)
	blocks, err := readChainFile(file)
	if err != nil {
		return err
	}
	c.Replace(blocks)
	log.Lvlf2("Loaded %d blocks from %s", len(blocks), file)
	return nil
}

func readChainFile(file string) ([]*Block, error) {
	buf, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, xerrors.Errorf("reading %s: %v: %w", file, err, ErrNotFound)
	}
	content, err := decodeChainFile(buf)
	if err != nil {
		return nil, xerrors.Errorf("decoding %s: %v: %w", file, err, ErrFormat)
	}
	blocks := make([]*Block, len(content.Blocks))
	for i, record := range content.Blocks {
		blocks[i] = FromRecord(record)
	}
	return blocks, nil
}

func decodeChainFile(buf []byte) (content *chainFile, err error) {
	defer func() {
		// The decoder is reflection based and may panic on garbage.
		if r := recover(); r != nil {
			content, err = nil, xerrors.Errorf("%v", r)
		}
	}()

	content = &chainFile{}
	if err := protobuf.Decode(buf, content); err != nil {
		return nil, err
	}
	if content.Magic != fileMagic {
		return nil, xerrors.Errorf("unknown file header %q", content.Magic)
	}
	if content.Length != uint64(len(content.Blocks)) {
		return nil, xerrors.Errorf("expected %d blocks, found %d", content.Length, len(content.Blocks))
	}
	for i, record := range content.Blocks {
		if record == nil {
			return nil, xerrors.Errorf("empty record at %d", i)
		}
	}
	return content, nil
}
