package service

import (
	"encoding/binary"
	"sort"

	bc "powchain/blockchain"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.dedis.ch/onet/v3/log"
	"go.dedis.ch/protobuf"
	"golang.org/x/xerrors"
)

// Key layout:
//
//	n/<name>           chain marker, empty value
//	b/<name>/<index>   protobuf record, index as 8 big-endian bytes
//
// Chain names never contain a slash, so one chain's prefix never covers
// another's.
const (
	nameKeyPrefix  = "n/"
	blockKeyPrefix = "b/"
)

// LevelDB is an Archive on top of goleveldb.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens or creates the database directory at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, xerrors.Errorf("opening leveldb: %w", err)
	}
	return &LevelDB{db: db}, nil
}

func nameKey(name string) []byte {
	return []byte(nameKeyPrefix + name)
}

func blockPrefix(name string) []byte {
	return []byte(blockKeyPrefix + name + "/")
}

func blockKey(name string, i uint64) []byte {
	prefix := blockPrefix(name)
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], i)
	return key
}

// deleteBlocks adds a delete for every stored block of name to batch.
func (l *LevelDB) deleteBlocks(batch *leveldb.Batch, name string) error {
	iter := l.db.NewIterator(util.BytesPrefix(blockPrefix(name)), nil)
	for iter.Next() {
		// The key is only valid until the next call to Next.
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		batch.Delete(key)
	}
	iter.Release()
	return iter.Error()
}

// StoreChain replaces the stored blocks of name in one batch.
func (l *LevelDB) StoreChain(name string, blocks []*bc.Block) error {
	batch := new(leveldb.Batch)
	if err := l.deleteBlocks(batch, name); err != nil {
		return xerrors.Errorf("clearing %s: %w", name, err)
	}
	for i, block := range blocks {
		val, err := protobuf.Encode(block.Record())
		if err != nil {
			return xerrors.Errorf("encoding block %d: %w", i, err)
		}
		batch.Put(blockKey(name, uint64(i)), val)
	}
	batch.Put(nameKey(name), []byte{})
	if err := l.db.Write(batch, nil); err != nil {
		return xerrors.Errorf("storing %s: %w", name, err)
	}
	log.Lvlf2("Stored %d blocks of %s", len(blocks), name)
	return nil
}

// LoadChain returns the blocks of name in order.
func (l *LevelDB) LoadChain(name string) ([]*bc.Block, error) {
	ok, err := l.db.Has(nameKey(name), nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, xerrors.Errorf("%s: %w", name, ErrNoSuchChain)
	}

	var blocks []*bc.Block
	iter := l.db.NewIterator(util.BytesPrefix(blockPrefix(name)), nil)
	defer iter.Release()
	for iter.Next() {
		record := &bc.Record{}
		if err := protobuf.Decode(iter.Value(), record); err != nil {
			return nil, xerrors.Errorf("loading block %d of %s: %w", len(blocks), name, err)
		}
		blocks = append(blocks, bc.FromRecord(record))
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// Chains lists the stored chain names.
func (l *LevelDB) Chains() ([]string, error) {
	var names []string
	iter := l.db.NewIterator(util.BytesPrefix([]byte(nameKeyPrefix)), nil)
	for iter.Next() {
		names = append(names, string(iter.Key()[len(nameKeyPrefix):]))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// DeleteChain removes name and all its blocks.
func (l *LevelDB) DeleteChain(name string) error {
	ok, err := l.db.Has(nameKey(name), nil)
	if err != nil {
		return err
	}
	if !ok {
		return xerrors.Errorf("%s: %w", name, ErrNoSuchChain)
	}
	batch := new(leveldb.Batch)
	if err := l.deleteBlocks(batch, name); err != nil {
		return err
	}
	batch.Delete(nameKey(name))
	return l.db.Write(batch, nil)
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}
