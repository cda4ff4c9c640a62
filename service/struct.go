package service

import (
	"encoding/binary"
	"sort"
	"time"

	bc "powchain/blockchain"

	"go.dedis.ch/cothority/v3"
	"go.dedis.ch/onet/v3/log"
	"go.dedis.ch/onet/v3/network"
	bbolt "go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

var chainsBucket = []byte("chains")

func init() {
	network.RegisterMessage(&bc.Record{})
}

// BlockDB is an Archive on top of bbolt. Every chain has its own bucket
// inside the chains bucket, with blocks keyed by their big-endian position.
type BlockDB struct {
	*bbolt.DB
}

// OpenBlockDB opens or creates the database file at path.
func OpenBlockDB(path string) (*BlockDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, xerrors.Errorf("opening block db: %w", err)
	}
	return NewBlockDB(db), nil
}

// NewBlockDB returns an initialized BlockDB structure.
func NewBlockDB(db *bbolt.DB) *BlockDB {
	return &BlockDB{
		DB: db,
	}
}

func positionKey(i uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, i)
	return key
}

// storeToBucket stores the block at position i.
func storeToBucket(b *bbolt.Bucket, i uint64, block *bc.Block) error {
	val, err := network.Marshal(block.Record())
	if err != nil {
		return err
	}
	return b.Put(positionKey(i), val)
}

// blockFromValue decodes a stored block.
func blockFromValue(val []byte) (*bc.Block, error) {
	// bbolt values are only valid during the transaction, and the decoder
	// holds on to its input.
	buf := make([]byte, len(val))
	copy(buf, val)
	_, msg, err := network.Unmarshal(buf, cothority.Suite)
	if err != nil {
		return nil, err
	}
	record, ok := msg.(*bc.Record)
	if !ok {
		return nil, xerrors.Errorf("unexpected message %T", msg)
	}
	return bc.FromRecord(record), nil
}

// chainBucket returns the bucket of name, or an error wrapping
// ErrNoSuchChain.
func chainBucket(tx *bbolt.Tx, name string) (*bbolt.Bucket, error) {
	root := tx.Bucket(chainsBucket)
	if root == nil {
		return nil, xerrors.Errorf("%s: %w", name, ErrNoSuchChain)
	}
	b := root.Bucket([]byte(name))
	if b == nil {
		return nil, xerrors.Errorf("%s: %w", name, ErrNoSuchChain)
	}
	return b, nil
}

// StoreChain replaces the stored blocks of name in one transaction.
func (db *BlockDB) StoreChain(name string, blocks []*bc.Block) error {
	return db.Update(func(tx *bbolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(chainsBucket)
		if err != nil {
			return err
		}
		if root.Bucket([]byte(name)) != nil {
			if err := root.DeleteBucket([]byte(name)); err != nil {
				return err
			}
		}
		b, err := root.CreateBucket([]byte(name))
		if err != nil {
			return err
		}
		for i, block := range blocks {
			if err := storeToBucket(b, uint64(i), block); err != nil {
				return xerrors.Errorf("storing block %d: %w", i, err)
			}
		}
		log.Lvlf2("Stored %d blocks of %s", len(blocks), name)
		return nil
	})
}

// LoadChain returns the blocks of name in order.
func (db *BlockDB) LoadChain(name string) ([]*bc.Block, error) {
	var blocks []*bc.Block
	err := db.View(func(tx *bbolt.Tx) error {
		b, err := chainBucket(tx, name)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			block, err := blockFromValue(v)
			if err != nil {
				return xerrors.Errorf("loading block %d: %w", binary.BigEndian.Uint64(k), err)
			}
			log.Lvlf3("Loading block %d / %s", block.Index(), block.Hash())
			blocks = append(blocks, block)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// GetBlockByIndex returns the block stored at position i of name.
func (db *BlockDB) GetBlockByIndex(name string, i uint64) (*bc.Block, error) {
	var block *bc.Block
	err := db.View(func(tx *bbolt.Tx) error {
		b, err := chainBucket(tx, name)
		if err != nil {
			return err
		}
		val := b.Get(positionKey(i))
		if val == nil {
			return xerrors.Errorf("%s block %d: %w", name, i, ErrNoSuchBlock)
		}
		block, err = blockFromValue(val)
		return err
	})
	return block, err
}

// GetLatest returns the last stored block of name, or nil if the chain is
// empty.
func (db *BlockDB) GetLatest(name string) (*bc.Block, error) {
	var block *bc.Block
	err := db.View(func(tx *bbolt.Tx) error {
		b, err := chainBucket(tx, name)
		if err != nil {
			return err
		}
		_, val := b.Cursor().Last()
		if val == nil {
			return nil
		}
		block, err = blockFromValue(val)
		return err
	})
	return block, err
}

// Chains lists the stored chain names.
func (db *BlockDB) Chains() ([]string, error) {
	var names []string
	err := db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(chainsBucket)
		if root == nil {
			return nil
		}
		return root.ForEach(func(k, v []byte) error {
			// Nested buckets have a nil value.
			if v == nil {
				names = append(names, string(k))
			}
			return nil
		})
	})
	sort.Strings(names)
	return names, err
}

// DeleteChain removes name and all its blocks.
func (db *BlockDB) DeleteChain(name string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(chainsBucket)
		if root == nil {
			return xerrors.Errorf("%s: %w", name, ErrNoSuchChain)
		}
		err := root.DeleteBucket([]byte(name))
		if err == bbolt.ErrBucketNotFound {
			return xerrors.Errorf("%s: %w", name, ErrNoSuchChain)
		}
		return err
	})
}
