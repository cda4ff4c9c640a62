package service

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	bc "powchain/blockchain"
	"powchain/utils"

	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

var (
	// ErrNoSuchChain is returned when an archive does not hold a chain.
	ErrNoSuchChain = xerrors.New("no such chain")
	// ErrNoSuchBlock is returned for an index past the end of a chain.
	ErrNoSuchBlock = xerrors.New("no such block")
	// ErrUnknownBackend is returned for a backend name that is not supported.
	ErrUnknownBackend = xerrors.New("unknown archive backend")
)

// Archive keeps whole chains by name.
type Archive interface {
	// StoreChain replaces whatever is stored under name.
	StoreChain(name string, blocks []*bc.Block) error
	LoadChain(name string) ([]*bc.Block, error)
	Chains() ([]string, error)
	DeleteChain(name string) error
	Close() error
}

// OpenArchive opens the backend selected by config.
func OpenArchive(config Config) (Archive, error) {
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return nil, xerrors.Errorf("creating data dir: %w", err)
	}
	log.Lvlf2("Opening %s archive in %s", config.Backend, config.DataDir)
	switch config.Backend {
	case BackendFile:
		return NewFileArchive(config.DataDir), nil
	case BackendBolt:
		db, err := OpenBlockDB(filepath.Join(config.DataDir, boltFileName))
		if err != nil {
			return nil, err
		}
		return db, nil
	case BackendLevelDB:
		db, err := OpenLevelDB(filepath.Join(config.DataDir, levelDirName))
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, xerrors.Errorf("backend %q: %w", config.Backend, ErrUnknownBackend)
	}
}

// FileArchive stores every chain as a .blk file in one directory.
type FileArchive struct {
	dir string
}

func NewFileArchive(dir string) *FileArchive {
	return &FileArchive{dir: dir}
}

func (a *FileArchive) path(name string) string {
	return filepath.Join(a.dir, utils.ChainFile(name))
}

func (a *FileArchive) StoreChain(name string, blocks []*bc.Block) error {
	chain := bc.NewChain()
	chain.Replace(blocks)
	return chain.Save(a.path(name))
}

func (a *FileArchive) LoadChain(name string) ([]*bc.Block, error) {
	if _, err := os.Stat(a.path(name)); os.IsNotExist(err) {
		return nil, xerrors.Errorf("%s: %w", name, ErrNoSuchChain)
	}
	chain := bc.NewChain()
	if err := chain.Load(a.path(name)); err != nil {
		return nil, err
	}
	return chain.Blocks(), nil
}

func (a *FileArchive) Chains() ([]string, error) {
	entries, err := ioutil.ReadDir(a.dir)
	if err != nil {
		return nil, xerrors.Errorf("listing %s: %w", a.dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), utils.ChainExtension) {
			continue
		}
		names = append(names, utils.ChainName(entry.Name()))
	}
	sort.Strings(names)
	return names, nil
}

func (a *FileArchive) DeleteChain(name string) error {
	err := os.Remove(a.path(name))
	if os.IsNotExist(err) {
		return xerrors.Errorf("%s: %w", name, ErrNoSuchChain)
	}
	return err
}

func (a *FileArchive) Close() error {
	return nil
}
