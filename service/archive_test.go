package service

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	bc "powchain/blockchain"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

func TestMain(m *testing.M) {
	log.SetDebugVisible(1)
	os.Exit(m.Run())
}

func testConfig(t *testing.T, backend string) Config {
	config := DefaultConfig()
	config.DataDir = t.TempDir()
	config.Backend = backend
	return config
}

var backends = []string{BackendFile, BackendBolt, BackendLevelDB}

func openTestArchive(t *testing.T, backend string) Archive {
	archive, err := OpenArchive(testConfig(t, backend))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, archive.Close()) })
	return archive
}

func requireSameBlocks(t *testing.T, expected, actual []*bc.Block) {
	require.Equal(t, len(expected), len(actual))
	for i := range expected {
		require.Equal(t, expected[i].Record(), actual[i].Record())
		require.Equal(t, expected[i].Hash(), actual[i].Hash())
	}
}

func TestArchiveStoreLoad(t *testing.T) {
	chain := bc.NewChain()
	chain.Append("a")
	chain.Append("b")

	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			archive := openTestArchive(t, backend)

			require.NoError(t, archive.StoreChain("main", chain.Blocks()))
			blocks, err := archive.LoadChain("main")
			require.NoError(t, err)
			requireSameBlocks(t, chain.Blocks(), blocks)

			// Storing again replaces, it does not add.
			shorter := chain.Blocks()[:2]
			require.NoError(t, archive.StoreChain("main", shorter))
			blocks, err = archive.LoadChain("main")
			require.NoError(t, err)
			requireSameBlocks(t, shorter, blocks)
		})
	}
}

func TestArchiveEmptyChain(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			archive := openTestArchive(t, backend)
			require.NoError(t, archive.StoreChain("empty", nil))
			blocks, err := archive.LoadChain("empty")
			require.NoError(t, err)
			require.Empty(t, blocks)

			names, err := archive.Chains()
			require.NoError(t, err)
			require.Equal(t, []string{"empty"}, names)
		})
	}
}

func TestArchiveMissingChain(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			archive := openTestArchive(t, backend)
			_, err := archive.LoadChain("nothing")
			require.True(t, xerrors.Is(err, ErrNoSuchChain))
			err = archive.DeleteChain("nothing")
			require.True(t, xerrors.Is(err, ErrNoSuchChain))
		})
	}
}

func TestArchiveChains(t *testing.T) {
	chain := bc.NewChain()
	chain.Append("a")

	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			archive := openTestArchive(t, backend)
			names, err := archive.Chains()
			require.NoError(t, err)
			require.Empty(t, names)

			// "main" and "main2" share a prefix.
			for _, name := range []string{"main2", "main", "alt"} {
				require.NoError(t, archive.StoreChain(name, chain.Blocks()))
			}
			names, err = archive.Chains()
			require.NoError(t, err)
			require.Equal(t, []string{"alt", "main", "main2"}, names)

			require.NoError(t, archive.DeleteChain("main"))
			names, err = archive.Chains()
			require.NoError(t, err)
			require.Equal(t, []string{"alt", "main2"}, names)

			blocks, err := archive.LoadChain("main2")
			require.NoError(t, err)
			requireSameBlocks(t, chain.Blocks(), blocks)
		})
	}
}

func TestArchiveKeepsTampering(t *testing.T) {
	chain := bc.NewChain()
	chain.Append("a")
	chain.Append("b")
	b1, err := chain.Get(1)
	require.NoError(t, err)
	b1.UnsafeSetPayload("forged")

	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			archive := openTestArchive(t, backend)
			require.NoError(t, archive.StoreChain("main", chain.Blocks()))
			blocks, err := archive.LoadChain("main")
			require.NoError(t, err)

			restored := bc.NewChain()
			restored.Replace(blocks)
			require.False(t, restored.IsValid())
			require.Equal(t, []uint64{2}, restored.BrokenLinks())
		})
	}
}

func TestOpenArchiveUnknownBackend(t *testing.T) {
	_, err := OpenArchive(testConfig(t, "memory"))
	require.True(t, xerrors.Is(err, ErrUnknownBackend))
}

func TestFileArchiveIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	archive := NewFileArchive(dir)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.blk"), 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, archive.StoreChain("main", nil))

	names, err := archive.Chains()
	require.NoError(t, err)
	require.Equal(t, []string{"main"}, names)
}

func TestBlockDBLookups(t *testing.T) {
	chain := bc.NewChain()
	chain.Append("a")
	chain.Append("b")

	db, err := OpenBlockDB(filepath.Join(t.TempDir(), boltFileName))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.GetLatest("main")
	require.True(t, xerrors.Is(err, ErrNoSuchChain))

	require.NoError(t, db.StoreChain("main", chain.Blocks()))
	latest, err := db.GetLatest("main")
	require.NoError(t, err)
	require.Equal(t, chain.Latest().Hash(), latest.Hash())

	block, err := db.GetBlockByIndex("main", 1)
	require.NoError(t, err)
	require.Equal(t, "a", block.Payload())

	_, err = db.GetBlockByIndex("main", 3)
	require.True(t, xerrors.Is(err, ErrNoSuchBlock))

	require.NoError(t, db.StoreChain("empty", nil))
	latest, err = db.GetLatest("empty")
	require.NoError(t, err)
	require.Nil(t, latest)
}
