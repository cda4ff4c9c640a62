package blockchain

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func requireSameChain(t *testing.T, expected, actual *Chain) {
	t.Helper()
	require.Equal(t, expected.Len(), actual.Len())
	for i, want := range expected.Blocks() {
		got, err := actual.Get(i)
		require.NoError(t, err)
		require.Equal(t, want.Index(), got.Index())
		require.Equal(t, want.Payload(), got.Payload())
		require.Equal(t, want.PreviousHash(), got.PreviousHash())
		require.Equal(t, want.Nonce(), got.Nonce())
		require.Equal(t, want.Hash(), got.Hash())
		require.True(t, want.Timestamp().Equal(got.Timestamp()))
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	for _, payloads := range [][]string{nil, {"only"}, {"a", "b", "c", "d"}} {
		c := newTestChain(t, payloads...)
		name := filepath.Join(dir, "chain")
		require.NoError(t, c.Save(name))

		loaded := newTestChain(t, "will be replaced")
		require.NoError(t, loaded.Load(name))
		requireSameChain(t, c, loaded)
		require.True(t, loaded.IsValid())
	}
}

func TestSaveLoadGenesisOnly(t *testing.T) {
	dir := t.TempDir()
	c := NewChain()
	c.Replace([]*Block{NewGenesisBlock()})
	require.NoError(t, c.Save(filepath.Join(dir, "genesis")))

	loaded := NewChain()
	require.NoError(t, loaded.Load(filepath.Join(dir, "genesis")))
	requireSameChain(t, c, loaded)
}

func TestSaveExtension(t *testing.T) {
	dir := t.TempDir()
	c := newTestChain(t, "a")

	require.NoError(t, c.Save(filepath.Join(dir, "test_chain")))
	_, err := os.Stat(filepath.Join(dir, "test_chain.blk"))
	require.NoError(t, err)

	require.NoError(t, c.Save(filepath.Join(dir, "other.blk")))
	_, err = os.Stat(filepath.Join(dir, "other.blk"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "other.blk.blk"))
	require.True(t, os.IsNotExist(err))

	loaded := NewChain()
	require.NoError(t, loaded.Load(filepath.Join(dir, "test_chain.blk")))
	requireSameChain(t, c, loaded)
}

func TestSaveLoadTampered(t *testing.T) {
	dir := t.TempDir()
	c := newTestChain(t, "a", "b")
	b1, _ := c.Get(1)
	b1.UnsafeSetPayload("forged")
	require.NoError(t, c.Save(filepath.Join(dir, "tampered")))

	loaded := NewChain()
	require.NoError(t, loaded.Load(filepath.Join(dir, "tampered")))
	requireSameChain(t, c, loaded)
	require.False(t, loaded.IsValid())
}

func TestLoadMissing(t *testing.T) {
	c := newTestChain(t, "a")
	err := c.Load(filepath.Join(t.TempDir(), "missing"))
	require.True(t, xerrors.Is(err, ErrNotFound))
	// A failed load leaves the chain alone.
	require.Equal(t, 2, c.Len())
}

func TestLoadCorrupted(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.blk")
	require.NoError(t, ioutil.WriteFile(garbage, []byte("this is not a chain"), 0644))

	c := NewChain()
	err := c.Load(garbage)
	require.True(t, xerrors.Is(err, ErrFormat), "%v", err)

	empty := filepath.Join(dir, "empty.blk")
	require.NoError(t, ioutil.WriteFile(empty, nil, 0644))
	err = c.Load(empty)
	require.True(t, xerrors.Is(err, ErrFormat), "%v", err)
}

func TestLoadTruncated(t *testing.T) {
	dir := t.TempDir()
	c := newTestChain(t, "a", "b", "c")
	name := filepath.Join(dir, "full")
	require.NoError(t, c.Save(name))

	buf, err := ioutil.ReadFile(name + ".blk")
	require.NoError(t, err)
	truncated := filepath.Join(dir, "truncated.blk")
	require.NoError(t, ioutil.WriteFile(truncated, buf[:len(buf)/2], 0644))

	err = NewChain().Load(truncated)
	require.True(t, xerrors.Is(err, ErrFormat), "%v", err)
}
