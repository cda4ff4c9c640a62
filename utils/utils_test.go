package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChainFile(t *testing.T) {
	require.Equal(t, "test_chain.blk", ChainFile("test_chain"))
	require.Equal(t, "test_chain.blk", ChainFile("test_chain.blk"))
	require.Equal(t, "dir/x.blk", ChainFile("dir/x"))
	require.Equal(t, "a.json.blk", WithExtension("a.json", ".blk"))
}

func TestChainName(t *testing.T) {
	require.Equal(t, "main", ChainName(filepath.Join("data", "main.blk")))
	require.Equal(t, "main", ChainName("main"))
}

func TestCheckChainName(t *testing.T) {
	require.NoError(t, CheckChainName("main"))
	require.Error(t, CheckChainName(""))
	require.Error(t, CheckChainName("a/b"))
	require.Error(t, CheckChainName(".."))
	require.Error(t, CheckChainName("main.blk"))
	require.NoError(t, CheckChainName("main.blk2"))
}
