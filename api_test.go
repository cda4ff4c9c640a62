package powchain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	bc "powchain/blockchain"
	"powchain/service"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

func TestMain(m *testing.M) {
	log.SetDebugVisible(1)
	os.Exit(m.Run())
}

func newTestClient(t *testing.T, name string) (*Client, *service.Service) {
	config := service.DefaultConfig()
	config.DataDir = t.TempDir()
	config.Backend = service.BackendBolt
	s, err := service.New(config)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewClient(s, name), s
}

func TestClientAppendShow(t *testing.T) {
	c, _ := newTestClient(t, "main")
	require.NoError(t, c.Append("a"))
	require.NoError(t, c.Append("b"))

	blocks, err := c.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	require.Equal(t, blocks[1].Hash(), blocks[2].PreviousHash())

	valid, err := c.Valid()
	require.NoError(t, err)
	require.True(t, valid)

	shown, err := c.Show(2)
	require.NoError(t, err)
	require.Equal(t, blocks[2].String(), shown)
	require.Contains(t, shown, "Data: b")

	latest, err := c.Latest()
	require.NoError(t, err)
	require.Equal(t, blocks[2], latest)

	_, err = c.Show(3)
	require.True(t, xerrors.Is(err, bc.ErrIndexOutOfRange))
}

func TestClientStatus(t *testing.T) {
	c, _ := newTestClient(t, "main")
	status, err := c.Status()
	require.NoError(t, err)
	require.Equal(t, "main", status.Name)
	require.Zero(t, status.Length)
	require.Empty(t, status.LatestHash)
	require.True(t, status.Sound())

	require.NoError(t, c.Append("a"))
	require.NoError(t, c.Append("b"))
	status, err = c.Status()
	require.NoError(t, err)
	require.Equal(t, 3, status.Length)
	require.True(t, status.Valid)
	require.True(t, status.Sound())

	b1, err := c.Block(1)
	require.NoError(t, err)
	b1.UnsafeSetPayload("forged")
	status, err = c.Status()
	require.NoError(t, err)
	require.False(t, status.Valid)
	require.Equal(t, []uint64{2}, status.BrokenLinks)
	require.Equal(t, []uint64{1}, status.InvalidProofs)

	// Relinking fixes the links but not the proofs.
	require.NoError(t, c.Refresh())
	status, err = c.Status()
	require.NoError(t, err)
	require.True(t, status.Valid)
	require.False(t, status.Sound())
	require.Equal(t, []uint64{1, 2}, status.InvalidProofs)
}

func TestClientExportImport(t *testing.T) {
	c, s := newTestClient(t, "main")
	require.NoError(t, c.Append("a"))
	file := filepath.Join(t.TempDir(), "backup.blk")
	require.NoError(t, c.Export(file))

	other := NewClient(s, "other")
	require.Equal(t, "other", other.Name())
	require.NoError(t, other.Import(file))
	blocks, err := other.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.Equal(t, "a", blocks[1].Payload())
}

func TestClientWithContext(t *testing.T) {
	c, _ := newTestClient(t, "main")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.WithContext(ctx).Append("a")
	require.True(t, xerrors.Is(err, context.Canceled))
	blocks, err := c.Blocks()
	require.NoError(t, err)
	require.Empty(t, blocks)

	require.NoError(t, c.Append("a"))
}
