package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/facelock/internal/client/repositories/cursors"
	"github.com/stretchr/testify/require"
)

func TestOpenLocalState_MigratesAndPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := OpenLocalState(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Cursors.Save(ctx, cursors.Cursor{ItemID: "a", Seq: 4, State: "locked", UpdatedAt: time.Now()}))
	require.NoError(t, s.Close())

	s, err = OpenLocalState(ctx, path)
	require.NoError(t, err, "migrations are idempotent")
	defer s.Close()

	c, err := s.Cursors.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, c)
	require.Equal(t, uint64(4), c.Seq)
}

func TestOpenLocalState_BadPath(t *testing.T) {
	_, err := OpenLocalState(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "state.db"))
	require.Error(t, err)
}
