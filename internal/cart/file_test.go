package cart

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage_RoundTrip(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	items := []LineItem{
		{ID: "p1-a", ProductID: "p1", Name: "Logo A", Price: 500, Quantity: 2,
			Customization: map[string]string{"color": "blue"}},
		{ID: "p2-b", ProductID: "p2", Name: "Cap", Price: 150, Quantity: 1},
	}

	require.NoError(t, fs.Save(ctx, "session-1", items))

	loaded, err := fs.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, items, loaded)
}

func TestFileStorage_LoadMissing(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	_, err = fs.Load(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNoSavedCart)
}

func TestFileStorage_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "session-1.json"), []byte("{broken"), 0o644))

	_, err = fs.Load(context.Background(), "session-1")
	require.ErrorContains(t, err, "unmarshal cart failed")
}

func TestFileStorage_Delete(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, "session-1", []LineItem{{ID: "a", Quantity: 1}}))
	require.NoError(t, fs.Delete(ctx, "session-1"))

	_, err = fs.Load(ctx, "session-1")
	assert.ErrorIs(t, err, ErrNoSavedCart)

	// Deleting again is not an error
	assert.NoError(t, fs.Delete(ctx, "session-1"))
}
