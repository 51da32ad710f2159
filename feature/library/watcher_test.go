package library

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"songlib/feature/catalog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func countSongs(t *testing.T, rec *Reconciler) int64 {
	t.Helper()
	var count int64
	require.NoError(t, rec.db.Model(&models.Song{}).Count(&count).Error)
	return count
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_ReconcilesNewUnit(t *testing.T) {
	db := setupTestDB(t)
	rec := NewReconciler(db, nil, zap.NewNop(), true)
	root := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(rec, root, 50*time.Millisecond, zap.NewNop())
	require.NoError(t, w.Start(ctx))

	writeUnit(t, root, "janko", jankoMeta())

	require.True(t, eventually(t, 3*time.Second, func() bool {
		return countSongs(t, rec) == 1
	}), "watcher never reconciled the new unit")
}

func TestWatcher_DebouncesRapidWrites(t *testing.T) {
	db := setupTestDB(t)
	rec := NewReconciler(db, nil, zap.NewNop(), false)
	root := t.TempDir()

	// the unit exists before the watcher starts
	unit := writeUnit(t, root, "janko", jankoMeta())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(rec, root, 150*time.Millisecond, zap.NewNop())
	require.NoError(t, w.Start(ctx))

	// an editor saving is several rapid writes; they must coalesce into a
	// single reconciliation that sees the final content
	meta := jankoMeta()
	for _, title := range []string{"draft one", "draft two", "Dobre ti je, Janku"} {
		meta["title"] = title
		raw, err := json.Marshal(meta)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(unit, MetadataFile), raw, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.True(t, eventually(t, 3*time.Second, func() bool {
		return countSongs(t, rec) == 1
	}))

	var song models.Song
	require.NoError(t, rec.db.First(&song).Error)
	assert.Equal(t, "Dobre ti je, Janku", song.Title)

	// intermediate drafts never reached the catalog as extra rows
	assert.EqualValues(t, 1, countSongs(t, rec))
}

func TestWatcher_IgnoresUnrelatedRootFiles(t *testing.T) {
	db := setupTestDB(t)
	rec := NewReconciler(db, nil, zap.NewNop(), false)
	root := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(rec, root, 50*time.Millisecond, zap.NewNop())
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("notes"), 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.EqualValues(t, 0, countSongs(t, rec))
}
