package library

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"songlib/core/database"
	"songlib/feature/catalog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory catalog with the schema migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

// scoreBuilderStub records press notifications.
type scoreBuilderStub struct {
	mu          sync.Mutex
	invalidated []string
	scheduled   []string
}

func (s *scoreBuilderStub) Invalidate(songID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, songID)
	return nil
}

func (s *scoreBuilderStub) ScheduleRebuild(song *models.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, song.ID)
}

func jankoMeta() map[string]any {
	return map[string]any{
		"title":       "Dobre ti je, Janku",
		"source":      map[string]any{"title": "Spevnik I", "type": "book"},
		"recorded_by": "Karol Plicka",
		"year":        1931,
		"page":        12,
	}
}

func TestReconcile_CreateAndIdempotence(t *testing.T) {
	db := setupTestDB(t)
	press := &scoreBuilderStub{}
	rec := NewReconciler(db, press, zap.NewNop(), true)
	root := t.TempDir()

	unit := writeUnit(t, root, "janko", jankoMeta())
	require.NoError(t, os.WriteFile(filepath.Join(unit, LytexFile), []byte("\\score{ a b c }"), 0o644))

	out, err := rec.Reconcile(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, out.Kind)
	require.NotEmpty(t, out.SongID)

	// the typeset source queues a render
	assert.Equal(t, []string{out.SongID}, press.scheduled)

	// identifier was written back to disk
	raw, err := os.ReadFile(filepath.Join(unit, MetadataFile))
	require.NoError(t, err)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, out.SongID, meta["id"])

	// dependent entities were created exactly once
	var personCount, sourceCount int64
	require.NoError(t, db.Model(&models.Person{}).Count(&personCount).Error)
	require.NoError(t, db.Model(&models.Source{}).Count(&sourceCount).Error)
	assert.EqualValues(t, 1, personCount)
	assert.EqualValues(t, 1, sourceCount)

	// a second run over the unchanged unit issues zero writes
	out2, err := rec.Reconcile(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, out2.Kind)
	assert.Equal(t, out.SongID, out2.SongID)
	assert.Len(t, press.invalidated, 0)
	assert.Len(t, press.scheduled, 1)

	var songCount int64
	require.NoError(t, db.Model(&models.Song{}).Count(&songCount).Error)
	assert.EqualValues(t, 1, songCount)
}

func TestReconcile_DependentDedupAcrossUnits(t *testing.T) {
	db := setupTestDB(t)
	rec := NewReconciler(db, nil, zap.NewNop(), true)
	root := t.TempDir()

	first := writeUnit(t, root, "janko", jankoMeta())
	second := writeUnit(t, root, "anicka", map[string]any{
		"title":       "Anicka, dusicka",
		"source":      map[string]any{"title": "Spevnik I", "type": "book"},
		"recorded_by": "Karol Plicka",
	})

	for _, unit := range []string{first, second} {
		out, err := rec.Reconcile(context.Background(), unit)
		require.NoError(t, err)
		require.Equal(t, OutcomeCreated, out.Kind)
	}

	// both songs share one person and one source row
	var personCount, sourceCount int64
	require.NoError(t, db.Model(&models.Person{}).Count(&personCount).Error)
	require.NoError(t, db.Model(&models.Source{}).Count(&sourceCount).Error)
	assert.EqualValues(t, 1, personCount)
	assert.EqualValues(t, 1, sourceCount)

	var songs []models.Song
	require.NoError(t, db.Order("title").Find(&songs).Error)
	require.Len(t, songs, 2)
	assert.Equal(t, songs[0].SourceID, songs[1].SourceID)
	require.NotNil(t, songs[0].RecordedByID)
	require.NotNil(t, songs[1].RecordedByID)
	assert.Equal(t, *songs[0].RecordedByID, *songs[1].RecordedByID)
}

func TestReconcile_ReAdoptsExternalID(t *testing.T) {
	db := setupTestDB(t)
	rec := NewReconciler(db, nil, zap.NewNop(), true)
	root := t.TempDir()

	meta := jankoMeta()
	meta["id"] = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
	unit := writeUnit(t, root, "janko", meta)

	out, err := rec.Reconcile(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, out.Kind)
	assert.Equal(t, "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", out.SongID)

	var song models.Song
	require.NoError(t, db.First(&song, "id = ?", "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee").Error)
	assert.Equal(t, "Dobre ti je, Janku", song.Title)
}

func TestReconcile_FieldEqualityFallback(t *testing.T) {
	db := setupTestDB(t)
	rec := NewReconciler(db, nil, zap.NewNop(), false)
	root := t.TempDir()

	unit := writeUnit(t, root, "janko", jankoMeta())
	out, err := rec.Reconcile(context.Background(), unit)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, out.Kind)

	// write-back disabled: the metadata still has no id, so the second run
	// must find the song by field equality instead of creating a twin
	out2, err := rec.Reconcile(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, out2.Kind)
	assert.Equal(t, out.SongID, out2.SongID)

	var count int64
	require.NoError(t, db.Model(&models.Song{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestReconcile_CatalogNullIsWildcard(t *testing.T) {
	db := setupTestDB(t)
	rec := NewReconciler(db, nil, zap.NewNop(), false)
	root := t.TempDir()

	// first run without year: the catalog row has year NULL
	meta := jankoMeta()
	delete(meta, "year")
	unit := writeUnit(t, root, "janko", meta)
	out, err := rec.Reconcile(context.Background(), unit)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, out.Kind)

	// the curator fills in the year; NULL on the row matches anything, so
	// the same song is found and updated rather than duplicated
	unit = writeUnit(t, root, "janko", jankoMeta())
	out2, err := rec.Reconcile(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, out2.Kind)
	assert.Equal(t, out.SongID, out2.SongID)

	var song models.Song
	require.NoError(t, db.First(&song, "id = ?", out.SongID).Error)
	require.NotNil(t, song.Year)
	assert.Equal(t, 1931, *song.Year)
}

func TestReconcile_AmbiguousMatchSkips(t *testing.T) {
	db := setupTestDB(t)
	rec := NewReconciler(db, nil, zap.NewNop(), false)
	root := t.TempDir()

	source := models.Source{Title: "Spevnik I"}
	require.NoError(t, db.Create(&source).Error)
	// two catalog rows with the same title and NULL everywhere else both
	// match any record with that title
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&models.Song{Title: "Dobre ti je, Janku", SourceID: source.ID}).Error)
	}

	unit := writeUnit(t, root, "janko", jankoMeta())
	out, err := rec.Reconcile(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, out.Kind)
	assert.NotEmpty(t, out.Reason)

	// nothing was written
	var count int64
	require.NoError(t, db.Model(&models.Song{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestReconcile_LytexChangeInvalidatesArtifact(t *testing.T) {
	db := setupTestDB(t)
	press := &scoreBuilderStub{}
	rec := NewReconciler(db, press, zap.NewNop(), true)
	root := t.TempDir()

	unit := writeUnit(t, root, "janko", jankoMeta())
	require.NoError(t, os.WriteFile(filepath.Join(unit, LytexFile), []byte("\\score{ a }"), 0o644))

	out, err := rec.Reconcile(context.Background(), unit)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, out.Kind)
	require.Len(t, press.scheduled, 1)

	require.NoError(t, os.WriteFile(filepath.Join(unit, LytexFile), []byte("\\score{ a b }"), 0o644))

	out2, err := rec.Reconcile(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, out2.Kind)
	assert.Equal(t, []string{out.SongID}, press.invalidated)
	assert.Equal(t, []string{out.SongID, out.SongID}, press.scheduled)

	var song models.Song
	require.NoError(t, db.First(&song, "id = ?", out.SongID).Error)
	require.NotNil(t, song.Lytex)
	assert.Equal(t, "\\score{ a b }", *song.Lytex)
}

func TestReconcile_VersesChangeLeavesArtifactAlone(t *testing.T) {
	db := setupTestDB(t)
	press := &scoreBuilderStub{}
	rec := NewReconciler(db, press, zap.NewNop(), true)
	root := t.TempDir()

	unit := writeUnit(t, root, "janko", jankoMeta())
	require.NoError(t, os.WriteFile(filepath.Join(unit, VersesFile), []byte("first verse\n"), 0o644))

	out, err := rec.Reconcile(context.Background(), unit)
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, out.Kind)

	require.NoError(t, os.WriteFile(filepath.Join(unit, VersesFile), []byte("first verse\nsecond verse\n"), 0o644))

	out2, err := rec.Reconcile(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, out2.Kind)
	// verses are catalog-only; no artifact handling happens
	assert.Empty(t, press.invalidated)
	assert.Empty(t, press.scheduled)
}

func TestReconcile_BadMetadataSkips(t *testing.T) {
	db := setupTestDB(t)
	rec := NewReconciler(db, nil, zap.NewNop(), true)
	root := t.TempDir()

	unit := filepath.Join(root, "broken")
	require.NoError(t, os.MkdirAll(unit, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(unit, MetadataFile), []byte("{nope"), 0o644))

	out, err := rec.Reconcile(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, out.Kind)
	assert.NotEmpty(t, out.Reason)
}
