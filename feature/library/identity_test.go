package library

import (
	"context"
	"testing"

	"songlib/feature/catalog/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB for testing query shapes.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestResolver_ResolveByID(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	resolver := NewResolver(gormDB, zap.NewNop())

	rec := &ContentRecord{ID: "song-1", Title: "Dobre ti je, Janku"}

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "title", "source_id"}).
			AddRow("song-1", "Dobre ti je, Janku", "source-1")
		mock.ExpectQuery("SELECT (.+) FROM `songs` WHERE id = ?").
			WithArgs("song-1", 1).
			WillReturnRows(rows)

		song, err := resolver.Resolve(context.Background(), rec)
		require.NoError(t, err)
		require.NotNil(t, song)
		assert.Equal(t, "song-1", song.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingRowMeansNew", func(t *testing.T) {
		// the identifier on disk has no catalog row; the record is treated
		// as new so the same identifier can be re-adopted, not as an error
		mock.ExpectQuery("SELECT (.+) FROM `songs` WHERE id = ?").
			WithArgs("song-1", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "source_id"}))

		song, err := resolver.Resolve(context.Background(), rec)
		require.NoError(t, err)
		assert.Nil(t, song)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFieldsMatch(t *testing.T) {
	year1931 := 1931
	year1950 := 1950
	orava := "Orava"

	t.Run("TitleMismatch", func(t *testing.T) {
		song := songWith("Other title", nil, nil)
		assert.False(t, fieldsMatch(song, &ContentRecord{Title: "Janku"}))
	})

	t.Run("NullOnRowIsWildcard", func(t *testing.T) {
		song := songWith("Janku", nil, nil)
		rec := &ContentRecord{Title: "Janku", Year: &year1931, Location: &orava}
		assert.True(t, fieldsMatch(song, rec))
	})

	t.Run("AbsentInRecordIsIgnored", func(t *testing.T) {
		song := songWith("Janku", &year1931, &orava)
		assert.True(t, fieldsMatch(song, &ContentRecord{Title: "Janku"}))
	})

	t.Run("ValueConflict", func(t *testing.T) {
		song := songWith("Janku", &year1931, nil)
		rec := &ContentRecord{Title: "Janku", Year: &year1950}
		assert.False(t, fieldsMatch(song, rec))
	})
}

func songWith(title string, year *int, location *string) *models.Song {
	return &models.Song{Title: title, Year: year, Location: location}
}
