package songbook

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()
	app := fiber.New()
	require.NoError(t, NewFeature(db, zap.NewNop()).Load(app))
	return app
}

func TestHandler_CreateRequiresUser(t *testing.T) {
	app := newTestApp(t, setupTestDB(t))

	resp, err := app.Test(httptest.NewRequest("POST", "/songbooks", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_EntryFlow(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(t, db)
	songs := seedSongs(t, db, 3)

	// create a songbook
	req := httptest.NewRequest("POST", "/songbooks", bytes.NewBufferString(`{"title":"Set"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "user-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var sb Songbook
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &sb))

	// add songs
	for _, songID := range songs {
		resp, err := app.Test(httptest.NewRequest("POST", "/songbooks/"+sb.ID+"/songs/"+songID, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	// a duplicate add conflicts
	resp, err = app.Test(httptest.NewRequest("POST", "/songbooks/"+sb.ID+"/songs/"+songs[0], nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// reorder: last song first
	payload, err := json.Marshal(map[string]any{"song_ids": []string{songs[2]}})
	require.NoError(t, err)
	req = httptest.NewRequest("PUT", "/songbooks/"+sb.ID+"/order", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// list comes back in the new dense order
	resp, err = app.Test(httptest.NewRequest("GET", "/songbooks/"+sb.ID+"/songs", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var entries []Entry
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, songs[2], entries[0].SongID)
	assert.Equal(t, songs[0], entries[1].SongID)
	assert.Equal(t, songs[1], entries[2].SongID)
	for i, e := range entries {
		assert.Equal(t, i, e.Position)
	}

	// remove a song
	resp, err = app.Test(httptest.NewRequest("DELETE", "/songbooks/"+sb.ID+"/songs/"+songs[0], nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}
