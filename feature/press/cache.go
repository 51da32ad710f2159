package press

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"songlib/feature/catalog/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// fingerprintFile holds the sha256 of the typeset source an artifact was
// rendered from. Artifacts from before fingerprints were recorded have no
// sidecar and are trusted on existence alone.
const fingerprintFile = ".fingerprint"

// Cache keeps one rendered artifact per song under the build root and
// avoids repeating the expensive typesetting run.
//
// Concurrent ensures of the same song collapse into a single render via
// singleflight; the total number of renderer subprocesses is bounded by a
// worker semaphore so a burst of requests cannot fork one process per
// caller.
type Cache struct {
	root     string
	renderer *Renderer
	mirror   *Mirror
	logger   *zap.Logger

	sf  singleflight.Group
	sem chan struct{}

	rebuildTimeout time.Duration
}

// NewCache creates a build cache. mirror may be nil.
func NewCache(cfg Config, renderer *Renderer, mirror *Mirror, logger *zap.Logger) *Cache {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Cache{
		root:           cfg.BuildDir,
		renderer:       renderer,
		mirror:         mirror,
		logger:         logger,
		sem:            make(chan struct{}, workers),
		rebuildTimeout: timeout,
	}
}

// ArtifactDir returns the song's build directory.
func (c *Cache) ArtifactDir(songID string) string {
	return filepath.Join(c.root, songID)
}

// ArtifactPath returns the song's artifact location, whether or not it
// exists yet.
func (c *Cache) ArtifactPath(songID string) string {
	return filepath.Join(c.root, songID, ArtifactFile)
}

// EnsureArtifact returns the path to an up-to-date artifact for the song,
// rendering it if necessary. An existing artifact whose recorded
// fingerprint matches the current typeset source is returned as-is; a
// mismatch triggers a rebuild. Renderer failures surface as *BuildError
// and leave any prior artifact untouched so readers never see a broken
// file.
func (c *Cache) EnsureArtifact(ctx context.Context, song *models.Song) (string, error) {
	if song.Lytex == nil {
		return "", ErrNoScore
	}

	artifact := c.ArtifactPath(song.ID)
	want := fingerprint(*song.Lytex)

	if _, err := os.Stat(artifact); err == nil {
		stored, err := os.ReadFile(filepath.Join(c.ArtifactDir(song.ID), fingerprintFile))
		if err != nil || string(stored) == want {
			// No sidecar: legacy artifact, existence is the whole test.
			return artifact, nil
		}
		c.logger.Info("Stale artifact, rebuilding", zap.String("song_id", song.ID))
	}

	lytex := *song.Lytex
	path, err, _ := c.sf.Do(song.ID, func() (any, error) {
		return c.build(ctx, song.ID, lytex, want)
	})
	if err != nil {
		return "", err
	}
	return path.(string), nil
}

// Invalidate deletes the song's cached artifact directory. Deleting an
// absent directory is not an error.
func (c *Cache) Invalidate(songID string) error {
	if err := os.RemoveAll(c.ArtifactDir(songID)); err != nil {
		return err
	}
	if c.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), c.rebuildTimeout)
		defer cancel()
		if err := c.mirror.Remove(ctx, songID); err != nil {
			c.logger.Warn("Failed to remove mirrored artifact", zap.String("song_id", songID), zap.Error(err))
		}
	}
	return nil
}

// ForceRebuild invalidates and immediately re-renders the song's artifact.
func (c *Cache) ForceRebuild(ctx context.Context, song *models.Song) (string, error) {
	if err := c.Invalidate(song.ID); err != nil {
		return "", err
	}
	return c.EnsureArtifact(ctx, song)
}

// ScheduleRebuild queues an asynchronous render. It is the reconciler's
// notification hook: content changed, the artifact should catch up without
// blocking the reconciliation.
func (c *Cache) ScheduleRebuild(song *models.Song) {
	if song.Lytex == nil {
		return
	}
	snapshot := *song
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.rebuildTimeout)
		defer cancel()
		if _, err := c.EnsureArtifact(ctx, &snapshot); err != nil {
			c.logger.Error("Scheduled score build failed", zap.String("song_id", snapshot.ID), zap.Error(err))
		}
	}()
}

// build renders into a staging directory and promotes it only on success,
// so a failed build never clobbers the previous artifact.
func (c *Cache) build(ctx context.Context, songID, lytex, fp string) (string, error) {
	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return "", &BuildError{SongID: songID, Err: ctx.Err()}
	}

	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return "", fmt.Errorf("ensure build root: %w", err)
	}
	staging, err := os.MkdirTemp(c.root, songID+".tmp-")
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	started := time.Now()
	if _, err := c.renderer.Render(ctx, lytex, staging); err != nil {
		return "", &BuildError{SongID: songID, Err: err}
	}

	if err := os.WriteFile(filepath.Join(staging, fingerprintFile), []byte(fp), 0o644); err != nil {
		return "", fmt.Errorf("write fingerprint: %w", err)
	}

	final := c.ArtifactDir(songID)
	if err := os.RemoveAll(final); err != nil {
		return "", fmt.Errorf("clear artifact dir: %w", err)
	}
	if err := os.Rename(staging, final); err != nil {
		return "", fmt.Errorf("promote artifact: %w", err)
	}

	artifact := c.ArtifactPath(songID)
	c.logger.Info("Rendered score",
		zap.String("song_id", songID),
		zap.Duration("duration", time.Since(started)),
	)

	if c.mirror != nil {
		if err := c.mirror.Upload(ctx, songID, artifact); err != nil {
			// The local artifact is the primary copy; a mirror failure
			// must not fail the build.
			c.logger.Warn("Failed to mirror artifact", zap.String("song_id", songID), zap.Error(err))
		}
	}

	return artifact, nil
}

func fingerprint(lytex string) string {
	sum := sha256.Sum256([]byte(lytex))
	return hex.EncodeToString(sum[:])
}
