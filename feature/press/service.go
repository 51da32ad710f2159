package press

import (
	"context"
	"errors"
	"os"

	"songlib/feature/catalog/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrUnknownSong is returned when the song id does not resolve.
var ErrUnknownSong = errors.New("song not found")

// Service exposes the build cache to the HTTP layer and the one-shot
// render command.
type Service struct {
	db     *gorm.DB
	cache  *Cache
	logger *zap.Logger
}

// NewService creates the press service.
func NewService(db *gorm.DB, cache *Cache, logger *zap.Logger) *Service {
	return &Service{db: db, cache: cache, logger: logger}
}

// Cache exposes the build cache; the reconciler uses it as its
// ScoreBuilder hook.
func (s *Service) Cache() *Cache {
	return s.cache
}

// ScorePath returns the artifact path for a song if one is available.
// When the artifact is missing but the song has a typeset source, a
// background render is queued and ErrScoreNotReady is returned so the
// reader can retry shortly.
func (s *Service) ScorePath(ctx context.Context, songID string) (string, error) {
	song, err := s.loadSong(ctx, songID)
	if err != nil {
		return "", err
	}
	if song.Lytex == nil {
		return "", ErrNoScore
	}

	artifact := s.cache.ArtifactPath(song.ID)
	if _, err := os.Stat(artifact); err == nil {
		return artifact, nil
	}

	s.cache.ScheduleRebuild(song)
	return "", ErrScoreNotReady
}

// Rebuild force-renders one song's artifact and returns its path.
func (s *Service) Rebuild(ctx context.Context, songID string) (string, error) {
	song, err := s.loadSong(ctx, songID)
	if err != nil {
		return "", err
	}
	return s.cache.ForceRebuild(ctx, song)
}

// RebuildAll ensures artifacts for every song with a typeset source.
// Used by the one-shot render command; failures are per-song and counted,
// not fatal.
func (s *Service) RebuildAll(ctx context.Context, force bool) (built, failed int, err error) {
	var songs []models.Song
	if err := s.db.WithContext(ctx).Where("lytex IS NOT NULL").Find(&songs).Error; err != nil {
		return 0, 0, err
	}

	for i := range songs {
		song := &songs[i]
		var buildErr error
		if force {
			_, buildErr = s.cache.ForceRebuild(ctx, song)
		} else {
			_, buildErr = s.cache.EnsureArtifact(ctx, song)
		}
		if buildErr != nil {
			failed++
			s.logger.Error("Score build failed", zap.String("song_id", song.ID), zap.Error(buildErr))
			continue
		}
		built++
	}
	return built, failed, nil
}

func (s *Service) loadSong(ctx context.Context, songID string) (*models.Song, error) {
	var song models.Song
	err := s.db.WithContext(ctx).First(&song, "id = ?", songID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownSong
	}
	if err != nil {
		return nil, err
	}
	return &song, nil
}
