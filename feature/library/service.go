package library

import (
	"context"
	"errors"
	"sync/atomic"

	"songlib/feature/catalog/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrScanInProgress is returned when a manual resync is requested while
// another scan is still running. Scans are never run concurrently against
// the same content tree.
var ErrScanInProgress = errors.New("a library scan is already running")

// ErrSongNotFound is returned when a song id does not resolve.
var ErrSongNotFound = errors.New("song not found")

// Service exposes library operations to the HTTP layer and the daemon.
type Service struct {
	db       *gorm.DB
	scanner  *Scanner
	cfg      Config
	logger   *zap.Logger
	scanning atomic.Bool
}

// NewService creates the library service around an existing reconciler.
func NewService(db *gorm.DB, rec *Reconciler, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		db:      db,
		scanner: NewScanner(rec, logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// RunScan performs one full pass over the content tree. Only one scan runs
// at a time; a second request gets ErrScanInProgress instead of queueing.
func (s *Service) RunScan(ctx context.Context) (ScanSummary, error) {
	if !s.scanning.CompareAndSwap(false, true) {
		return ScanSummary{}, ErrScanInProgress
	}
	defer s.scanning.Store(false)

	return s.scanner.Scan(ctx, s.cfg.ContentDir)
}

// ListSongs returns every catalog song with its source and collector.
func (s *Service) ListSongs(ctx context.Context) ([]models.Song, error) {
	var songs []models.Song
	err := s.db.WithContext(ctx).
		Preload("Source").
		Preload("RecordedBy").
		Order("title asc").
		Find(&songs).Error
	return songs, err
}

// GetSong returns one catalog song by id.
func (s *Service) GetSong(ctx context.Context, id string) (*models.Song, error) {
	var song models.Song
	err := s.db.WithContext(ctx).
		Preload("Source").
		Preload("Source.Authors").
		Preload("RecordedBy").
		First(&song, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSongNotFound
	}
	if err != nil {
		return nil, err
	}
	return &song, nil
}
