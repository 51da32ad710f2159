package library

import (
	"context"
	"errors"
	"fmt"

	"songlib/feature/catalog/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resolver decides whether a parsed content record corresponds to an
// existing catalog song or to a new one.
type Resolver struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewResolver creates an identity resolver.
func NewResolver(db *gorm.DB, logger *zap.Logger) *Resolver {
	return &Resolver{db: db, logger: logger}
}

// Resolve returns the matching catalog song, or nil when the record should
// be treated as new.
//
// With an identifier present the lookup is direct; a missing row is NOT an
// error — the identifier was assigned externally or the row was deleted,
// and the caller re-adopts the same identifier on creation so the
// filesystem back-reference stays valid.
//
// Without an identifier it falls back to field-equality matching across the
// whole catalog, treating a catalog NULL as a wildcard. Exactly one match
// is adopted; zero means new; more than one yields ErrAmbiguousMatch and
// the unit is skipped for manual review.
func (r *Resolver) Resolve(ctx context.Context, rec *ContentRecord) (*models.Song, error) {
	if rec.ID != "" {
		var song models.Song
		err := r.db.WithContext(ctx).First(&song, "id = ?", rec.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Debug("Identifier not in catalog, re-adopting",
				zap.String("id", rec.ID), zap.String("dir", rec.Dir))
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("lookup by id %s: %w", rec.ID, err)
		}
		return &song, nil
	}

	// TODO(identity): replace the O(n) scan with an indexed content hash
	// once the catalog outgrows a few thousand songs.
	var songs []models.Song
	if err := r.db.WithContext(ctx).Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("load catalog for field matching: %w", err)
	}

	var matched []*models.Song
	for i := range songs {
		if fieldsMatch(&songs[i], rec) {
			matched = append(matched, &songs[i])
		}
	}

	switch len(matched) {
	case 0:
		return nil, nil
	case 1:
		return matched[0], nil
	default:
		ids := make([]string, len(matched))
		for i, s := range matched {
			ids[i] = s.ID
		}
		r.logger.Warn("Ambiguous field-equality match, skipping unit",
			zap.String("dir", rec.Dir), zap.Strings("candidates", ids))
		return nil, ErrAmbiguousMatch
	}
}

// fieldsMatch compares every scalar field present in the record against the
// catalog row. A NULL on the row is a wildcard; a field absent from the
// record is ignored.
func fieldsMatch(song *models.Song, rec *ContentRecord) bool {
	if song.Title != rec.Title {
		return false
	}
	return matchString(song.Location, rec.Location) &&
		matchString(song.Signature, rec.Signature) &&
		matchString(song.Type, rec.Type) &&
		matchString(song.TranscribedBy, rec.TranscribedBy) &&
		matchInt(song.Year, rec.Year) &&
		matchInt(song.Page, rec.Page) &&
		matchInt(song.Number, rec.Number) &&
		matchInt(song.Tempo, rec.Tempo)
}

func matchString(have, want *string) bool {
	if want == nil || have == nil {
		return true
	}
	return *have == *want
}

func matchInt(have, want *int) bool {
	if want == nil || have == nil {
		return true
	}
	return *have == *want
}
