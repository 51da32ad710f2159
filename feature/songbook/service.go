package songbook

import (
	"context"
	"errors"

	"songlib/feature/catalog/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service manages songbooks and their ordered entries. Every mutation that
// touches positions runs in a single transaction so readers never observe a
// gap or a duplicate position.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates the songbook service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Create makes a new, empty songbook for the user.
func (s *Service) Create(ctx context.Context, userID, title string, description *string) (*Songbook, error) {
	if title == "" {
		title = "Untitled"
	}
	sb := Songbook{UserID: userID, Title: title, Description: description}
	if err := s.db.WithContext(ctx).Create(&sb).Error; err != nil {
		return nil, err
	}
	return &sb, nil
}

// ListByUser returns the user's songbooks.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Songbook, error) {
	var books []Songbook
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("title").
		Find(&books).Error
	return books, err
}

// Get returns one songbook owned by the user.
func (s *Service) Get(ctx context.Context, userID, songbookID string) (*Songbook, error) {
	var sb Songbook
	err := s.db.WithContext(ctx).
		First(&sb, "id = ? AND user_id = ?", songbookID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSongbookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sb, nil
}

// Rename changes the songbook title.
func (s *Service) Rename(ctx context.Context, userID, songbookID, title string) error {
	res := s.db.WithContext(ctx).
		Model(&Songbook{}).
		Where("id = ? AND user_id = ?", songbookID, userID).
		Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSongbookNotFound
	}
	return nil
}

// Delete removes the songbook and all of its entries.
func (s *Service) Delete(ctx context.Context, userID, songbookID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sb Songbook
		err := tx.First(&sb, "id = ? AND user_id = ?", songbookID, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSongbookNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Where("songbook_id = ?", sb.ID).Delete(&Entry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sb).Error
	})
}

// AddSong appends the song to the end of the songbook. Songs appear in a
// songbook at most once.
func (s *Service) AddSong(ctx context.Context, songbookID, songID string) (*Entry, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Songbook{}).Where("id = ?", songbookID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrSongbookNotFound
		}
		if err := tx.Model(&models.Song{}).Where("id = ?", songID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrSongNotFound
		}
		if err := tx.Model(&Entry{}).
			Where("songbook_id = ? AND song_id = ?", songbookID, songID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateEntry
		}

		var size int64
		if err := tx.Model(&Entry{}).Where("songbook_id = ?", songbookID).Count(&size).Error; err != nil {
			return err
		}
		entry = Entry{SongbookID: songbookID, SongID: songID, Position: int(size)}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// RemoveSong removes the song's entry from the songbook and closes the gap
// its position leaves behind.
func (s *Service) RemoveSong(ctx context.Context, songbookID, songID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry Entry
		err := tx.First(&entry, "songbook_id = ? AND song_id = ?", songbookID, songID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return err
		}
		return s.deleteAndCompact(tx, &entry)
	})
}

// RemoveEntry removes one entry by its own id and closes the gap.
func (s *Service) RemoveEntry(ctx context.Context, entryID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry Entry
		err := tx.First(&entry, "id = ?", entryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return err
		}
		return s.deleteAndCompact(tx, &entry)
	})
}

func (s *Service) deleteAndCompact(tx *gorm.DB, entry *Entry) error {
	if err := tx.Delete(entry).Error; err != nil {
		return err
	}
	return tx.Model(&Entry{}).
		Where("songbook_id = ? AND position > ?", entry.SongbookID, entry.Position).
		UpdateColumn("position", gorm.Expr("position - 1")).Error
}

// Reorder rewrites the songbook's positions from the supplied song id list.
// The list may be partial: named songs come first in the given order, the
// rest keep their previous relative order after them. Ids that are not in
// the songbook are ignored.
func (s *Service) Reorder(ctx context.Context, songbookID string, songIDs []string) ([]Entry, error) {
	var entries []Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Songbook{}).Where("id = ?", songbookID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrSongbookNotFound
		}

		var current []Entry
		if err := tx.Where("songbook_id = ?", songbookID).
			Order("position").
			Find(&current).Error; err != nil {
			return err
		}

		for pos, entryID := range planReorder(current, songIDs) {
			if err := tx.Model(&Entry{}).
				Where("id = ?", entryID).
				UpdateColumn("position", pos).Error; err != nil {
				return err
			}
		}

		return tx.Where("songbook_id = ?", songbookID).
			Order("position").
			Find(&entries).Error
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListOrdered returns the songbook's entries with their songs, sorted by
// position.
func (s *Service) ListOrdered(ctx context.Context, songbookID string) ([]Entry, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&Songbook{}).
		Where("id = ?", songbookID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrSongbookNotFound
	}

	var entries []Entry
	err := s.db.WithContext(ctx).
		Where("songbook_id = ?", songbookID).
		Preload("Song").
		Preload("Song.Source").
		Order("position").
		Find(&entries).Error
	return entries, err
}
