package songbook

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"songlib/feature/catalog/models"
)

// Songbook is a user-curated collection of catalog songs.
type Songbook struct {
	ID          string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string  `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Title       string  `gorm:"not null;default:Untitled" json:"title"`
	Description *string `json:"description,omitempty"`

	Entries []Entry `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate mints the songbook identifier.
func (s *Songbook) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Entry associates one catalog song with a songbook at a zero-based
// position. For a fixed songbook the set of positions is always exactly
// {0, 1, …, n-1}: every insert, delete and reorder restores density before
// its transaction commits.
type Entry struct {
	ID         string `gorm:"type:varchar(36);primaryKey" json:"id"`
	SongbookID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_entry_songbook_song;index" json:"songbook_id"`
	SongID     string `gorm:"type:varchar(36);not null;uniqueIndex:idx_entry_songbook_song" json:"song_id"`
	Position   int    `gorm:"not null" json:"order"`

	Song *models.Song `json:"song,omitempty"`
}

// BeforeCreate mints the entry identifier.
func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// Migrate creates or updates the songbook tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Songbook{}, &Entry{})
}
