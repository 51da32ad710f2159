package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SourceType tags where a source work comes from.
type SourceType string

const (
	SourceTypeBook    SourceType = "book"
	SourceTypeCD      SourceType = "cd"
	SourceTypeLP      SourceType = "lp"
	SourceTypeArchive SourceType = "archive"
)

// Person is a catalog person: a collector, author or performer.
// The natural key for deduplication is the (Name, Surname) pair.
type Person struct {
	ID       string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name     string  `gorm:"index:idx_person_natural" json:"name"`
	Surname  string  `gorm:"index:idx_person_natural" json:"surname"`
	Alias    *string `json:"alias,omitempty"`
	Born     *int    `json:"born,omitempty"`
	Died     *int    `json:"died,omitempty"`
	Location *string `json:"location,omitempty"`
	Note     *string `json:"note,omitempty"`

	Sources []*Source `gorm:"many2many:source_authors" json:"-"`
}

// BeforeCreate mints an identifier unless one was adopted from disk.
func (p *Person) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Source is a titled work (book, recording, archive) songs are taken from.
// The natural key for deduplication is the exact title.
type Source struct {
	ID            string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title         string      `gorm:"index" json:"title"`
	Year          *int        `json:"year,omitempty"`
	Type          *SourceType `gorm:"type:varchar(16)" json:"type,omitempty"`
	Public        bool        `gorm:"not null;default:false" json:"public"`
	TranscribedBy *string     `json:"transcribed_by,omitempty"`

	Authors []*Person `gorm:"many2many:source_authors" json:"authors,omitempty"`
}

// BeforeCreate mints an identifier unless one was adopted from disk.
func (s *Source) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Song is the canonical persisted form of one content unit.
// Every scalar may be updated by reconciliation; the ID is immutable once
// assigned.
type Song struct {
	ID    string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title string `gorm:"not null" json:"title"`

	// Lytex is the typeset source payload; Verses the plain-text verses.
	Lytex  *string `json:"lytex,omitempty"`
	Verses *string `json:"verses,omitempty"`

	SourceID string  `gorm:"type:varchar(36);not null" json:"source_id"`
	Source   *Source `json:"source,omitempty"`

	Signature     *string `json:"signature,omitempty"`
	Page          *int    `json:"page,omitempty"`
	Number        *int    `json:"number,omitempty"`
	Tempo         *int    `json:"tempo,omitempty"`
	Type          *string `json:"type,omitempty"`
	Year          *int    `json:"year,omitempty"`
	Location      *string `json:"location,omitempty"`
	TranscribedBy *string `json:"transcribed_by,omitempty"`

	RecordedByID *string `gorm:"type:varchar(36)" json:"recorded_by_id,omitempty"`
	RecordedBy   *Person `gorm:"foreignKey:RecordedByID" json:"recorded_by,omitempty"`
}

// BeforeCreate mints an identifier unless one was adopted from disk.
func (s *Song) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Migrate creates or updates the catalog tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Person{}, &Source{}, &Song{})
}
