package library

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"songlib/feature/catalog/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SplitName splits a free-text "First Last" name at the first whitespace
// boundary. Multi-part surnames are not handled; deployments that need a
// smarter split can replace this variable.
var SplitName = func(full string) (name, surname string) {
	parts := strings.SplitN(strings.TrimSpace(full), " ", 2)
	name = parts[0]
	if len(parts) > 1 {
		surname = strings.TrimSpace(parts[1])
	}
	return name, surname
}

// DependentResolver resolves and deduplicates referenced entities (persons,
// sources) by natural key, creating them on first sight. All creates are
// persisted immediately so the foreign-key invariant holds before the
// referencing song is written, and so later resolutions in the same batch
// observe them.
type DependentResolver struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDependentResolver creates a dependent-entity resolver.
func NewDependentResolver(db *gorm.DB, logger *zap.Logger) *DependentResolver {
	return &DependentResolver{db: db, logger: logger}
}

// ResolveAuthor finds the person for a "First Last" name, creating it on a
// miss. Lookup is exact on the (name, surname) pair.
func (d *DependentResolver) ResolveAuthor(ctx context.Context, fullName string) (*models.Person, error) {
	name, surname := SplitName(fullName)
	if name == "" {
		return nil, fmt.Errorf("empty person name %q", fullName)
	}

	var person models.Person
	err := d.db.WithContext(ctx).
		Where("name = ? AND surname = ?", name, surname).
		First(&person).Error
	if err == nil {
		return &person, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("person lookup %q: %w", fullName, err)
	}

	person = models.Person{Name: name, Surname: surname}
	if err := d.db.WithContext(ctx).Create(&person).Error; err != nil {
		return nil, fmt.Errorf("create person %q: %w", fullName, err)
	}
	d.logger.Info("Created person", zap.String("name", name), zap.String("surname", surname))
	return &person, nil
}

// ResolveSource finds the source with the given title, creating it with the
// supplied type and authors on a miss. Lookup is exact on the title.
func (d *DependentResolver) ResolveSource(ctx context.Context, ref SourceRef, authors []*models.Person) (*models.Source, error) {
	if ref.Title == "" {
		return nil, fmt.Errorf("empty source title")
	}

	var source models.Source
	err := d.db.WithContext(ctx).
		Where("title = ?", ref.Title).
		First(&source).Error
	if err == nil {
		return &source, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("source lookup %q: %w", ref.Title, err)
	}

	source = models.Source{Title: ref.Title, Authors: authors}
	if ref.Type != "" {
		t := models.SourceType(ref.Type)
		source.Type = &t
	}
	if err := d.db.WithContext(ctx).Create(&source).Error; err != nil {
		return nil, fmt.Errorf("create source %q: %w", ref.Title, err)
	}
	d.logger.Info("Created source", zap.String("title", ref.Title))
	return &source, nil
}

// SeedFromDefs pre-seeds persons and sources from the content root's
// library.json definitions. Existing entities are matched by natural key
// and only their optional fields are filled in; nothing is duplicated on
// repeated scans.
func (d *DependentResolver) SeedFromDefs(ctx context.Context, defs *LibraryDefs) error {
	if defs == nil {
		return nil
	}

	for _, a := range defs.Authors {
		if a.Name == "" {
			continue
		}
		var person models.Person
		err := d.db.WithContext(ctx).
			Where("name = ? AND surname = ?", a.Name, a.Surname).
			First(&person).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			person = models.Person{
				Name: a.Name, Surname: a.Surname,
				Alias: a.Alias, Born: a.Born, Died: a.Died,
				Location: a.Location, Note: a.Note,
			}
			if err := d.db.WithContext(ctx).Create(&person).Error; err != nil {
				return fmt.Errorf("seed person %s %s: %w", a.Name, a.Surname, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("seed person lookup %s %s: %w", a.Name, a.Surname, err)
		}
	}

	for _, s := range defs.Sources {
		if s.Title == "" {
			continue
		}

		var authors []*models.Person
		for _, full := range s.AuthorNames() {
			person, err := d.ResolveAuthor(ctx, full)
			if err != nil {
				return err
			}
			authors = append(authors, person)
		}

		var source models.Source
		err := d.db.WithContext(ctx).Where("title = ?", s.Title).First(&source).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			source = models.Source{
				Title: s.Title, Year: s.Year, Public: s.Public,
				TranscribedBy: s.TranscribedBy, Authors: authors,
			}
			if s.Type != nil {
				t := models.SourceType(*s.Type)
				source.Type = &t
			}
			if err := d.db.WithContext(ctx).Create(&source).Error; err != nil {
				return fmt.Errorf("seed source %q: %w", s.Title, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("seed source lookup %q: %w", s.Title, err)
		}
	}

	return nil
}
