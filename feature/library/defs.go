package library

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// AuthorDef is an author definition from library.json.
type AuthorDef struct {
	Name     string  `json:"name"`
	Surname  string  `json:"surname"`
	Alias    *string `json:"alias,omitempty"`
	Born     *int    `json:"born,omitempty"`
	Died     *int    `json:"died,omitempty"`
	Location *string `json:"location,omitempty"`
	Note     *string `json:"note,omitempty"`
}

// SourceDef is a source definition from library.json.
type SourceDef struct {
	Title         string  `json:"title"`
	Type          *string `json:"type,omitempty"`
	Year          *int    `json:"year,omitempty"`
	Public        bool    `json:"public,omitempty"`
	TranscribedBy *string `json:"transcribed_by,omitempty"`
	// Authors lists author full names; AuthorName is the older single-name
	// form still found in existing trees.
	Authors    []string `json:"authors,omitempty"`
	AuthorName string   `json:"author_name,omitempty"`
}

// LibraryDefs is the root library.json document: author and source
// definitions consumed once per scan to pre-seed the catalog.
type LibraryDefs struct {
	Authors []AuthorDef `json:"authors"`
	Sources []SourceDef `json:"sources"`
}

// AuthorNames returns the source's author names, folding the legacy
// single-name form into the list.
func (d SourceDef) AuthorNames() []string {
	names := d.Authors
	if d.AuthorName != "" {
		names = append(names, d.AuthorName)
	}
	return names
}

// ReadLibraryDefs reads library.json from the content root. A missing file
// is not an error; it returns (nil, nil) so callers can skip seeding.
func ReadLibraryDefs(root string) (*LibraryDefs, error) {
	raw, err := os.ReadFile(filepath.Join(root, LibraryFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var defs LibraryDefs
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, &ParseError{Path: filepath.Join(root, LibraryFile), Err: err}
	}
	return &defs, nil
}
