package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"songlib/core/utils"
)

// Well-known files inside a content unit directory and at the content root.
const (
	MetadataFile = "metadata.json"
	LytexFile    = "source.lytex"
	VersesFile   = "verses"
	LibraryFile  = "library.json"
)

// SourceRef is the nested source reference inside a metadata record.
type SourceRef struct {
	Title string
	Type  string
}

// ContentRecord is the transient, on-disk description of one song: the
// metadata record plus the optional typeset source and verses payloads.
// Scalar fields are nil when the metadata omits them or carries an empty
// string; the reconciler treats both the same way.
type ContentRecord struct {
	// Dir is the content unit directory the record was read from.
	Dir string

	// ID is empty until the first successful reconciliation writes the
	// assigned identifier back to disk.
	ID    string
	Title string

	Source     SourceRef
	RecordedBy string

	Location      *string
	Signature     *string
	Type          *string
	TranscribedBy *string
	Year          *int
	Page          *int
	Number        *int
	Tempo         *int

	Lytex  *string
	Verses *string
}

// ReadRecord parses the content unit at dir. Malformed or incomplete
// metadata yields a *ParseError; the caller skips the unit and moves on.
func ReadRecord(dir string) (*ContentRecord, error) {
	metaPath := filepath.Join(dir, MetadataFile)
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, &ParseError{Path: metaPath, Err: err}
	}

	// Decode into a generic map first: real content trees carry page/year/
	// number as JSON numbers or strings interchangeably.
	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, &ParseError{Path: metaPath, Err: err}
	}

	rec := &ContentRecord{Dir: dir}

	if s := stringField(meta, "title"); s != nil {
		rec.Title = *s
	}
	if rec.Title == "" {
		return nil, &ParseError{Path: metaPath, Err: fmt.Errorf("missing title")}
	}

	if s := stringField(meta, "id"); s != nil {
		rec.ID = *s
	}

	src, ok := meta["source"].(map[string]any)
	if !ok {
		return nil, &ParseError{Path: metaPath, Err: fmt.Errorf("missing source")}
	}
	if s := stringField(src, "title"); s != nil {
		rec.Source.Title = *s
	}
	if rec.Source.Title == "" {
		return nil, &ParseError{Path: metaPath, Err: fmt.Errorf("missing source title")}
	}
	if s := stringField(src, "type"); s != nil {
		rec.Source.Type = *s
	}

	if s := stringField(meta, "recorded_by"); s != nil {
		rec.RecordedBy = *s
	}

	rec.Location = stringField(meta, "location")
	rec.Signature = stringField(meta, "signature")
	rec.Type = stringField(meta, "type")
	rec.TranscribedBy = stringField(meta, "transcribed_by")
	rec.Year = intField(meta, "year")
	rec.Page = intField(meta, "page")
	rec.Number = intField(meta, "number")
	rec.Tempo = intField(meta, "tempo")

	rec.Lytex = readPayload(filepath.Join(dir, LytexFile))
	rec.Verses = readPayload(filepath.Join(dir, VersesFile))

	return rec, nil
}

// WriteBackID writes the assigned identifier into the unit's metadata file,
// preserving every other key. This is a best-effort secondary write with no
// transactional coupling to the catalog; the identity resolver's
// field-equality fallback covers the case where it failed.
func WriteBackID(dir, id string) error {
	metaPath := filepath.Join(dir, MetadataFile)
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return err
	}

	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		return err
	}
	meta["id"] = id

	out, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(metaPath, append(out, '\n'), 0o644)
}

// readPayload returns the trimmed file contents, or nil when the file is
// absent or empty.
func readPayload(path string) *string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	s := string(raw)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// stringField extracts a scalar as a string, normalizing empty to nil.
func stringField(m map[string]any, key string) *string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	s := strings.TrimSpace(utils.ToString(v))
	if s == "" {
		return nil
	}
	return &s
}

// intField extracts a scalar as an int, normalizing absent or empty to nil.
func intField(m map[string]any, key string) *int {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil
	}
	i := utils.ToInt(v)
	return &i
}
