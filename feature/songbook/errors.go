package songbook

import "errors"

var (
	// ErrSongbookNotFound is returned when the songbook id does not resolve.
	ErrSongbookNotFound = errors.New("songbook not found")

	// ErrSongNotFound is returned when the referenced catalog song does not
	// exist.
	ErrSongNotFound = errors.New("song not found")

	// ErrEntryNotFound is returned when the entry (or songbook/song pair)
	// does not resolve.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrDuplicateEntry is returned when the song is already part of the
	// songbook.
	ErrDuplicateEntry = errors.New("song already in songbook")
)
