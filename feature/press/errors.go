package press

import (
	"errors"
	"fmt"
)

// ErrNoScore is returned when a song has no typeset source to render.
var ErrNoScore = errors.New("song has no typeset source")

// ErrScoreNotReady is returned when no artifact has been rendered yet.
// Readers see "not yet available" rather than a broken file.
var ErrScoreNotReady = errors.New("score not yet available")

// BuildError reports a failed renderer invocation. The cache entry is
// withheld so the next ensure call retries.
type BuildError struct {
	SongID string
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("score build for %s failed: %v", e.SongID, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
