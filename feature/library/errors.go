package library

import (
	"errors"
	"fmt"
)

// ErrAmbiguousMatch is returned when field-equality identity resolution
// finds more than one candidate. The unit is skipped and logged for manual
// review; the resolver never auto-picks one.
var ErrAmbiguousMatch = errors.New("ambiguous catalog match")

// ParseError reports malformed or missing metadata for one content unit.
// The unit is skipped; the surrounding scan or watch run continues.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bad song at %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
