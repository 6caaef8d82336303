package dataset

import (
	"fmt"
)

// MissingDataError reports an expected input file that does not exist.
// Non-fatal for the run: the pipeline continues with a reduced table set.
type MissingDataError struct {
	File     string
	Required bool
}

func (e *MissingDataError) Error() string {
	if e.Required {
		return fmt.Sprintf("required data file missing: %s", e.File)
	}
	return fmt.Sprintf("optional data file missing: %s", e.File)
}

// ParseError reports a malformed input file. Fatal for that table only.
type ParseError struct {
	File  string
	Line  int
	Cause error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse %s at line %d: %v", e.File, e.Line, e.Cause)
	}
	return fmt.Sprintf("failed to parse %s: %v", e.File, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
