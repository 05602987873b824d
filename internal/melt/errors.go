package melt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResultSet is returned when a run registered no sample at all.
var ErrEmptyResultSet = errors.New("no results: no sample shares elements with both the Kd and normalizing tables")

// FatalInputError aborts a run before anything is computed.
type FatalInputError struct {
	Reason string
	Err    error
}

func (e *FatalInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

func (e *FatalInputError) Unwrap() error { return e.Err }

// UnknownStudyError is returned when a table is requested for a study that
// has no registered result.
type UnknownStudyError struct {
	Study     string
	Available []string
}

func (e *UnknownStudyError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("study %q not found in results", e.Study)
	}
	return fmt.Sprintf("study %q not found in results (available: %s)", e.Study, strings.Join(e.Available, ", "))
}

// SkippedStudy records a study that produced no result.
type SkippedStudy struct {
	Study  string `json:"study"`
	Reason string `json:"reason"`
}

// SkippedSample records a sample that produced no result.
type SkippedSample struct {
	Study  string `json:"study"`
	Sample string `json:"sample"`
	Reason string `json:"reason"`
}
