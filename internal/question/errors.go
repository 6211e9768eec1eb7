// Package question picks a recent course file and turns it into one
// generated multiple-choice question, caching the result per file.
package question

import "errors"

// Each error names a distinct condition so callers can map them to
// different responses.
var (
	ErrNoCourses            = errors.New("question: no active courses")
	ErrNoUsableFiles        = errors.New("question: no usable files in active courses")
	ErrGeneratorUnavailable = errors.New("question: generator not configured")
	ErrEmptyDocument        = errors.New("question: file produced no text")
	ErrMalformedOutput      = errors.New("question: malformed model output")
)
