package models

import (
	"strings"
	"time"
)

// Course is the subset of an LMS course record the pipeline reads.
type Course struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code,omitempty"`
}

// SourceFile is a snapshot of one remote file's metadata as returned by a listing call.
type SourceFile struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content-type"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatedAt   time.Time `json:"created_at"`

	// Module is set when the file was discovered through a course module.
	Module *ModuleFileRef `json:"-"`
}

// Name returns the display name, falling back to the stored file name.
func (f *SourceFile) Name() string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.Filename
}

// NameForType returns the name used for extension lookup: the stored file name first.
func (f *SourceFile) NameForType() string {
	if f.Filename != "" {
		return f.Filename
	}
	return f.DisplayName
}

// Recency returns the last-modified time, falling back to creation time.
// Zero means neither is known.
func (f *SourceFile) Recency() time.Time {
	if !f.UpdatedAt.IsZero() {
		return f.UpdatedAt
	}
	return f.CreatedAt
}

// SizeKB is the size in kilobytes rounded to two decimals.
func (f *SourceFile) SizeKB() float64 {
	kb := float64(f.Size) / 1024
	return float64(int64(kb*100+0.5)) / 100
}

// Extension returns the lower-cased extension of NameForType including the dot, or "".
func (f *SourceFile) Extension() string {
	name := f.NameForType()
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i:])
}

// ModuleFileRef is a file reference found inside a course module.
type ModuleFileRef struct {
	TargetID   int64  `json:"target_id"`
	ModuleID   int64  `json:"module_id"`
	ModuleName string `json:"module_name"`
	ItemID     int64  `json:"item_id"`
	Title      string `json:"title"`
	Position   int    `json:"position"`
	HTMLURL    string `json:"html_url,omitempty"`
	URL        string `json:"url,omitempty"`
}
