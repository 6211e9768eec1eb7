// Package cli provides output helpers for the lectern command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/lectern/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteJobStatus writes an ingestion status to w in the given format.
func WriteJobStatus(w io.Writer, st models.JobStatus, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	if st.CourseID != 0 {
		fmt.Fprintf(w, "course_id:        %d\n", st.CourseID)
	}
	fmt.Fprintf(w, "status:           %s\n", st.State)
	fmt.Fprintf(w, "files_total:      %d\n", st.FilesTotal)
	fmt.Fprintf(w, "files_processed:  %d\n", st.FilesProcessed)
	fmt.Fprintf(w, "files_skipped:    %d\n", st.FilesSkipped)
	fmt.Fprintf(w, "chunks_indexed:   %d\n", st.ChunksIndexed)
	if st.Error != "" {
		fmt.Fprintf(w, "error:            %s\n", st.Error)
	}
	return nil
}

// WriteQuestion writes a generated question to w in the given format.
func WriteQuestion(w io.Writer, q *models.Question, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, q)
	}
	fmt.Fprintf(w, "[%s] %s\n", q.ID, q.Topic)
	if q.MCQ != nil {
		fmt.Fprintf(w, "\n%s\n", q.MCQ.Question)
		for i, opt := range q.MCQ.Options {
			mark := " "
			if i == q.MCQ.CorrectIndex {
				mark = "*"
			}
			fmt.Fprintf(w, " %s %c) %s\n", mark, 'A'+rune(i), opt)
		}
	}
	if q.Hint != "" {
		fmt.Fprintf(w, "\nHint: %s\n", q.Hint)
	}
	if q.Answer != "" {
		fmt.Fprintf(w, "Answer: %s\n", q.Answer)
	}
	return nil
}

// WriteCourses writes a course listing to w in the given format.
func WriteCourses(w io.Writer, courses []models.Course, format OutputFormat) error {
	if format == OutputJSON {
		if courses == nil {
			courses = []models.Course{}
		}
		return writeJSON(w, courses)
	}
	if len(courses) == 0 {
		fmt.Fprintln(w, "No courses found.")
		return nil
	}
	for _, c := range courses {
		if c.CourseCode != "" {
			fmt.Fprintf(w, "%-8d %s (%s)\n", c.ID, c.Name, c.CourseCode)
			continue
		}
		fmt.Fprintf(w, "%-8d %s\n", c.ID, c.Name)
	}
	return nil
}

// WriteFiles writes a course file listing to w in the given format.
func WriteFiles(w io.Writer, files []models.SourceFile, format OutputFormat) error {
	if format == OutputJSON {
		if files == nil {
			files = []models.SourceFile{}
		}
		return writeJSON(w, files)
	}
	fmt.Fprintf(w, "%d file(s)\n", len(files))
	for i := range files {
		f := &files[i]
		updated := "-"
		if t := f.Recency(); !t.IsZero() {
			updated = t.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%-8d %-40s %10.2f KB  %s\n", f.ID, Truncate(f.Name(), 40), f.SizeKB(), updated)
	}
	return nil
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// ErrorMessage extracts the "error" field of an API error body, falling back to the raw text.
func ErrorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
