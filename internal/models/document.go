// Package models defines core data structures for course files, extracted text, index points, and jobs.
package models

// Section is one labeled unit of extracted text (a slide, paragraph, page, sheet, or the whole document).
type Section struct {
	Text     string `json:"text"`
	Location string `json:"source_location"`
}

// Chunk is a retrieval-sized slice of a Section. Index is contiguous from 0 within one file.
type Chunk struct {
	Text     string `json:"chunk_text"`
	Location string `json:"source_location"`
	Index    int    `json:"chunk_index"`
}

// PointPayload is the descriptive data stored alongside each vector.
type PointPayload struct {
	CourseID       int64  `json:"course_id"`
	FileID         int64  `json:"file_id"`
	FileName       string `json:"filename"`
	ChunkIndex     int    `json:"chunk_index"`
	ChunkText      string `json:"chunk_text"`
	SourceLocation string `json:"source_location"`
}

// Map returns the payload as a flat map for stores with schemaless payloads.
func (p PointPayload) Map() map[string]any {
	return map[string]any{
		"course_id":       p.CourseID,
		"file_id":         p.FileID,
		"filename":        p.FileName,
		"chunk_index":     int64(p.ChunkIndex),
		"chunk_text":      p.ChunkText,
		"source_location": p.SourceLocation,
	}
}

// IndexPoint is one vector plus its payload as written to the vector index.
// ID is assigned by the writer at upsert time.
type IndexPoint struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"-"`
	Payload PointPayload `json:"payload"`
}
