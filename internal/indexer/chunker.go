// Package indexer turns a course's files into vector index points and tracks
// the per-course ingestion job.
package indexer

import (
	"github.com/hyperjump/lectern/internal/models"
)

// Default chunk sizing, in characters.
const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 150
)

// Chunker splits sections into overlapping character windows.
// Overlap must be less than size; NewChunker does not check. With a larger
// overlap the windows fall back to not overlapping at all.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in characters).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Chunk splits sections into chunks. A section at or under the chunk size is
// kept whole; longer ones are windowed. Indexes run on across sections from 0.
func (c *Chunker) Chunk(sections []models.Section) []models.Chunk {
	var chunks []models.Chunk
	step := c.chunkSize - c.chunkOverlap
	if step <= 0 {
		step = max(c.chunkSize, 1)
	}
	for _, s := range sections {
		runes := []rune(s.Text)
		if len(runes) <= c.chunkSize {
			chunks = append(chunks, models.Chunk{Text: s.Text, Location: s.Location, Index: len(chunks)})
			continue
		}
		for start := 0; start < len(runes); start += step {
			end := start + c.chunkSize
			if end > len(runes) {
				end = len(runes)
			}
			chunks = append(chunks, models.Chunk{
				Text:     string(runes[start:end]),
				Location: s.Location,
				Index:    len(chunks),
			})
			if end == len(runes) {
				break
			}
		}
	}
	return chunks
}
