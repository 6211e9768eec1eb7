package indexer

import (
	"strings"
	"testing"

	"github.com/hyperjump/lectern/internal/models"
)

func TestChunker_shortSectionIsOneChunk(t *testing.T) {
	c := NewChunker(800, 150)
	for _, text := range []string{"Hello", strings.Repeat("a", 800)} {
		chunks := c.Chunk([]models.Section{{Text: text, Location: "slide 1"}})
		if len(chunks) != 1 {
			t.Fatalf("len %d: got %d chunks", len(text), len(chunks))
		}
		if chunks[0].Text != text || chunks[0].Location != "slide 1" || chunks[0].Index != 0 {
			t.Errorf("chunk should equal the section, got %+v", chunks[0])
		}
	}
}

func TestChunker_windows(t *testing.T) {
	text := make([]byte, 1000)
	for i := range text {
		text[i] = byte('a' + i%26)
	}
	c := NewChunker(800, 150)
	chunks := c.Chunk([]models.Section{{Text: string(text), Location: "full document"}})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != string(text[0:800]) {
		t.Error("first chunk should be [0:800]")
	}
	if chunks[1].Text != string(text[650:1000]) {
		t.Error("second chunk should be [650:1000]")
	}
}

func TestChunker_countAndReconstruction(t *testing.T) {
	tests := []struct{ length, size, overlap int }{
		{801, 800, 150},
		{1000, 800, 150},
		{1450, 800, 150},
		{1451, 800, 150},
		{5000, 800, 150},
		{10, 3, 1},
		{11, 3, 2},
		{100, 7, 0},
	}
	for _, tt := range tests {
		text := strings.Repeat("xyz", tt.length)[:tt.length]
		chunks := NewChunker(tt.size, tt.overlap).Chunk([]models.Section{{Text: text}})

		step := tt.size - tt.overlap
		want := (tt.length - tt.overlap + step - 1) / step
		if len(chunks) != want {
			t.Errorf("L=%d size=%d overlap=%d: got %d chunks, want %d", tt.length, tt.size, tt.overlap, len(chunks), want)
			continue
		}
		var b strings.Builder
		for i, ch := range chunks {
			if ch.Index != i {
				t.Errorf("chunk %d has index %d", i, ch.Index)
			}
			if i == 0 {
				b.WriteString(ch.Text)
			} else {
				b.WriteString(ch.Text[tt.overlap:])
			}
		}
		if b.String() != text {
			t.Errorf("L=%d: reconstruction mismatch", tt.length)
		}
	}
}

func TestChunker_indexContinuesAcrossSections(t *testing.T) {
	c := NewChunker(5, 1)
	chunks := c.Chunk([]models.Section{
		{Text: "abc", Location: "paragraph 1"},
		{Text: "abcdefghi", Location: "paragraph 3"},
		{Text: "z", Location: "paragraph 4"},
	})
	wantLoc := []string{"paragraph 1", "paragraph 3", "paragraph 3", "paragraph 4"}
	if len(chunks) != len(wantLoc) {
		t.Fatalf("got %d chunks: %+v", len(chunks), chunks)
	}
	for i, ch := range chunks {
		if ch.Index != i || ch.Location != wantLoc[i] {
			t.Errorf("chunk %d = %+v", i, ch)
		}
	}
}

func TestChunker_countsCharactersNotBytes(t *testing.T) {
	text := strings.Repeat("é", 10)
	chunks := NewChunker(10, 2).Chunk([]models.Section{{Text: text}})
	if len(chunks) != 1 || chunks[0].Text != text {
		t.Errorf("10 runes should fit a 10-char chunk, got %+v", chunks)
	}
}

func TestChunker_empty(t *testing.T) {
	if chunks := NewChunker(5, 1).Chunk(nil); chunks != nil {
		t.Errorf("no sections should give nil, got %v", chunks)
	}
}

func TestChunker_overlapNotBelowSizeDoesNotOverlap(t *testing.T) {
	text := strings.Repeat("abcde", 6)
	for _, overlap := range []int{10, 15} {
		chunks := NewChunker(10, overlap).Chunk([]models.Section{{Text: text}})
		if len(chunks) != 3 {
			t.Fatalf("overlap %d: got %d chunks, want 3", overlap, len(chunks))
		}
		for i, ch := range chunks {
			if want := text[i*10 : i*10+10]; ch.Text != want {
				t.Errorf("overlap %d chunk %d: got %q, want %q", overlap, i, ch.Text, want)
			}
		}
	}
}
