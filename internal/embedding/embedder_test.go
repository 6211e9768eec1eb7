package embedding

import (
	"context"
	"errors"
	"strconv"
	"testing"
)

// recordingEmbedder remembers every batch it is asked to embed and can be
// told to fail on a given call or to drop a vector from its answer.
type recordingEmbedder struct {
	*MockEmbedder
	batches [][]string
	failAt  int
	short   bool
}

func (r *recordingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	r.batches = append(r.batches, append([]string(nil), texts...))
	if r.failAt > 0 && len(r.batches) == r.failAt {
		return nil, errors.New("provider unavailable")
	}
	vecs, err := r.MockEmbedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if r.short {
		vecs = vecs[:len(vecs)-1]
	}
	return vecs, nil
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "chunk " + strconv.Itoa(i)
	}
	return out
}

func TestBatcher_EmbedAll_batchCounts(t *testing.T) {
	tests := []struct {
		n, batch, wantCalls int
	}{
		{0, 96, 0},
		{1, 96, 1},
		{96, 96, 1},
		{97, 96, 2},
		{250, 96, 3},
	}
	for _, tt := range tests {
		inner := &recordingEmbedder{MockEmbedder: NewMockEmbedder(8)}
		b := NewBatcher(inner, tt.batch)
		in := texts(tt.n)
		vecs, err := b.EmbedAll(context.Background(), in)
		if err != nil {
			t.Fatalf("n=%d: %v", tt.n, err)
		}
		if len(vecs) != tt.n {
			t.Errorf("n=%d: got %d vectors", tt.n, len(vecs))
		}
		if len(inner.batches) != tt.wantCalls {
			t.Errorf("n=%d: provider calls = %d, want %d", tt.n, len(inner.batches), tt.wantCalls)
		}
		for _, batch := range inner.batches {
			if len(batch) > tt.batch {
				t.Errorf("n=%d: batch of %d exceeds limit", tt.n, len(batch))
			}
		}
	}
}

func TestBatcher_EmbedAll_preservesOrder(t *testing.T) {
	mock := NewMockEmbedder(8)
	b := NewBatcher(mock, 3)
	in := texts(10)
	vecs, err := b.EmbedAll(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	for i, text := range in {
		want, _ := mock.Embed(context.Background(), text)
		for j := range want {
			if vecs[i][j] != want[j] {
				t.Fatalf("vector %d does not belong to %q", i, text)
			}
		}
	}
}

func TestBatcher_EmbedAll_failureIsAtomic(t *testing.T) {
	inner := &recordingEmbedder{MockEmbedder: NewMockEmbedder(8), failAt: 2}
	b := NewBatcher(inner, 2)
	vecs, err := b.EmbedAll(context.Background(), texts(5))
	if err == nil {
		t.Fatal("expected error")
	}
	if vecs != nil {
		t.Errorf("partial result returned: %d vectors", len(vecs))
	}
}

func TestBatcher_EmbedAll_countMismatch(t *testing.T) {
	inner := &recordingEmbedder{MockEmbedder: NewMockEmbedder(8), short: true}
	_, err := NewBatcher(inner, 4).EmbedAll(context.Background(), texts(3))
	if !errors.Is(err, ErrCountMismatch) {
		t.Fatalf("expected ErrCountMismatch, got %v", err)
	}
}

func TestBatcher_defaultBatchSize(t *testing.T) {
	if got := NewBatcher(NewMockEmbedder(4), 0).BatchSize(); got != DefaultBatchSize {
		t.Errorf("BatchSize() = %d, want %d", got, DefaultBatchSize)
	}
}

func TestMockEmbedder_deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	a, _ := e.Embed(context.Background(), "hello")
	b, _ := e.Embed(context.Background(), "hello")
	c, _ := e.Embed(context.Background(), "world")
	if len(a) != 16 {
		t.Fatalf("len = %d", len(a))
	}
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text produced different vectors")
		}
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestNewMockEmbedder_defaultDimensions(t *testing.T) {
	if got := NewMockEmbedder(0).Dimensions(); got != DefaultDimensions {
		t.Errorf("Dimensions() = %d", got)
	}
}
