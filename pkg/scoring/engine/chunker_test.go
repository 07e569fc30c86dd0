package engine_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/core"
	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/engine"
)

func makeProspects(n int) []core.Prospect {
	out := make([]core.Prospect, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, core.Prospect{ID: fmt.Sprintf("p%d", i+1)})
	}
	return out
}

func TestSplit_PreservesOrderAndSizes(t *testing.T) {
	t.Parallel()

	chunks, err := engine.Split(makeProspects(25), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0].Prospects) != 20 || len(chunks[1].Prospects) != 5 {
		t.Fatalf("unexpected chunk sizes: %d, %d", len(chunks[0].Prospects), len(chunks[1].Prospects))
	}
	if chunks[0].Index != 0 || chunks[1].Index != 1 {
		t.Fatalf("unexpected chunk indexes: %d, %d", chunks[0].Index, chunks[1].Index)
	}
	if chunks[0].Prospects[0].ID != "p1" || chunks[1].Prospects[4].ID != "p25" {
		t.Fatalf("chunking did not preserve order")
	}
}

func TestSplit_ExactMultiple(t *testing.T) {
	t.Parallel()

	chunks, err := engine.Split(makeProspects(40), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
}

func TestSplit_Empty(t *testing.T) {
	t.Parallel()

	chunks, err := engine.Split(nil, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestSplit_RejectsBadChunkSize(t *testing.T) {
	t.Parallel()

	_, err := engine.Split(makeProspects(3), 0)
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSplit_RejectsMissingID(t *testing.T) {
	t.Parallel()

	_, err := engine.Split([]core.Prospect{{ID: "a"}, {}}, 20)
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
