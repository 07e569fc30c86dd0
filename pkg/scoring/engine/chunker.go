package engine

import (
	"fmt"

	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/core"
)

// Chunk is an ordered slice of at most chunkSize prospects. Index restores
// global ordering after concurrent execution: output position = all prospects
// of lower-indexed chunks, then intra-chunk position.
type Chunk struct {
	Index     int
	Prospects []core.Prospect
}

// Split cuts prospects into ordered chunks of at most size. The last chunk may
// be shorter. Pure function: it never blocks and never mutates its input.
func Split(prospects []core.Prospect, size int) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", core.ErrInvalidInput, size)
	}
	for i, p := range prospects {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: prospect at position %d has no id", core.ErrInvalidInput, i)
		}
	}

	chunks := make([]Chunk, 0, (len(prospects)+size-1)/size)
	for start := 0; start < len(prospects); start += size {
		end := start + size
		if end > len(prospects) {
			end = len(prospects)
		}
		chunks = append(chunks, Chunk{
			Index:     len(chunks),
			Prospects: prospects[start:end],
		})
	}
	return chunks, nil
}
