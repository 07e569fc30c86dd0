package core

import "time"

// Settings is the caller-defined bag of ideal-customer criteria (industries,
// size ranges, keywords, free-text preferences). The scoring engine never
// inspects its contents; it is forwarded verbatim to the model request.
type Settings map[string]any

// Prospect is one candidate record. Only ID is a checked field; Attrs carries
// the open-ended attribute bag and is opaque to the scoring engine.
type Prospect struct {
	ID    string
	Attrs map[string]any
}

// ScoringResult is the per-prospect outcome. Score is always an integer in
// [0,100]; Justification is never empty for fallback results.
type ScoringResult struct {
	ProspectID    string `json:"prospect_id"`
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}

// ModelReply is a successful raw reply from the inference service.
type ModelReply struct {
	Text    string
	Latency time.Duration
}

// RunMetrics summarizes one scoring run. It is built once per call and
// reported to the caller; nothing is persisted across requests.
type RunMetrics struct {
	Count       int
	OK          int
	OKShare     float64
	Retries     int
	Latency     time.Duration
	ErrorCounts map[Category]int
}
