// Package validate turns raw model replies into per-prospect scoring results.
//
// The model is asked for a strict JSON array, but replies arrive fenced,
// partially filled, or with out-of-range values. Validation never propagates
// those problems: every prospect of the chunk always gets exactly one result.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/core"
	"go.uber.org/zap"
)

// Validator normalizes model replies for one chunk at a time.
type Validator struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{log: log}
}

// Reply parses raw into one ScoringResult per prospect, in prospect order.
// ok is the number of prospects scored by the model without any correction.
// A non-nil error means the outer structure was unparsable; the caller should
// treat the whole chunk as an invalid_json failure.
func (v *Validator) Reply(prospects []core.Prospect, raw string) (results []core.ScoringResult, ok int, err error) {
	entries, err := parseEntries(raw)
	if err != nil {
		return nil, 0, core.NewChunkError(core.CategoryInvalidJSON, err)
	}

	known := make(map[string]int, len(prospects))
	for i, p := range prospects {
		known[p.ID] = i
	}

	byID := make(map[string]map[string]any, len(entries))
	for _, e := range entries {
		id := entryID(e)
		if id == "" {
			v.log.Warn("model entry without prospect id dropped")
			continue
		}
		if _, found := known[id]; !found {
			v.log.Warn("model entry for unknown prospect id dropped", zap.String("prospect_id", id))
			continue
		}
		if _, dup := byID[id]; dup {
			v.log.Warn("duplicate model entry dropped", zap.String("prospect_id", id))
			continue
		}
		byID[id] = e
	}

	results = make([]core.ScoringResult, 0, len(prospects))
	for _, p := range prospects {
		e, found := byID[p.ID]
		if !found {
			results = append(results, core.ScoringResult{
				ProspectID:    p.ID,
				Score:         0,
				Justification: "Model reply did not include this prospect",
			})
			continue
		}

		score, scoreOK := entryScore(e)
		just := entryJustification(e)
		switch {
		case !scoreOK:
			just = prefixJustification("Score missing or not an integer; replaced with 0", just)
			score = 0
		case score < 0 || score > 100:
			just = prefixJustification(fmt.Sprintf("Score %d outside [0,100]; replaced with 0", score), just)
			score = 0
		default:
			ok++
		}
		results = append(results, core.ScoringResult{
			ProspectID:    p.ID,
			Score:         score,
			Justification: just,
		})
	}
	return results, ok, nil
}

// Fallback synthesizes one result per prospect for a chunk whose call failed
// terminally. The justification names the final error category.
func (v *Validator) Fallback(prospects []core.Prospect, cat core.Category) []core.ScoringResult {
	msg := fallbackMessage(cat)
	out := make([]core.ScoringResult, 0, len(prospects))
	for _, p := range prospects {
		out = append(out, core.ScoringResult{
			ProspectID:    p.ID,
			Score:         0,
			Justification: fmt.Sprintf("%s (%s)", msg, cat),
		})
	}
	return out
}

func fallbackMessage(cat core.Category) string {
	switch cat {
	case core.CategoryAPIRateLimit:
		return "Rate limited by provider"
	case core.CategoryAPITimeout:
		return "Model request timed out"
	case core.CategoryInvalidJSON:
		return "Invalid JSON from model"
	case core.CategoryInvalidProspect:
		return "Invalid prospect payload"
	default:
		return "Model API failure"
	}
}

func parseEntries(raw string) ([]map[string]any, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty model reply")
	}

	var entries []map[string]any
	if err := json.Unmarshal([]byte(cleaned), &entries); err == nil {
		return entries, nil
	}

	// Some models return a single object for single-prospect chunks.
	var single map[string]any
	if err := json.Unmarshal([]byte(cleaned), &single); err == nil {
		return []map[string]any{single}, nil
	}
	return nil, fmt.Errorf("reply is not a JSON array of result objects")
}

// stripFences removes markdown code fences the model sometimes wraps its JSON in.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

func entryID(e map[string]any) string {
	for _, key := range []string{"prospect_id", "id"} {
		if v, found := e[key]; found {
			if s := coerceString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// entryScore extracts an integral score. Numeric strings are accepted;
// fractional values and anything else are rejected.
func entryScore(e map[string]any) (int, bool) {
	v, found := e["score"]
	if !found {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int(val), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func entryJustification(e map[string]any) string {
	v, found := e["justification"]
	if !found || v == nil {
		return ""
	}
	return coerceString(v)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == math.Trunc(val) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}

func prefixJustification(prefix, just string) string {
	if just == "" {
		return prefix
	}
	return prefix + "; " + just
}
