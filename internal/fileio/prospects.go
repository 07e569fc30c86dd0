// Package fileio loads prospects and scoring settings from local files for
// the one-shot score command.
package fileio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/core"
	"gopkg.in/yaml.v3"
)

// ReadSettingsYAML reads an ICP criteria file. The content is opaque to the
// engine; any mapping is accepted.
func ReadSettingsYAML(r io.Reader) (core.Settings, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	var settings map[string]any
	if err := yaml.Unmarshal(b, &settings); err != nil {
		return nil, fmt.Errorf("parse settings yaml: %w", err)
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, nil
}

// ReadProspectsJSON reads a JSON array of prospect objects.
func ReadProspectsJSON(r io.Reader) ([]core.Prospect, error) {
	var items []map[string]any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("parse prospects json: %w", err)
	}

	out := make([]core.Prospect, 0, len(items))
	for _, item := range items {
		out = append(out, prospectFromMap(item))
	}
	return out, nil
}

// ReadProspectsCSV reads a CSV file with an "id" (or "prospect_id") column;
// all other columns become opaque string attributes.
func ReadProspectsCSV(r io.Reader) ([]core.Prospect, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idIdx := -1
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if name == "id" || name == "prospect_id" {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("missing required column %q", "id")
	}

	var out []core.Prospect
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		p := core.Prospect{Attrs: make(map[string]any, len(rec))}
		for i, val := range rec {
			if i >= len(header) {
				break
			}
			if i == idIdx {
				p.ID = strings.TrimSpace(val)
				continue
			}
			p.Attrs[strings.TrimSpace(header[i])] = val
		}
		out = append(out, p)
	}
	return out, nil
}

// WriteResultsJSON writes scored results as an indented JSON array.
func WriteResultsJSON(w io.Writer, results []core.ScoringResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func prospectFromMap(item map[string]any) core.Prospect {
	p := core.Prospect{Attrs: make(map[string]any, len(item))}
	for k, v := range item {
		p.Attrs[k] = v
	}
	for _, key := range []string{"prospect_id", "id"} {
		if v, found := item[key]; found && p.ID == "" {
			switch val := v.(type) {
			case string:
				p.ID = val
			case float64:
				p.ID = strconv.FormatFloat(val, 'f', -1, 64)
			}
		}
	}
	return p
}
