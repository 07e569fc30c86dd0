// Package inference holds the prompt rendering shared by inference client
// implementations. The scoring engine itself never sees prompts; it hands a
// chunk to an Invoker and gets back raw text.
package inference

import (
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/core"
)

//go:embed prompt.md
var promptTemplate string

// BatchPrompt renders the scoring prompt for one chunk. The settings block is
// forwarded verbatim; prospects are serialized with prospect_id first among
// their attributes so the model can echo it back.
func BatchPrompt(settings core.Settings, prospects []core.Prospect) (string, error) {
	if settings == nil {
		settings = core.Settings{}
	}
	settingsJSON, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal scoring settings: %w", err)
	}

	payload := make([]map[string]any, 0, len(prospects))
	for _, p := range prospects {
		entry := make(map[string]any, len(p.Attrs)+1)
		for k, v := range p.Attrs {
			entry[k] = v
		}
		entry["prospect_id"] = p.ID
		payload = append(payload, entry)
	}
	prospectsJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal prospects: %w", err)
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{SETTINGS_JSON}}", string(settingsJSON))
	prompt = strings.ReplaceAll(prompt, "{{PROSPECTS_JSON}}", string(prospectsJSON))
	return prompt, nil
}
