// Package gemini implements the inference client against the Gemini API with
// structured JSON output. Failures are classified into the scoring error
// taxonomy so the engine's retry policy can act on them.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/funnelalchemy/prospect-scorer/internal/inference"
	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/core"
	"google.golang.org/genai"
)

const systemInstruction = "You are an AI assistant that returns STRICT JSON only."

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies and the
	// mock-model server in tests.
	BaseURL string
}

// Client scores chunks of prospects via the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("gemini model is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Client{client: client, model: strings.TrimSpace(cfg.Model)}, nil
}

var outputSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"prospect_id":   {Type: genai.TypeString},
			"score":         {Type: genai.TypeInteger},
			"justification": {Type: genai.TypeString},
		},
		Required: []string{"prospect_id", "score", "justification"},
	},
}

// Invoke sends one chunk's scoring request and returns the raw JSON reply.
func (c *Client) Invoke(ctx context.Context, settings core.Settings, prospects []core.Prospect) (core.ModelReply, error) {
	prompt, err := inference.BatchPrompt(settings, prospects)
	if err != nil {
		return core.ModelReply{}, core.NewChunkError(core.CategoryInvalidProspect, err)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: systemInstruction}},
			},
			CandidateCount:   1,
			Temperature:      genai.Ptr[float32](0),
			ResponseMIMEType: "application/json",
			ResponseSchema:   outputSchema,
		},
	)
	if err != nil {
		return core.ModelReply{}, classifyErr(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return core.ModelReply{}, core.NewChunkError(core.CategoryInvalidJSON, errors.New("gemini returned an empty reply"))
	}
	return core.ModelReply{Text: text, Latency: time.Since(start)}, nil
}

// Ping issues a minimal generation to confirm the model is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(`Return only: {"ok": true}`),
		&genai.GenerateContentConfig{
			CandidateCount:  1,
			MaxOutputTokens: 10,
		},
	)
	if err != nil {
		return classifyErr(err)
	}
	return nil
}

// classifyErr maps transport and provider errors into the error taxonomy.
func classifyErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewChunkError(core.CategoryAPITimeout, err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 {
			return core.NewChunkError(core.CategoryAPIRateLimit, err)
		}
		return core.NewChunkError(core.CategoryAPIFailure, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return core.NewChunkError(core.CategoryAPITimeout, err)
	}
	return core.NewChunkError(core.CategoryAPIFailure, err)
}
