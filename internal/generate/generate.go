// Package generate produces workflow documents from natural-language
// descriptions. It assembles a generation prompt from the catalog's
// bounded projection, calls the model, and parses and validates the
// returned JSON. Output quality is the model's concern; this package
// only guarantees the contract around it.
package generate

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/agentstation/nodeatlas/pkg/errors"
	"github.com/agentstation/nodeatlas/pkg/logging"
	"github.com/agentstation/nodeatlas/pkg/workflows"
)

// DefaultModel is the generation model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

const systemPrompt = `You are a workflow generation assistant for the n8n automation platform.
Build a workflow JSON document for the user's request using only the node types listed below.

Rules:
- Output a single JSON object, nothing else.
- Top-level keys: "name" (string), "nodes" (array), "connections" (object).
- Every node needs "type", "name" and "position" ([x, y]); give each node a distinct name.
- Wire nodes via "connections": {"<node name>": {"main": [[{"node": "<target>", "type": "main", "index": 0}]]}}.

Available node types:
`

// Generator turns descriptions into validated workflows.
type Generator struct {
	client *genai.Client
	model  string
	policy workflows.SelectionPolicy
}

// Option configures a Generator.
type Option func(*Generator)

// WithModel overrides the generation model.
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithSelectionPolicy overrides how catalog nodes are projected into
// the prompt.
func WithSelectionPolicy(p workflows.SelectionPolicy) Option {
	return func(g *Generator) { g.policy = p }
}

// New creates a Generator authenticated with the given API key.
func New(ctx context.Context, apiKey string, opts ...Option) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.ErrAPIKeyRequired
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, errors.WrapAPI("genai", 0, err)
	}

	g := &Generator{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Result is one generation outcome: the parsed workflow plus its
// validation findings. Workflow is nil when validation found
// structural errors.
type Result struct {
	Workflow   *workflows.Workflow
	Raw        []byte
	Validation workflows.Result
}

// Generate builds a workflow for the description against the given
// catalog projection.
func (g *Generator) Generate(ctx context.Context, description string, summaries []workflows.Summary) (*Result, error) {
	if strings.TrimSpace(description) == "" {
		return nil, errors.NewValidationError("description", description, "must not be empty")
	}

	prompt, err := buildPrompt(summaries)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(description),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: prompt}},
			},
			Temperature: genai.Ptr[float32](0.2),
		})
	if err != nil {
		return nil, errors.WrapAPI("genai", 0, err)
	}

	raw := []byte(StripFences(resp.Text()))
	return finishResult(ctx, raw)
}

// finishResult parses, validates and post-processes raw model output.
func finishResult(ctx context.Context, raw []byte) (*Result, error) {
	validation, err := workflows.Validate(raw)
	if err != nil {
		return nil, err
	}
	result := &Result{Raw: raw, Validation: validation}
	if !validation.OK() {
		logging.Ctx(ctx).Warn().
			Int("errors", len(validation.Errors)).
			Msg("generated workflow failed structural validation")
		return result, nil
	}

	wf, err := workflows.Parse(raw)
	if err != nil {
		return nil, err
	}
	for i := range wf.Nodes {
		if wf.Nodes[i].ID == "" {
			wf.Nodes[i].ID = uuid.NewString()
		}
	}
	result.Workflow = wf
	return result, nil
}

func buildPrompt(summaries []workflows.Summary) (string, error) {
	if len(summaries) == 0 {
		return "", errors.NewValidationError("summaries", nil, "catalog projection must not be empty")
	}
	listing, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "", errors.WrapParse("projection", "json", err)
	}
	return systemPrompt + string(listing), nil
}

// StripFences removes a surrounding markdown code fence from model
// output, tolerating a language tag after the opening fence.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		first := strings.TrimSpace(text[:i])
		if first == "" || isLanguageTag(first) {
			text = text[i+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func isLanguageTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
