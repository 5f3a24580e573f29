package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiPrompt = `You are a billing assistant for a small shop. The user speaks in Hindi,
English or a mix of both. Extract the billing operation from the
utterance below and reply with ONLY a JSON object, no prose:

{"intent": "add_item" | "delete_item" | "update_item" | "generate_bill" | "other",
 "items": [{"name": "...", "quantity": <number or omit>, "rate": <number or omit>}]}

Rules:
- quantity and rate are per item; omit a field the user did not say.
- Item names stay in the language the user spoke them in.
- If the utterance is not about billing, use intent "other" with no items.

Utterance: %s`

// GeminiParser extracts intents with Google Gemini.
type GeminiParser struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiParser creates a Gemini-backed parser.
func NewGeminiParser(ctx context.Context, apiKey, modelName string) (*GeminiParser, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("intent: gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("intent: creating gemini client: %w", err)
	}

	return &GeminiParser{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Parse implements Parser.
func (g *GeminiParser) Parse(ctx context.Context, prompt string) (*Intent, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(geminiPrompt, prompt)))
	if err != nil {
		return nil, fmt.Errorf("intent: generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoContent
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	return decodeIntentJSON(b.String())
}

// Close closes the underlying Gemini client.
func (g *GeminiParser) Close() error {
	return g.client.Close()
}

// decodeIntentJSON parses a model reply into an Intent, tolerating
// markdown code fences and surrounding prose.
func decodeIntentJSON(text string) (*Intent, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("intent: no JSON object in response")
	}
	text = text[start : end+1]

	out := &Intent{Kind: KindOther}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return nil, fmt.Errorf("intent: unmarshaling response: %w", err)
	}
	if out.Kind == "" {
		out.Kind = KindOther
	}
	return out, nil
}

// Verify GeminiParser implements Parser at compile time.
var _ Parser = (*GeminiParser)(nil)
