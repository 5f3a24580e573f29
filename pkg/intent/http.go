package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/codewithayushgupta/voiceBillingAgent/internal/httpc"
)

// HTTPParser calls a remote parse endpoint that accepts
// {"prompt": "..."} and answers with an intent JSON object.
type HTTPParser struct {
	url    string
	client *http.Client
}

// NewHTTPParser creates a parser backed by the given endpoint URL.
func NewHTTPParser(url string) *HTTPParser {
	return &HTTPParser{
		url:    url,
		client: httpc.Client,
	}
}

// Parse implements Parser.
func (p *HTTPParser) Parse(ctx context.Context, prompt string) (*Intent, error) {
	body, err := postJSON(ctx, p.client, p.url, "parse-ai", map[string]string{"prompt": prompt})
	if err != nil {
		return nil, err
	}

	out := &Intent{Kind: KindOther}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("intent: decoding parse response: %w", err)
	}
	if out.Kind == "" {
		out.Kind = KindOther
	}
	return out, nil
}

// HTTPNameDetector calls a remote endpoint that extracts a customer
// name from an utterance, answering {"name": "..."}.
type HTTPNameDetector struct {
	url    string
	client *http.Client
}

// NewHTTPNameDetector creates a detector backed by the given endpoint URL.
func NewHTTPNameDetector(url string) *HTTPNameDetector {
	return &HTTPNameDetector{
		url:    url,
		client: httpc.Client,
	}
}

// Detect implements NameDetector.
func (d *HTTPNameDetector) Detect(ctx context.Context, prompt string) (string, error) {
	body, err := postJSON(ctx, d.client, d.url, "name-detect", map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}

	var out struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("intent: decoding name response: %w", err)
	}
	return out.Name, nil
}

func postJSON(ctx context.Context, client *http.Client, url, backend string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("intent: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("intent: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("intent: reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(body)),
			Backend:    backend,
		}
	}
	return body, nil
}

// Verify implementations at compile time.
var (
	_ Parser       = (*HTTPParser)(nil)
	_ NameDetector = (*HTTPNameDetector)(nil)
)
