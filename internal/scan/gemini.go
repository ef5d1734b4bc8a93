package scan

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultGeminiModel   = "gemini-3-flash-preview"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultScanTimeout   = 30 * time.Second
)

const labelPrompt = "Analyze these images of a medication container. Synthesize information to extract: " +
	"full medication name, strength, form, Rx number, pharmacy name, full instructions, total quantity, " +
	"and how many refills are remaining according to the label. If the label says 'No Refills' or " +
	"'0 Refills', return 0. If it says 'Refills: 5', return 5."

// GeminiScanner implements LabelScanner against the Gemini generateContent
// REST API with a JSON response schema, so the reply parses directly into
// LabelFields.
type GeminiScanner struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// GeminiOption configures a GeminiScanner.
type GeminiOption func(*GeminiScanner)

// WithModel overrides the default model.
func WithModel(model string) GeminiOption {
	return func(s *GeminiScanner) { s.model = model }
}

// WithBaseURL points the scanner at a different endpoint, used by tests.
func WithBaseURL(base string) GeminiOption {
	return func(s *GeminiScanner) { s.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient injects the HTTP client, used by tests.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(s *GeminiScanner) { s.http = c }
}

// NewGeminiScanner builds a scanner with the given API key.
func NewGeminiScanner(apiKey string, opts ...GeminiOption) (*GeminiScanner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key required")
	}
	s := &GeminiScanner{
		apiKey:  apiKey,
		model:   defaultGeminiModel,
		baseURL: defaultGeminiBaseURL,
		http:    &http.Client{Timeout: defaultScanTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// OpenGeminiFromEnv builds a scanner from MEDCABINET_GEMINI_API_KEY and the
// optional MEDCABINET_GEMINI_MODEL override.
func OpenGeminiFromEnv() (*GeminiScanner, error) {
	key := os.Getenv("MEDCABINET_GEMINI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("MEDCABINET_GEMINI_API_KEY required for label scanning")
	}
	var opts []GeminiOption
	if model := os.Getenv("MEDCABINET_GEMINI_MODEL"); model != "" {
		opts = append(opts, WithModel(model))
	}
	return NewGeminiScanner(key, opts...)
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiSchemaProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type geminiSchema struct {
	Type       string                          `json:"type"`
	Properties map[string]geminiSchemaProperty `json:"properties"`
	Required   []string                        `json:"required"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string       `json:"responseMimeType"`
	ResponseSchema   geminiSchema `json:"responseSchema"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func labelSchema() geminiSchema {
	return geminiSchema{
		Type: "OBJECT",
		Properties: map[string]geminiSchemaProperty{
			"name":             {Type: "STRING", Description: "The brand or generic name of the medication"},
			"strength":         {Type: "STRING", Description: "The strength e.g., 10mg"},
			"form":             {Type: "STRING", Description: "The form factor e.g., Tablet, Capsule"},
			"rxNumber":         {Type: "STRING", Description: "The prescription number if visible"},
			"pharmacyName":     {Type: "STRING", Description: "The name of the pharmacy"},
			"instructions":     {Type: "STRING", Description: "Instructions on label e.g., Take one tablet daily"},
			"quantity":         {Type: "INTEGER", Description: "Total quantity in bottle"},
			"refillsRemaining": {Type: "INTEGER", Description: "Number of refills left on prescription. Use 0 for no refills."},
		},
		Required: []string{"name"},
	}
}

// ScanLabel sends the photos to Gemini and parses the structured reply.
func (s *GeminiScanner) ScanLabel(ctx context.Context, images [][]byte) (LabelFields, error) {
	if len(images) == 0 {
		return LabelFields{}, fmt.Errorf("no images provided")
	}
	parts := make([]geminiPart, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(img),
		}})
	}
	parts = append(parts, geminiPart{Text: labelPrompt})

	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   labelSchema(),
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return LabelFields{}, fmt.Errorf("encode scan request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", s.baseURL, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return LabelFields{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return LabelFields{}, fmt.Errorf("scan request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return LabelFields{}, fmt.Errorf("read scan response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return LabelFields{}, fmt.Errorf("scan request failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var gr geminiResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return LabelFields{}, fmt.Errorf("decode scan response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return LabelFields{}, fmt.Errorf("scan response contained no candidates")
	}
	text := gr.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return LabelFields{}, fmt.Errorf("scan response contained no text")
	}

	var fields LabelFields
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return LabelFields{}, fmt.Errorf("decode label fields: %w", err)
	}
	if strings.TrimSpace(fields.Name) == "" {
		return LabelFields{}, fmt.Errorf("label scan produced no medication name")
	}
	return fields, nil
}

var _ LabelScanner = (*GeminiScanner)(nil)
