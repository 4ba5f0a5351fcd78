package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"insightflow-be/pkg/llm"
)

type GeminiProvider struct {
	ApiKey string
	Model  string
	Client *http.Client
}

var _ llm.LLMProvider = &GeminiProvider{}

func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiProvider{
		ApiKey: apiKey,
		Model:  model,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// --- Request/Response structs ---

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig *geminiGenCfg   `json:"generationConfig,omitempty"`
}

type geminiGenCfg struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (p *GeminiProvider) ModelName() string {
	return p.Model
}

func (p *GeminiProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	req, err := p.buildRequest(ctx, history, "generateContent", "", opts...)
	if err != nil {
		return "", err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("error from gemini response, code %d, body %s", resp.StatusCode, string(body))
	}

	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", fmt.Errorf("failed to decode gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range gr.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// ChatStream uses streamGenerateContent with SSE framing and forwards each
// candidate fragment to onToken in arrival order.
func (p *GeminiProvider) ChatStream(ctx context.Context, history []llm.Message, onToken llm.TokenFunc, opts ...llm.Option) error {
	req, err := p.buildRequest(ctx, history, "streamGenerateContent", "alt=sse", opts...)
	if err != nil {
		return err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("error from gemini response, code %d, body %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			return nil
		}

		var gr geminiResponse
		if err := json.Unmarshal([]byte(payload), &gr); err != nil {
			continue
		}
		for _, cand := range gr.Candidates {
			for _, part := range cand.Content.Parts {
				if part.Text == "" {
					continue
				}
				if err := onToken(part.Text); err != nil {
					return err
				}
			}
		}
	}

	return scanner.Err()
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func (p *GeminiProvider) buildRequest(ctx context.Context, history []llm.Message, method, query string, opts ...llm.Option) (*http.Request, error) {
	options := &llm.Options{
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(options)
	}

	model := p.Model
	if options.Model != "" {
		model = options.Model
	}

	contents := make([]geminiContent, 0, len(history))
	for _, msg := range history {
		role := msg.Role
		// Gemini uses "model" for assistant turns; system prompts are folded
		// into the first user turn.
		switch role {
		case "assistant":
			role = "model"
		case "system":
			role = "user"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}

	reqBody := geminiRequest{
		Contents: contents,
		GenerationConfig: &geminiGenCfg{
			Temperature:     options.Temperature,
			MaxOutputTokens: options.MaxTokens,
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1beta/models/%s:%s",
		model, method,
	)
	if query != "" {
		endpoint += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}
