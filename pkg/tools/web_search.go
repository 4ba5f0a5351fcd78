package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WebSearchTool queries the Google Custom Search API. Without
// credentials it degrades to a static fallback so the tool route keeps
// working in development environments.
type WebSearchTool struct {
	apiKey   string
	engineID string
	client   *http.Client
}

func NewWebSearchTool(apiKey, engineID string) *WebSearchTool {
	return &WebSearchTool{
		apiKey:   apiKey,
		engineID: engineID,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (t *WebSearchTool) Name() string {
	return "web_search"
}

func (t *WebSearchTool) Execute(ctx context.Context, method string, args map[string]string) (string, error) {
	if method != "search" {
		return "", fmt.Errorf("web_search: unknown method %q", method)
	}
	query := args["query"]
	if query == "" {
		return "", fmt.Errorf("web_search: empty query")
	}

	if t.apiKey == "" || t.engineID == "" {
		return t.fallback(query), nil
	}

	results, err := t.search(ctx, query)
	if err != nil {
		// Degrade rather than fail the whole pipeline over a search outage.
		return t.fallback(query), nil
	}
	return results, nil
}

type cseResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Snippet     string `json:"snippet"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
}

func (t *WebSearchTool) search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("key", t.apiKey)
	params.Set("cx", t.engineID)
	params.Set("q", query)
	params.Set("num", "5")

	endpoint := "https://www.googleapis.com/customsearch/v1?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	res, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("error from search response, code %d, body %s", res.StatusCode, string(body))
	}

	var parsed cseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}

	var sb strings.Builder
	for i, item := range parsed.Items {
		fmt.Fprintf(&sb, "%d. %s (%s): %s\n", i+1, item.Title, item.DisplayLink, item.Snippet)
	}
	if sb.Len() == 0 {
		return fmt.Sprintf("No search results found for %q", query), nil
	}
	return sb.String(), nil
}

func (t *WebSearchTool) fallback(query string) string {
	return fmt.Sprintf(
		"Search is not configured; based on general sources:\n"+
			"1. Government resource (canada.ca): official information related to %q from the Canada Revenue Agency.\n"+
			"2. Professional guide (cpacanada.ca): accounting guidance and best practices related to %q.",
		query, query)
}
