package sites

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OpenAIMatcher asks a chat-completion model which candidate the caller
// meant. The model must answer with JSON naming the exact candidate id;
// anything else (unknown id, low confidence, malformed reply) is a
// no-match so the conversation re-prompts instead of guessing.

type OpenAIMatcher struct {
	APIKey  string
	Model   string
	BaseURL string

	// HTTPClient defaults to a 10s-timeout client.
	HTTPClient *http.Client
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type matchReply struct {
	SiteFound  bool   `json:"site_found"`
	SiteID     string `json:"site_id"`
	SiteName   string `json:"site_name"`
	Confidence string `json:"confidence"`
}

func (m *OpenAIMatcher) Match(ctx context.Context, text string, candidates []Candidate) (Match, bool, error) {
	if m.APIKey == "" {
		return Match{}, false, fmt.Errorf("sites: openai api key not configured")
	}

	var list strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&list, "- ID: %s, Name: %s\n", c.ID, c.Name)
	}

	prompt := fmt.Sprintf(`Available work sites:
%s
Caller said: %q

Which site are they referring to? You MUST use the exact ID from the list above. Return JSON only:
{
  "site_found": true/false,
  "site_id": "exact ID from the list if found, null if not found",
  "site_name": "exact name if found",
  "confidence": "high/medium/low"
}`, list.String(), text)

	body, err := json.Marshal(chatRequest{
		Model:     m.Model,
		MaxTokens: 500,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Match{}, false, err
	}

	base := strings.TrimRight(m.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Match{}, false, err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Match{}, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Match{}, false, fmt.Errorf("sites: openai api error: %s", resp.Status)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Match{}, false, err
	}
	if len(cr.Choices) == 0 {
		return Match{}, false, fmt.Errorf("sites: openai returned no choices")
	}

	var reply matchReply
	if err := json.Unmarshal([]byte(stripCodeFence(cr.Choices[0].Message.Content)), &reply); err != nil {
		return Match{}, false, fmt.Errorf("sites: openai reply not json: %w", err)
	}

	if !reply.SiteFound || reply.SiteID == "" || reply.Confidence == "low" {
		return Match{}, false, nil
	}
	return Match{ID: reply.SiteID, Name: reply.SiteName, Confidence: reply.Confidence}, true, nil
}

// stripCodeFence unwraps markdown code blocks the model sometimes adds.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
	} else {
		return s
	}
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
