package sites

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func openaiStub(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIMatcher_Match(t *testing.T) {
	srv := openaiStub(t, "```json\n{\"site_found\":true,\"site_id\":\"site-2\",\"site_name\":\"Harbour Tower\",\"confidence\":\"high\"}\n```")
	defer srv.Close()

	m := &OpenAIMatcher{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: srv.URL, HTTPClient: srv.Client()}
	got, ok, err := m.Match(context.Background(), "the tower", testCandidates)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !ok || got.ID != "site-2" || got.Confidence != "high" {
		t.Fatalf("unexpected match: ok=%v %+v", ok, got)
	}
}

func TestOpenAIMatcher_LowConfidenceIsNoMatch(t *testing.T) {
	srv := openaiStub(t, `{"site_found":true,"site_id":"site-1","site_name":"Ocean White House","confidence":"low"}`)
	defer srv.Close()

	m := &OpenAIMatcher{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()}
	_, ok, err := m.Match(context.Background(), "umm", testCandidates)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if ok {
		t.Fatalf("low confidence must not match")
	}
}

func TestOpenAIMatcher_NotFound(t *testing.T) {
	srv := openaiStub(t, `{"site_found":false,"site_id":null,"site_name":null,"confidence":"low"}`)
	defer srv.Close()

	m := &OpenAIMatcher{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()}
	_, ok, err := m.Match(context.Background(), "somewhere else", testCandidates)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if ok {
		t.Fatalf("expected no match")
	}
}

func TestOpenAIMatcher_RequiresKey(t *testing.T) {
	m := &OpenAIMatcher{}
	if _, _, err := m.Match(context.Background(), "x", testCandidates); err == nil {
		t.Fatalf("expected error without api key")
	}
}
