package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewHTTPClient_Validation(t *testing.T) {
	if _, err := NewHTTPClient("", "k", "m"); err == nil {
		t.Fatal("empty base url accepted")
	}
	if _, err := NewHTTPClient("http://x", "k", ""); err == nil {
		t.Fatal("empty model accepted")
	}
	c, err := NewHTTPClient("http://x/ ", "k", "m")
	if err != nil {
		t.Fatal(err)
	}
	if c.baseURL != "http://x" {
		t.Fatalf("base url not trimmed: %q", c.baseURL)
	}
}

func TestCreateResponse_DecodesToolCallsAndText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("auth header %q", got)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("request body: %v", err)
		}
		if req.Model != "m" {
			t.Errorf("model not defaulted: %q", req.Model)
		}
		rw.Header().Set("Content-Type", "application/json")
		rw.Write([]byte(`{
			"id": "resp_1",
			"output": [
				{"type": "reasoning"},
				{"type": "function_call", "call_id": "c1", "name": "observe_world", "arguments": "{\"perspective\":\"gm\"}"},
				{"type": "message", "content": [{"type": "output_text", "text": "A grey "}, {"type": "output_text", "text": "morning."}]}
			]
		}`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, "k", "m")
	if err != nil {
		t.Fatal(err)
	}
	resp, err := c.CreateResponse(context.Background(), Request{Input: []InputItem{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.ID != "resp_1" {
		t.Fatalf("id %q", resp.ID)
	}
	if resp.OutputText != "A grey morning." {
		t.Fatalf("text %q", resp.OutputText)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "observe_world" || resp.ToolCalls[0].CallID != "c1" {
		t.Fatalf("tool calls: %+v", resp.ToolCalls)
	}
	var args map[string]string
	if err := json.Unmarshal(resp.ToolCalls[0].Arguments, &args); err != nil || args["perspective"] != "gm" {
		t.Fatalf("arguments: %s", resp.ToolCalls[0].Arguments)
	}
}

func TestCreateResponse_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusTooManyRequests)
		rw.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	c, _ := NewHTTPClient(srv.URL, "", "m")
	_, err := c.CreateResponse(context.Background(), Request{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Status != 429 || apiErr.Code != "rate_limit_error" || apiErr.Message != "slow down" {
		t.Fatalf("api error: %+v", apiErr)
	}
	if Classify(err) != ErrClassRateLimit {
		t.Fatalf("classified as %q", Classify(err))
	}
}

func TestCreateResponse_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusBadGateway)
		rw.Write([]byte("upstream gone"))
	}))
	defer srv.Close()

	c, _ := NewHTTPClient(srv.URL, "", "m")
	_, err := c.CreateResponse(context.Background(), Request{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 502 || apiErr.Message != "upstream gone" {
		t.Fatalf("err = %v", err)
	}
}
