// Package agent is the boundary to the language-model collaborators: the
// game-master tool loop, NPC consultation, and the narrator. Everything in
// here talks JSON over a request/response contract; nothing in here touches
// world state directly.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ToolDef describes one function-style tool offered to the model.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// InputItem is one element of a request's input list. Either a plain message
// (Role+Content) or a tool output being fed back (Type "function_call_output"
// with CallID+Output).
type InputItem struct {
	Type    string `json:"type,omitempty"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	CallID  string `json:"call_id,omitempty"`
	Output  string `json:"output,omitempty"`
}

// Request is one round-trip to the responses endpoint. Input carries only
// the new items since the previous response; PreviousResponseID chains the
// conversation server-side instead of resending the transcript.
type Request struct {
	Model              string      `json:"model"`
	Instructions       string      `json:"instructions,omitempty"`
	Input              []InputItem `json:"input"`
	PreviousResponseID string      `json:"previous_response_id,omitempty"`
	Tools              []ToolDef   `json:"tools,omitempty"`
}

// ToolCall is one function call the model emitted.
type ToolCall struct {
	CallID    string          `json:"call_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Response is the decoded result of one round-trip.
type Response struct {
	ID         string
	OutputText string
	ToolCalls  []ToolCall
}

// Client is the reasoning-service contract the engine depends on. A nil
// Client means the engine runs offline with deterministic fallbacks.
type Client interface {
	CreateResponse(ctx context.Context, req Request) (Response, error)
}

// APIError is a non-2xx reply from the service, kept structured so Classify
// can map it onto the retry taxonomy.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm api %d %s: %s", e.Status, e.Code, e.Message)
}

// HTTPClient talks to an OpenAI-compatible /v1/responses endpoint.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, apiKey, model string) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}, nil
}

func (c *HTTPClient) CreateResponse(ctx context.Context, req Request) (Response, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/responses", bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return Response{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, decodeAPIError(resp.StatusCode, raw)
	}
	return decodeResponse(raw)
}

func decodeAPIError(status int, raw []byte) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: status, Message: string(raw)}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		apiErr.Code = envelope.Error.Code
		if apiErr.Code == "" {
			apiErr.Code = envelope.Error.Type
		}
	}
	return apiErr
}

func decodeResponse(raw []byte) (Response, error) {
	var envelope struct {
		ID     string `json:"id"`
		Output []struct {
			Type      string `json:"type"`
			CallID    string `json:"call_id"`
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
			Content   []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	out := Response{ID: envelope.ID}
	var text strings.Builder
	for _, item := range envelope.Output {
		switch item.Type {
		case "function_call":
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				CallID:    item.CallID,
				Name:      item.Name,
				Arguments: json.RawMessage(item.Arguments),
			})
		case "message":
			for _, c := range item.Content {
				if c.Type == "output_text" {
					text.WriteString(c.Text)
				}
			}
		}
	}
	out.OutputText = text.String()
	return out, nil
}
