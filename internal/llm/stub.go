package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Stub is a deterministic client that never touches the network.
type Stub struct {
	// Summary is returned as content when set; otherwise a short digest of
	// the last function-call payload is produced.
	Summary string
	// Extraction, when set, is returned as arguments of a call to the first
	// offered function whenever tool choice is auto.
	Extraction string
	// Err is returned from every call when set.
	Err error

	mu       sync.Mutex
	requests []Request
}

func (s *Stub) Name() string { return "stub" }

func (s *Stub) Complete(ctx context.Context, req Request) (Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if s.Err != nil {
		return Response{}, s.Err
	}

	if req.ToolChoice == ToolChoiceAuto && len(req.Functions) > 0 {
		if s.Extraction == "" {
			return Response{Model: "stub", Raw: "{}"}, nil
		}
		call := FunctionCall{Name: req.Functions[0].Name, Arguments: s.Extraction}
		return Response{ToolCalls: []FunctionCall{call}, Model: "stub", Raw: s.Extraction}, nil
	}

	text := s.Summary
	if text == "" {
		text = digest(req.Messages)
	}
	return Response{Content: text, Model: "stub", Raw: text}, nil
}

// Requests returns every request seen so far.
func (s *Stub) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func digest(msgs []Message) string {
	if len(msgs) == 0 || msgs[len(msgs)-1].FunctionCall == nil {
		return "No market data was provided."
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(msgs[len(msgs)-1].FunctionCall.Arguments), &payload); err != nil {
		return "No market data was provided."
	}
	count := func(key string) int {
		var rows []json.RawMessage
		_ = json.Unmarshal(payload[key], &rows)
		return len(rows)
	}
	return fmt.Sprintf("Offline summary: %d property groups by average price, %d concessions, %d assets with amenity data.",
		count("average_view"), count("concessions"), count("amenities"))
}
