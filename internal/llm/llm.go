// Package llm is the boundary to the text-generation service.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ToolChoice string

const (
	ToolChoiceNone ToolChoice = "none"
	ToolChoiceAuto ToolChoice = "auto"
)

var (
	// ErrTransport covers every failure to get an HTTP answer from the service,
	// including non-2xx statuses.
	ErrTransport = errors.New("llm transport failure")
	// ErrMalformedResponse means the service answered but not with what was asked for.
	ErrMalformedResponse = errors.New("llm response malformed")
)

// ServiceError is returned for any failed completion. Raw carries the
// response body or choice when there was one.
type ServiceError struct {
	Op    string
	Kind  error
	Raw   string
	Cause error
}

func (e *ServiceError) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func Malformed(op, raw string, format string, args ...any) *ServiceError {
	return &ServiceError{Op: op, Kind: ErrMalformedResponse, Raw: raw, Cause: fmt.Errorf(format, args...)}
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one transcript entry. Assistant messages carry either text or a
// function call.
type Message struct {
	Role         string        `json:"role"`
	Content      string        `json:"content,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// Function describes a callable tool; Parameters is its JSON schema.
type Function struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type Request struct {
	Messages   []Message
	Functions  []Function
	ToolChoice ToolChoice
}

type Response struct {
	Content   string
	ToolCalls []FunctionCall
	Model     string
	Raw       string
}

type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}
