package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type Options struct {
	Provider   string // openai | azure
	APIKey     string
	Model      string
	Endpoint   string
	APIVersion string
	Deployment string
	Timeout    time.Duration
	// BaseURL overrides the OpenAI endpoint; used against local test servers.
	BaseURL string
}

// OpenAI talks to OpenAI or Azure OpenAI chat completions.
type OpenAI struct {
	client *openai.Client
	model  string
	name   string
}

func NewOpenAI(opts Options) (*OpenAI, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("llm: api key is required")
	}

	var cfg openai.ClientConfig
	name := "openai"
	switch strings.ToLower(opts.Provider) {
	case "azure":
		if opts.Endpoint == "" || opts.Deployment == "" {
			return nil, errors.New("llm: azure needs endpoint and deployment")
		}
		cfg = openai.DefaultAzureConfig(opts.APIKey, opts.Endpoint)
		if opts.APIVersion != "" {
			cfg.APIVersion = opts.APIVersion
		}
		deployment := opts.Deployment
		cfg.AzureModelMapperFunc = func(string) string { return deployment }
		name = "azure"
	default:
		cfg = openai.DefaultConfig(opts.APIKey)
		if opts.BaseURL != "" {
			cfg.BaseURL = opts.BaseURL
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	model := opts.Model
	if model == "" {
		model = opts.Deployment
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model, name: name}, nil
}

func (c *OpenAI) Name() string { return c.name + ":" + c.model }

func (c *OpenAI) Complete(ctx context.Context, req Request) (Response, error) {
	const op = "chat completion"

	creq := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
		if m.FunctionCall != nil {
			msg.FunctionCall = &openai.FunctionCall{Name: m.FunctionCall.Name, Arguments: m.FunctionCall.Arguments}
		}
		creq.Messages = append(creq.Messages, msg)
	}
	for _, f := range req.Functions {
		creq.Tools = append(creq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        f.Name,
				Description: f.Description,
				Parameters:  f.Parameters,
			},
		})
	}
	if len(creq.Tools) > 0 && req.ToolChoice != "" {
		creq.ToolChoice = string(req.ToolChoice)
	}

	resp, err := c.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		se := &ServiceError{Op: op, Kind: ErrTransport, Cause: err}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			se.Raw = apiErr.Message
		}
		return Response{}, se
	}

	raw, _ := json.Marshal(resp)
	if len(resp.Choices) == 0 {
		return Response{}, Malformed(op, string(raw), "no choices")
	}
	msg := resp.Choices[0].Message
	out := Response{Content: msg.Content, Model: resp.Model, Raw: string(raw)}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, FunctionCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	if msg.FunctionCall != nil {
		out.ToolCalls = append(out.ToolCalls, FunctionCall{Name: msg.FunctionCall.Name, Arguments: msg.FunctionCall.Arguments})
	}
	return out, nil
}

// New builds the client selected by provider. The stub needs no key.
func New(opts Options) (Client, error) {
	switch strings.ToLower(opts.Provider) {
	case "stub":
		return &Stub{}, nil
	case "", "openai", "azure":
		return NewOpenAI(opts)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", opts.Provider)
	}
}
