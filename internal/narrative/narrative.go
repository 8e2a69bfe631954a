// Package narrative turns rollups into a written market brief and reads
// structured preferences out of prospect notes, both through an llm.Client.
package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"leasingedge-engine/internal/domain"
	"leasingedge-engine/internal/llm"
	"leasingedge-engine/internal/prospect"
	"leasingedge-engine/internal/rollup"
)

// SummaryRequest is the final user turn before the data payload.
const SummaryRequest = "Please generate a summary based on the following data."

// ErrExtractionArguments marks a note_extraction call whose arguments did
// not match the schema. The call itself succeeded.
var ErrExtractionArguments = errors.New("note extraction arguments rejected")

type Transcript []llm.Message

type Generator struct {
	client     llm.Client
	prompts    Prompts
	log        *slog.Logger
	extraction *jsonschema.Schema
	rollup     *jsonschema.Schema
}

func New(client llm.Client, prompts Prompts, log *slog.Logger) (*Generator, error) {
	ex, err := jsonschema.CompileString(extractionFunctionName+".json", extractionSchema)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", extractionFunctionName, err)
	}
	ro, err := jsonschema.CompileString(rollupFunctionName+".json", rollupSchema)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", rollupFunctionName, err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Generator{client: client, prompts: prompts, log: log, extraction: ex, rollup: ro}, nil
}

type Input struct {
	Views       rollup.Views
	Concessions []domain.Concession
	Amenities   []domain.AmenityRow
	Fees        []domain.FeeRow
	Prospect    domain.Prospect
}

type Result struct {
	Transcript     Transcript `json:"transcript"`
	Summary        string     `json:"summary"`
	SummaryEscaped string     `json:"summary_escaped"`
	Model          string     `json:"model"`
}

type payload struct {
	AverageView []rollup.DisplayRow `json:"average_view"`
	MinimumView []rollup.DisplayRow `json:"minimum_view"`
	LargestView []rollup.DisplayRow `json:"largest_view"`
	Concessions []domain.Concession `json:"concessions"`
	Amenities   []domain.AmenityRow `json:"amenities"`
	Fees        []domain.FeeRow     `json:"fees"`
	Prospect    domain.Prospect     `json:"prospect"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Transcript builds the summary conversation: instructions, worked examples,
// the request, then the data as a rollup_summary call.
func (g *Generator) Transcript(in Input) (Transcript, error) {
	d := in.Views.Display()
	args, err := json.Marshal(payload{
		AverageView: nonNil(d.Average),
		MinimumView: nonNil(d.Minimum),
		LargestView: nonNil(d.Largest),
		Concessions: nonNil(in.Concessions),
		Amenities:   nonNil(in.Amenities),
		Fees:        nonNil(in.Fees),
		Prospect:    in.Prospect,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", rollupFunctionName, err)
	}
	if err := validateArgs(g.rollup, args); err != nil {
		return nil, fmt.Errorf("%s payload: %w", rollupFunctionName, err)
	}

	msgs := Transcript{{Role: llm.RoleSystem, Content: g.prompts.Rollup.System}}
	for _, ex := range g.prompts.Rollup.Examples {
		in, err := json.MarshalIndent(ex.Input, "", "  ")
		if err != nil {
			return nil, err
		}
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: string(in)},
			llm.Message{Role: llm.RoleAssistant, Content: strings.TrimSpace(ex.Output)},
		)
	}
	msgs = append(msgs,
		llm.Message{Role: llm.RoleUser, Content: SummaryRequest},
		llm.Message{Role: llm.RoleAssistant, FunctionCall: &llm.FunctionCall{Name: rollupFunctionName, Arguments: string(args)}},
	)
	return msgs, nil
}

// Summarize asks the model for the market brief. The transcript is returned
// even when the call fails.
func (g *Generator) Summarize(ctx context.Context, in Input) (Result, error) {
	msgs, err := g.Transcript(in)
	if err != nil {
		return Result{}, err
	}
	res := Result{Transcript: msgs}

	resp, err := g.client.Complete(ctx, llm.Request{
		Messages:   msgs,
		Functions:  []llm.Function{rollupFunction},
		ToolChoice: llm.ToolChoiceNone,
	})
	if err != nil {
		return res, err
	}
	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return res, llm.Malformed(rollupFunctionName, resp.Raw, "empty summary")
	}

	res.Summary = summary
	res.SummaryEscaped = EscapeDollars(summary)
	res.Model = resp.Model
	res.Transcript = append(res.Transcript, llm.Message{Role: llm.RoleAssistant, Content: summary})
	return res, nil
}

// EscapeDollars keeps Markdown renderers from treating "$" as math delimiters.
func EscapeDollars(s string) string {
	return strings.ReplaceAll(s, "$", `\$`)
}

// ExtractNotes reads structured preferences out of the prospect's notes.
// No notes means no call; a reply without a function call is an empty extraction.
func (g *Generator) ExtractNotes(ctx context.Context, p domain.Prospect) (prospect.Extraction, Transcript, error) {
	notes := prospect.CleanNotes(p.Notes)
	if notes == "" {
		return prospect.Extraction{}, nil, nil
	}

	msgs := Transcript{{Role: llm.RoleSystem, Content: g.prompts.Extraction.System}}
	for _, ex := range g.prompts.Extraction.Examples {
		args, err := json.Marshal(ex.Arguments)
		if err != nil {
			return prospect.Extraction{}, nil, err
		}
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: ex.User},
			llm.Message{Role: llm.RoleAssistant, FunctionCall: &llm.FunctionCall{Name: extractionFunctionName, Arguments: string(args)}},
		)
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: notes})

	resp, err := g.client.Complete(ctx, llm.Request{
		Messages:   msgs,
		Functions:  []llm.Function{extractionFunction},
		ToolChoice: llm.ToolChoiceAuto,
	})
	if err != nil {
		return prospect.Extraction{}, msgs, err
	}

	var call *llm.FunctionCall
	for i := range resp.ToolCalls {
		if resp.ToolCalls[i].Name == extractionFunctionName {
			call = &resp.ToolCalls[i]
			break
		}
	}
	if call == nil {
		g.log.Debug("note extraction returned no function call", "prospect", p.ID)
		return prospect.Extraction{}, msgs, nil
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, FunctionCall: call})

	if err := validateArgs(g.extraction, []byte(call.Arguments)); err != nil {
		return prospect.Extraction{}, msgs, fmt.Errorf("%w: %w", ErrExtractionArguments, llm.Malformed(extractionFunctionName, call.Arguments, "%v", err))
	}
	var ex prospect.Extraction
	if err := json.Unmarshal([]byte(call.Arguments), &ex); err != nil {
		return prospect.Extraction{}, msgs, fmt.Errorf("%w: %w", ErrExtractionArguments, llm.Malformed(extractionFunctionName, call.Arguments, "%v", err))
	}
	return ex, msgs, nil
}

func validateArgs(schema *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}
