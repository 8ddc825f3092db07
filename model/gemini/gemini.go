// Package gemini provides an implementation of model.Model backed by the Google
// Gemini API through google.golang.org/genai.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/internal/util"
	"github.com/hupe1980/agentdesk/model"
)

// Options configure the Gemini model adapter.
type Options struct {
	Model       string
	APIKey      string
	Temperature float32
}

// Model wraps the Gemini GenerateContent API behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a Gemini model using the Gemini API backend.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Model:       "gemini-2.0-flash",
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// Generate performs one GenerateContent call.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	modelName := m.opts.Model
	if req.Model != "" {
		modelName = req.Model
	}

	temperature := m.opts.Temperature
	config := &genai.GenerateContentConfig{Temperature: &temperature}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: buildDeclarations(req.Tools)}}
	}

	result, err := m.client.Models.GenerateContent(ctx, modelName, buildContents(req.Messages), config)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, errors.New("no candidates returned")
	}

	cand := result.Candidates[0]
	out := &model.Response{
		FinishReason: strings.ToLower(string(cand.FinishReason)),
	}

	if result.UsageMetadata != nil {
		out.Usage = &model.TokenUsage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}

	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if fc := part.FunctionCall; fc != nil {
			args, err := json.Marshal(fc.Args)
			if err != nil {
				args = []byte("{}")
			}
			id := fc.ID
			if id == "" {
				id = model.NewCallID()
			}
			out.ToolCalls = append(out.ToolCalls, core.ToolCall{ID: id, Name: fc.Name, Arguments: string(args)})
		}
	}
	out.Content = text.String()

	return out, nil
}

// buildContents maps the transcript onto Gemini contents. Tool results are sent
// back as function responses in a user turn. Consecutive contents with the
// same role are merged so user and model turns always alternate.
func buildContents(msgs []core.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))

	for _, msg := range msgs {
		switch msg.Role {
		case core.RoleUser:
			contents = appendContent(contents, "user", &genai.Part{Text: msg.Content})
		case core.RoleAssistant:
			parts := make([]*genai.Part, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: call.ID, Name: call.Name, Args: callArgs(call.Arguments)}})
			}
			contents = appendContent(contents, "model", parts...)
		case core.RoleTool:
			contents = appendContent(contents, "user", &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolCallID,
					Name:     msg.Name,
					Response: responsePayload(msg.Content),
				},
			})
		}
	}

	return contents
}

func appendContent(contents []*genai.Content, role string, parts ...*genai.Part) []*genai.Content {
	if len(parts) == 0 {
		return contents
	}
	if n := len(contents); n > 0 && contents[n-1].Role == role {
		contents[n-1].Parts = append(contents[n-1].Parts, parts...)
		return contents
	}
	return append(contents, &genai.Content{Role: role, Parts: parts})
}

// callArgs decodes recorded tool-call arguments. Text that is not a JSON
// object is kept verbatim under "_raw".
func callArgs(arguments string) map[string]any {
	args := map[string]any{}
	if strings.TrimSpace(arguments) == "" {
		return args
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return map[string]any{"_raw": arguments}
	}
	if args == nil {
		return map[string]any{}
	}
	return args
}

// responsePayload decodes JSON object results; anything else is wrapped under "output".
func responsePayload(content string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err == nil {
		return obj
	}
	return map[string]any{"output": content}
}

func buildDeclarations(tools []model.ToolDefinition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
		}
		if props, _ := t.Function.Parameters["properties"].(map[string]any); len(props) > 0 {
			decl.Parameters = toSchema(t.Function.Parameters)
		}
		decls = append(decls, decl)
	}
	return decls
}

// toSchema converts the minimal JSON schema subset into genai.Schema.
func toSchema(s map[string]any) *genai.Schema {
	typ, _ := s["type"].(string)
	if typ == "" {
		typ = "object"
	}

	out := &genai.Schema{Type: genai.Type(strings.ToUpper(typ))}

	if desc, ok := s["description"].(string); ok {
		out.Description = desc
	}

	if enum, ok := s["enum"].([]any); ok {
		for _, e := range enum {
			out.Enum = append(out.Enum, fmt.Sprint(e))
		}
	} else if enum, ok := s["enum"].([]string); ok {
		out.Enum = append(out.Enum, enum...)
	}

	if props, ok := s["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				out.Properties[name] = toSchema(pm)
			}
		}
	}

	if items, ok := s["items"].(map[string]any); ok {
		out.Items = toSchema(items)
	}

	out.Required = util.RequiredFields(s)

	return out
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "gemini",
		SupportsTools: true,
	}
}
