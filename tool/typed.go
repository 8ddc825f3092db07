package tool

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/internal/util"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// TypedTool binds a tool to concrete argument and result types. The schema is
// reflected from Args; decoded arguments are checked against the schema and
// then against `validate` struct tags.
type TypedTool[Args any, Result any] struct {
	*FunctionTool
}

// NewTypedTool creates a tool whose arguments decode into Args.
//
// Example:
//
//	type priceArgs struct {
//	  Size   string `json:"size" jsonschema:"enum=small,enum=medium,enum=large"`
//	  Layers int    `json:"layers" validate:"min=1,max=5"`
//	}
//
//	price := NewTypedTool("calculate_custom_cake_price", "Price a custom cake",
//	  func(tc *core.ToolContext, a priceArgs) (float64, error) { return quote(a), nil })
func NewTypedTool[Args any, Result any](
	name, description string,
	fn func(toolCtx *core.ToolContext, args Args) (Result, error),
) *TypedTool[Args, Result] {
	var zero Args

	wrapped := func(toolCtx *core.ToolContext, raw map[string]any) (any, error) {
		args, err := decodeArgs[Args](raw)
		if err != nil {
			return nil, &ToolError{
				Tool:    name,
				Message: err.Error(),
				Code:    CodeInvalidArguments,
				cause:   err,
			}
		}
		return fn(toolCtx, args)
	}

	return &TypedTool[Args, Result]{
		FunctionTool: NewFunctionTool(name, description, util.CreateSchema(zero), wrapped),
	}
}

func decodeArgs[Args any](raw map[string]any) (Args, error) {
	var args Args

	b, err := json.Marshal(raw)
	if err != nil {
		return args, fmt.Errorf("encode arguments: %w", err)
	}

	if err := json.Unmarshal(b, &args); err != nil {
		return args, fmt.Errorf("decode arguments: %w", err)
	}

	if err := structValidator().Struct(args); err != nil {
		if _, ok := err.(*validator.InvalidValidationError); ok {
			// Args is not a struct; nothing to validate.
			return args, nil
		}
		return args, fmt.Errorf("argument validation failed: %w", err)
	}

	return args, nil
}
