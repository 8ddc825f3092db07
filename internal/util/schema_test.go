package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleArgs struct {
	Flavor string `json:"flavor" jsonschema:"description=Cake flavor,enum=chocolate,enum=vanilla"`
	Tiers  int    `json:"tiers" jsonschema:"description=Number of tiers"`
	Note   string `json:"note,omitempty"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(sampleArgs{})

	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "flavor")
	assert.Contains(t, props, "tiers")
	assert.Contains(t, props, "note")

	assert.ElementsMatch(t, []string{"flavor", "tiers"}, stringList(schema["required"]))

	flavor := props["flavor"].(map[string]any)
	assert.Equal(t, "Cake flavor", flavor["description"])
	assert.ElementsMatch(t, []any{"chocolate", "vanilla"}, flavor["enum"])
}

func TestCreateSchema_NonStruct(t *testing.T) {
	schema := CreateSchema(42)
	assert.Equal(t, "object", schema["type"])
	assert.Empty(t, schema["properties"])
}

func TestValidateParameters(t *testing.T) {
	schema := CreateSchema(sampleArgs{})

	tests := []struct {
		name  string
		args  map[string]any
		field string
	}{
		{name: "valid", args: map[string]any{"flavor": "vanilla", "tiers": float64(2)}},
		{name: "missing required", args: map[string]any{"flavor": "vanilla"}, field: "tiers"},
		{name: "wrong kind", args: map[string]any{"flavor": "vanilla", "tiers": "two"}, field: "tiers"},
		{name: "fractional integer", args: map[string]any{"flavor": "vanilla", "tiers": 1.5}, field: "tiers"},
		{name: "outside enum", args: map[string]any{"flavor": "lemon", "tiers": 1}, field: "flavor"},
		{name: "extra fields allowed", args: map[string]any{"flavor": "chocolate", "tiers": 1, "x": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParameters(tt.args, schema)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestValidateParameters_HandWrittenSchema(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{"type": "string", "enum": []string{"paid", "unpaid"}},
		},
		"required": []string{"status"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"status": "paid"}, schema))
	assert.Error(t, ValidateParameters(map[string]any{}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"status": "refunded"}, schema))
}
