package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	state := map[string]any{
		"identity": "+1555",
		"agent":    "order agent",
		"empty":    "",
		"items":    []any{"cake", 2, true},
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"no markers", "Plain {text} stays", "Plain {text} stays"},
		{"variable", "Phone: {{.identity}}", "Phone: +1555"},
		{"default", `{{.empty | default "guest"}}`, "guest"},
		{"upper", "{{upper .agent}}", "ORDER AGENT"},
		{"lower", `{{lower "ABC"}}`, "abc"},
		{"title", "{{title .agent}}", "Order agent"},
		{"join", `{{join ", " .items}}`, "cake, 2, true"},
		{"no escaping", `{{"<b>&</b>"}}`, "<b>&</b>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderTemplate(tt.text, state)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderTemplate_ParseError(t *testing.T) {
	_, err := RenderTemplate("{{.identity", nil)
	assert.Error(t, err)
}
