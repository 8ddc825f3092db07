package respond

import (
	"encoding/json"
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	tests := []struct {
		format string
		want   Adapter
	}{
		{"json", JSON{}},
		{"", JSON{}},
		{" JSON ", JSON{}},
		{"twiml", TwiML{}},
		{"form", TwiML{}},
		{"xml", TwiML{}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			a, err := For(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a)
		})
	}

	_, err := For("yaml")
	assert.Error(t, err)
}

func TestJSON(t *testing.T) {
	out, err := JSON{}.Render(`Your cake is "ready" <3 & more`)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, `Your cake is "ready" <3 & more`, decoded["response"])

	out, err = JSON{}.RenderError("service busy")
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"service busy"}`, string(out))

	assert.Contains(t, JSON{}.ContentType(), "application/json")
}

func TestTwiML(t *testing.T) {
	text := `Chocolate & vanilla <large> "special"`

	out, err := TwiML{}.Render(text)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "<Response><Message>")
	assert.Contains(t, s, "&amp;")
	assert.Contains(t, s, "&lt;large&gt;")
	assert.NotContains(t, s, "<large>")

	var decoded struct {
		Message string `xml:"Message"`
	}
	require.NoError(t, xml.Unmarshal(out, &decoded))
	assert.Equal(t, text, decoded.Message, "round trip restores the raw text")

	errOut, err := TwiML{}.RenderError("try again")
	require.NoError(t, err)
	assert.Contains(t, string(errOut), "<Message>try again</Message>")

	assert.Contains(t, TwiML{}.ContentType(), "xml")
}

func TestTwiML_EmptyMessage(t *testing.T) {
	out, err := TwiML{}.Render("")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<Response><Message></Message></Response>")
}
