package respond

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
)

// Format names a response envelope.
type Format string

const (
	FormatJSON  Format = "json"
	FormatTwiML Format = "twiml"
)

// Adapter renders reply text for a channel.
type Adapter interface {
	// ContentType is the HTTP Content-Type of rendered output.
	ContentType() string

	// Render wraps a successful reply.
	Render(text string) ([]byte, error)

	// RenderError wraps an error message shown to the end user.
	RenderError(message string) ([]byte, error)
}

// For returns the adapter for format. Input formats are accepted as aliases:
// "form" selects TwiML because form posts come from SMS webhooks.
func For(format string) (Adapter, error) {
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case FormatJSON, "":
		return JSON{}, nil
	case FormatTwiML, "form", "xml":
		return TwiML{}, nil
	default:
		return nil, fmt.Errorf("respond: unknown format %q", format)
	}
}

// JSON renders {"response": text} and {"error": message}.
type JSON struct{}

var _ Adapter = JSON{}

func (JSON) ContentType() string { return "application/json; charset=utf-8" }

func (JSON) Render(text string) ([]byte, error) {
	return json.Marshal(struct {
		Response string `json:"response"`
	}{text})
}

func (JSON) RenderError(message string) ([]byte, error) {
	return json.Marshal(struct {
		Error string `json:"error"`
	}{message})
}

// TwiML renders <Response><Message>text</Message></Response>.
type TwiML struct{}

var _ Adapter = TwiML{}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func (TwiML) ContentType() string { return "text/xml; charset=utf-8" }

func (TwiML) Render(text string) ([]byte, error) {
	body, err := xml.Marshal(twimlResponse{Message: text})
	if err != nil {
		return nil, fmt.Errorf("respond: render twiml: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// RenderError renders the message as a regular SMS reply; TwiML has no error envelope.
func (t TwiML) RenderError(message string) ([]byte, error) {
	return t.Render(message)
}
