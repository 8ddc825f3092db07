package bakery

import (
	"bufio"
	"io"
	"strings"
)

// FAQ is a question with its authoritative answer.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DefaultFAQs is served when no FAQ file is configured.
var DefaultFAQs = []FAQ{
	{
		Question: "What are your opening hours?",
		Answer:   "We are open Monday to Friday from 7 AM to 7 PM, and weekends from 8 AM to 6 PM.",
	},
	{
		Question: "Do you offer gluten-free options?",
		Answer:   "Yes, we have a variety of gluten-free breads and pastries available daily.",
	},
	{
		Question: "Can I place custom cake orders?",
		Answer:   "Yes, custom cake orders require 72 hours advance notice and payment upfront.",
	},
	{
		Question: "What is your refund policy?",
		Answer:   "Refunds are possible within 24 hours of ordering for non-custom items. Custom orders are non-refundable once production begins.",
	},
}

// ParseFAQ reads the "Q: ... / A: ..." line format. Blank lines and lines
// starting with '#' are ignored; a question without an answer is dropped.
func ParseFAQ(r io.Reader) ([]FAQ, error) {
	var (
		faqs    []FAQ
		current FAQ
	)

	flush := func() {
		if current.Question != "" && current.Answer != "" {
			faqs = append(faqs, current)
		}
		current = FAQ{}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "" || strings.HasPrefix(line, "#"):
		case strings.HasPrefix(line, "Q:"):
			flush()
			current.Question = strings.TrimSpace(line[2:])
		case strings.HasPrefix(line, "A:"):
			current.Answer = strings.TrimSpace(line[2:])
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	flush()

	return faqs, nil
}
