package agentdesk

import (
	"context"
	"strings"

	"github.com/hupe1980/agentdesk/bakery"
	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/model"
)

// OfflineModelName is reported by the keyword-routing offline model.
const OfflineModelName = "offline"

const offlineGreeting = "Welcome to Chocolate Therapy Bakery! Ask me about our cakes, opening hours, custom orders or refunds."

// offlineRoutes map user keywords to tools, in priority order.
var offlineRoutes = []struct {
	keywords []string
	tool     string
}{
	{[]string{"admin"}, bakery.ToolTransferToAdmin},
	{[]string{"refund", "money back"}, bakery.ToolTransferToRefund},
	{[]string{"custom", "birthday", "wedding"}, bakery.ToolTransferToCustomOrder},
	{[]string{"general", "front desk"}, bakery.ToolTransferToBakery},
	{[]string{"menu", "cake", "inventory", "stock"}, bakery.ToolGetCakeInventory},
	{[]string{"hours", "open", "faq", "allerg", "deliver"}, bakery.ToolGetFAQ},
}

// NewOfflineModel returns a deterministic model that needs no credentials.
// It routes user messages to tools by keyword, restricted to the tools the
// active agent offers, and summarizes tool results as plain text.
func NewOfflineModel() *model.ScriptedModel {
	return model.NewScriptedModel(OfflineModelName).Otherwise(offlineStep)
}

func offlineStep(_ context.Context, req model.Request) (*model.Response, error) {
	if len(req.Messages) == 0 {
		return &model.Response{Content: offlineGreeting, FinishReason: "stop"}, nil
	}

	last := req.Messages[len(req.Messages)-1]

	switch last.Role {
	case core.RoleTool:
		return &model.Response{Content: summarizeToolResult(last.Content), FinishReason: "stop"}, nil
	case core.RoleUser:
		text := strings.ToLower(last.Content)

		for _, route := range offlineRoutes {
			if !offers(req.Tools, route.tool) {
				continue
			}
			for _, kw := range route.keywords {
				if strings.Contains(text, kw) {
					return &model.Response{
						ToolCalls:    []core.ToolCall{{ID: model.NewCallID(), Name: route.tool, Arguments: "{}"}},
						FinishReason: "tool_calls",
					}, nil
				}
			}
		}
	}

	return &model.Response{Content: offlineGreeting, FinishReason: "stop"}, nil
}

func summarizeToolResult(content string) string {
	if rest, ok := strings.CutPrefix(content, "Transferred to "); ok {
		name, _, _ := strings.Cut(rest, ".")
		return "Hi, this is " + name + ". How can I help you?"
	}

	return "Here is what I found: " + content
}

func offers(defs []model.ToolDefinition, name string) bool {
	for _, d := range defs {
		if d.Function.Name == name {
			return true
		}
	}
	return false
}
