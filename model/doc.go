// Package model defines the provider-agnostic completion capability used by the
// turn loop, plus ScriptedModel for tests and offline use.
//
// A completion takes the agent instructions, the conversation transcript and the
// permitted tool definitions and returns assistant text and/or tool calls.
// Providers (OpenAI, Anthropic, Gemini) live in subpackages and implement Model so
// higher layers stay decoupled from vendor SDKs.
package model
