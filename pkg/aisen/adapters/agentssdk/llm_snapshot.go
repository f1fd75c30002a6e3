// Helper functions to describe LLM operations without storing full message text.
package agentssdk

import (
	"strconv"
	"strings"

	llmsdk "github.com/strongdm/ai-llm-sdk/pkg/llm"
)

// LLMContextName is the event context that describes the most recent LLM call of a run.
const LLMContextName = "llm"

// maxMessageMetadata bounds the message summaries kept in the llm context.
const maxMessageMetadata = 10

// MessageMetadata captures message structure without content.
// SECURITY: Full text is NOT stored to avoid leaking prompts/secrets.
type MessageMetadata struct {
	Role          string `json:"role"`           // "system", "user", "assistant", "tool"
	ContentLength int    `json:"content_length"` // Character count
	PartsCount    int    `json:"parts_count"`    // Number of content parts
	HasImage      bool   `json:"has_image,omitempty"`
	HasToolCall   bool   `json:"has_tool_call,omitempty"`
	HasToolResult bool   `json:"has_tool_result,omitempty"`
}

// llmRequestData extracts breadcrumb data from an LLM request.
// SECURITY: Does NOT store message text, only metadata.
func llmRequestData(req llmsdk.Request) map[string]string {
	data := map[string]string{
		"model":         req.Model,
		"message_count": strconv.Itoa(len(req.Messages)),
		"tool_count":    strconv.Itoa(len(req.Tools)),
	}
	if req.Provider != "" {
		data["provider"] = string(req.Provider)
	}
	if req.Temperature != nil {
		data["temperature"] = strconv.FormatFloat(float64(*req.Temperature), 'f', -1, 32)
	}
	if req.TopP != nil {
		data["top_p"] = strconv.FormatFloat(float64(*req.TopP), 'f', -1, 32)
	}
	if req.MaxTokens != nil {
		data["max_tokens"] = strconv.Itoa(*req.MaxTokens)
	}

	// Tool names only (not schemas)
	if len(req.Tools) > 0 {
		names := make([]string, len(req.Tools))
		for i, tool := range req.Tools {
			names[i] = tool.Name
		}
		data["tool_names"] = strings.Join(names, ",")
	}
	return data
}

// llmRequestContext builds the llm event context for a request.
func llmRequestContext(req llmsdk.Request) map[string]any {
	// Message metadata (last 10 messages)
	start := 0
	if len(req.Messages) > maxMessageMetadata {
		start = len(req.Messages) - maxMessageMetadata
	}
	messages := make([]MessageMetadata, 0, len(req.Messages)-start)
	for _, msg := range req.Messages[start:] {
		messages = append(messages, buildMessageMetadata(msg))
	}

	return map[string]any{
		"model":         req.Model,
		"provider":      string(req.Provider),
		"message_count": len(req.Messages),
		"tool_count":    len(req.Tools),
		"messages":      messages,
	}
}

// buildMessageMetadata extracts metadata from a message without storing content.
// SECURITY: Full text is NOT stored to avoid leaking prompts/secrets.
func buildMessageMetadata(msg llmsdk.Message) MessageMetadata {
	metadata := MessageMetadata{
		Role:       string(msg.Role),
		PartsCount: len(msg.Parts),
	}

	// Calculate content length and detect special content types
	contentLength := 0
	for _, part := range msg.Parts {
		contentLength += len(part.Text)
		if part.ImageData != nil {
			metadata.HasImage = true
		}
		if part.ToolCall != nil {
			metadata.HasToolCall = true
		}
		if part.ToolResult != nil {
			metadata.HasToolResult = true
		}
	}
	metadata.ContentLength = contentLength

	return metadata
}

// llmResponseData extracts breadcrumb data from an LLM response.
func llmResponseData(resp llmsdk.Response) map[string]string {
	data := map[string]string{
		"prompt_tokens":     strconv.Itoa(resp.Usage.PromptTokens),
		"completion_tokens": strconv.Itoa(resp.Usage.CompletionTokens),
		"total_tokens":      strconv.Itoa(resp.Usage.TotalTokens),
	}
	if resp.ID != "" {
		data["response_id"] = resp.ID
	}
	if resp.FinishReason != "" {
		data["finish_reason"] = string(resp.FinishReason)
	}

	// Tool call names from the response
	if len(resp.ToolCalls) > 0 {
		names := make([]string, len(resp.ToolCalls))
		for i, tc := range resp.ToolCalls {
			names[i] = tc.Name
		}
		data["tool_call_count"] = strconv.Itoa(len(resp.ToolCalls))
		data["tool_call_names"] = strings.Join(names, ",")
	}
	return data
}
