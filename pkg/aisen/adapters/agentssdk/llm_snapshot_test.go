package agentssdk

import (
	"testing"

	llmsdk "github.com/strongdm/ai-llm-sdk/pkg/llm"
)

// withLen appends n zero elements to s.
func withLen[S ~[]E, E any](s S, n int) S {
	return append(s, make(S, n)...)
}

func textMessage(text string) llmsdk.Message {
	msg := llmsdk.Message{Role: llmsdk.RoleAssistant}
	msg.Parts = withLen(msg.Parts, 1)
	msg.Parts[0].Text = text
	return msg
}

func TestLLMRequestData_OmitsContent(t *testing.T) {
	temp := float32(0.5)
	maxTokens := 256
	req := llmsdk.Request{
		Model:       "gpt-4",
		Provider:    llmsdk.ProviderOpenAI,
		Temperature: &temp,
		MaxTokens:   &maxTokens,
		Messages:    []llmsdk.Message{textMessage("my password is hunter2")},
	}
	req.Tools = withLen(req.Tools, 2)
	req.Tools[0].Name = "WebSearch"
	req.Tools[1].Name = "Calc"

	data := llmRequestData(req)

	want := map[string]string{
		"model":         "gpt-4",
		"provider":      string(llmsdk.ProviderOpenAI),
		"message_count": "1",
		"tool_count":    "2",
		"tool_names":    "WebSearch,Calc",
		"temperature":   "0.5",
		"max_tokens":    "256",
	}
	for k, v := range want {
		if data[k] != v {
			t.Errorf("data[%q] = %q, want %q", k, data[k], v)
		}
	}
	for k, v := range data {
		if v == "my password is hunter2" {
			t.Errorf("message text leaked into %q", k)
		}
	}
}

func TestLLMRequestContext_KeepsLastMessages(t *testing.T) {
	var messages []llmsdk.Message
	for i := 0; i < 15; i++ {
		messages = append(messages, textMessage("hello"))
	}

	ctx := llmRequestContext(llmsdk.Request{Model: "gpt-4", Messages: messages})

	meta, ok := ctx["messages"].([]MessageMetadata)
	if !ok {
		t.Fatalf("messages = %T, want []MessageMetadata", ctx["messages"])
	}
	if len(meta) != maxMessageMetadata {
		t.Errorf("kept %d messages, want %d", len(meta), maxMessageMetadata)
	}
	if ctx["message_count"] != 15 {
		t.Errorf("message_count = %v, want 15", ctx["message_count"])
	}
	if meta[0].ContentLength != 5 || meta[0].PartsCount != 1 {
		t.Errorf("metadata = %+v", meta[0])
	}
}

func TestLLMResponseData(t *testing.T) {
	resp := llmsdk.Response{
		ID:           "resp-1",
		FinishReason: llmsdk.FinishReasonToolCalls,
		ToolCalls:    []llmsdk.ToolCall{{Name: "WebSearch"}},
	}
	resp.Usage.PromptTokens = 10
	resp.Usage.CompletionTokens = 5
	resp.Usage.TotalTokens = 15

	data := llmResponseData(resp)

	if data["response_id"] != "resp-1" {
		t.Errorf("response_id = %q", data["response_id"])
	}
	if data["total_tokens"] != "15" {
		t.Errorf("total_tokens = %q", data["total_tokens"])
	}
	if data["tool_call_names"] != "WebSearch" || data["tool_call_count"] != "1" {
		t.Errorf("tool calls = %q/%q", data["tool_call_names"], data["tool_call_count"])
	}
}
