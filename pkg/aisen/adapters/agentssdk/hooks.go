// hooks.go implements RunHooks that record the run's trail on the current scope.
// This adapter provides ENRICHMENT only - error detection is done by WrappedRunner.

package agentssdk

import (
	"context"
	"strconv"

	"github.com/strongdm/ai-agents-sdk/pkg/agents"
	llmsdk "github.com/strongdm/ai-llm-sdk/pkg/llm"

	"github.com/strongdm/aisen/pkg/aisen"
)

// Scope tags describing the operation in progress.
const (
	OperationTag   = "operation"
	OperationIDTag = "operation_id"
	ToolTag        = "tool"
	ModelTag       = "model"
)

// Breadcrumb categories recorded by HookAdapter.
const (
	CategoryAgent   = "agent"
	CategoryHandoff = "handoff"
	CategoryTool    = "tool"
	CategoryLLM     = "llm"
)

// HookAdapter implements agents.RunHooks to record breadcrumbs and tags.
// It delegates to an inner RunHooks after recording.
type HookAdapter struct {
	hub   *aisen.Hub
	inner agents.RunHooks
}

// NewHookAdapter wraps an existing RunHooks and records the run's operations
// on the current scope of the ctx each hook receives.
//
// The inner hooks (if non-nil) are called for all hook methods; only their errors are returned.
func NewHookAdapter(hub *aisen.Hub, inner agents.RunHooks) agents.RunHooks {
	return &HookAdapter{
		hub:   hub,
		inner: inner,
	}
}

// OnAgentStart records the agent start.
func (h *HookAdapter) OnAgentStart(ctx context.Context, runCtx *agents.AgentHookContext, agent *agents.Agent) error {
	if agent != nil {
		h.hub.ConfigureScope(ctx, func(s *aisen.Scope) {
			s.SetTag(AgentTag, agent.Name())
		})
		h.breadcrumb(ctx, "Agent "+agent.Name()+" started", CategoryAgent, nil)
	}

	if h.inner != nil {
		return h.inner.OnAgentStart(ctx, runCtx, agent)
	}
	return nil
}

// OnAgentEnd records the agent end.
func (h *HookAdapter) OnAgentEnd(ctx context.Context, runCtx *agents.AgentHookContext, agent *agents.Agent, result agents.RunResult) error {
	if agent != nil {
		h.breadcrumb(ctx, "Agent "+agent.Name()+" finished", CategoryAgent, nil)
	}

	if h.inner != nil {
		return h.inner.OnAgentEnd(ctx, runCtx, agent, result)
	}
	return nil
}

// OnHandoff records the handoff and retags the scope with the receiving agent.
func (h *HookAdapter) OnHandoff(ctx context.Context, runCtx *agents.RunContext, from *agents.Agent, to *agents.Agent) error {
	data := map[string]string{}
	if from != nil {
		data["from"] = from.Name()
	}
	if to != nil {
		data["to"] = to.Name()
		h.hub.ConfigureScope(ctx, func(s *aisen.Scope) {
			s.SetTag(AgentTag, to.Name())
		})
	}
	h.breadcrumb(ctx, "Handoff", CategoryHandoff, data)

	if h.inner != nil {
		return h.inner.OnHandoff(ctx, runCtx, from, to)
	}
	return nil
}

// OnToolStart tags the scope with the tool call and records its start.
func (h *HookAdapter) OnToolStart(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, tool agents.Tool, call llmsdk.ToolCall) error {
	h.hub.ConfigureScope(ctx, func(s *aisen.Scope) {
		if agent != nil {
			s.SetTag(AgentTag, agent.Name())
		}
		s.SetTag(OperationTag, "tool")
		s.SetTag(ToolTag, tool.Name)
		s.SetTag(OperationIDTag, call.ID)
	})
	h.breadcrumb(ctx, "Tool "+tool.Name+" started", CategoryTool, map[string]string{
		"call_id":    call.ID,
		"input_size": strconv.Itoa(len(call.Arguments)),
	})

	if h.inner != nil {
		return h.inner.OnToolStart(ctx, runCtx, agent, tool, call)
	}
	return nil
}

// OnToolEnd records the tool end.
func (h *HookAdapter) OnToolEnd(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, tool agents.Tool, output string) error {
	h.breadcrumb(ctx, "Tool "+tool.Name+" finished", CategoryTool, map[string]string{
		"output_size": strconv.Itoa(len(output)),
	})

	if h.inner != nil {
		return h.inner.OnToolEnd(ctx, runCtx, agent, tool, output)
	}
	return nil
}

// OnLLMStart tags the scope with the model and records the request metadata.
func (h *HookAdapter) OnLLMStart(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, req llmsdk.Request) error {
	h.hub.ConfigureScope(ctx, func(s *aisen.Scope) {
		if agent != nil {
			s.SetTag(AgentTag, agent.Name())
		}
		s.SetTag(OperationTag, "llm")
		s.SetTag(ModelTag, req.Model)
		s.RemoveTag(ToolTag)
		s.RemoveTag(OperationIDTag)
		s.SetContext(LLMContextName, llmRequestContext(req))
	})
	h.breadcrumb(ctx, "LLM request", CategoryLLM, llmRequestData(req))

	if h.inner != nil {
		return h.inner.OnLLMStart(ctx, runCtx, agent, req)
	}
	return nil
}

// OnLLMEnd records the response metadata.
func (h *HookAdapter) OnLLMEnd(ctx context.Context, runCtx *agents.RunContext, agent *agents.Agent, resp llmsdk.Response) error {
	h.breadcrumb(ctx, "LLM response", CategoryLLM, llmResponseData(resp))

	if h.inner != nil {
		return h.inner.OnLLMEnd(ctx, runCtx, agent, resp)
	}
	return nil
}

func (h *HookAdapter) breadcrumb(ctx context.Context, message, category string, data map[string]string) {
	err := h.hub.AddBreadcrumb(ctx, message, aisen.BreadcrumbOptions{
		Type:     "default",
		Category: category,
		Data:     data,
	})
	if err != nil {
		h.hub.Logger().Log(aisen.LevelDebug, err, "Failed to record {0} breadcrumb.", category)
	}
}
