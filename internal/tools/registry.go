// Package tools exposes budget operations as named tools for an assistant
// runtime.
//
// Every call returns a JSON object. Failures come back as {"error": "..."}
// and never as Go errors or panics, so the runtime can relay them as text.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"

	"github.com/mmynk/familybudget/internal/apperr"
	"github.com/mmynk/familybudget/internal/auth"
	"github.com/mmynk/familybudget/internal/metrics"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
	outcomePanic = "panic"
)

// Handler runs one tool with its raw JSON parameters. The returned value is
// encoded as the result and must encode to a JSON object.
type Handler func(ctx context.Context, id auth.Identity, params json.RawMessage) (any, error)

// Param describes one tool parameter.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
}

// Tool is a named operation the assistant can invoke.
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"parameters"`

	handler Handler
}

// Registry holds the tools and dispatches calls to them.
type Registry struct {
	tools   map[string]Tool
	metrics *metrics.Metrics
}

// NewRegistry creates an empty registry. m may be nil.
func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{tools: make(map[string]Tool), metrics: m}
}

// Register adds a tool. Registering a name twice replaces the first tool.
func (r *Registry) Register(tool Tool, handler Handler) {
	tool.handler = handler
	r.tools[tool.Name] = tool
	slog.Debug("Registered tool", "tool", tool.Name)
}

// List returns the registered tools sorted by name.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Call runs the named tool for id and returns its JSON result.
//
// The call runs detached from ctx cancellation: once a tool has written to
// the ledger, a caller that goes away does not undo it.
func (r *Registry) Call(ctx context.Context, id auth.Identity, name string, params json.RawMessage) (result json.RawMessage) {
	tool, ok := r.tools[name]
	if !ok {
		slog.Warn("Unknown tool", "tool", name, "family_id", id.FamilyID)
		r.metrics.ToolCall("unknown", outcomeError)
		return errorResult(fmt.Sprintf("unknown tool %q", name))
	}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("Tool panicked",
				"tool", name,
				"family_id", id.FamilyID,
				"panic", p,
				"stack", string(debug.Stack()),
			)
			r.metrics.ToolCall(name, outcomePanic)
			result = errorResult("internal error")
		}
	}()

	slog.Info("Tool call received", "tool", name, "family_id", id.FamilyID, "user_id", id.UserID)
	value, err := r.invoke(context.WithoutCancel(ctx), tool, id, params)
	if err == nil {
		result, err = encodeObject(value)
	}
	if err != nil {
		slog.Warn("Tool call failed", "tool", name, "family_id", id.FamilyID, "error", err)
		r.metrics.ToolCall(name, outcomeError)
		return errorResult(apperr.Message(err))
	}

	r.metrics.ToolCall(name, outcomeOK)
	return result
}

func (r *Registry) invoke(ctx context.Context, tool Tool, id auth.Identity, params json.RawMessage) (any, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if len(params) == 0 || string(params) == "null" {
		params = json.RawMessage("{}")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(params, &fields); err != nil {
		return nil, apperr.Invalid("parameters", "must be a JSON object")
	}
	for _, p := range tool.Params {
		if v, ok := fields[p.Name]; p.Required && (!ok || string(v) == "null") {
			return nil, apperr.Invalid(p.Name, "is required")
		}
	}
	return tool.handler(ctx, id, params)
}

// encodeObject marshals v and checks the result is a JSON object.
func encodeObject(v any) (json.RawMessage, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	if len(body) == 0 || body[0] != '{' {
		return nil, fmt.Errorf("tool result is not a JSON object: %s", body)
	}
	return body, nil
}

func errorResult(message string) json.RawMessage {
	body, _ := json.Marshal(map[string]string{"error": message})
	return body
}

// decode unmarshals params into dst, reporting type mismatches per field.
func decode(params json.RawMessage, dst any) error {
	if err := json.Unmarshal(params, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperr.Invalid(typeErr.Field, "has the wrong type, got "+typeErr.Value)
		}
		return apperr.Invalid("parameters", "malformed parameters")
	}
	return nil
}
