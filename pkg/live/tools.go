package live

import "fmt"

// Tool represents a function the assistant can invoke during a session.
type Tool struct {
	// Name is the unique identifier for the tool (e.g., "listFiles").
	Name string `json:"name"`

	// Description explains what the tool does, helping the model decide when to use it.
	Description string `json:"description"`

	// Parameters defines the JSON schema for the tool's arguments.
	Parameters map[string]any `json:"parameters"`

	// Handler is called when the model invokes this tool.
	// It receives the parsed arguments and returns a result string or error.
	Handler func(args map[string]any) (string, error) `json:"-"`
}

// ToolCall represents an invocation of a tool by the model.
type ToolCall struct {
	// ID is the unique identifier for this tool call.
	// Used to match results back to the correct call.
	ID string

	// Name is the tool being invoked.
	Name string

	// Args contains the parsed arguments from the model.
	Args map[string]any
}

// ToolResponse is the correlated result returned for one ToolCall.
type ToolResponse struct {
	ID     string
	Name   string
	Result string
}

// unknownToolResult is returned verbatim so the model can rephrase
// instead of failing the conversation.
const unknownToolResult = "Tool not recognized."

// Dispatcher resolves tool calls against a fixed set of tools.
type Dispatcher struct {
	tools    []Tool
	toolsMap map[string]Tool
}

// NewDispatcher creates a dispatcher over the given tool set.
func NewDispatcher(tools []Tool) *Dispatcher {
	d := &Dispatcher{
		tools:    tools,
		toolsMap: make(map[string]Tool, len(tools)),
	}
	for _, tool := range tools {
		d.toolsMap[tool.Name] = tool
	}
	return d
}

// Tools returns the registered tools, for transport setup declarations.
func (d *Dispatcher) Tools() []Tool {
	return d.tools
}

// Dispatch resolves a single call. Failures degrade to descriptive
// strings: the model reacts conversationally, never to a dead session.
func (d *Dispatcher) Dispatch(call ToolCall) ToolResponse {
	resp := ToolResponse{ID: call.ID, Name: call.Name}

	tool, ok := d.toolsMap[call.Name]
	if !ok || tool.Handler == nil {
		toolCalls.WithLabelValues(call.Name, "unknown").Inc()
		resp.Result = unknownToolResult
		return resp
	}

	result, err := tool.Handler(call.Args)
	if err != nil {
		toolCalls.WithLabelValues(call.Name, "error").Inc()
		resp.Result = fmt.Sprintf("Error: %v", err)
		return resp
	}
	if result == "" {
		result = "ok"
	}

	toolCalls.WithLabelValues(call.Name, "ok").Inc()
	resp.Result = result
	return resp
}

// DispatchBatch resolves each call independently, in order. One call's
// failure never blocks or cancels the others.
func (d *Dispatcher) DispatchBatch(calls []ToolCall) []ToolResponse {
	responses := make([]ToolResponse, 0, len(calls))
	for _, call := range calls {
		responses = append(responses, d.Dispatch(call))
	}
	return responses
}
