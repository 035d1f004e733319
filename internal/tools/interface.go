// Package tools defines the function tools the librarian exposes to the chat
// model. Each tool satisfies Eino's tool.InvokableTool so its schema can be
// bound to a ToolCallingChatModel and its calls dispatched by name.
package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
)

// Resolution is the outcome of one successful tool call.
type Resolution struct {
	// Content is the tool reply sent back to the model.
	Content string

	// Title is the catalog book the call resolved to, if any.
	Title string
}

// LibrarianTool is a tool the orchestrator can bind and dispatch by name
// without type assertions.
type LibrarianTool interface {
	tool.InvokableTool

	// Name returns the unique tool name sent to the model.
	Name() string

	// Description returns the model-facing description of the tool.
	Description() string

	// Resolve runs the call and reports what it resolved to. Argument
	// errors wrap ErrToolArgument.
	Resolve(ctx context.Context, argumentsInJSON string) (Resolution, error)
}
