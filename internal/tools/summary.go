package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/go-playground/validator/v10"

	"github.com/54b3r/librarian-go/internal/catalog"
)

// SummaryToolName is the name the chat model uses to call SummaryTool.
const SummaryToolName = "get_summary_by_title"

// ErrToolArgument reports tool-call arguments that are not valid JSON or do
// not satisfy the tool's schema.
var ErrToolArgument = errors.New("invalid tool arguments")

// validate is shared; validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// SummaryArgs is the argument object of get_summary_by_title.
type SummaryArgs struct {
	// Title is the exact book title to look up.
	Title string `json:"title" validate:"required,max=512"`
}

// ParseArgs decodes and validates a get_summary_by_title argument payload.
// The title is trimmed of surrounding whitespace; a missing, blank or
// non-string title is rejected.
func ParseArgs(argumentsInJSON string) (SummaryArgs, error) {
	var args SummaryArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return SummaryArgs{}, fmt.Errorf("%w: %s: %w", ErrToolArgument, SummaryToolName, err)
	}
	args.Title = strings.TrimSpace(args.Title)
	if err := validate.Struct(args); err != nil {
		return SummaryArgs{}, fmt.Errorf("%w: %s: %w", ErrToolArgument, SummaryToolName, err)
	}
	return args, nil
}

// SummaryTool returns the long-form summary of a catalog book.
type SummaryTool struct {
	// catalog is the read-only store the summaries come from.
	catalog *catalog.Catalog
}

// NewSummaryTool constructs a SummaryTool over cat.
func NewSummaryTool(cat *catalog.Catalog) *SummaryTool {
	return &SummaryTool{catalog: cat}
}

// Name returns the tool name registered with the model.
func (t *SummaryTool) Name() string { return SummaryToolName }

// Description returns the model-facing description of this tool.
func (t *SummaryTool) Description() string {
	return "Return the full, long-form summary for an exact book title."
}

// Info returns the Eino tool metadata including the JSON input schema.
func (t *SummaryTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: t.Name(),
		Desc: t.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"title": {
				Type:     schema.String,
				Desc:     "Exact book title (e.g., '1984')",
				Required: true,
			},
		}),
	}, nil
}

// Lookup returns the summary for an exact title, or the fixed "not
// available" text. It never fails.
func (t *SummaryTool) Lookup(title string) string {
	return t.catalog.SummaryByTitle(title)
}

// Resolve parses the arguments and looks the title up. Unknown titles
// still resolve, with the "not available" text as content; only malformed
// arguments fail.
func (t *SummaryTool) Resolve(_ context.Context, argumentsInJSON string) (Resolution, error) {
	args, err := ParseArgs(argumentsInJSON)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Content: t.Lookup(args.Title), Title: args.Title}, nil
}

// InvokableRun returns the summary text for the requested title.
func (t *SummaryTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	res, err := t.Resolve(ctx, argumentsInJSON)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}

var _ LibrarianTool = (*SummaryTool)(nil)
