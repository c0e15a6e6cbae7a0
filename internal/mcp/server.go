package mcp

import (
	"context"
	"errors"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/app"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/priority"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
)

// ServerName is reported to MCP clients.
const ServerName = "anticipate"

// NewServer registers every tool on a new MCP server.
func NewServer(e *app.Engine, version string) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: ServerName, Version: version}, &mcpsdk.ServerOptions{})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "list-signals",
		Description: "List open signals in priority order. Filter by domain or type; set all to include dismissed and acted-on signals.",
	}, func(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[ListSignalsParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return respond(HandleListSignals(ctx, e, params.Arguments))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "signal-counts",
		Description: "Count active signals per severity.",
	}, func(ctx context.Context, _ *mcpsdk.ServerSession, _ *mcpsdk.CallToolParamsFor[EmptyParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return markdownResponse(HandleCounts(e))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "dismiss-signal",
		Description: "Dismiss a signal by id, id prefix, or title. Dismissals lower the weight of similar signals.",
	}, func(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[SignalRefParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return respond(HandleDismiss(ctx, e, params.Arguments))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "act-on-signal",
		Description: "Mark a signal as acted on by id, id prefix, or title.",
	}, func(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[SignalRefParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return respond(HandleActOn(ctx, e, params.Arguments))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "run-cycle",
		Description: "Run an anticipation cycle over an inline snapshot or the configured snapshot file.",
	}, func(ctx context.Context, _ *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[RunCycleParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return respond(HandleRunCycle(ctx, e, params.Arguments))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "morning-brief",
		Description: "Generate today's morning brief: urgent and attention signals plus portfolio, activity, calendar and family digests.",
	}, func(ctx context.Context, _ *mcpsdk.ServerSession, _ *mcpsdk.CallToolParamsFor[EmptyParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return respond(HandleBrief(ctx, e))
	})

	return server
}

// Run serves the tools over stdio until ctx is done or the client leaves.
func Run(ctx context.Context, e *app.Engine, version string) error {
	return NewServer(e, version).Run(ctx, mcpsdk.NewStdioTransport())
}

// respond turns a handler result into a tool result. Tool errors are
// returned in the result so the client can see them.
func respond(text string, err error) (*mcpsdk.CallToolResultFor[any], error) {
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return errorResponse(FormatValidationError(verr.Field, verr.Message))
		}
		return errorResponse(FormatError(err.Error()))
	}
	return markdownResponse(text)
}

func markdownResponse(markdown string) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: markdown}},
	}, nil
}

func errorResponse(text string) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
		IsError: true,
	}, nil
}

func scoredOf(s signal.Signal) priority.Scored {
	return priority.Scored{Signal: s, Score: priority.Score(s, nil)}
}
