package tool

import "context"

// CallInfo describes the conversation-side circumstances of a tool call.
type CallInfo struct {
	CallID   string // identifier of the requesting tool call message
	Caller   string // agent that requested the call
	Executor string // agent that runs the call
}

type callInfoKey struct{}

// WithCallInfo returns a context carrying info for the duration of a call.
func WithCallInfo(ctx context.Context, info CallInfo) context.Context {
	return context.WithValue(ctx, callInfoKey{}, info)
}

// CallInfoFromContext extracts the CallInfo attached by the dispatcher.
func CallInfoFromContext(ctx context.Context) (CallInfo, bool) {
	info, ok := ctx.Value(callInfoKey{}).(CallInfo)
	return info, ok
}
