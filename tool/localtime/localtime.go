// Package localtime provides the get_local_time tool.
package localtime

import (
	"context"
	"time"

	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/tool"
)

// Name is the registered tool name.
const Name = "get_local_time"

// Layout formats the reported clock time.
const Layout = "15:04:05"

// Options configure the tool.
type Options struct {
	// Now reads the clock (defaults to time.Now).
	Now func() time.Time
	// Location converts the clock reading (defaults to time.Local).
	Location *time.Location
	Logger   logging.Logger
}

// New returns the get_local_time tool.
func New(optFns ...func(o *Options)) *tool.Function {
	opts := Options{Now: time.Now, Location: time.Local}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := logging.OrNoOp(opts.Logger)

	return tool.NewFunction(Name, "Retrieves the current time in Local Time.", nil,
		func(context.Context, tool.Args) (any, error) {
			now := opts.Now().In(opts.Location)
			logger.Debug("localtime.request", "time", now.Format(time.RFC3339))
			return "The current local time now is: " + now.Format(Layout), nil
		},
	)
}
