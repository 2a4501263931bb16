// Package readdata provides the read_data tool: it returns the contents of
// every non-empty file stored in a data directory so agents can inspect
// logs and reports attached to an incident.
package readdata

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/tool"
)

// Name is the registered tool name.
const Name = "read_data"

// DefaultDescription is advertised to models when none is configured.
const DefaultDescription = "gets the data from the storage for the searched data type (network, firmware etc.)"

// Options configure the read_data tool.
type Options struct {
	Description string
	Logger      logging.Logger
}

// New returns the read_data tool over dir.
func New(dir string, optFns ...func(o *Options)) *tool.Function {
	return NewFS(os.DirFS(dir), optFns...)
}

// NewFS returns the read_data tool over an arbitrary file system root.
func NewFS(fsys fs.FS, optFns ...func(o *Options)) *tool.Function {
	opts := Options{Description: DefaultDescription}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := logging.OrNoOp(opts.Logger)

	return tool.NewFunction(Name, opts.Description,
		tool.Signature{{Name: "datatype", Type: tool.TypeString, Description: "type of datasource"}},
		func(ctx context.Context, args tool.Args) (any, error) {
			logger.Info("readdata.request", "datatype", args.String("datatype"))
			return Read(ctx, fsys)
		},
	)
}

// Read returns the contents of the regular files directly below the root of
// fsys in name order. Empty files are skipped; subdirectories are ignored.
func Read(ctx context.Context, fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	contents := []string{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if len(data) == 0 {
			continue
		}
		contents = append(contents, string(data))
	}
	return contents, nil
}
