package azsearch

import (
	"context"
	"errors"

	"github.com/hupe1980/agentchat/tool"
)

// ToolName is the registered name of the search tool.
const ToolName = "search"

// Searcher is the subset of Client used by the tool.
type Searcher interface {
	Search(ctx context.Context, query string) (*Result, error)
}

// NewTool exposes s as the search(query) tool. The tool returns the stripped
// records as a JSON array.
func NewTool(s Searcher) *tool.Function {
	return tool.NewFunction(ToolName, "A tool for searching the Cognitive Search index",
		tool.Signature{{Name: "query", Type: tool.TypeString, Description: "search text"}},
		func(ctx context.Context, args tool.Args) (any, error) {
			query := args.String("query")
			if query == "" {
				return nil, errors.New("query must not be empty")
			}
			res, err := s.Search(ctx, query)
			if err != nil {
				return nil, err
			}
			return res.Records, nil
		},
	)
}
