// Package azsearch queries an Azure Cognitive Search index with a hybrid
// (keyword plus text vector) semantic query and exposes it as the search tool.
package azsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/hupe1980/agentchat/logging"
)

const (
	moduleName    = "agentchat/azsearch"
	moduleVersion = "v0.1.0"

	// DefaultAPIVersion is the search REST API version used when none is set.
	DefaultAPIVersion = "2023-11-01"

	searchScope = "https://search.azure.com/.default"
)

// DefaultStripFields lists the embedding fields removed from every record.
var DefaultStripFields = []string{"titleVector", "contentVector"}

// Options configure a Client.
type Options struct {
	Endpoint              string // https://<service>.search.windows.net
	Index                 string
	APIVersion            string
	SemanticConfiguration string
	VectorFields          string // comma separated vector fields for the text vector query
	K                     int    // nearest neighbours for the vector query
	QueryLanguage         string
	StripFields           []string

	// Exactly one of Key or Credential authenticates requests.
	Key        string
	Credential azcore.TokenCredential

	ClientOptions policy.ClientOptions
	Logger        logging.Logger
}

// Client issues search requests through an azcore pipeline.
type Client struct {
	pl     runtime.Pipeline
	opts   Options
	logger logging.Logger
}

// NewClient validates opts and builds the request pipeline.
func NewClient(optFns ...func(o *Options)) (*Client, error) {
	opts := Options{
		APIVersion:    DefaultAPIVersion,
		VectorFields:  "vector",
		K:             5,
		QueryLanguage: "en-US",
		StripFields:   DefaultStripFields,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Endpoint == "" {
		return nil, errors.New("azsearch: endpoint is required")
	}
	if opts.Index == "" {
		return nil, errors.New("azsearch: index is required")
	}

	var authPolicy policy.Policy
	switch {
	case opts.Key != "":
		authPolicy = runtime.NewKeyCredentialPolicy(azcore.NewKeyCredential(opts.Key), "api-key", nil)
	case opts.Credential != nil:
		authPolicy = runtime.NewBearerTokenPolicy(opts.Credential, []string{searchScope}, nil)
	default:
		return nil, errors.New("azsearch: either Key or Credential is required")
	}

	clientOpts := opts.ClientOptions
	pl := runtime.NewPipeline(moduleName, moduleVersion, runtime.PipelineOptions{
		PerRetry: []policy.Policy{authPolicy},
	}, &clientOpts)

	return &Client{pl: pl, opts: opts, logger: logging.OrNoOp(opts.Logger)}, nil
}

type vectorQuery struct {
	Kind   string `json:"kind"`
	Text   string `json:"text"`
	K      int    `json:"k"`
	Fields string `json:"fields"`
}

type searchRequest struct {
	Search                string        `json:"search"`
	VectorQueries         []vectorQuery `json:"vectorQueries"`
	QueryType             string        `json:"queryType"`
	SemanticConfiguration string        `json:"semanticConfiguration,omitempty"`
	Captions              string        `json:"captions"`
	Answers               string        `json:"answers"`
	QueryLanguage         string        `json:"queryLanguage"`
}

// Answer is a semantic answer extracted by the service.
type Answer struct {
	Key   string  `json:"key"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Result holds the records of a search in service order.
type Result struct {
	Records []json.RawMessage
	Answers []Answer
}

// Search runs query against the index. Every returned record has the
// configured embedding fields removed.
func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	endpoint := runtime.JoinPaths(c.opts.Endpoint, "indexes", c.opts.Index, "docs", "search")
	req, err := runtime.NewRequest(ctx, http.MethodPost, endpoint)
	if err != nil {
		return nil, fmt.Errorf("azsearch: build request: %w", err)
	}
	q := req.Raw().URL.Query()
	q.Set("api-version", c.opts.APIVersion)
	req.Raw().URL.RawQuery = q.Encode()
	req.Raw().Header.Set("Accept", "application/json")

	body := searchRequest{
		Search:                query,
		VectorQueries:         []vectorQuery{{Kind: "text", Text: query, K: c.opts.K, Fields: c.opts.VectorFields}},
		QueryType:             "semantic",
		SemanticConfiguration: c.opts.SemanticConfiguration,
		Captions:              "extractive",
		Answers:               "extractive|count-3",
		QueryLanguage:         c.opts.QueryLanguage,
	}
	if err := runtime.MarshalAsJSON(req, body); err != nil {
		return nil, fmt.Errorf("azsearch: encode request: %w", err)
	}

	resp, err := c.pl.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azsearch: send request: %w", err)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return nil, runtime.NewResponseError(resp)
	}

	payload, err := runtime.Payload(resp)
	if err != nil {
		return nil, fmt.Errorf("azsearch: read response: %w", err)
	}
	if !gjson.ValidBytes(payload) {
		return nil, errors.New("azsearch: response is not valid JSON")
	}

	result, err := c.decode(payload)
	if err != nil {
		return nil, err
	}
	c.logger.Info("azsearch.search.completed", "index", c.opts.Index, "records", len(result.Records), "answers", len(result.Answers))
	return result, nil
}

func (c *Client) decode(payload []byte) (*Result, error) {
	result := &Result{Records: []json.RawMessage{}}

	var stripErr error
	gjson.GetBytes(payload, "value").ForEach(func(_, record gjson.Result) bool {
		raw := record.Raw
		for _, field := range c.opts.StripFields {
			var err error
			if raw, err = sjson.Delete(raw, escapePath(field)); err != nil {
				stripErr = fmt.Errorf("azsearch: strip %s: %w", field, err)
				return false
			}
		}
		result.Records = append(result.Records, json.RawMessage(raw))
		return true
	})
	if stripErr != nil {
		return nil, stripErr
	}

	var envelope struct {
		Answers []Answer `json:"@search.answers"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("azsearch: decode answers: %w", err)
	}
	result.Answers = envelope.Answers
	return result, nil
}

// escapePath escapes gjson/sjson path metacharacters in a literal key.
func escapePath(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}
