package azsearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/tool"
)

const searchResponse = `{
	"@odata.count": 2,
	"@search.answers": [{"key": "1", "text": "Deep learning uses neural networks.", "score": 0.9}],
	"value": [
		{"@search.score": 1.5, "id": "1", "title": "Deep learning", "titleVector": [0.1, 0.2], "contentVector": [0.3], "content": "neural networks"},
		{"@search.score": 0.7, "id": "2", "title": "Machine learning", "content": "statistics", "contentVector": [0.4]}
	]
}`

type captured struct {
	path    string
	query   string
	apiKey  string
	auth    string
	payload map[string]any
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.query = r.URL.Query().Get("api-version")
		c.apiKey = r.Header.Get("api-key")
		c.auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &c.payload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func testOptions(srv *httptest.Server) func(o *Options) {
	return func(o *Options) {
		o.Endpoint = srv.URL
		o.Index = "docs"
		o.SemanticConfiguration = "default"
		o.ClientOptions = policy.ClientOptions{
			Transport: srv.Client(),
			Retry:     policy.RetryOptions{MaxRetries: -1},
		}
	}
}

func TestClient_SearchStripsVectors(t *testing.T) {
	srv, c := newTestServer(t, http.StatusOK, searchResponse)

	client, err := NewClient(testOptions(srv), func(o *Options) { o.Key = "secret" })
	require.NoError(t, err)

	res, err := client.Search(context.Background(), "What is deep learning?")
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	for _, rec := range res.Records {
		var m map[string]any
		require.NoError(t, json.Unmarshal(rec, &m))
		assert.NotContains(t, m, "titleVector")
		assert.NotContains(t, m, "contentVector")
		assert.Contains(t, m, "title")
	}
	require.Len(t, res.Answers, 1)
	assert.Equal(t, "Deep learning uses neural networks.", res.Answers[0].Text)

	assert.Equal(t, "/indexes/docs/docs/search", c.path)
	assert.Equal(t, DefaultAPIVersion, c.query)
	assert.Equal(t, "secret", c.apiKey)

	assert.Equal(t, "What is deep learning?", c.payload["search"])
	assert.Equal(t, "semantic", c.payload["queryType"])
	assert.Equal(t, "default", c.payload["semanticConfiguration"])
	assert.Equal(t, "extractive", c.payload["captions"])
	assert.Equal(t, "extractive|count-3", c.payload["answers"])
	assert.Equal(t, "en-US", c.payload["queryLanguage"])
	vq := c.payload["vectorQueries"].([]any)[0].(map[string]any)
	assert.Equal(t, "text", vq["kind"])
	assert.EqualValues(t, 5, vq["k"])
	assert.Equal(t, "vector", vq["fields"])
}

type staticToken struct{}

func (staticToken) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "tok", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func TestClient_BearerToken(t *testing.T) {
	srv, c := newTestServer(t, http.StatusOK, `{"value": []}`)

	client, err := NewClient(testOptions(srv), func(o *Options) { o.Credential = staticToken{} })
	require.NoError(t, err)

	res, err := client.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, "Bearer tok", c.auth)
	assert.Empty(t, c.apiKey)
}

func TestClient_ErrorStatus(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusForbidden, `{"error": {"code": "Forbidden", "message": "nope"}}`)

	client, err := NewClient(testOptions(srv), func(o *Options) { o.Key = "bad" })
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "q")
	var respErr *azcore.ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, http.StatusForbidden, respErr.StatusCode)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient()
	assert.Error(t, err)

	_, err = NewClient(func(o *Options) { o.Endpoint = "https://x.search.windows.net" })
	assert.Error(t, err)

	_, err = NewClient(func(o *Options) { o.Endpoint = "https://x.search.windows.net"; o.Index = "i" })
	assert.Error(t, err)
}

type fakeSearcher struct{ res *Result }

func (f fakeSearcher) Search(context.Context, string) (*Result, error) { return f.res, nil }

func TestNewTool(t *testing.T) {
	reg := tool.NewRegistry().MustRegister(NewTool(fakeSearcher{res: &Result{
		Records: []json.RawMessage{json.RawMessage(`{"id":"1"}`)},
	}}))

	out, err := reg.InvokeJSON(context.Background(), ToolName, `{"query":"azure"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, out)

	_, err = reg.InvokeJSON(context.Background(), ToolName, `{"query":""}`)
	var execErr *tool.ToolExecutionError
	assert.ErrorAs(t, err, &execErr)
}
