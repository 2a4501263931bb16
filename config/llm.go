package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/option"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentchat/cache"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/model"
	anthropicmodel "github.com/hupe1980/agentchat/model/anthropic"
	openaimodel "github.com/hupe1980/agentchat/model/openai"
)

// API types understood by NewModel.
const (
	APITypeOpenAI    = "openai"
	APITypeAzure     = "azure"
	APITypeAnthropic = "anthropic"
)

// ModelConfig is one entry of the llm_config list.
type ModelConfig struct {
	Model      string `json:"model" yaml:"model"`
	APIType    string `json:"api_type,omitempty" yaml:"api_type,omitempty"`
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty"`
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int64    `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	// Timeout is the per request timeout in seconds.
	Timeout    float64 `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxRetries int     `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`

	// CacheSeed enables the response cache under this seed. Nil disables it.
	CacheSeed         *int64  `json:"cache_seed,omitempty" yaml:"cache_seed,omitempty"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`

	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func (mc ModelConfig) apiType() string {
	if mc.APIType == "" {
		return APITypeOpenAI
	}
	return mc.APIType
}

// Validate checks the fields NewModel depends on.
func (mc ModelConfig) Validate() error {
	if mc.Model == "" {
		return &ConfigurationError{Key: "model", Err: ErrMissing}
	}
	switch mc.apiType() {
	case APITypeOpenAI, APITypeAnthropic:
	case APITypeAzure:
		if mc.BaseURL == "" {
			return &ConfigurationError{Key: "base_url", Err: ErrMissing}
		}
	default:
		return &ConfigurationError{Key: "api_type", Err: fmt.Errorf("unsupported api type %q", mc.APIType)}
	}
	if mc.Timeout < 0 {
		return &ConfigurationError{Key: "timeout", Err: errors.New("must not be negative")}
	}
	return nil
}

// LoadModelConfigList reads a model list from a JSON or YAML file.
func LoadModelConfigList(path string) ([]ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	list, err := ParseModelConfigList(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// ParseModelConfigList decodes a model list. The document is either a bare
// list of entries or a mapping with a config_list key; JSON documents are
// decoded as JSON and everything else as YAML.
func ParseModelConfigList(data []byte) ([]ModelConfig, error) {
	var list []ModelConfig
	if json.Valid(data) {
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			var wrapped struct {
				ConfigList []ModelConfig `json:"config_list"`
			}
			if err := json.Unmarshal(trimmed, &wrapped); err != nil {
				return nil, err
			}
			list = wrapped.ConfigList
		} else if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
	} else {
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		root := &doc
		if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
			root = root.Content[0]
		}
		switch root.Kind {
		case yaml.SequenceNode:
			if err := root.Decode(&list); err != nil {
				return nil, err
			}
		case yaml.MappingNode:
			var wrapped struct {
				ConfigList []ModelConfig `yaml:"config_list"`
			}
			if err := root.Decode(&wrapped); err != nil {
				return nil, err
			}
			list = wrapped.ConfigList
		default:
			return nil, errors.New("expected a list of model configurations")
		}
	}

	if len(list) == 0 {
		return nil, errors.New("no model configurations")
	}
	for i, mc := range list {
		if err := mc.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return list, nil
}

// FilterModels keeps the entries whose model name is listed. No names keeps
// the whole list.
func FilterModels(list []ModelConfig, models ...string) []ModelConfig {
	if len(models) == 0 {
		return list
	}
	var out []ModelConfig
	for _, mc := range list {
		if slices.Contains(models, mc.Model) {
			out = append(out, mc)
		}
	}
	return out
}

// ModelConfigs returns the configured model list. The llm_config file wins
// when it exists; entries without an api_key take the key of their API type
// from the environment. Without a file the list is derived from the
// environment alone.
func (c *Config) ModelConfigs() ([]ModelConfig, error) {
	list, err := LoadModelConfigList(c.LLMConfigPath)
	switch {
	case err == nil:
		for i := range list {
			if list[i].APIKey == "" {
				list[i].APIKey = c.keyFor(list[i].apiType())
			}
		}
		return list, nil
	case errors.Is(err, fs.ErrNotExist) && c.LLMConfigPath == DefaultLLMConfigPath:
		return c.envModelConfigs()
	default:
		return nil, &ConfigurationError{Key: EnvLLMConfig, Err: err}
	}
}

func (c *Config) keyFor(apiType string) string {
	switch apiType {
	case APITypeAzure:
		return c.AzureOpenAI.APIKey
	case APITypeAnthropic:
		return c.AnthropicAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

func (c *Config) envModelConfigs() ([]ModelConfig, error) {
	switch {
	case c.AzureOpenAI.Endpoint != "":
		if c.AzureOpenAI.Deployment == "" {
			return nil, missingError(EnvAzureOpenAIDeployment)
		}
		return []ModelConfig{{
			Model:      c.AzureOpenAI.Deployment,
			APIType:    APITypeAzure,
			BaseURL:    c.AzureOpenAI.Endpoint,
			APIVersion: c.AzureOpenAI.APIVersion,
			APIKey:     c.AzureOpenAI.APIKey,
		}}, nil
	case c.OpenAIAPIKey != "":
		return []ModelConfig{{Model: "gpt-4o", APIType: APITypeOpenAI, APIKey: c.OpenAIAPIKey}}, nil
	case c.AnthropicAPIKey != "":
		return []ModelConfig{{Model: string(anthropic.ModelClaude3_5Sonnet20241022), APIType: APITypeAnthropic, APIKey: c.AnthropicAPIKey}}, nil
	default:
		return nil, missingError(EnvAzureOpenAIEndpoint, EnvOpenAIKey, EnvAnthropicKey)
	}
}

// ModelOptions configure NewModel.
type ModelOptions struct {
	// Credential authenticates Azure deployments configured without a key.
	// When nil, the default Azure credential chain is used.
	Credential azcore.TokenCredential
	// Store enables the response cache for entries with a cache_seed.
	Store         cache.Store
	CacheObserver cache.Observer
	Logger        logging.Logger
}

// NewModel builds the policy backend for one ModelConfig, wrapped with the
// rate limit and the response cache when the entry asks for them.
func NewModel(mc ModelConfig, optFns ...func(o *ModelOptions)) (model.Model, error) {
	var opts ModelOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := logging.OrNoOp(opts.Logger)

	if err := mc.Validate(); err != nil {
		return nil, err
	}

	var (
		m   model.Model
		err error
	)
	switch mc.apiType() {
	case APITypeAzure:
		m, err = newAzureModel(mc, opts.Credential)
	case APITypeAnthropic:
		m = anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = anthropic.Model(mc.Model)
			o.APIKey = mc.APIKey
			o.BaseURL = mc.BaseURL
			o.MaxRetries = mc.MaxRetries
			o.Timeout = timeout(mc)
			if mc.Temperature != nil {
				o.Temperature = *mc.Temperature
			}
			if mc.MaxTokens > 0 {
				o.MaxTokens = mc.MaxTokens
			}
		})
	default:
		reqOpts := []option.RequestOption{option.WithAPIKey(mc.APIKey)}
		if mc.BaseURL != "" {
			reqOpts = append(reqOpts, option.WithBaseURL(mc.BaseURL))
		}
		if mc.MaxRetries > 0 {
			reqOpts = append(reqOpts, option.WithMaxRetries(mc.MaxRetries))
		}
		m = openaimodel.NewModel(reqOpts, openAIOptions(mc))
	}
	if err != nil {
		return nil, err
	}

	if mc.RequestsPerSecond > 0 {
		m = model.NewRateLimited(m, mc.RequestsPerSecond, 1)
	}
	if mc.CacheSeed != nil && opts.Store != nil {
		m = cache.NewModel(m, opts.Store, mc.CacheSeed, func(o *cache.Options) {
			o.Observer = opts.CacheObserver
			o.Logger = opts.Logger
		})
	}

	logger.Debug("config.model.created",
		"model", mc.Model,
		"api_type", mc.apiType(),
		"cached", mc.CacheSeed != nil && opts.Store != nil,
	)
	return m, nil
}

func newAzureModel(mc ModelConfig, cred azcore.TokenCredential) (model.Model, error) {
	az := openaimodel.AzureOptions{
		Endpoint:   mc.BaseURL,
		APIVersion: mc.APIVersion,
		Deployment: mc.Model,
		APIKey:     mc.APIKey,
		Credential: cred,
		MaxRetries: mc.MaxRetries,
	}
	if az.APIKey == "" && az.Credential == nil {
		def, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, &ConfigurationError{Key: EnvAzureOpenAIKey, Err: err}
		}
		az.Credential = def
	}
	return openaimodel.NewAzureModel(az, openAIOptions(mc))
}

func openAIOptions(mc ModelConfig) func(o *openaimodel.Options) {
	return func(o *openaimodel.Options) {
		o.Model = mc.Model
		if mc.Temperature != nil {
			o.Temperature = *mc.Temperature
		}
		if mc.MaxTokens > 0 {
			o.MaxCompletionTokens = mc.MaxTokens
		}
		o.Timeout = timeout(mc)
	}
}

func timeout(mc ModelConfig) time.Duration {
	return time.Duration(mc.Timeout * float64(time.Second))
}
