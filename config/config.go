// Package config builds the explicit configuration of an agentchat program.
//
// Configuration is read once at process start: Load collects environment
// variables into a Config, LoadModelConfigList reads the llm_config file and
// NewModel turns a ModelConfig into a ready policy backend. Nothing in this
// package keeps global state; the resulting values are passed to the
// constructors that need them.
//
// Example:
//
//	_ = godotenv.Load()
//	cfg, err := config.Load(os.Getenv)
//	if err != nil { ... }
//	models, err := cfg.ModelConfigs()
//	llm, err := config.NewModel(models[0])
package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/agentchat/cache"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/tool/azsearch"
)

// Environment variable names.
const (
	EnvAzureOpenAIKey        = "AZURE_OPENAI_API_KEY"
	EnvAzureOpenAIEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvAzureOpenAIAPIVersion = "AZURE_OPENAI_API_VERSION"
	EnvAzureOpenAIDeployment = "AZURE_OPENAI_DEPLOYMENT"
	EnvOpenAIKey             = "OPENAI_API_KEY"
	EnvAnthropicKey          = "ANTHROPIC_API_KEY"
	EnvSearchEndpoint        = "AZURE_SEARCH_SERVICE_ENDPOINT"
	EnvSearchIndex           = "AZURE_SEARCH_INDEX"
	EnvSearchKey             = "AZURE_SEARCH_KEY"
	EnvSearchAPIVersion      = "AZURE_SEARCH_API_VERSION"
	EnvSearchSemanticConfig  = "AZURE_SEARCH_SEMANTIC_SEARCH_CONFIG"
	EnvLLMConfig             = "AGENTCHAT_LLM_CONFIG"
	EnvCacheDir              = "AGENTCHAT_CACHE_DIR"
	EnvRedisAddr             = "AGENTCHAT_REDIS_ADDR"
	EnvLogLevel              = "AGENTCHAT_LOG_LEVEL"
	EnvLogFormat             = "AGENTCHAT_LOG_FORMAT"
)

// Defaults applied by Load.
const (
	DefaultLLMConfigPath = "llm_config.json"
	DefaultCacheDir      = ".cache"
	DefaultLogFormat     = "text"
)

// AzureOpenAIConfig identifies an Azure OpenAI deployment.
type AzureOpenAIConfig struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Deployment string
}

// SearchConfig identifies an Azure Cognitive Search index.
type SearchConfig struct {
	Endpoint              string
	Index                 string
	Key                   string
	APIVersion            string
	SemanticConfiguration string
}

// Config is the process configuration.
type Config struct {
	AzureOpenAI     AzureOpenAIConfig
	OpenAIAPIKey    string
	AnthropicAPIKey string
	Search          SearchConfig

	LLMConfigPath string
	CacheDir      string
	RedisAddr     string

	LogLevel  logging.LogLevel
	LogFormat string
}

// Load reads the configuration through getenv (os.Getenv when nil). Only
// malformed values fail here; required values are checked by the Require
// methods of the programs that need them.
func Load(getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := &Config{
		AzureOpenAI: AzureOpenAIConfig{
			Endpoint:   get(EnvAzureOpenAIEndpoint),
			APIKey:     get(EnvAzureOpenAIKey),
			APIVersion: get(EnvAzureOpenAIAPIVersion),
			Deployment: get(EnvAzureOpenAIDeployment),
		},
		OpenAIAPIKey:    get(EnvOpenAIKey),
		AnthropicAPIKey: get(EnvAnthropicKey),
		Search: SearchConfig{
			Endpoint:              get(EnvSearchEndpoint),
			Index:                 get(EnvSearchIndex),
			Key:                   get(EnvSearchKey),
			APIVersion:            get(EnvSearchAPIVersion),
			SemanticConfiguration: get(EnvSearchSemanticConfig),
		},
		LLMConfigPath: orDefault(get(EnvLLMConfig), DefaultLLMConfigPath),
		CacheDir:      orDefault(get(EnvCacheDir), DefaultCacheDir),
		RedisAddr:     get(EnvRedisAddr),
		LogFormat:     strings.ToLower(orDefault(get(EnvLogFormat), DefaultLogFormat)),
	}

	level, err := logging.ParseLevel(get(EnvLogLevel))
	if err != nil {
		return nil, &ConfigurationError{Key: EnvLogLevel, Err: err}
	}
	cfg.LogLevel = level

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, &ConfigurationError{Key: EnvLogFormat, Err: fmt.Errorf("unknown format %q", cfg.LogFormat)}
	}
	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// RequireSearch reports the missing search settings.
func (c *Config) RequireSearch() error {
	return requireValues(map[string]string{
		EnvSearchEndpoint: c.Search.Endpoint,
		EnvSearchIndex:    c.Search.Index,
	})
}

func requireValues(values map[string]string) error {
	var missing []string
	for key, v := range values {
		if v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return missingError(missing...)
}

// NewLogger builds the structured logger described by the configuration.
func (c *Config) NewLogger(out io.Writer) *logging.AgentChatLogger {
	return logging.NewLogger(&logging.LoggerConfig{Level: c.LogLevel, Format: c.LogFormat, Output: out})
}

// SearchOptions applies the search settings to azsearch options. The search
// key is used when set; otherwise the caller supplies a token credential.
func (c *Config) SearchOptions() func(o *azsearch.Options) {
	return func(o *azsearch.Options) {
		o.Endpoint = c.Search.Endpoint
		o.Index = c.Search.Index
		o.Key = c.Search.Key
		if c.Search.APIVersion != "" {
			o.APIVersion = c.Search.APIVersion
		}
		if c.Search.SemanticConfiguration != "" {
			o.SemanticConfiguration = c.Search.SemanticConfiguration
		}
	}
}

// NewCacheStore opens the response cache store: Redis when an address is
// configured, otherwise a SQLite file below CacheDir.
func (c *Config) NewCacheStore(ctx context.Context) (cache.Store, error) {
	if c.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, &ConfigurationError{Key: EnvRedisAddr, Err: err}
		}
		return cache.NewRedisStore(client), nil
	}

	if err := os.MkdirAll(c.CacheDir, 0o755); err != nil {
		return nil, &ConfigurationError{Key: EnvCacheDir, Err: err}
	}
	store, err := cache.NewSQLiteStore(filepath.Join(c.CacheDir, "cache.db"))
	if err != nil {
		return nil, &ConfigurationError{Key: EnvCacheDir, Err: err}
	}
	return store, nil
}
