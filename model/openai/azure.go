package openai

import (
	"errors"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// AzureOptions identify an Azure OpenAI deployment. Exactly one of APIKey or
// Credential should be set; APIKey wins when both are.
type AzureOptions struct {
	Endpoint   string // https://<resource>.openai.azure.com
	APIVersion string // e.g. 2024-06-01
	Deployment string
	APIKey     string
	Credential azcore.TokenCredential
	MaxRetries int
}

// DefaultAzureAPIVersion is used when AzureOptions.APIVersion is empty.
const DefaultAzureAPIVersion = "2024-06-01"

// NewAzureModel creates a model bound to an Azure OpenAI deployment. The
// deployment name is sent as the model name.
func NewAzureModel(az AzureOptions, optFns ...func(o *Options)) (*Model, error) {
	if az.Endpoint == "" {
		return nil, errors.New("azure openai: endpoint is required")
	}
	if az.Deployment == "" {
		return nil, errors.New("azure openai: deployment is required")
	}
	if az.APIVersion == "" {
		az.APIVersion = DefaultAzureAPIVersion
	}

	reqOpts := []option.RequestOption{azure.WithEndpoint(az.Endpoint, az.APIVersion)}
	switch {
	case az.APIKey != "":
		reqOpts = append(reqOpts, azure.WithAPIKey(az.APIKey))
	case az.Credential != nil:
		reqOpts = append(reqOpts, azure.WithTokenCredential(az.Credential))
	default:
		return nil, errors.New("azure openai: api key or token credential is required")
	}
	if az.MaxRetries > 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(az.MaxRetries))
	}

	client := openai.NewClient(reqOpts...)
	fns := append([]func(o *Options){func(o *Options) {
		o.Model = az.Deployment
		o.Provider = "azure"
	}}, optFns...)
	return NewModelFromClient(&client, fns...), nil
}
