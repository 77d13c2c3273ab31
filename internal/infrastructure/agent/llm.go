package agent

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/doeshing/sqlchat/internal/domain"
)

// Factory builds langchaingo models from config definitions.
type Factory struct {
	awsConfig aws.Config
	lookupEnv func(string) string
}

// NewFactory returns a factory that uses awsConfig for Bedrock models.
func NewFactory(awsConfig aws.Config) *Factory {
	return &Factory{awsConfig: awsConfig, lookupEnv: os.Getenv}
}

// ForModel returns the model client for def.
func (f *Factory) ForModel(def domain.ModelDefinition) (llms.Model, error) {
	switch def.Provider {
	case domain.ProviderBedrock:
		client := bedrockruntime.NewFromConfig(f.awsConfig, func(o *bedrockruntime.Options) {
			if def.Region != "" {
				o.Region = def.Region
			}
		})
		return bedrock.New(bedrock.WithModel(def.ModelID), bedrock.WithClient(client))
	case domain.ProviderAnthropic:
		opts := []anthropic.Option{
			anthropic.WithModel(def.ModelID),
			anthropic.WithToken(f.resolveAuth(def.AuthEnvVar, "ANTHROPIC_API_KEY")),
		}
		if def.Endpoint != "" {
			opts = append(opts, anthropic.WithBaseURL(def.Endpoint))
		}
		return anthropic.New(opts...)
	case domain.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithModel(def.ModelID),
			openai.WithToken(f.resolveAuth(def.AuthEnvVar, "OPENAI_API_KEY")),
		}
		if def.Endpoint != "" {
			opts = append(opts, openai.WithBaseURL(def.Endpoint))
		}
		return openai.New(opts...)
	case domain.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(def.ModelID)}
		if def.Endpoint != "" {
			opts = append(opts, ollama.WithServerURL(def.Endpoint))
		}
		return ollama.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", def.Provider)
	}
}

// HasCredentials reports whether the key a provider needs is present.
// Bedrock relies on the AWS credential chain and always reports true.
func (f *Factory) HasCredentials(def domain.ModelDefinition) bool {
	switch def.Provider {
	case domain.ProviderAnthropic:
		return f.resolveAuth(def.AuthEnvVar, "ANTHROPIC_API_KEY") != ""
	case domain.ProviderOpenAI:
		return f.resolveAuth(def.AuthEnvVar, "OPENAI_API_KEY") != ""
	default:
		return true
	}
}

func (f *Factory) resolveAuth(primary, fallback string) string {
	if primary != "" {
		if value := f.lookupEnv(primary); value != "" {
			return value
		}
	}
	return f.lookupEnv(fallback)
}

// CallOptions maps a model's sampling parameters onto chain call options.
// Temperature is always sent; zero-valued limits are left to the provider.
func CallOptions(def domain.ModelDefinition) []chains.ChainCallOption {
	opts := []chains.ChainCallOption{chains.WithTemperature(def.Temperature)}
	if def.TopK > 0 {
		opts = append(opts, chains.WithTopK(def.TopK))
	}
	if def.TopP > 0 {
		opts = append(opts, chains.WithTopP(def.TopP))
	}
	if def.MaxTokens > 0 {
		opts = append(opts, chains.WithMaxTokens(def.MaxTokens))
	}
	return opts
}
