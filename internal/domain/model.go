// Package domain defines core business entities and value objects for sqlchat.
//
// This file contains model and provider definitions used throughout the application.
// The domain layer is independent of infrastructure concerns and represents pure
// business logic and data structures.
package domain

// ProviderKind names an LLM backend.
type ProviderKind string

const (
	ProviderBedrock   ProviderKind = "bedrock"
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderOpenAI    ProviderKind = "openai"
	ProviderOllama    ProviderKind = "ollama"
)

// ModelDefinition describes a model declared in the config file. Sampling
// parameters are passed on every call the agent makes.
type ModelDefinition struct {
	Name        string       `yaml:"name" json:"name" validate:"required"`
	Provider    ProviderKind `yaml:"provider" json:"provider" validate:"oneof=bedrock anthropic openai ollama"`
	ModelID     string       `yaml:"model_id" json:"model_id" validate:"required"`
	Region      string       `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint    string       `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AuthEnvVar  string       `yaml:"auth_env_var,omitempty" json:"auth_env_var,omitempty"`
	Temperature float64      `yaml:"temperature" json:"temperature" validate:"gte=0,lte=2"`
	TopK        int          `yaml:"top_k" json:"top_k" validate:"gte=0"`
	TopP        float64      `yaml:"top_p" json:"top_p" validate:"gte=0,lte=1"`
	MaxTokens   int          `yaml:"max_tokens" json:"max_tokens" validate:"gte=0"`
}
