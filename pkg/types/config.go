// Copyright Tales Pardini, 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pubmed-agent/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PubMedConfig holds settings for the NCBI E-utilities gateway.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email identifies the caller to NCBI, sent as the email parameter
	// on every request per E-utilities etiquette.
	Email string `json:"email" yaml:"email"`

	// Tool is the tool parameter sent on every request (default
	// "pubmed-agent").
	Tool string `json:"tool" yaml:"tool"`

	// APIKey is an optional NCBI API key. With a key NCBI allows 10
	// requests per second instead of 3.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults caps the number of PMIDs returned per search (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// SummarySample is the number of records per search whose metadata
	// is fetched for qualitative judging (default 5).
	SummarySample int `json:"summary_sample" yaml:"summary_sample"`

	// MaxRetries bounds retries on HTTP 429 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// RequestsPerSecond returns the NCBI rate limit appropriate for the
// configured credentials.
func (c PubMedConfig) RequestsPerSecond() float64 {
	if c.APIKey != "" {
		return 10
	}
	return 3
}

// AIProvider identifies the generative backend used for query writing.
type AIProvider string

const (
	ProviderDeepSeek AIProvider = "deepseek"
	ProviderOpenAI   AIProvider = "openai"
	ProviderClaude   AIProvider = "claude"
	// ProviderRules selects the deterministic rule-based rewriter; no
	// generative model is called.
	ProviderRules AIProvider = "rules"
)

// AIConfig holds settings for the generative query writer.
type AIConfig struct {
	// Provider selects the backend: deepseek, openai, claude, or rules.
	Provider AIProvider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "deepseek-chat", "gpt-4o-mini").
	// Empty selects the provider's default.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint, used for
	// OpenAI-compatible services such as DeepSeek.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// RefineConfig holds settings for the refinement loop.
type RefineConfig struct {
	// MaxIterations bounds the number of executed queries per run
	// (default 5).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// AbstractSample is the number of abstracts fetched to ground each
	// rewrite (default 10). Zero disables enrichment.
	AbstractSample int `json:"abstract_sample" yaml:"abstract_sample"`

	// RuleFallback enables the deterministic rewriter when no generative
	// provider is configured. Without it a missing provider is a fatal
	// configuration error.
	RuleFallback bool `json:"rule_fallback" yaml:"rule_fallback"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Port is the TCP port the API listens on (default 8000).
	Port int `json:"port" yaml:"port"`

	// ReadTimeout and WriteTimeout guard slow clients. WriteTimeout must
	// exceed the worst-case run duration since the refine endpoint is
	// synchronous.
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// AgentConfig groups all component configurations.
type AgentConfig struct {
	PubMed PubMedConfig `json:"pubmed" yaml:"pubmed"`
	AI     AIConfig     `json:"ai" yaml:"ai"`
	Refine RefineConfig `json:"refine" yaml:"refine"`
	Server ServerConfig `json:"server" yaml:"server"`
}

// DefaultAgentConfig returns the configuration used when no file or
// environment overrides are present.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		PubMed: PubMedConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "pubmed-agent/0.1",
			},
			Tool:          "pubmed-agent",
			MaxResults:    20,
			SummarySample: 5,
			MaxRetries:    5,
		},
		AI: AIConfig{
			Provider:   ProviderDeepSeek,
			MaxRetries: 3,
		},
		Refine: RefineConfig{
			MaxIterations:  5,
			AbstractSample: 10,
		},
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}
