// Copyright Tales Pardini, 2026. All rights reserved.

package main

import (
	"github.com/spf13/viper"

	"github.com/pardinithales/pubmed-agent/pkg/types"
)

// buildConfig assembles the agent configuration from defaults, the
// viper-loaded config file, environment variables (PUBMED_AGENT_*), and
// secrets loaded from .secrets/. Secrets fill credential fields only
// when the config leaves them empty.
func buildConfig() types.AgentConfig {
	cfg := types.DefaultAgentConfig()

	if v := viper.GetDuration("pubmed.timeout"); v > 0 {
		cfg.PubMed.Timeout = v
	}
	if v := viper.GetString("pubmed.user_agent"); v != "" {
		cfg.PubMed.UserAgent = v
	}
	cfg.PubMed.Email = secretDefault("pubmed-email", viper.GetString("pubmed.email"))
	if v := viper.GetString("pubmed.tool"); v != "" {
		cfg.PubMed.Tool = v
	}
	cfg.PubMed.APIKey = secretDefault("pubmed-api-key", viper.GetString("pubmed.api_key"))
	if v := viper.GetInt("pubmed.max_results"); v > 0 {
		cfg.PubMed.MaxResults = v
	}
	if v := viper.GetInt("pubmed.summary_sample"); v > 0 {
		cfg.PubMed.SummarySample = v
	}
	if v := viper.GetInt("pubmed.max_retries"); v > 0 {
		cfg.PubMed.MaxRetries = v
	}

	explicitProvider := viper.GetString("ai.provider") != ""
	if explicitProvider {
		cfg.AI.Provider = types.AIProvider(viper.GetString("ai.provider"))
	}
	cfg.AI.Model = viper.GetString("ai.model")
	cfg.AI.BaseURL = viper.GetString("ai.base_url")
	cfg.AI.APIKey = providerSecret(cfg.AI.Provider, viper.GetString("ai.api_key"))

	// Without an explicit provider choice, fall through the preference
	// chain: DeepSeek when its key is present, then OpenAI, then Claude.
	if !explicitProvider && cfg.AI.APIKey == "" {
		for _, p := range []types.AIProvider{types.ProviderOpenAI, types.ProviderClaude} {
			if key := providerSecret(p, ""); key != "" {
				cfg.AI.Provider = p
				cfg.AI.APIKey = key
				break
			}
		}
	}
	if v := viper.GetInt("ai.max_retries"); v > 0 {
		cfg.AI.MaxRetries = v
	}

	if v := viper.GetInt("refine.max_iterations"); v > 0 {
		cfg.Refine.MaxIterations = v
	}
	if viper.IsSet("refine.abstract_sample") {
		cfg.Refine.AbstractSample = viper.GetInt("refine.abstract_sample")
	}
	cfg.Refine.RuleFallback = viper.GetBool("refine.rule_fallback")

	if v := viper.GetInt("server.port"); v > 0 {
		cfg.Server.Port = v
	}
	if v := viper.GetDuration("server.read_timeout"); v > 0 {
		cfg.Server.ReadTimeout = v
	}
	if v := viper.GetDuration("server.write_timeout"); v > 0 {
		cfg.Server.WriteTimeout = v
	}
	if v := viper.GetDuration("server.shutdown_timeout"); v > 0 {
		cfg.Server.ShutdownTimeout = v
	}

	return cfg
}

// providerSecret resolves the API key for the active provider from the
// matching .secrets/ file when the config does not set one.
func providerSecret(provider types.AIProvider, fallback string) string {
	switch provider {
	case types.ProviderDeepSeek:
		return secretDefault("deepseek-api-key", fallback)
	case types.ProviderOpenAI:
		return secretDefault("openai-api-key", fallback)
	case types.ProviderClaude:
		return secretDefault("anthropic-api-key", fallback)
	default:
		return fallback
	}
}
