// Copyright Tales Pardini, 2026. All rights reserved.

package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pardinithales/pubmed-agent/internal/generate"
	"github.com/pardinithales/pubmed-agent/pkg/types"
)

func TestNew_RulesProvider(t *testing.T) {
	cfg := types.DefaultAgentConfig()
	cfg.AI.Provider = types.ProviderRules

	a, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "rules", a.RewriterName())

	// Rule-based rewriting cannot invent the initial query.
	_, err = a.InitialQuery(context.Background(), "Population: adults")
	assert.ErrorIs(t, err, generate.ErrNotConfigured)
}

func TestNew_MissingKeyIsFatalWithoutFallback(t *testing.T) {
	cfg := types.DefaultAgentConfig()
	cfg.AI.Provider = types.ProviderDeepSeek
	cfg.AI.APIKey = ""
	cfg.Refine.RuleFallback = false

	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, generate.ErrNotConfigured)
}

func TestNew_MissingKeyFallsBackToRules(t *testing.T) {
	cfg := types.DefaultAgentConfig()
	cfg.AI.Provider = types.ProviderDeepSeek
	cfg.AI.APIKey = ""
	cfg.Refine.RuleFallback = true

	a, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "rules", a.RewriterName())
}

func TestNew_ConfiguredProvider(t *testing.T) {
	cfg := types.DefaultAgentConfig()
	cfg.AI.Provider = types.ProviderDeepSeek
	cfg.AI.APIKey = "k"

	a, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "deepseek", a.RewriterName())
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := types.DefaultAgentConfig()
	cfg.AI.Provider = "grok"

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, generate.ErrNotConfigured)
}

func TestRun_EmptyQuestion(t *testing.T) {
	cfg := types.DefaultAgentConfig()
	cfg.AI.Provider = types.ProviderRules

	a, err := New(cfg, nil)
	require.NoError(t, err)

	_, err = a.Run(context.Background(), "  \n ", 0)
	require.Error(t, err)
}
