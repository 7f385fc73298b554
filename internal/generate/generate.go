// Copyright Tales Pardini, 2026. All rights reserved.

// Package generate produces PubMed queries with a generative text model:
// the initial query from a PICOTT clinical question, and rewrites of
// unsatisfactory queries during refinement. The model sits behind the
// Backend interface so the engine never depends on a provider and tests
// can supply mocks.
package generate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pardinithales/pubmed-agent/internal/refine"
	"github.com/pardinithales/pubmed-agent/pkg/types"
)

// ErrNotConfigured reports that no generative backend is available. It
// is a fatal configuration error: the engine surfaces it before any
// iteration runs rather than silently degrading.
var ErrNotConfigured = errors.New("no generative AI backend configured")

// Backend abstracts the generative text API: prompt in, text out.
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Generator renders prompts and calls the backend with retry.
type Generator struct {
	backend    Backend
	maxRetries int
}

// NewGenerator wires a generator. maxRetries <= 0 selects the default (3).
func NewGenerator(backend Backend, maxRetries int) (*Generator, error) {
	if backend == nil {
		return nil, ErrNotConfigured
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Generator{backend: backend, maxRetries: maxRetries}, nil
}

// BackendName identifies the underlying provider.
func (g *Generator) BackendName() string { return g.backend.Name() }

// InitialQuery derives the first PubMed query from a PICOTT clinical
// question.
func (g *Generator) InitialQuery(ctx context.Context, picottText string) (string, error) {
	if strings.TrimSpace(picottText) == "" {
		return "", fmt.Errorf("PICOTT text is empty")
	}

	prompt, err := renderInitialPrompt(picottText)
	if err != nil {
		return "", err
	}

	raw, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generating initial query: %w", err)
	}

	query := cleanResponse(raw)
	if query == "" {
		return "", fmt.Errorf("backend %s returned an empty query", g.backend.Name())
	}
	return query, nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the backend with exponential backoff.
func (g *Generator) callWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := g.backend.Generate(ctx, prompt)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", g.maxRetries, lastErr)
}

// LLMRewriter adapts a Generator to the refinement loop's Rewriter
// interface. An unusable model response degrades to the unchanged query,
// which the controller's no-progress guard handles.
type LLMRewriter struct {
	gen *Generator
}

// NewLLMRewriter wraps a generator as a Rewriter.
func NewLLMRewriter(gen *Generator) *LLMRewriter {
	return &LLMRewriter{gen: gen}
}

// Name identifies the rewriter in logs and run files.
func (r *LLMRewriter) Name() string { return r.gen.BackendName() }

// Rewrite asks the model for a refined query conditioned on the current
// query, its evaluation, and sampled abstracts.
func (r *LLMRewriter) Rewrite(ctx context.Context, rc refine.RewriteContext) (string, error) {
	prompt, err := renderRefinePrompt(rc.Query, rc.Evaluation, rc.Abstracts)
	if err != nil {
		return "", err
	}

	raw, err := r.gen.callWithRetry(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("rewriting query: %w", err)
	}

	query := cleanResponse(raw)
	if query == "" {
		return rc.Query, nil
	}
	return query, nil
}

// Provider endpoint and model defaults. DeepSeek speaks the OpenAI chat
// completions protocol, so both ride the same backend with different
// base URLs.
const (
	deepseekBaseURL      = "https://api.deepseek.com/v1"
	defaultDeepSeekModel = "deepseek-chat"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultClaudeModel   = "claude-sonnet-4-5-20250929"
)

// NewBackend builds the configured provider backend. It returns
// ErrNotConfigured when the provider needs an API key that is missing,
// and a plain error for unknown providers. ProviderRules is not a
// generative backend and is rejected here; callers wanting the rule
// fallback construct a refine.RuleRewriter directly.
func NewBackend(cfg types.AIConfig) (Backend, error) {
	switch cfg.Provider {
	case types.ProviderDeepSeek:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("deepseek: %w", ErrNotConfigured)
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = deepseekBaseURL
		}
		model := cfg.Model
		if model == "" {
			model = defaultDeepSeekModel
		}
		return NewOpenAIBackend("deepseek", cfg.APIKey, baseURL, model), nil

	case types.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
		}
		model := cfg.Model
		if model == "" {
			model = defaultOpenAIModel
		}
		return NewOpenAIBackend("openai", cfg.APIKey, cfg.BaseURL, model), nil

	case types.ProviderClaude:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("claude: %w", ErrNotConfigured)
		}
		model := cfg.Model
		if model == "" {
			model = defaultClaudeModel
		}
		return NewClaudeBackend(cfg.APIKey, model), nil

	case types.ProviderRules:
		return nil, fmt.Errorf("provider %q is not a generative backend", cfg.Provider)

	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
