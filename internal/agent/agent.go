// Copyright Tales Pardini, 2026. All rights reserved.

// Package agent wires the PubMed gateway, the query generator, and the
// refinement controller into one engine. It is the composition root the
// CLI and the HTTP server both build on; the components themselves only
// see each other through interfaces.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pardinithales/pubmed-agent/internal/generate"
	"github.com/pardinithales/pubmed-agent/internal/pubmed"
	"github.com/pardinithales/pubmed-agent/internal/refine"
	"github.com/pardinithales/pubmed-agent/pkg/types"
)

// Agent runs the full pipeline: PICOTT question → initial query →
// iterative refinement.
type Agent struct {
	gateway    refine.Gateway
	generator  *generate.Generator
	controller *refine.Controller
	rewriter   refine.Rewriter
}

// New builds an agent from configuration. When the configured provider
// is ProviderRules, or when the provider is unconfigured and
// cfg.Refine.RuleFallback is set, rewriting uses the deterministic rule
// table and no model is required; generating an initial query from
// PICOTT text still needs a generative backend and errors without one.
// Progress is reported to out; pass nil to silence it.
func New(cfg types.AgentConfig, out io.Writer) (*Agent, error) {
	a := &Agent{gateway: pubmed.NewClient(cfg.PubMed)}

	if cfg.AI.Provider == types.ProviderRules {
		a.rewriter = refine.RuleRewriter{}
	} else {
		backend, err := generate.NewBackend(cfg.AI)
		switch {
		case err == nil:
			gen, genErr := generate.NewGenerator(backend, cfg.AI.MaxRetries)
			if genErr != nil {
				return nil, genErr
			}
			a.generator = gen
			a.rewriter = generate.NewLLMRewriter(gen)
		case errors.Is(err, generate.ErrNotConfigured) && cfg.Refine.RuleFallback:
			a.rewriter = refine.RuleRewriter{}
		default:
			return nil, err
		}
	}

	a.controller = refine.NewController(a.gateway, a.rewriter, cfg.Refine, out)
	return a, nil
}

// RewriterName identifies the active rewriting strategy.
func (a *Agent) RewriterName() string { return a.rewriter.Name() }

// InitialQuery derives the first PubMed query from PICOTT text. It
// fails with generate.ErrNotConfigured when no generative backend is
// available.
func (a *Agent) InitialQuery(ctx context.Context, picottText string) (string, error) {
	if a.generator == nil {
		return "", fmt.Errorf("generating initial query: %w", generate.ErrNotConfigured)
	}
	return a.generator.InitialQuery(ctx, picottText)
}

// Refine runs the refinement loop on an already-formed query.
func (a *Agent) Refine(ctx context.Context, initialQuery string, maxIterations int) (types.RefineResult, error) {
	return a.controller.Refine(ctx, initialQuery, maxIterations)
}

// Run executes the full pipeline for a PICOTT question.
func (a *Agent) Run(ctx context.Context, picottText string, maxIterations int) (types.RefineResult, error) {
	if strings.TrimSpace(picottText) == "" {
		return types.RefineResult{}, fmt.Errorf("PICOTT text is empty")
	}

	initial, err := a.InitialQuery(ctx, picottText)
	if err != nil {
		return types.RefineResult{}, err
	}
	return a.Refine(ctx, initial, maxIterations)
}
