// Copyright Tales Pardini, 2026. All rights reserved.

// Package refine drives the iterative query-refinement loop: execute the
// query, score the result set, diagnose what is wrong, rewrite, repeat.
// The controller owns all cross-iteration state; one call to Refine is
// one self-contained run with no state shared between concurrent runs.
package refine

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pardinithales/pubmed-agent/internal/evaluate"
	"github.com/pardinithales/pubmed-agent/pkg/types"
)

// Gateway executes queries against the literature backend. Implemented
// by pubmed.Client; tests supply mocks.
type Gateway interface {
	// Search runs a query and returns the hit count, first-page PMIDs,
	// and best-effort sample metadata. Empty results are a valid
	// SearchResult; only backend failures error.
	Search(ctx context.Context, query string, maxResults int) (types.SearchResult, error)

	// FetchAbstracts retrieves abstracts for a subsample of the ids.
	FetchAbstracts(ctx context.Context, ids []string, sampleSize int) ([]types.Abstract, error)
}

// RewriteContext bundles everything a rewriter may condition on: the
// query being replaced, its evaluation (including diagnosed issues), and
// any abstracts sampled from its result set.
type RewriteContext struct {
	Query      string
	Evaluation types.Evaluation
	Abstracts  []types.Abstract
}

// Rewriter produces a candidate replacement query. Returning the input
// query unchanged signals "nothing to improve" and ends the run.
type Rewriter interface {
	Name() string
	Rewrite(ctx context.Context, rc RewriteContext) (string, error)
}

// initialReason tags the first iteration of every run.
const initialReason = "initial query derived from PICOTT text"

// Controller runs the refinement loop. Construct with NewController;
// the zero value is not usable.
type Controller struct {
	gateway  Gateway
	rewriter Rewriter
	cfg      types.RefineConfig
	out      io.Writer
}

// NewController wires a controller from its collaborators. Progress is
// reported to out; pass nil to silence it.
func NewController(gateway Gateway, rewriter Rewriter, cfg types.RefineConfig, out io.Writer) *Controller {
	if out == nil {
		out = io.Discard
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 5
	}
	if cfg.AbstractSample < 0 {
		cfg.AbstractSample = 0
	}
	return &Controller{gateway: gateway, rewriter: rewriter, cfg: cfg, out: out}
}

// Refine iterates on initialQuery until it is good enough, the rewriter
// stops making progress, or maxIterations searches have been executed.
// It returns the best query seen across all iterations (not necessarily
// the last) plus the complete ordered history. When maxIterations is
// non-positive the configured default applies.
//
// A failed search aborts the run; the iterations completed before the
// failure are still returned alongside the error. Abstract-fetch
// failures only cost the rewriter its enrichment.
func (c *Controller) Refine(ctx context.Context, initialQuery string, maxIterations int) (types.RefineResult, error) {
	if strings.TrimSpace(initialQuery) == "" {
		return types.RefineResult{}, fmt.Errorf("initial query is empty")
	}
	if maxIterations <= 0 {
		maxIterations = c.cfg.MaxIterations
	}

	current := initialQuery
	result := types.RefineResult{BestQuery: initialQuery}
	bestScore := 0.0

	iter, err := c.runIteration(ctx, current, 1, initialReason)
	if err != nil {
		return result, err
	}
	result.Iterations = append(result.Iterations, iter)
	bestScore = iter.Evaluation.OverallScore

	currentEval := iter.Evaluation
	currentAbstracts := iter.AbstractsSample

	for {
		if evaluate.GoodEnough(currentEval) {
			fmt.Fprintf(c.out, "query good enough after %d iteration(s)\n", len(result.Iterations))
			break
		}
		if len(result.Iterations) >= maxIterations {
			fmt.Fprintf(c.out, "iteration budget (%d) exhausted\n", maxIterations)
			break
		}
		// Runs are abortable at iteration boundaries.
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("refinement cancelled: %w", err)
		}

		rewritten, err := c.rewriter.Rewrite(ctx, RewriteContext{
			Query:      current,
			Evaluation: currentEval,
			Abstracts:  currentAbstracts,
		})
		if err != nil {
			return result, fmt.Errorf("rewriting query: %w", err)
		}

		rewritten = strings.TrimSpace(rewritten)
		if rewritten == "" || rewritten == current {
			// No progress possible; a failed rewrite attempt does not
			// consume an iteration.
			fmt.Fprintln(c.out, "rewriter returned the current query, stopping")
			break
		}

		current = rewritten
		iter, err := c.runIteration(ctx, current, len(result.Iterations)+1, "")
		if err != nil {
			return result, err
		}
		iter.RefinementReason = refinementReason(iter.Evaluation)
		result.Iterations = append(result.Iterations, iter)

		// Strictly-greater keeps the earliest query on score ties.
		if iter.Evaluation.OverallScore > bestScore {
			bestScore = iter.Evaluation.OverallScore
			result.BestQuery = iter.Query
		}

		currentEval = iter.Evaluation
		currentAbstracts = iter.AbstractsSample
	}

	return result, nil
}

// runIteration executes one search, scores it, and best-effort enriches
// the record with sampled abstracts.
func (c *Controller) runIteration(ctx context.Context, query string, number int, reason string) (types.Iteration, error) {
	sr, err := c.gateway.Search(ctx, query, 0)
	if err != nil {
		return types.Iteration{}, fmt.Errorf("iteration %d: executing search: %w", number, err)
	}

	ev := evaluate.Evaluate(sr)
	fmt.Fprintf(c.out, "iteration %d: %d results, score %.3f (%s)\n",
		number, sr.TotalCount, ev.OverallScore, ev.IssueSummary())

	iter := types.Iteration{
		IterationNumber:  number,
		Query:            query,
		ResultCount:      sr.TotalCount,
		Evaluation:       ev,
		RefinementReason: reason,
	}

	if c.cfg.AbstractSample > 0 && len(sr.IDs) > 0 {
		abstracts, err := c.gateway.FetchAbstracts(ctx, sr.IDs, c.cfg.AbstractSample)
		if err != nil {
			// Enrichment only; the loop continues without abstracts.
			fmt.Fprintf(c.out, "iteration %d: abstract fetch failed: %v\n", number, err)
		} else {
			iter.AbstractsSample = abstracts
		}
	}

	return iter, nil
}

// refinementReason explains a refinement step in terms of the issues the
// new evaluation diagnosed.
func refinementReason(ev types.Evaluation) string {
	if ev.Clean() {
		return "improving overall quality"
	}
	return "addressing: " + ev.IssueSummary()
}
