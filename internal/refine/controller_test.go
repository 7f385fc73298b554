// Copyright Tales Pardini, 2026. All rights reserved.

package refine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pardinithales/pubmed-agent/pkg/types"
)

// goodTitles make the sample 100% primary studies so a 300-hit result
// passes the stopping predicate.
var goodTitles = []string{
	"A randomized trial of A",
	"Randomized comparison of B",
	"Prospective cohort of C",
}

type mockGateway struct {
	results   map[string]types.SearchResult
	errs      map[string]error
	abstracts []types.Abstract
	absErr    error
	searches  []string
}

func (g *mockGateway) Search(_ context.Context, query string, _ int) (types.SearchResult, error) {
	g.searches = append(g.searches, query)
	if err := g.errs[query]; err != nil {
		return types.SearchResult{}, err
	}
	sr, ok := g.results[query]
	if !ok {
		return types.SearchResult{Query: query}, nil
	}
	return sr, nil
}

func (g *mockGateway) FetchAbstracts(_ context.Context, _ []string, _ int) ([]types.Abstract, error) {
	return g.abstracts, g.absErr
}

// funcRewriter adapts a function to the Rewriter interface.
type funcRewriter func(ctx context.Context, rc RewriteContext) (string, error)

func (funcRewriter) Name() string { return "test" }
func (f funcRewriter) Rewrite(ctx context.Context, rc RewriteContext) (string, error) {
	return f(ctx, rc)
}

func narrowResult(query string, count int) types.SearchResult {
	return types.SearchResult{Query: query, TotalCount: count}
}

func goodResult(query string) types.SearchResult {
	return types.SearchResult{
		Query:        query,
		TotalCount:   300,
		IDs:          []string{"1", "2", "3"},
		SampleTitles: goodTitles,
	}
}

func TestRefine_StopsWhenGoodEnough(t *testing.T) {
	gw := &mockGateway{results: map[string]types.SearchResult{
		"q1": goodResult("q1"),
	}}
	rw := funcRewriter(func(context.Context, RewriteContext) (string, error) {
		t.Fatal("rewriter must not run for a good-enough query")
		return "", nil
	})

	c := NewController(gw, rw, types.RefineConfig{MaxIterations: 5}, nil)
	result, err := c.Refine(context.Background(), "q1", 0)
	require.NoError(t, err)

	require.Len(t, result.Iterations, 1)
	assert.Equal(t, "q1", result.BestQuery)
	assert.Equal(t, 1, result.Iterations[0].IterationNumber)
	assert.Equal(t, "initial query derived from PICOTT text", result.Iterations[0].RefinementReason)
}

func TestRefine_IterationBudget(t *testing.T) {
	gw := &mockGateway{results: map[string]types.SearchResult{
		"q1":   narrowResult("q1", 10),
		"q1x":  narrowResult("q1x", 20),
		"q1xx": narrowResult("q1xx", 30),
	}}
	rw := funcRewriter(func(_ context.Context, rc RewriteContext) (string, error) {
		return rc.Query + "x", nil
	})

	c := NewController(gw, rw, types.RefineConfig{MaxIterations: 3}, nil)
	result, err := c.Refine(context.Background(), "q1", 0)
	require.NoError(t, err)

	require.Len(t, result.Iterations, 3)
	assert.Equal(t, []string{"q1", "q1x", "q1xx"}, gw.searches)
	// Hit counts improved every step; the best query is the latest.
	assert.Equal(t, "q1xx", result.BestQuery)
}

func TestRefine_ExplicitBudgetOverridesConfig(t *testing.T) {
	gw := &mockGateway{results: map[string]types.SearchResult{}}
	rw := funcRewriter(func(_ context.Context, rc RewriteContext) (string, error) {
		return rc.Query + "x", nil
	})

	c := NewController(gw, rw, types.RefineConfig{MaxIterations: 5}, nil)
	result, err := c.Refine(context.Background(), "q1", 2)
	require.NoError(t, err)
	assert.Len(t, result.Iterations, 2)
}

func TestRefine_NoProgressStops(t *testing.T) {
	gw := &mockGateway{results: map[string]types.SearchResult{
		"q1": narrowResult("q1", 10),
	}}
	rw := funcRewriter(func(_ context.Context, rc RewriteContext) (string, error) {
		return rc.Query, nil
	})

	var progress bytes.Buffer
	c := NewController(gw, rw, types.RefineConfig{MaxIterations: 5}, &progress)
	result, err := c.Refine(context.Background(), "q1", 0)
	require.NoError(t, err)

	assert.Len(t, result.Iterations, 1)
	assert.Contains(t, progress.String(), "stopping")
}

func TestRefine_BestQueryKeepsEarliestOnTie(t *testing.T) {
	// Identical scores on both iterations: the first query wins.
	gw := &mockGateway{results: map[string]types.SearchResult{
		"q1":  narrowResult("q1", 42),
		"q1x": narrowResult("q1x", 42),
	}}
	rw := funcRewriter(func(_ context.Context, rc RewriteContext) (string, error) {
		return rc.Query + "x", nil
	})

	c := NewController(gw, rw, types.RefineConfig{MaxIterations: 2}, nil)
	result, err := c.Refine(context.Background(), "q1", 0)
	require.NoError(t, err)

	require.Len(t, result.Iterations, 2)
	assert.Equal(t, "q1", result.BestQuery)
}

func TestRefine_BestQueryTracksImprovement(t *testing.T) {
	gw := &mockGateway{results: map[string]types.SearchResult{
		"q1":  narrowResult("q1", 42),
		"q1x": goodResult("q1x"),
	}}
	rw := funcRewriter(func(_ context.Context, rc RewriteContext) (string, error) {
		return rc.Query + "x", nil
	})

	c := NewController(gw, rw, types.RefineConfig{MaxIterations: 5}, nil)
	result, err := c.Refine(context.Background(), "q1", 0)
	require.NoError(t, err)

	// The second iteration is good enough, so the run stops there.
	require.Len(t, result.Iterations, 2)
	assert.Equal(t, "q1x", result.BestQuery)
	assert.Contains(t, result.Iterations[1].RefinementReason, "improving overall quality")
}

func TestRefine_SearchFailurePreservesHistory(t *testing.T) {
	gw := &mockGateway{
		results: map[string]types.SearchResult{"q1": narrowResult("q1", 42)},
		errs:    map[string]error{"q1x": errors.New("backend down")},
	}
	rw := funcRewriter(func(_ context.Context, rc RewriteContext) (string, error) {
		return rc.Query + "x", nil
	})

	c := NewController(gw, rw, types.RefineConfig{MaxIterations: 5}, nil)
	result, err := c.Refine(context.Background(), "q1", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iteration 2")
	assert.Contains(t, err.Error(), "backend down")

	// Completed iterations survive the failure.
	require.Len(t, result.Iterations, 1)
	assert.Equal(t, "q1", result.BestQuery)
}

func TestRefine_FirstSearchFailure(t *testing.T) {
	gw := &mockGateway{errs: map[string]error{"q1": errors.New("backend down")}}
	rw := funcRewriter(func(context.Context, RewriteContext) (string, error) { return "", nil })

	c := NewController(gw, rw, types.RefineConfig{MaxIterations: 5}, nil)
	result, err := c.Refine(context.Background(), "q1", 0)
	require.Error(t, err)
	assert.Empty(t, result.Iterations)
}

func TestRefine_RewriteErrorPreservesHistory(t *testing.T) {
	gw := &mockGateway{results: map[string]types.SearchResult{"q1": narrowResult("q1", 42)}}
	rw := funcRewriter(func(context.Context, RewriteContext) (string, error) {
		return "", fmt.Errorf("model unavailable")
	})

	c := NewController(gw, rw, types.RefineConfig{MaxIterations: 5}, nil)
	result, err := c.Refine(context.Background(), "q1", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rewriting query")
	assert.Len(t, result.Iterations, 1)
}

func TestRefine_AbstractFetchFailureTolerated(t *testing.T) {
	gw := &mockGateway{
		results: map[string]types.SearchResult{"q1": {
			Query:      "q1",
			TotalCount: 42,
			IDs:        []string{"1", "2"},
		}},
		absErr: errors.New("efetch down"),
	}
	var sawAbstracts []types.Abstract
	rw := funcRewriter(func(_ context.Context, rc RewriteContext) (string, error) {
		sawAbstracts = rc.Abstracts
		return rc.Query, nil
	})

	c := NewController(gw, rw, types.RefineConfig{MaxIterations: 5, AbstractSample: 5}, nil)
	result, err := c.Refine(context.Background(), "q1", 0)
	require.NoError(t, err)

	require.Len(t, result.Iterations, 1)
	assert.Nil(t, result.Iterations[0].AbstractsSample)
	assert.Nil(t, sawAbstracts)
}

func TestRefine_AbstractsReachRewriter(t *testing.T) {
	abstracts := []types.Abstract{{PMID: "1", Abstract: "text"}}
	gw := &mockGateway{
		results: map[string]types.SearchResult{"q1": {
			Query:      "q1",
			TotalCount: 42,
			IDs:        []string{"1"},
		}},
		abstracts: abstracts,
	}
	var sawAbstracts []types.Abstract
	rw := funcRewriter(func(_ context.Context, rc RewriteContext) (string, error) {
		sawAbstracts = rc.Abstracts
		return rc.Query, nil
	})

	c := NewController(gw, rw, types.RefineConfig{MaxIterations: 5, AbstractSample: 5}, nil)
	result, err := c.Refine(context.Background(), "q1", 0)
	require.NoError(t, err)

	assert.Equal(t, abstracts, result.Iterations[0].AbstractsSample)
	assert.Equal(t, abstracts, sawAbstracts)
}

func TestRefine_Cancelled(t *testing.T) {
	gw := &mockGateway{results: map[string]types.SearchResult{"q1": narrowResult("q1", 42)}}
	rw := funcRewriter(func(context.Context, RewriteContext) (string, error) {
		t.Fatal("rewriter must not run after cancellation")
		return "", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewController(gw, rw, types.RefineConfig{MaxIterations: 5}, nil)
	result, err := c.Refine(ctx, "q1", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// The first iteration completed before the cancellation check.
	assert.Len(t, result.Iterations, 1)
}

func TestRefine_EmptyQuery(t *testing.T) {
	c := NewController(&mockGateway{}, funcRewriter(nil), types.RefineConfig{}, nil)
	_, err := c.Refine(context.Background(), "   ", 0)
	require.Error(t, err)
}
