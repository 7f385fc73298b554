// Copyright Tales Pardini, 2026. All rights reserved.

// Package pubmed queries the NCBI E-utilities API: esearch for hit
// counts and PMIDs, esummary for record metadata, and efetch for
// abstracts. It is the literature gateway the refinement engine drives.
package pubmed

import (
	"context"
	"encoding/xml"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pardinithales/pubmed-agent/internal/httputil"
	"github.com/pardinithales/pubmed-agent/pkg/types"
)

// eutilsBase is the NCBI E-utilities endpoint prefix. A Client field
// overrides it so tests can substitute an httptest server.
const eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// summaryBatchSize is the maximum number of PMIDs sent per esummary
// request. NCBI accepts more but responses get large and slow.
const summaryBatchSize = 200

// summaryConcurrency bounds parallel esummary batch requests for one
// result set.
const summaryConcurrency = 3

// BackendError reports a failed E-utilities call: the remote service was
// unreachable, timed out, or returned a non-success status. An empty
// result set is not a BackendError.
type BackendError struct {
	// Op names the failing endpoint ("esearch", "esummary", "efetch").
	Op string

	// Status is the HTTP status code, or 0 for transport errors.
	Status int

	// Err is the underlying error, if any.
	Err error
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("pubmed %s: HTTP %d", e.Op, e.Status)
	}
	return fmt.Sprintf("pubmed %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Client talks to the E-utilities API. All calls honor the request
// context and are rate limited to NCBI's published per-second quota.
type Client struct {
	// BaseURL is the E-utilities prefix, overridable for tests.
	BaseURL string

	// HTTPClient issues the requests; its Timeout applies per call.
	HTTPClient *http.Client

	cfg     types.PubMedConfig
	limiter *rate.Limiter

	// rng drives abstract subsampling. Guarded by mu; *rand.Rand is not
	// safe for concurrent use.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewClient builds a Client from configuration. The rate limit follows
// the configured credentials: 3 req/s anonymous, 10 req/s with an API key.
func NewClient(cfg types.PubMedConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    eutilsBase,
		HTTPClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond()), 1),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand substitutes the randomness source used for abstract
// subsampling. Tests pass a seeded source for deterministic samples.
func (c *Client) WithRand(r *rand.Rand) *Client {
	c.rng = r
	return c
}

// Search executes a query via esearch and returns the total hit count,
// the first page of PMIDs, and best-effort sample metadata for up to
// SummarySample records. Zero hits yields a valid empty SearchResult;
// only transport/status failures return a *BackendError.
func (c *Client) Search(ctx context.Context, query string, maxResults int) (types.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = c.cfg.MaxResults
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	params := c.commonParams()
	params.Set("term", query)
	params.Set("retmax", fmt.Sprintf("%d", maxResults))
	params.Set("usehistory", "y")

	var parsed eSearchResult
	if err := c.getXML(ctx, "esearch", params, &parsed); err != nil {
		return types.SearchResult{}, err
	}

	result := types.SearchResult{
		Query:      query,
		TotalCount: parsed.Count,
		IDs:        parsed.IDs,
	}
	if len(parsed.IDs) == 0 {
		return result, nil
	}

	sample := c.cfg.SummarySample
	if sample <= 0 {
		sample = 5
	}
	if sample > len(parsed.IDs) {
		sample = len(parsed.IDs)
	}

	// Sample metadata is an enrichment: a failed esummary leaves the
	// sample fields nil and does not fail the search.
	summaries, err := c.FetchSummaries(ctx, parsed.IDs[:sample])
	if err != nil || len(summaries) == 0 {
		return result, nil
	}

	result.SampleTitles = make([]string, 0, len(summaries))
	result.SampleTypes = make([]string, 0, len(summaries))
	result.SampleYears = make([]string, 0, len(summaries))
	for _, s := range summaries {
		result.SampleTitles = append(result.SampleTitles, s.Title)
		result.SampleTypes = append(result.SampleTypes, strings.Join(s.PublicationTypes, ", "))
		result.SampleYears = append(result.SampleYears, s.PublicationYear)
	}
	return result, nil
}

// FetchSummaries retrieves esummary metadata for the given PMIDs.
// Requests are batched and the batches fetched concurrently; results
// come back in the input order.
func (c *Client) FetchSummaries(ctx context.Context, ids []string) ([]types.ArticleSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var batches [][]string
	for start := 0; start < len(ids); start += summaryBatchSize {
		end := start + summaryBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}

	perBatch := make([][]types.ArticleSummary, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			summaries, err := c.fetchSummaryBatch(gctx, batch)
			if err != nil {
				return err
			}
			perBatch[i] = summaries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []types.ArticleSummary
	for _, summaries := range perBatch {
		all = append(all, summaries...)
	}
	return all, nil
}

// fetchSummaryBatch fetches one esummary request worth of metadata.
func (c *Client) fetchSummaryBatch(ctx context.Context, ids []string) ([]types.ArticleSummary, error) {
	params := c.commonParams()
	params.Set("id", strings.Join(ids, ","))

	var parsed eSummaryResult
	if err := c.getXML(ctx, "esummary", params, &parsed); err != nil {
		return nil, err
	}

	summaries := make([]types.ArticleSummary, 0, len(parsed.DocSums))
	for _, doc := range parsed.DocSums {
		summaries = append(summaries, doc.toSummary())
	}
	return summaries, nil
}

// FetchAbstracts retrieves abstracts for a random subsample of the given
// PMIDs via efetch. When len(ids) exceeds sampleSize the subsample is
// drawn from the client's randomness source. Records without an abstract
// are skipped.
func (c *Client) FetchAbstracts(ctx context.Context, ids []string, sampleSize int) ([]types.Abstract, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if sampleSize <= 0 {
		sampleSize = 10
	}

	sampled := c.sampleIDs(ids, sampleSize)

	params := c.commonParams()
	params.Set("id", strings.Join(sampled, ","))
	params.Set("rettype", "abstract")

	var parsed pubmedArticleSet
	if err := c.getXML(ctx, "efetch", params, &parsed); err != nil {
		return nil, err
	}

	var abstracts []types.Abstract
	for _, article := range parsed.Articles {
		text := strings.TrimSpace(strings.Join(article.AbstractTexts, " "))
		if text == "" {
			continue
		}
		abstracts = append(abstracts, types.Abstract{
			PMID:     article.PMID,
			Title:    strings.TrimSpace(article.Title),
			Abstract: text,
		})
	}
	return abstracts, nil
}

// sampleIDs returns up to n ids drawn without replacement.
func (c *Client) sampleIDs(ids []string, n int) []string {
	if len(ids) <= n {
		out := make([]string, len(ids))
		copy(out, ids)
		return out
	}

	c.mu.Lock()
	perm := c.rng.Perm(len(ids))
	c.mu.Unlock()

	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = ids[perm[i]]
	}
	return out
}

// commonParams returns the parameters sent on every E-utilities request.
func (c *Client) commonParams() url.Values {
	params := url.Values{
		"db":      {"pubmed"},
		"retmode": {"xml"},
	}
	tool := c.cfg.Tool
	if tool == "" {
		tool = "pubmed-agent"
	}
	params.Set("tool", tool)
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}
	return params
}

// getXML issues a rate-limited GET against one endpoint and decodes the
// XML response body into out.
func (c *Client) getXML(ctx context.Context, op string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &BackendError{Op: op, Err: err}
	}

	reqURL := fmt.Sprintf("%s/%s.fcgi?%s", c.BaseURL, op, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &BackendError{Op: op, Err: err}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTPClient, req, c.cfg.MaxRetries)
	if err != nil {
		return &BackendError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &BackendError{Op: op, Status: resp.StatusCode}
	}

	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return &BackendError{Op: op, Err: fmt.Errorf("parsing response: %w", err)}
	}
	return nil
}
