package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/qmarchand/rs-mpn-lookup/internal/fetcher"
	"github.com/qmarchand/rs-mpn-lookup/internal/models"
	"github.com/qmarchand/rs-mpn-lookup/internal/parser"
)

// Fetcher is the transport the lookup drives. Non-2xx responses come back as
// values, not errors.
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetcher.Response, error)
}

// Saver captures raw pages that failed extraction, for offline inspection.
type Saver interface {
	Save(rsPN, suffix, html string)
}

type Options struct {
	BaseURL    string
	SearchPath string
	// ShortDelay separates the direct-page attempt from the search fallback.
	ShortDelay time.Duration
}

// Client resolves one distributor part number at a time: direct product page,
// then search results (structured cards, then a raw regex scan), then
// following the best product link. Every outcome maps to a Status string;
// Lookup never fails the batch.
type Client struct {
	fetcher    Fetcher
	parser     *parser.RSParser
	diag       Saver
	logger     *slog.Logger
	baseURL    string
	searchPath string
	shortDelay time.Duration
}

func New(f Fetcher, p *parser.RSParser, diag Saver, logger *slog.Logger, opts Options) *Client {
	return &Client{
		fetcher:    f,
		parser:     p,
		diag:       diag,
		logger:     logger.With("component", "lookup"),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		searchPath: opts.SearchPath,
		shortDelay: opts.ShortDelay,
	}
}

// Lookup runs the full fallback chain for one part number.
func (c *Client) Lookup(ctx context.Context, rsPN string) *models.LookupResult {
	result := models.NewLookupResult(rsPN)

	directURL := fmt.Sprintf("%s/web/p/%s/", c.baseURL, rsPN)
	resp, err := c.fetcher.Get(ctx, directURL)
	if err != nil {
		result.Status = models.StatusErrorDirect(err)
		return result
	}

	if resp.OK() {
		mpn, brand, perr := c.parser.ParseProductPage(resp.Body, rsPN)
		if perr == nil && parser.Accepted(brand, mpn, rsPN) {
			result.ManufacturerPN = mpn
			result.Brand = brand
			result.ProductURL = directURL
			result.Status = models.StatusOKDirect
			return result
		}
		c.diag.Save(rsPN, "direct_fields_missing", resp.Body)
	}

	if err := sleepCtx(ctx, c.shortDelay); err != nil {
		result.Status = models.StatusException(err)
		return result
	}

	ext := c.search(ctx, rsPN)
	if ext.ProductURL == "" {
		result.Status = ext.Status
		return result
	}

	if parser.Accepted(ext.Brand, ext.MPN, rsPN) {
		mpn := ext.MPN
		if mpn != "" && !parser.IsValidMPNFromField(mpn, rsPN) {
			mpn = parser.RefineMPN(mpn, rsPN)
		}
		result.ManufacturerPN = mpn
		result.Brand = ext.Brand
		result.ProductURL = ext.ProductURL
		result.Status = models.StatusOKSearch(ext.Status)
		return result
	}

	// A product link with no usable fields: follow it and parse the product
	// page itself.
	result.ProductURL = ext.ProductURL

	resp2, err := c.fetcher.Get(ctx, ext.ProductURL)
	if err != nil {
		result.Status = models.StatusErrorFetchProduct(err)
		return result
	}
	if !resp2.OK() {
		c.diag.Save(rsPN, fmt.Sprintf("product_http_%d", resp2.StatusCode), resp2.Body)
		result.Status = models.StatusProductHTTP(resp2.StatusCode)
		return result
	}

	mpn2, brand2, perr := c.parser.ParseProductPage(resp2.Body, rsPN)
	if perr == nil && parser.Accepted(brand2, mpn2, rsPN) {
		result.ManufacturerPN = mpn2
		result.Brand = brand2
		result.Status = models.StatusOKSearchProduct
		return result
	}

	c.diag.Save(rsPN, "product_fields_missing_after_search", resp2.Body)
	result.Status = models.StatusProductFieldsMissing
	return result
}

// search fetches the search-results page and runs the structured extractor,
// falling back to the raw scan when it produces nothing usable.
func (c *Client) search(ctx context.Context, rsPN string) *parser.Extraction {
	searchURL := c.baseURL + c.searchPath + url.QueryEscape(rsPN)

	resp, err := c.fetcher.Get(ctx, searchURL)
	if err != nil {
		return &parser.Extraction{Status: models.StatusSearchError(err)}
	}
	if !resp.OK() {
		c.diag.Save(rsPN, fmt.Sprintf("search_http_%d", resp.StatusCode), resp.Body)
		return &parser.Extraction{Status: models.StatusSearchHTTP(resp.StatusCode)}
	}

	ext, perr := c.parser.ParseSearchPage(resp.Body, rsPN)
	if perr == nil && ext.ProductURL != "" && (ext.Brand != "" || ext.MPN != "") {
		return ext
	}

	if raw := c.parser.RawScan(resp.Body, rsPN); raw.ProductURL != "" {
		return raw
	}

	// Structured parsing found a bare link at best and the raw scan found
	// nothing; keep the structured answer only if it had a link.
	if perr == nil && ext.ProductURL != "" {
		return ext
	}

	c.diag.Save(rsPN, "search_no_link_raw", resp.Body)
	return &parser.Extraction{Status: models.StatusSearchNoProductLink}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
