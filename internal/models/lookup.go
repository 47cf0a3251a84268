package models

import (
	"fmt"
	"time"
)

// Fixed status values. Statuses carrying an error message or HTTP code are
// built with the helpers below so the CSV stays grep-able.
const (
	StatusOKDirect             = "OK(direct)"
	StatusOKSearchCard         = "OK(search-card)"
	StatusOKSearchSibling      = "OK(search-sibling)"
	StatusOKAnchorNoFields     = "OK_FOUND_anchor_no_card_fields"
	StatusOKRawSnippet         = "OK(raw-snippet)"
	StatusOKRawFirst           = "OK(raw-first)"
	StatusOKSearchProduct      = "OK(search->product)"
	StatusSearchNoProductLink  = "SEARCH_NO_PRODUCT_LINK"
	StatusNoRawLinks           = "NO_RAW_LINKS"
	StatusProductFieldsMissing = "PRODUCT_PAGE_FIELDS_MISSING"
)

func StatusOKSearch(inner string) string { return fmt.Sprintf("OK(search:%s)", inner) }

func StatusSearchHTTP(code int) string { return fmt.Sprintf("SEARCH_HTTP_%d", code) }

func StatusProductHTTP(code int) string { return fmt.Sprintf("PRODUCT_HTTP_%d", code) }

func StatusSearchError(err error) string { return fmt.Sprintf("SEARCH_ERROR:%v", err) }

func StatusErrorDirect(err error) string { return fmt.Sprintf("ERROR_DIRECT:%v", err) }

func StatusErrorFetchProduct(err error) string { return fmt.Sprintf("ERROR_FETCH_PRODUCT:%v", err) }

func StatusException(err error) string { return fmt.Sprintf("EXCEPTION:%v", err) }

// LookupResult is one output row. Exactly one row is written per processed
// part number, whatever the outcome.
type LookupResult struct {
	RSPN           string    `json:"rs_pn"`
	ManufacturerPN string    `json:"manufacturer_pn,omitempty"`
	Brand          string    `json:"brand,omitempty"`
	ProductURL     string    `json:"product_url,omitempty"`
	Status         string    `json:"status"`
	LookedUpAt     time.Time `json:"looked_up_at"`
}

func NewLookupResult(rsPN string) *LookupResult {
	return &LookupResult{
		RSPN:       rsPN,
		LookedUpAt: time.Now(),
	}
}

// Found reports whether the lookup produced at least one usable field.
func (r *LookupResult) Found() bool {
	return r.ManufacturerPN != "" || r.Brand != ""
}
