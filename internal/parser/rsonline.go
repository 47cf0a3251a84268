package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/qmarchand/rs-mpn-lookup/internal/models"
)

// Markup markers of fr.rs-online.com product and search pages.
const (
	brandLinkSelector     = `a[data-testid="brand-link"]`
	brandFieldSelector    = `dd[data-testid="brand-desktop"]`
	mpnValueSelector      = `dd[data-testid="mpn-desktop"]`
	mpnLabelSelector      = `dt[data-testid="mpn-desktop"]`
	crossRefValueSelector = `dd[data-testid="distrelec-desktop"]`
	crossRefLabelSelector = `dt[data-testid="distrelec-desktop"]`

	productLinkPath  = "/web/p/"
	mpnLabelHint     = "référence fabricant"
	crossRefLabel    = "distrelec"
	rawScanWindow    = 800
	ancestorWalkMax  = 4
	searchLinkBoost  = 10
)

// Extraction is the outcome of one extractor stage. Brand and MPN may both be
// empty even when a product link was found.
type Extraction struct {
	ProductURL string
	Brand      string
	MPN        string
	Status     string
}

// RSParser extracts brand and manufacturer part number fields from
// fr.rs-online.com pages: structured card markup first, raw regex scan as the
// last resort.
type RSParser struct {
	base *url.URL

	productLinkPattern  *regexp.Regexp
	rawBrandPattern     *regexp.Regexp
	rawMPNValuePattern  *regexp.Regexp
	rawMPNPairPattern   *regexp.Regexp
	crossRefCodePattern *regexp.Regexp
	inHouseSignal       *regexp.Regexp
}

func NewRSParser(baseURL string) (*RSParser, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	return &RSParser{
		base:                base,
		productLinkPattern:  regexp.MustCompile(`/web/p/[^"'\s>\\]+`),
		rawBrandPattern:     regexp.MustCompile(`(?is)data-testid=["']brand-link["'][^>]*>.*?<span[^>]*>([^<]{1,80})`),
		rawMPNValuePattern:  regexp.MustCompile(`(?is)dd[^>]*data-testid=["']mpn-desktop["'][^>]*>([^<]{1,80})`),
		rawMPNPairPattern:   regexp.MustCompile(`(?is)dt[^>]*data-testid=["']mpn-desktop["'][^>]*>[^<]*</dt>\s*<dd[^>]*>([^<]{1,80})`),
		crossRefCodePattern: regexp.MustCompile(`\d{2,4}-\d{2,4}-?\d{0,4}`),
		inHouseSignal:       regexp.MustCompile(`(?i)rs\s*pro`),
	}, nil
}

// ParseProductPage pulls the brand and MPN fields out of a product page.
// Both return values may be empty; the caller decides whether the page counts
// as a hit.
func (p *RSParser) ParseProductPage(html, rsPNHint string) (mpn, brand string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	if a := doc.Find(brandLinkSelector).First(); a.Length() > 0 && strings.TrimSpace(a.Text()) != "" {
		brand = spanOrOwnText(a)
	}
	if brand == "" {
		if dd := doc.Find(brandFieldSelector).First(); dd.Length() > 0 {
			brand = spanOrOwnText(dd)
		}
	}

	if dd := doc.Find(mpnValueSelector).First(); dd.Length() > 0 && strings.TrimSpace(dd.Text()) != "" {
		candidate := norm(dd.Text())
		if IsValidMPNFromField(candidate, rsPNHint) {
			mpn = candidate
		} else if isAllDigits(candidate) && candidate != rsPNHint {
			// Numeric-only part numbers trip the attribute-vocabulary check
			// ("ah" etc. never match) but fail on other grounds; keep them
			// unless they echo the query.
			mpn = candidate
		}
	} else if label := p.findMPNLabel(doc.Selection); label.Length() > 0 {
		if next := label.NextAllFiltered("dd").First(); next.Length() > 0 && strings.TrimSpace(next.Text()) != "" {
			candidate := norm(next.Text())
			if IsValidMPNFromField(candidate, rsPNHint) {
				mpn = candidate
			} else if isAllDigits(candidate) && candidate != rsPNHint {
				mpn = candidate
			}
		}
	}

	if mpn == "" && isInHouseBrand(brand) {
		if dist := extractCrossRef(doc.Selection); dist != "" && IsValidMPNFromField(dist, rsPNHint) {
			mpn = dist
		}
	}

	return mpn, brand, nil
}

// ParseSearchPage walks the product links of a search-results page in
// descending relevance order and extracts fields from the containing card, or
// from the link's next sibling when no card wraps it. When every candidate
// resists extraction the top link is returned alone.
func (p *RSParser) ParseSearchPage(html, rsPN string) (*Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	type candidate struct {
		score  int
		anchor *goquery.Selection
		url    string
	}

	var candidates []candidate
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, productLinkPath) {
			return
		}
		score := 1
		if strings.Contains(href, rsPN) || strings.Contains(norm(a.Text()), rsPN) {
			score += searchLinkBoost
		}
		candidates = append(candidates, candidate{score: score, anchor: a, url: p.absoluteURL(href)})
	})

	if len(candidates) == 0 {
		return &Extraction{Status: models.StatusSearchNoProductLink}, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	for _, c := range candidates {
		// The anchor itself plus up to three ancestor levels.
		node := c.anchor
		for depth := 0; depth < ancestorWalkMax && node.Length() > 0; depth++ {
			switch goquery.NodeName(node) {
			case "article", "li", "div":
				brand, mpn := p.extractCardFields(node, rsPN, true)
				if Accepted(brand, mpn, rsPN) {
					return &Extraction{
						ProductURL: c.url,
						Brand:      brand,
						MPN:        mpn,
						Status:     models.StatusOKSearchCard,
					}, nil
				}
			}
			node = node.Parent()
		}

		if sibling := c.anchor.Next(); sibling.Length() > 0 {
			brand, mpn := p.extractCardFields(sibling, rsPN, false)
			if Accepted(brand, mpn, rsPN) {
				return &Extraction{
					ProductURL: c.url,
					Brand:      brand,
					MPN:        mpn,
					Status:     models.StatusOKSearchSibling,
				}, nil
			}
		}
	}

	return &Extraction{ProductURL: candidates[0].url, Status: models.StatusOKAnchorNoFields}, nil
}

// RawScan is the last-resort extractor: regex over the raw document. It
// prefers a product link containing the part number and reads brand/MPN
// snippets from a fixed-width window around it.
func (p *RSParser) RawScan(html, rsPN string) *Extraction {
	matches := p.productLinkPattern.FindAllString(html, -1)
	if len(matches) == 0 {
		return &Extraction{Status: models.StatusNoRawLinks}
	}

	for _, m := range matches {
		if !strings.Contains(m, rsPN) {
			continue
		}

		idx := strings.Index(html, m)
		left := max(0, idx-rawScanWindow)
		right := min(len(html), idx+rawScanWindow)
		snippet := html[left:right]

		var brand string
		if bm := p.rawBrandPattern.FindStringSubmatch(snippet); bm != nil {
			brand = strings.TrimSpace(bm[1])
		}

		var mpn string
		mm := p.rawMPNValuePattern.FindStringSubmatch(snippet)
		if mm == nil {
			mm = p.rawMPNPairPattern.FindStringSubmatch(snippet)
		}
		if mm != nil {
			cand := strings.TrimSpace(mm[1])
			if IsValidMPNFromField(cand, rsPN) {
				mpn = cand
			} else {
				mpn = RefineMPN(cand, rsPN)
			}
		}

		if mpn == "" && (isInHouseBrand(brand) || p.inHouseSignal.MatchString(snippet)) {
			if code := p.crossRefCodePattern.FindString(snippet); code != "" && IsValidMPNFromField(code, rsPN) {
				mpn = code
			}
		}

		if brand != "" || mpn != "" {
			return &Extraction{
				ProductURL: p.absoluteURL(m),
				Brand:      brand,
				MPN:        mpn,
				Status:     models.StatusOKRawSnippet,
			}
		}
	}

	return &Extraction{ProductURL: p.absoluteURL(matches[0]), Status: models.StatusOKRawFirst}
}

// extractCardFields reads the brand and MPN fields out of a search-result
// card. withLabelFallback enables the dt/dd pair lookup used on full cards;
// the sibling fallback path only ever carries the dd value field.
func (p *RSParser) extractCardFields(container *goquery.Selection, rsPN string, withLabelFallback bool) (brand, mpn string) {
	if a := container.Find(brandLinkSelector).First(); a.Length() > 0 {
		brand = spanOrOwnText(a)
	}

	if dd := container.Find(mpnValueSelector).First(); dd.Length() > 0 && strings.TrimSpace(dd.Text()) != "" {
		candidate := norm(dd.Text())
		if IsValidMPNFromField(candidate, rsPN) {
			mpn = candidate
		}
	} else if withLabelFallback {
		if label := p.findMPNLabel(container); label.Length() > 0 {
			if next := label.NextAllFiltered("dd").First(); next.Length() > 0 && strings.TrimSpace(next.Text()) != "" {
				candidate := norm(next.Text())
				if IsValidMPNFromField(candidate, rsPN) {
					mpn = candidate
				}
			}
		}
	}

	if mpn == "" && brand != "" && isInHouseBrand(brand) {
		if dist := extractCrossRef(container); dist != "" && IsValidMPNFromField(dist, rsPN) {
			mpn = dist
		}
	}

	if mpn != "" && !IsValidMPNFromField(mpn, rsPN) {
		mpn = RefineMPN(mpn, rsPN)
	}

	return brand, mpn
}

// findMPNLabel locates the MPN dt either by its test id or by its visible
// French label text.
func (p *RSParser) findMPNLabel(container *goquery.Selection) *goquery.Selection {
	label := container.Find(mpnLabelSelector).First()
	if label.Length() > 0 {
		return label
	}

	found := label
	container.Find("dt").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(norm(s.Text())), mpnLabelHint) {
			found = s
			return false
		}
		return true
	})
	return found
}

// extractCrossRef reads the distributor cross-reference field used as the MPN
// substitute for in-house branded products.
func extractCrossRef(container *goquery.Selection) string {
	if dd := container.Find(crossRefValueSelector).First(); dd.Length() > 0 && strings.TrimSpace(dd.Text()) != "" {
		return norm(dd.Text())
	}

	if dt := container.Find(crossRefLabelSelector).First(); dt.Length() > 0 {
		if next := dt.NextAllFiltered("dd").First(); next.Length() > 0 && strings.TrimSpace(next.Text()) != "" {
			return norm(next.Text())
		}
	}

	var out string
	container.Find("dt").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(norm(s.Text())), crossRefLabel) {
			return true
		}
		if next := s.NextAllFiltered("dd").First(); next.Length() > 0 && strings.TrimSpace(next.Text()) != "" {
			out = norm(next.Text())
			return false
		}
		return true
	})
	return out
}

// Accepted is the shared success condition: a plausible brand or a
// strict-or-loose valid MPN.
func Accepted(brand, mpn, rsPN string) bool {
	if brand != "" && LooksLikeBrand(brand) {
		return true
	}
	return mpn != "" && (IsValidMPNFromField(mpn, rsPN) || HeuristicMPNCandidate(mpn, rsPN))
}

// spanOrOwnText prefers the inner span of a field (the visible label) over
// the element's full text.
func spanOrOwnText(s *goquery.Selection) string {
	if span := s.Find("span").First(); span.Length() > 0 {
		return norm(span.Text())
	}
	return norm(s.Text())
}

func isInHouseBrand(brand string) bool {
	lower := strings.ToLower(brand)
	return brand != "" && strings.Contains(lower, "rs") && strings.Contains(lower, "pro")
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (p *RSParser) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return p.base.ResolveReference(ref).String()
}
