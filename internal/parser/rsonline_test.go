package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmarchand/rs-mpn-lookup/internal/models"
)

const testBaseURL = "https://fr.rs-online.com"

func newTestParser(t *testing.T) *RSParser {
	t.Helper()
	p, err := NewRSParser(testBaseURL)
	require.NoError(t, err)
	return p
}

func TestParseProductPage(t *testing.T) {
	p := newTestParser(t)

	t.Run("brand link and mpn field", func(t *testing.T) {
		html := `<html><body>
			<a data-testid="brand-link" href="/web/b/siemens/"><span>Siemens</span></a>
			<dl>
				<dt data-testid="mpn-desktop">Référence fabricant</dt>
				<dd data-testid="mpn-desktop">3RT2015-1BB41</dd>
			</dl>
		</body></html>`

		mpn, brand, err := p.ParseProductPage(html, "123-4567")
		require.NoError(t, err)
		assert.Equal(t, "Siemens", brand)
		assert.Equal(t, "3RT2015-1BB41", mpn)
	})

	t.Run("brand from dd field when no link", func(t *testing.T) {
		html := `<html><body>
			<dl>
				<dt data-testid="brand-desktop">Marque</dt>
				<dd data-testid="brand-desktop"><span>Omron</span></dd>
			</dl>
		</body></html>`

		mpn, brand, err := p.ParseProductPage(html, "")
		require.NoError(t, err)
		assert.Equal(t, "Omron", brand)
		assert.Empty(t, mpn)
	})

	t.Run("mpn via french label fallback", func(t *testing.T) {
		html := `<html><body>
			<a data-testid="brand-link" href="#"><span>Phoenix Contact</span></a>
			<dl>
				<dt>Référence fabricant</dt>
				<dd>ABC-99</dd>
			</dl>
		</body></html>`

		mpn, brand, err := p.ParseProductPage(html, "")
		require.NoError(t, err)
		assert.Equal(t, "Phoenix Contact", brand)
		assert.Equal(t, "ABC-99", mpn)
	})

	t.Run("in-house brand substitutes cross reference", func(t *testing.T) {
		html := `<html><body>
			<a data-testid="brand-link" href="#"><span>RS PRO</span></a>
			<dl>
				<dt data-testid="distrelec-desktop">Code Distrelec</dt>
				<dd data-testid="distrelec-desktop">123-4567</dd>
			</dl>
		</body></html>`

		mpn, brand, err := p.ParseProductPage(html, "888-0000")
		require.NoError(t, err)
		assert.Equal(t, "RS PRO", brand)
		assert.Equal(t, "123-4567", mpn)
	})

	t.Run("rejects attribute text in mpn field", func(t *testing.T) {
		html := `<html><body>
			<a data-testid="brand-link" href="#"><span>Ansmann</span></a>
			<dd data-testid="mpn-desktop">Rechargeable NiMH battery</dd>
		</body></html>`

		mpn, brand, err := p.ParseProductPage(html, "")
		require.NoError(t, err)
		assert.Equal(t, "Ansmann", brand)
		assert.Empty(t, mpn)
	})

	t.Run("rejects echo of the queried part number", func(t *testing.T) {
		html := `<html><body>
			<dd data-testid="mpn-desktop">777-9999</dd>
		</body></html>`

		mpn, _, err := p.ParseProductPage(html, "777-9999")
		require.NoError(t, err)
		assert.Empty(t, mpn)
	})

	t.Run("empty page", func(t *testing.T) {
		mpn, brand, err := p.ParseProductPage("<html><body></body></html>", "")
		require.NoError(t, err)
		assert.Empty(t, mpn)
		assert.Empty(t, brand)
	})
}

func TestParseSearchPage(t *testing.T) {
	p := newTestParser(t)

	t.Run("fields from the result card", func(t *testing.T) {
		html := `<html><body>
			<article>
				<a href="/web/p/contactors/1234567">Contacteur 1234567</a>
				<a data-testid="brand-link" href="#"><span>Siemens</span></a>
				<dl><dd data-testid="mpn-desktop">3RT2015</dd></dl>
			</article>
		</body></html>`

		ext, err := p.ParseSearchPage(html, "1234567")
		require.NoError(t, err)
		assert.Equal(t, models.StatusOKSearchCard, ext.Status)
		assert.Equal(t, testBaseURL+"/web/p/contactors/1234567", ext.ProductURL)
		assert.Equal(t, "Siemens", ext.Brand)
		assert.Equal(t, "3RT2015", ext.MPN)
	})

	t.Run("prefers the link matching the part number", func(t *testing.T) {
		html := `<html><body>
			<article>
				<a href="/web/p/other/999">Autre produit</a>
				<a data-testid="brand-link" href="#"><span>WrongBrand</span></a>
			</article>
			<article>
				<a href="/web/p/relays/5551234">Relais 5551234</a>
				<a data-testid="brand-link" href="#"><span>Omron</span></a>
			</article>
		</body></html>`

		ext, err := p.ParseSearchPage(html, "5551234")
		require.NoError(t, err)
		assert.Equal(t, models.StatusOKSearchCard, ext.Status)
		assert.Equal(t, "Omron", ext.Brand)
		assert.Equal(t, testBaseURL+"/web/p/relays/5551234", ext.ProductURL)
	})

	t.Run("sibling fallback when no card wraps the link", func(t *testing.T) {
		html := `<html><body>
			<span>
				<a href="/web/p/sensors/111222">Capteur</a><div><a data-testid="brand-link" href="#"><span>Omron</span></a></div>
			</span>
		</body></html>`

		ext, err := p.ParseSearchPage(html, "111222")
		require.NoError(t, err)
		assert.Equal(t, models.StatusOKSearchSibling, ext.Status)
		assert.Equal(t, "Omron", ext.Brand)
	})

	t.Run("bare link when no fields extract", func(t *testing.T) {
		html := `<html><body>
			<span><a href="/web/p/widgets/555000">Voir le produit</a></span>
		</body></html>`

		ext, err := p.ParseSearchPage(html, "555000")
		require.NoError(t, err)
		assert.Equal(t, models.StatusOKAnchorNoFields, ext.Status)
		assert.Equal(t, testBaseURL+"/web/p/widgets/555000", ext.ProductURL)
		assert.Empty(t, ext.Brand)
		assert.Empty(t, ext.MPN)
	})

	t.Run("card with rejected mpn still yields the brand", func(t *testing.T) {
		html := `<html><body>
			<article>
				<a href="/web/p/batteries/777000">Batterie 777000</a>
				<a data-testid="brand-link" href="#"><span>Ansmann</span></a>
				<dl><dd data-testid="mpn-desktop">Rechargeable NiMH battery</dd></dl>
			</article>
		</body></html>`

		ext, err := p.ParseSearchPage(html, "777000")
		require.NoError(t, err)
		assert.Equal(t, models.StatusOKSearchCard, ext.Status)
		assert.Equal(t, "Ansmann", ext.Brand)
		assert.Empty(t, ext.MPN)
	})

	t.Run("no product links", func(t *testing.T) {
		html := `<html><body><a href="/aide/contact">Contact</a></body></html>`

		ext, err := p.ParseSearchPage(html, "123")
		require.NoError(t, err)
		assert.Equal(t, models.StatusSearchNoProductLink, ext.Status)
		assert.Empty(t, ext.ProductURL)
	})
}

func TestRawScan(t *testing.T) {
	p := newTestParser(t)

	t.Run("snippet around the matching link", func(t *testing.T) {
		html := `<div><a href="/web/p/batteries/7777777">Pile 7777777</a>` +
			`<a data-testid="brand-link" href="#"><span>Duracell</span></a>` +
			`<dd class="attr" data-testid="mpn-desktop">MN1500</dd></div>`

		ext := p.RawScan(html, "7777777")
		assert.Equal(t, models.StatusOKRawSnippet, ext.Status)
		assert.Equal(t, testBaseURL+"/web/p/batteries/7777777", ext.ProductURL)
		assert.Equal(t, "Duracell", ext.Brand)
		assert.Equal(t, "MN1500", ext.MPN)
	})

	t.Run("falls back to the first link", func(t *testing.T) {
		html := `<a href="/web/p/misc/111">x</a><a href="/web/p/misc/222">y</a>`

		ext := p.RawScan(html, "9999999")
		assert.Equal(t, models.StatusOKRawFirst, ext.Status)
		assert.Equal(t, testBaseURL+"/web/p/misc/111", ext.ProductURL)
	})

	t.Run("in-house brand picks up the cross-reference code", func(t *testing.T) {
		html := `<a href="/web/p/tools/4440000">RS PRO outil 4440000</a>` +
			`<a data-testid="brand-link" href="#"><span>RS PRO</span></a>` +
			`Code Distrelec: 301-22-483`

		ext := p.RawScan(html, "4440000")
		assert.Equal(t, models.StatusOKRawSnippet, ext.Status)
		assert.Equal(t, "RS PRO", ext.Brand)
		assert.Equal(t, "301-22-483", ext.MPN)
	})

	t.Run("no links at all", func(t *testing.T) {
		ext := p.RawScan("<html><body>rien</body></html>", "123")
		assert.Equal(t, models.StatusNoRawLinks, ext.Status)
		assert.Empty(t, ext.ProductURL)
	})
}

func TestAccepted(t *testing.T) {
	tests := []struct {
		name  string
		brand string
		mpn   string
		rsPN  string
		want  bool
	}{
		{"brand only", "Siemens", "", "123", true},
		{"mpn only", "", "3RT2015", "123", true},
		{"loose numeric mpn", "", "12345", "999", true},
		{"nothing", "", "", "123", false},
		{"implausible brand alone", "3", "", "123", false},
		{"mpn echoing the query", "", "1234567", "1234567", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Accepted(tt.brand, tt.mpn, tt.rsPN))
		})
	}
}

func TestAbsoluteURL(t *testing.T) {
	p := newTestParser(t)

	assert.Equal(t, testBaseURL+"/web/p/x/1", p.absoluteURL("/web/p/x/1"))
	assert.Equal(t, "https://example.com/web/p/y", p.absoluteURL("https://example.com/web/p/y"))
}
