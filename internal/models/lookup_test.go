package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusHelpers(t *testing.T) {
	assert.Equal(t, "OK(search:OK(search-card))", StatusOKSearch(StatusOKSearchCard))
	assert.Equal(t, "SEARCH_HTTP_404", StatusSearchHTTP(404))
	assert.Equal(t, "PRODUCT_HTTP_503", StatusProductHTTP(503))
	assert.Equal(t, "SEARCH_ERROR:boom", StatusSearchError(errors.New("boom")))
	assert.Equal(t, "ERROR_DIRECT:boom", StatusErrorDirect(errors.New("boom")))
	assert.Equal(t, "ERROR_FETCH_PRODUCT:boom", StatusErrorFetchProduct(errors.New("boom")))
	assert.Equal(t, "EXCEPTION:boom", StatusException(errors.New("boom")))
}

func TestFound(t *testing.T) {
	res := NewLookupResult("111-2222")
	assert.False(t, res.Found())
	assert.False(t, res.LookedUpAt.IsZero())

	res.Brand = "Siemens"
	assert.True(t, res.Found())

	res = NewLookupResult("111-2222")
	res.ManufacturerPN = "3RT2015"
	assert.True(t, res.Found())
}
