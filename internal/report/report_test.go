package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmarchand/rs-mpn-lookup/internal/models"
)

func TestWriterAppendWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")
	w := NewWriter(path)

	first := models.NewLookupResult("111-2222")
	first.ManufacturerPN = "3RT2015"
	first.Brand = "Siemens"
	first.ProductURL = "https://fr.rs-online.com/web/p/x/1112222/"
	first.Status = models.StatusOKDirect
	require.NoError(t, w.Append(first))

	second := models.NewLookupResult("333-4444")
	second.Status = "SEARCH_HTTP_404"
	require.NoError(t, w.Append(second))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"111-2222", "3RT2015", "Siemens", "https://fr.rs-online.com/web/p/x/1112222/", "OK(direct)"}, rows[1])
	assert.Equal(t, []string{"333-4444", "", "", "", "SEARCH_HTTP_404"}, rows[2])
}

func TestReadPartNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	content := "RS_PN,Description\n111-2222,contactor\n  333-4444 ,relay\n,blank row\n555-6666\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	parts, err := ReadPartNumbers(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"111-2222", "333-4444", "", "555-6666"}, parts)
}

func TestReadPartNumbersMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte("Part,Description\n1,x\n"), 0644))

	_, err := ReadPartNumbers(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RS_PN")
}

func TestReadPartNumbersHeaderCaseInsensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte("rs_pn\n111-2222\n"), 0644))

	parts, err := ReadPartNumbers(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"111-2222"}, parts)
}

func TestDonePartNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")
	w := NewWriter(path)

	for _, pn := range []string{"111-2222", "333-4444"} {
		res := models.NewLookupResult(pn)
		res.Status = models.StatusOKDirect
		require.NoError(t, w.Append(res))
	}

	done, err := DonePartNumbers(path)
	require.NoError(t, err)
	assert.Len(t, done, 2)
	assert.Contains(t, done, "111-2222")
	assert.Contains(t, done, "333-4444")
	assert.NotContains(t, done, "555-6666")
}

func TestDonePartNumbersMissingFile(t *testing.T) {
	done, err := DonePartNumbers(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Empty(t, done)
}
