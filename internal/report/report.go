package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/qmarchand/rs-mpn-lookup/internal/models"
)

// Header is the fixed output column set. The RS_PN column doubles as the
// resume key.
var Header = []string{"RS_PN", "Manufacturer_PN", "Brand", "Product_URL", "Status"}

const keyColumn = "RS_PN"

// Writer appends one row per processed part number to a CSV file, writing the
// header exactly once when the file does not exist yet.
type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Append(res *models.LookupResult) error {
	writeHeader := false
	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		writeHeader = true
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if writeHeader {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	row := []string{res.RSPN, res.ManufacturerPN, res.Brand, res.ProductURL, res.Status}
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

// ReadPartNumbers loads the RS_PN column of an input CSV into memory. Values
// are trimmed; blanks are kept so callers can log and skip them in order.
func ReadPartNumbers(path string) ([]string, error) {
	records, header, err := readAll(path)
	if err != nil {
		return nil, err
	}

	col := columnIndex(header, keyColumn)
	if col < 0 {
		return nil, fmt.Errorf("input file %s has no %s column", path, keyColumn)
	}

	parts := make([]string, 0, len(records))
	for _, rec := range records {
		if col >= len(rec) {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, strings.TrimSpace(rec[col]))
	}
	return parts, nil
}

// DonePartNumbers reads the RS_PN column of an existing output file into a
// set. A missing file means a fresh run and yields an empty set.
func DonePartNumbers(path string) (map[string]struct{}, error) {
	done := make(map[string]struct{})

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return done, nil
	}

	records, header, err := readAll(path)
	if err != nil {
		return done, err
	}

	col := columnIndex(header, keyColumn)
	if col < 0 {
		return done, fmt.Errorf("output file %s has no %s column", path, keyColumn)
	}

	for _, rec := range records {
		if col >= len(rec) {
			continue
		}
		if pn := strings.TrimSpace(rec[col]); pn != "" {
			done[pn] = struct{}{}
		}
	}
	return done, nil
}

func readAll(path string) (records [][]string, header []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s is empty", path)
	}

	return rows[1:], rows[0], nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}
