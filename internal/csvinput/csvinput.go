// Package csvinput reads product rows from the input CSV file.
package csvinput

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/user/product-image-scraper/internal/entity"
)

// ErrMissingColumns is returned when the header has no reference or no URL column.
var ErrMissingColumns = errors.New("csv: expected columns ref,url")

var (
	referenceColumns = []string{"ref", "REF", "sku"}
	urlColumns       = []string{"url", "URL"}
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFile opens path and reads its rows with ReadRows.
func ReadFile(path string) ([]entity.ProductRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRows(f)
}

// ReadRows parses a CSV with a header row. For every record the reference is
// the first non-empty value among the ref, REF and sku columns, and the URL the
// first non-empty among url and URL. Records missing either are skipped.
func ReadRows(r io.Reader) ([]entity.ProductRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingColumns
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	refIdx := columnIndexes(header, referenceColumns)
	urlIdx := columnIndexes(header, urlColumns)
	if len(refIdx) == 0 || len(urlIdx) == 0 {
		return nil, ErrMissingColumns
	}

	var rows []entity.ProductRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		ref := firstValue(record, refIdx)
		u := firstValue(record, urlIdx)
		if ref == "" || u == "" {
			continue
		}
		rows = append(rows, entity.ProductRow{Reference: ref, SourceURL: u})
	}
	return rows, nil
}

// columnIndexes maps names to header positions in the order of names. Exact
// matches are used when any exist, otherwise names are matched ignoring case.
func columnIndexes(header, names []string) []int {
	var idx []int
	for _, name := range names {
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				idx = append(idx, i)
				break
			}
		}
	}
	if len(idx) > 0 {
		return idx
	}
	for _, name := range names {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) && !contains(idx, i) {
				idx = append(idx, i)
				break
			}
		}
	}
	return idx
}

func firstValue(record []string, idx []int) string {
	for _, i := range idx {
		if i >= len(record) {
			continue
		}
		if v := strings.TrimSpace(record[i]); v != "" {
			return v
		}
	}
	return ""
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
