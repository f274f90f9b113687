// Package export writes whole resource collections as CSV or XLSX.
package export

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/jyotishdesk/backoffice/internal/resource"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	// maxPages bounds a runaway pagination loop.
	maxPages = 1000
)

// Lister is the read side of a resource client.
type Lister[T any] interface {
	List(ctx context.Context, q resource.ListQuery) (resource.Page[T], error)
}

// CollectAll walks every page of a collection.
func CollectAll[T any](ctx context.Context, l Lister[T], search string, pageSize int) ([]T, error) {
	var out []T
	for page := 1; page <= maxPages; page++ {
		p, err := l.List(ctx, resource.ListQuery{Page: page, PageSize: pageSize, Search: search})
		if err != nil {
			return out, errors.Wrapf(err, "fetch page %d", page)
		}
		out = append(out, p.Results...)
		if len(p.Results) == 0 || page >= p.Pagination.TotalPages {
			return out, nil
		}
	}
	return out, errors.Errorf("more than %d pages", maxPages)
}

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write encodes rows in format. Columns follow the csv struct tags.
func Write[T any](w io.Writer, format, sheet string, rows []T) error {
	switch format {
	case FormatCSV, "":
		if err := gocsv.Marshal(rows, w); err != nil {
			return errors.Wrap(err, "write csv")
		}
		return nil
	case FormatXLSX:
		return writeXLSX(w, sheet, rows)
	}
	return errors.Errorf("unsupported export format %q", format)
}

func writeXLSX[T any](w io.Writer, sheet string, rows []T) error {
	text, err := gocsv.MarshalString(rows)
	if err != nil {
		return errors.Wrap(err, "encode rows")
	}
	records, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	if err != nil {
		return errors.Wrap(err, "read encoded rows")
	}

	f := excelize.NewFile()
	if sheet == "" {
		sheet = "Sheet1"
	} else {
		f.SetSheetName("Sheet1", sheet)
	}
	for r, record := range records {
		for c, value := range record {
			axis := columnName(c) + cast.ToString(r+1)
			if n, ok := numeric(value); ok && r > 0 {
				f.SetCellValue(sheet, axis, n)
				continue
			}
			f.SetCellValue(sheet, axis, value)
		}
	}
	return errors.Wrap(f.Write(w), "write xlsx")
}

// numeric reports whether a cell should be written as a number. Values with
// a leading zero such as "04" stay text.
func numeric(v string) (float64, bool) {
	if v == "" || (len(v) > 1 && v[0] == '0' && v[1] != '.') {
		return 0, false
	}
	n, err := cast.ToFloat64E(v)
	return n, err == nil
}

// columnName maps 0 -> A, 25 -> Z, 26 -> AA.
func columnName(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}
