// Package csvfile reads uploaded transaction exports into a domain.Table.
package csvfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/carwash-ops/internal/domain"
)

// ErrUnreadable is returned when the input is not parseable as CSV at all.
var ErrUnreadable = errors.New("unreadable file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read parses a CSV upload. The first non-blank record is the header. Rows may
// have any number of fields; the normalizer decides what is missing. Blank
// lines are skipped and every row keeps its 1-based source line number.
func Read(r io.Reader) (domain.Table, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var table domain.Table
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("%w: %w", ErrUnreadable, err)
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		if table.Header == nil {
			table.Header = record
			continue
		}
		table.Rows = append(table.Rows, domain.Row{Line: line, Values: record})
	}

	if table.Header == nil {
		return domain.Table{}, fmt.Errorf("%w: no header row", domain.ErrEmptyInput)
	}
	if len(table.Rows) == 0 {
		return domain.Table{}, fmt.Errorf("%w: no data rows", domain.ErrEmptyInput)
	}
	return table, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
