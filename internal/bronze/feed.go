package bronze

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jfyne/csvd"
	merrors "github.com/xtxerr/medallion/internal/errors"
)

// feed reads records from a delimited text source with a header row.
type feed struct {
	name    string
	r       *csv.Reader
	columns map[string]int
	line    int
}

// newFeed reads the header of r. A zero delimiter sniffs it from the data.
func newFeed(name string, r io.Reader, delimiter rune) (*feed, error) {
	var cr *csv.Reader
	if delimiter == 0 {
		cr = csvd.NewReader(bufio.NewReader(r))
	} else {
		cr = csv.NewReader(r)
		cr.Comma = delimiter
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: no header row: %w", name, merrors.ErrSchemaMismatch)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}

	return &feed{name: name, r: cr, columns: columns, line: 1}, nil
}

// column returns the index of the first of names present in the header, or -1.
func (f *feed) column(names ...string) int {
	for _, n := range names {
		if i, ok := f.columns[strings.ToLower(n)]; ok {
			return i
		}
	}
	return -1
}

// require returns the index of a required column.
func (f *feed) require(names ...string) (int, error) {
	if i := f.column(names...); i >= 0 {
		return i, nil
	}
	return -1, merrors.NewMissingColumn(f.name, names[0])
}

// next returns the next record. A malformed record is reported as a row
// validation error and the feed stays readable; io.EOF ends the feed.
func (f *feed) next() ([]string, error) {
	rec, err := f.r.Read()
	f.line++
	if err == nil {
		return rec, nil
	}
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return nil, merrors.NewRowError(fmt.Sprintf("line %d", perr.Line), perr.Err.Error())
	}
	return nil, err
}

// field returns the trimmed value at index i, or "" when the record is short
// or i is -1.
func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// blank reports whether every field of rec is empty.
func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
