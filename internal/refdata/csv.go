package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrEmptyFile     = errors.New("empty file")
)

// ParseError reports a value that failed type coercion.
type ParseError struct {
	File   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: column %s: cannot parse %q: %v", e.File, e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// table is a CSV file reduced to an explicit column subset.
type table struct {
	path string
	cols map[string]int
	rows [][]string
}

// readTable reads a CSV with a header row. Every required column must be
// present; optional columns are read when they exist. Extra columns are ignored.
func readTable(path string, required, optional []string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseTable(path, f, required, optional)
}

func parseTable(path string, r io.Reader, required, optional []string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	t := &table{path: path, cols: make(map[string]int, len(required)+len(optional))}
	for _, c := range required {
		i, ok := idx[c]
		if !ok {
			return nil, fmt.Errorf("%s: %w %q", path, ErrMissingColumn, c)
		}
		t.cols[c] = i
	}
	for _, c := range optional {
		if i, ok := idx[c]; ok {
			t.cols[c] = i
		}
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

// cursor walks one row and records the first coercion failure.
type cursor struct {
	t    *table
	line int
	rec  []string
	err  error
}

func (t *table) each(fn func(c *cursor) error) error {
	for i, rec := range t.rows {
		c := &cursor{t: t, line: i + 2, rec: rec}
		if err := fn(c); err != nil {
			return err
		}
		if c.err != nil {
			return c.err
		}
	}
	return nil
}

func (c *cursor) raw(col string) string {
	i, ok := c.t.cols[col]
	if !ok || i >= len(c.rec) {
		return ""
	}
	return strings.TrimSpace(c.rec[i])
}

func (c *cursor) fail(col, v string, err error) {
	if c.err == nil {
		c.err = &ParseError{File: c.t.path, Line: c.line, Column: col, Value: v, Err: err}
	}
}

func (c *cursor) str(col string) string {
	v := c.raw(col)
	if isNull(v) {
		return ""
	}
	return v
}

func (c *cursor) optStr(col string) *string {
	v := c.raw(col)
	if isNull(v) {
		return nil
	}
	return &v
}

func (c *cursor) int(col string) int64 {
	v := c.raw(col)
	n, err := parseInt(v)
	if err != nil {
		c.fail(col, v, err)
	}
	return n
}

func (c *cursor) optInt(col string) *int64 {
	v := c.raw(col)
	if isNull(v) {
		return nil
	}
	n, err := parseInt(v)
	if err != nil {
		c.fail(col, v, err)
		return nil
	}
	return &n
}

func (c *cursor) bool(col string) bool {
	v := c.raw(col)
	if isNull(v) {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.fail(col, v, err)
	}
	return b
}

func (c *cursor) optDecimal(col string) *decimal.Decimal {
	v := c.raw(col)
	if isNull(v) {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimPrefix(v, "$"), ",", ""))
	if err != nil {
		c.fail(col, v, err)
		return nil
	}
	return &d
}

func (c *cursor) optDate(col string) *time.Time {
	v := c.raw(col)
	if isNull(v) {
		return nil
	}
	t, err := ParseDate(v)
	if err != nil {
		c.fail(col, v, err)
		return nil
	}
	return &t
}

func isNull(v string) bool {
	switch strings.ToLower(v) {
	case "", "nan", "nat", "null", "none", "<na>":
		return true
	}
	return false
}

// parseInt accepts "42" and the float spelling "42.0" that nullable integer
// columns pick up on export.
func parseInt(v string) (int64, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("not an integer")
	}
	return d.IntPart(), nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05.999999",
	"1/2/2006",
}

func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}

// DateOnly truncates t to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
