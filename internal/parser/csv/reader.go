// Package csv turns a delimited text stream with a header row into a lazy,
// forward-only sequence of record.Record values. It never buffers the whole
// input; restarting requires reopening the underlying stream.
package csv

import (
	stdcsv "encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"csvingest/internal/config"
	"csvingest/internal/record"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Options configures the reader. All fields are optional.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// TrimSpace trims leading/trailing space from header names and cell
	// values.
	TrimSpace bool

	// LazyQuotes puts encoding/csv in lenient quote mode.
	LazyQuotes bool

	// Encoding optionally names the source charset (e.g. "windows-1250").
	// When set, bytes are decoded to UTF-8 before parsing. Empty means the
	// input is already UTF-8.
	Encoding string
}

// FromConfig builds Options from a parser options bag.
func FromConfig(o config.Options) Options {
	return Options{
		Comma:      o.Rune("comma", ','),
		TrimSpace:  o.Bool("trim_space", true),
		LazyQuotes: o.Bool("lazy_quotes", false),
		Encoding:   o.String("encoding", ""),
	}
}

// Reader is a forward-only record source. The header row is consumed on the
// first call to Next and its fields become the keys of every subsequent row.
type Reader struct {
	cr     *stdcsv.Reader
	opt    Options
	header []string
	line   int
}

// NewReader wraps r. When opt.Encoding names a charset, the stream is
// decoded to UTF-8 on the fly; unknown charset names are an error.
func NewReader(r io.Reader, opt Options) (*Reader, error) {
	if opt.Comma == 0 {
		opt.Comma = ','
	}
	if opt.Encoding != "" {
		enc, err := htmlindex.Get(opt.Encoding)
		if err != nil {
			return nil, fmt.Errorf("unknown encoding %q: %w", opt.Encoding, err)
		}
		r = transform.NewReader(r, enc.NewDecoder())
	}

	cr := stdcsv.NewReader(r)
	cr.Comma = opt.Comma
	cr.FieldsPerRecord = -1 // row width is checked downstream, not here
	cr.LazyQuotes = opt.LazyQuotes

	return &Reader{cr: cr, opt: opt}, nil
}

// Header returns the header fields, or nil before the first Next call.
func (r *Reader) Header() []string { return r.header }

// Line returns the 1-based number of the most recently attempted row,
// header included.
func (r *Reader) Line() int { return r.line }

// Next returns the next data row keyed by the header fields, or io.EOF at
// end of stream. Rows shorter than the header get nil for the absent
// columns; cells beyond the header are ignored.
func (r *Reader) Next() (record.Record, error) {
	if r.header == nil {
		hdr, err := r.read()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read header: %w", err)
		}
		r.header = make([]string, len(hdr))
		for i, h := range hdr {
			if i == 0 {
				h = strings.TrimPrefix(h, utf8BOM)
			}
			if r.opt.TrimSpace {
				h = strings.TrimSpace(h)
			}
			r.header[i] = h
		}
	}

	rec, err := r.read()
	if err != nil {
		return nil, err
	}

	row := make(record.Record, len(r.header))
	for i, name := range r.header {
		if i >= len(rec) {
			row[name] = nil
			continue
		}
		v := rec[i]
		if r.opt.TrimSpace {
			v = strings.TrimSpace(v)
		}
		row[name] = v
	}
	return row, nil
}

func (r *Reader) read() ([]string, error) {
	r.line++
	return r.cr.Read()
}
