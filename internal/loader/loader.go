// Package loader streams validated CSV rows into a storage sink in fixed
// size chunks. Data quality problems (malformed rows, rows that fail
// validation, files that are not CSV at all) are dropped and counted, never
// surfaced as errors; only infrastructure failures stop a run.
package loader

import (
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/hashicorp/go-hclog"

	"csvingest/internal/metrics"
	"csvingest/internal/parser/csv"
	"csvingest/internal/record"
	"csvingest/internal/validate"
)

// DefaultBatchSize is the number of validated rows flushed per insert.
const DefaultBatchSize = 50

// Source is a file to load: a content type to gate on and a byte stream.
// *blob.Object satisfies it.
type Source interface {
	ContentType() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Sink receives validated rows. storage.Repository satisfies it.
type Sink interface {
	InsertMany(ctx context.Context, columns []string, rows [][]any) (int64, error)
}

// Config configures a Loader. Zero values get sensible defaults.
type Config struct {
	// Schema validates each row. Nil means the upload schema.
	Schema *validate.RowValidator

	// CSV configures the reader (delimiter, charset, quoting).
	CSV csv.Options

	// BatchSize is the chunk size for inserts. Zero means DefaultBatchSize.
	BatchSize int

	Log hclog.Logger
}

// Loader pushes rows from Sources into a Sink.
type Loader struct {
	schema    *validate.RowValidator
	opt       csv.Options
	batchSize int
	log       hclog.Logger
}

// New builds a Loader from cfg.
func New(cfg Config) *Loader {
	if cfg.Schema == nil {
		cfg.Schema = validate.UploadSchema()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Log == nil {
		cfg.Log = hclog.NewNullLogger()
	}
	return &Loader{
		schema:    cfg.Schema,
		opt:       cfg.CSV,
		batchSize: cfg.BatchSize,
		log:       cfg.Log,
	}
}

// IsCSV reports whether a content type names CSV data, ignoring parameters
// like charset.
func IsCSV(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = contentType
	}
	return strings.EqualFold(strings.TrimSpace(mt), "text/csv")
}

// ProcessRecords streams src through validation into sink and returns the
// number of rows inserted. Sources whose content type is not text/csv are
// skipped with a zero count and no error. Rows are inserted in input order,
// in chunks of the configured batch size, with a final partial chunk for the
// remainder.
func (l *Loader) ProcessRecords(ctx context.Context, src Source, sink Sink) (int64, error) {
	if !IsCSV(src.ContentType()) {
		l.log.Info("skipping non-csv source", "content_type", src.ContentType())
		return 0, nil
	}

	body, err := src.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("loader: open source: %w", err)
	}
	defer body.Close()

	r, err := csv.NewReader(body, l.opt)
	if err != nil {
		return 0, fmt.Errorf("loader: %w", err)
	}

	columns := l.schema.Columns()
	chunk := make([][]any, 0, l.batchSize)
	var total, dropped int64

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		n, err := sink.InsertMany(ctx, columns, chunk)
		total += n
		if err != nil {
			return fmt.Errorf("loader: insert chunk: %w", err)
		}
		metrics.RecordBatch()
		chunk = chunk[:0]
		return nil
	}

	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		var parseErr *stdcsv.ParseError
		if errors.As(err, &parseErr) {
			l.log.Debug("dropping malformed row", "line", r.Line(), "error", err)
			dropped++
			continue
		}
		if err != nil {
			return total, fmt.Errorf("loader: read row: %w", err)
		}

		if !l.schema.IsValid(row) {
			l.log.Debug("dropping invalid row", "line", r.Line(), "error", l.schema.Err())
			dropped++
			continue
		}

		values := make([]any, len(columns))
		for i, c := range columns {
			values[i] = record.Stringify(row.Get(c))
		}
		chunk = append(chunk, values)
		if len(chunk) == l.batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}

	if err := flush(); err != nil {
		return total, err
	}

	metrics.RecordRows("valid", total)
	metrics.RecordRows("dropped", dropped)
	l.log.Info("source loaded", "inserted", total, "dropped", dropped)
	return total, nil
}
