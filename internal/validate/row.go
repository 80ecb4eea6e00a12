package validate

import (
	"csvingest/internal/record"
)

// DateTimeLayout is the timestamp layout required for the start and end
// columns of an upload row.
const DateTimeLayout = "2006-01-02T15:04:05"

// Column pairs a column name with its validator. The order in which columns
// are declared is the order in which they are checked.
type Column struct {
	Name      string
	Validator Validator
}

// RowValidator validates a record against an ordered column schema, stopping
// at the first failing column so failure messages are deterministic.
//
// A RowValidator is not safe for concurrent use: IsValid overwrites the
// stored failure on every call. Callers running files in parallel need one
// instance each.
type RowValidator struct {
	columns []Column
	err     error
}

// NewRowValidator builds a RowValidator over the given columns.
func NewRowValidator(columns ...Column) *RowValidator {
	return &RowValidator{columns: columns}
}

// UploadSchema returns the fixed schema for upload rows:
// batch, start, end, records, pass, message.
func UploadSchema() *RowValidator {
	dt := NewDateTimeValidator(DateTimeLayout)
	return NewRowValidator(
		Column{Name: "batch", Validator: NewBatchValidator(DefaultBatchLength)},
		Column{Name: "start", Validator: dt},
		Column{Name: "end", Validator: dt},
		Column{Name: "records", Validator: Integer()},
		Column{Name: "pass", Validator: BoolValidator{}},
		Column{Name: "message", Validator: NotEmpty()},
	)
}

// Columns returns the schema's column names in declared order.
func (rv *RowValidator) Columns() []string {
	names := make([]string, len(rv.columns))
	for i, c := range rv.columns {
		names[i] = c.Name
	}
	return names
}

// Validate checks each column in schema order and returns the first failure.
// A value is missing when it is absent, nil, or the empty string; other
// values are validated as strings. Boolean false and numeric zero are real
// values, not missing ones.
func (rv *RowValidator) Validate(row record.Record) error {
	for _, c := range rv.columns {
		raw := row.Get(c.Name)
		value := record.Stringify(raw)
		if raw == nil || value == "" {
			return failf("missing value for %s", c.Name)
		}
		if err := c.Validator.Validate(value); err != nil {
			return err
		}
	}
	return nil
}

// IsValid reports whether row passes Validate without ever returning an
// error itself. On failure, the error is stored and stays retrievable via
// Err until the next call; on success the stored error is cleared.
func (rv *RowValidator) IsValid(row record.Record) bool {
	rv.err = nil
	if err := rv.Validate(row); err != nil {
		rv.err = err
		return false
	}
	return true
}

// Err returns the failure recorded by the most recent IsValid call, or nil.
func (rv *RowValidator) Err() error { return rv.err }
