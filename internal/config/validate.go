// This file adds a lightweight linter for Ingest values. It performs static
// checks over a decoded config and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced to users but
	// does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config (e.g. "storage.kind"); Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error where one is expected.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// knownStorageKinds mirrors the backends registered by internal/storage/all.
var knownStorageKinds = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
	"mysql":    {},
	"mssql":    {},
}

// ValidateIngest performs static validation of an Ingest config. It does not
// mutate the config; callers decide whether warnings are fatal.
func ValidateIngest(c Ingest) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Bucket) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "bucket",
			Message:  "bucket must not be empty",
		})
	}
	if strings.TrimSpace(c.StoreKey) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "store_key",
			Message:  "store_key must not be empty",
		})
	}

	kind := strings.TrimSpace(c.Storage.Kind)
	if kind == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
	} else if _, ok := knownStorageKinds[kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; known kinds: sqlite, postgres, mysql, mssql", kind),
		})
	}
	if kind != "" && kind != "sqlite" && strings.TrimSpace(c.Storage.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  fmt.Sprintf("dsn is required for storage kind %q", kind),
		})
	}
	if strings.TrimSpace(c.Storage.DB.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "table must not be empty",
		})
	}

	if c.Runtime.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}

	switch c.Metrics.Backend {
	case "", "none", "pushgateway", "datadog":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", c.Metrics.Backend),
		})
	}

	return issues
}
