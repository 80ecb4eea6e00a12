// Package config defines the JSON-serializable configuration model for the
// ingest service. The model is deliberately small and explicit: a config file
// is decoded from disk and passed through the program without further glue.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultBatchSize is the number of valid rows flushed to storage per chunk
// when runtime.batch_size is unset.
const DefaultBatchSize = 50

// DefaultStoreKey is the object key under which the persistent database
// snapshot lives in the bucket.
const DefaultStoreKey = "store/uploads.db3"

// Ingest is the top-level configuration decoded from an ingest config file.
type Ingest struct {
	// Bucket is the object-store bucket holding uploaded CSV files and the
	// database snapshot.
	Bucket string `json:"bucket"`

	// Region is the bucket's region.
	Region string `json:"region"`

	// StoreKey is the object key of the database snapshot. Defaults to
	// DefaultStoreKey.
	StoreKey string `json:"store_key"`

	// TempDir is where downloaded objects are staged. Defaults to the
	// system temp directory.
	TempDir string `json:"temp_dir"`

	// Parser carries CSV reader options (comma, trim_space, encoding, ...).
	Parser Parser `json:"parser"`

	// Storage selects and configures the row sink.
	Storage Storage `json:"storage"`

	// Runtime controls batching.
	Runtime Runtime `json:"runtime"`

	// Metrics selects an optional metrics backend.
	Metrics Metrics `json:"metrics"`
}

// Parser configures how raw bytes become records.
type Parser struct {
	// Options is a free-form bag interpreted by the CSV reader. Typical keys:
	// comma (string), trim_space (bool), lazy_quotes (bool), encoding (string).
	Options Options `json:"options"`
}

// Storage selects the sink used to persist validated rows.
type Storage struct {
	// Kind selects the backend: "sqlite", "postgres", "mysql", or "mssql".
	Kind string `json:"kind"`

	// DB configures the selected backend.
	DB DBConfig `json:"db"`
}

// DBConfig configures a database sink.
type DBConfig struct {
	// DSN is the backend connection string. For sqlite it is a file path or
	// file: URI; when empty, the snapshot downloaded from the bucket is used.
	DSN string `json:"dsn"`

	// Table is the destination table name. Defaults to "uploads".
	Table string `json:"table"`

	// AutoCreateTable creates the destination table when it does not exist.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Runtime controls batching behavior.
type Runtime struct {
	// BatchSize is the chunk size for bulk inserts. Defaults to
	// DefaultBatchSize.
	BatchSize int `json:"batch_size"`
}

// Metrics selects a metrics backend.
type Metrics struct {
	// Backend is "pushgateway", "datadog", or "none"/"" for disabled.
	Backend string `json:"backend"`

	// PushgatewayURL is the Pushgateway base URL for the "pushgateway"
	// backend.
	PushgatewayURL string `json:"pushgateway_url"`

	// StatsdAddr is the DogStatsD address for the "datadog" backend.
	StatsdAddr string `json:"statsd_addr"`

	// Job labels pushed metrics. Defaults to "csvingest".
	Job string `json:"job"`
}

// Load decodes an Ingest config from a JSON file and applies defaults.
func Load(path string) (Ingest, error) {
	var c Ingest
	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		return c, fmt.Errorf("decode config %s: %w", path, err)
	}
	c.ApplyDefaults()
	return c, nil
}

// ApplyDefaults fills zero-valued fields with their documented defaults.
func (c *Ingest) ApplyDefaults() {
	if c.StoreKey == "" {
		c.StoreKey = DefaultStoreKey
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.Runtime.BatchSize == 0 {
		c.Runtime.BatchSize = DefaultBatchSize
	}
	if c.Storage.Kind == "" {
		c.Storage.Kind = "sqlite"
	}
	if c.Storage.DB.Table == "" {
		c.Storage.DB.Table = "uploads"
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "csvingest"
	}
	if c.Parser.Options == nil {
		c.Parser.Options = Options{}
	}
}
