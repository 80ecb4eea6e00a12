// Command ingest runs the CSV ingest pipeline for a bucket notification
// event: it downloads the objects the event names, validates and loads their
// rows, and writes the refreshed database snapshot back to the bucket.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"

	"csvingest/internal/blob"
	"csvingest/internal/config"
	"csvingest/internal/ingest"
	"csvingest/internal/metrics"
	"csvingest/internal/metrics/datadog"
	"csvingest/internal/metrics/prompush"
	"csvingest/internal/record"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "csvingest/internal/storage/all"
)

func main() {
	var (
		cfgPath           string
		eventPath         string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/ingest.json", "ingest config JSON path")
	flag.StringVar(&eventPath, "event", "-", "bucket notification JSON path, '-' for stdin")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	level := hclog.Info
	if *verbose {
		level = hclog.Debug
	}
	log := hclog.New(&hclog.LoggerOptions{Name: "csvingest", Level: level})

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.ValidateIngest(cfg)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid: %v", cfgPath)
	}
	if validate {
		log.Info("configuration is valid", "path", cfgPath)
		return
	}

	setupMetrics(cfg, metricsBackendFlg, pushGatewayURLFlg, log)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", "error", err)
		}
	}()

	event, err := readEvent(eventPath)
	if err != nil {
		fatalf("%v", err)
	}

	ctx := context.Background()
	store, err := blob.NewS3Store(ctx, blob.S3Config{
		Bucket: cfg.Bucket,
		Region: cfg.Region,
	})
	if err != nil {
		fatalf("%v", err)
	}

	start := time.Now()
	sum, err := ingest.New(cfg, store, log).Run(ctx, event)
	if err != nil {
		fatalf("%v", err)
	}
	log.Info("run complete",
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"inserted", sum.Inserted,
		"elapsed", time.Since(start).Truncate(time.Millisecond),
	)
}

// readEvent reads the notification payload from a file or stdin.
func readEvent(path string) (record.Record, error) {
	var src io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open event: %w", err)
		}
		defer f.Close()
		src = f
	}
	return ingest.ParseEvent(src)
}

// setupMetrics installs a metrics backend per flag, env, then config file.
func setupMetrics(cfg config.Ingest, backendFlg, gwURLFlg string, log hclog.Logger) {
	backendName := backendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	if backendName == "" {
		backendName = cfg.Metrics.Backend
	}

	switch backendName {
	case "pushgateway":
		gwURL := gwURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = cfg.Metrics.PushgatewayURL
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(cfg.Metrics.Job, gwURL)
		if err != nil {
			log.Warn("metrics: pushgateway init failed, metrics disabled", "error", err)
			return
		}
		log.Info("metrics enabled", "backend", backendName, "url", gwURL, "job", cfg.Metrics.Job)
		metrics.SetBackend(b)

	case "datadog":
		addr := os.Getenv("DD_AGENT_ADDR")
		if addr == "" {
			addr = cfg.Metrics.StatsdAddr
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: addr, Namespace: cfg.Metrics.Job + "."})
		if err != nil {
			log.Warn("metrics: datadog init failed, metrics disabled", "error", err)
			return
		}
		log.Info("metrics enabled", "backend", backendName, "addr", addr)
		metrics.SetBackend(b)

	case "", "none":
		log.Debug("metrics disabled", "backend", backendName)

	default:
		log.Warn("metrics: unknown backend, metrics disabled", "backend", backendName)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
