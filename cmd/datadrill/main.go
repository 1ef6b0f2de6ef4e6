// Command datadrill runs a data-driven load test: records from a
// document source are mapped through a payload template and dispatched
// to an HTTP sink under the configured concurrency and rate policy.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/avrhamo/releases-sub000/internal/config"
	"github.com/avrhamo/releases-sub000/internal/core"
	"github.com/avrhamo/releases-sub000/internal/data"
	"github.com/avrhamo/releases-sub000/internal/metrics"
	"github.com/avrhamo/releases-sub000/internal/run"
	"github.com/avrhamo/releases-sub000/internal/sink"
)

const (
	ExitSuccess = 0
	ExitFailed  = 1
	ExitError   = 2
)

func main() {
	configPath := flag.String("config", "", "path to YAML run definition (required)")
	count := flag.Int("count", 0, "override run.count (0 = use config value)")
	output := flag.String("output", "text", "output format: text, json")
	quiet := flag.Bool("quiet", false, "suppress progress output during the run")
	verbose := flag.Bool("verbose", false, "enable debug output (request/response logging)")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "error: --config is required")
		flag.Usage()
		os.Exit(ExitError)
	}
	if *output != "text" && *output != "json" {
		fmt.Fprintf(os.Stderr, "error: --output must be 'text' or 'json', got %q\n", *output)
		os.Exit(ExitError)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	runCfg := cfg.RunConfig()
	if *count > 0 {
		runCfg.Count = *count
	}

	source, err := data.LoadFile(cfg.Source.File, filepath.Dir(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	var debugLogger *sink.DebugLogger
	if *verbose {
		debugLogger = sink.NewDebugLogger(os.Stderr)
	}
	target := sink.NewHTTPSink(cfg.Sink.Method, cfg.Sink.URL, &http.Client{
		Timeout: runCfg.RequestTimeout,
	}, debugLogger)

	controller, err := run.New(source, target, cfg.Source.Filter,
		cfg.PayloadTemplate(), cfg.MappingTable(), nil, runCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		if !*quiet {
			fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, stopping run...")
		}
		cancel()
	}()

	feed := metrics.NewFeed(controller.Aggregator(), time.Second, *quiet)
	feed.Printf("Datadrill starting: %d records from %s -> %s (%s mode)",
		source.Len(), cfg.Source.File, cfg.Sink.URL, runCfg.Mode)
	feed.Start()

	result := controller.Execute(ctx)

	feed.Stop()

	snapshot := controller.Aggregator().Snapshot(time.Now())
	if *output == "json" {
		metrics.FormatJSON(os.Stdout, snapshot, result)
	} else {
		metrics.FormatText(os.Stdout, snapshot, result)
	}

	switch result.Status {
	case core.StatusFailed:
		if *output == "text" {
			fmt.Fprintf(os.Stderr, "\nRun failed: %v\n", result.Cause)
		}
		os.Exit(ExitFailed)
	case core.StatusCancelled:
		// Stopped by user, not a crash.
		os.Exit(ExitSuccess)
	}
	os.Exit(ExitSuccess)
}
