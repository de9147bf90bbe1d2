// Command vdbfuzz runs a differential fuzzing campaign against the configured
// vector database backends and writes its findings to the results directory.
//
// A missing config file is generated with defaults on first run. Exit code 0
// means the campaign ran to completion, inconsistencies included; non-zero is
// reserved for configuration and bootstrap failures.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/difftest"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/events"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/fuzz"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/logger"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/metrics"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/report"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/resultstore"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/runner"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/tracer"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("vdbfuzz", flag.ContinueOnError)
	configPath := flags.String("config", "config.json", "path to the JSON configuration file; written with defaults when missing")
	numTests := flags.Int("tests", 0, "number of tests to run; overrides the config when positive")
	seed := flags.Int64("seed", 0, "generator seed; overrides the config when non-zero")
	edgeCases := flags.Float64("edge-cases", -1, "edge-case draw probability; overrides the config when non-negative")
	outputDir := flags.String("output", "", "directory for result and report files; overrides the config when set")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *numTests > 0 {
		cfg.TestSettings.NumTests = *numTests
	}
	if *seed != 0 {
		cfg.Fuzz.Seed = *seed
	}
	if *edgeCases >= 0 {
		cfg.TestSettings.EdgeCaseRatio = *edgeCases
	}
	if *outputDir != "" {
		cfg.Report.OutputDir = *outputDir
	}

	if issues := cfg.validate(); len(issues) > 0 {
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "config: %s\n", issue)
		}
		return 1
	}

	runID := uuid.NewString()

	var (
		campaign *runner.Runner
		log      *logger.Logger
	)

	app := fx.New(
		logger.FXModule,
		metrics.FXModule,
		tracer.FXModule,
		fx.Provide(
			func() logger.Config { return cfg.Logger },
			func() metrics.Config { return cfg.Metrics },
			func() tracer.Config { return cfg.Tracer },
			func(l *logger.Logger) tracer.Logger { return l },
			func(l *logger.Logger) ([]vectordb.Adapter, error) { return buildAdapters(cfg, l) },
			func() *fuzz.Generator { return fuzz.NewGenerator(cfg.Fuzz) },
			func(adapters []vectordb.Adapter, m *metrics.Metrics, l *logger.Logger) *difftest.Orchestrator {
				return difftest.NewOrchestrator(adapters, l).WithCollectors(m.Collectors)
			},
			func(lc fx.Lifecycle, l *logger.Logger) ([]runner.Sink, error) {
				return buildSinks(lc, cfg, runID, l)
			},
			func(generator *fuzz.Generator, orchestrator *difftest.Orchestrator, adapters []vectordb.Adapter, sinks []runner.Sink, m *metrics.Metrics, tr *tracer.Tracer, l *logger.Logger) *runner.Runner {
				return runner.NewRunner(cfg.TestSettings, runID, generator, orchestrator, adapters, l).
					WithSinks(sinks...).
					WithCollectors(m.Collectors).
					WithTracer(tr)
			},
		),
		fx.WithLogger(func(l *logger.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Zap}
		}),
		fx.Populate(&campaign, &log),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		fmt.Fprintln(os.Stderr, "startup failed:", err)
		return 1
	}

	code := execute(campaign, cfg, log)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		log.Error("shutdown failed", err, nil)
	}
	return code
}

// buildSinks assembles the live sinks: the configured event transport plus,
// when enabled, the Postgres archive. Both close on app shutdown.
func buildSinks(lc fx.Lifecycle, cfg FileConfig, runID string, log *logger.Logger) ([]runner.Sink, error) {
	eventSink, err := events.NewSink(cfg.Events, runID, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return eventSink.Close() }})
	sinks := []runner.Sink{eventSink}

	if cfg.ResultStore.Enabled {
		store, err := resultstore.NewStore(cfg.ResultStore, runID, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return store.Close() }})
		sinks = append(sinks, store)
	}
	return sinks, nil
}

// execute drives the campaign from setup to teardown. Inconsistencies are
// findings, not failures: the exit code stays zero as long as the campaign
// ran and its artifacts landed on disk.
func execute(campaign *runner.Runner, cfg FileConfig, log *logger.Logger) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	campaign.Setup(ctx)
	campaign.HealthCheck(ctx)

	results, err := campaign.Run(ctx, cfg.TestSettings.NumTests)
	if err != nil {
		log.Warn("campaign stopped early", err, map[string]interface{}{
			"completed": len(results),
		})
	}

	// Teardown and artifact handling get a fresh context: the campaign's may
	// already be cancelled.
	tailCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	code := 0
	if len(results) > 0 {
		code = writeArtifacts(tailCtx, campaign.RunID(), cfg, results, log)
	}

	campaign.Cleanup(tailCtx)
	return code
}

// writeArtifacts saves the result file and the text report, prints the report
// and optionally ships both files to the object store under the run id.
func writeArtifacts(ctx context.Context, runID string, cfg FileConfig, results []*difftest.TestResult, log *logger.Logger) int {
	analyzer, err := report.NewAnalyzer(cfg.Report.OutputDir, log)
	if err != nil {
		log.Error("preparing output directory failed", err, nil)
		return 1
	}

	resultsPath, err := analyzer.SaveResults(results, "")
	if err != nil {
		log.Error("saving results failed", err, nil)
		return 1
	}

	text := analyzer.GenerateReport(results)
	reportPath, err := analyzer.SaveReport(text, "")
	if err != nil {
		log.Error("saving report failed", err, nil)
		return 1
	}
	fmt.Println(text)

	if cfg.Report.Upload.Enabled {
		uploader, err := report.NewUploader(cfg.Report.Upload, log)
		if err != nil {
			log.Error("object store unavailable, artifacts remain local", err, nil)
			return 0
		}
		for _, path := range []string{resultsPath, reportPath} {
			if _, err := uploader.UploadFile(ctx, path, runID); err != nil {
				log.Error("artifact upload failed, file remains local", err, map[string]interface{}{
					"path": path,
				})
			}
		}
	}
	return 0
}
