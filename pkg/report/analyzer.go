package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/difftest"
)

// Logger defines the interface for logging operations within the report
// package.
//
//go:generate mockgen -source=analyzer.go -destination=mock_logger.go -package=report
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Analyzer renders and persists the artifacts of one fuzzing run: a JSON
// results file with every test's inputs and raw payloads, and a plain-text
// report summarizing consistency across adapters and operations.
type Analyzer struct {
	outputDir string
	log       Logger
}

// NewAnalyzer creates an Analyzer writing into outputDir, creating the
// directory if needed. An empty outputDir falls back to DefaultOutputDir.
func NewAnalyzer(outputDir string, log Logger) (*Analyzer, error) {
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create output dir %s: %w", outputDir, err)
	}
	return &Analyzer{outputDir: outputDir, log: log}, nil
}

// SaveResults writes every test result to a JSON file and returns its path.
// An empty filename picks a timestamped default. Non-finite floats in inputs
// and payloads are stringified so the file always encodes.
func (a *Analyzer) SaveResults(results []*difftest.TestResult, filename string) (string, error) {
	if filename == "" {
		filename = fmt.Sprintf("fuzz_results_%s.json", time.Now().Format("20060102_150405"))
	}

	entries := make([]map[string]any, 0, len(results))
	for _, result := range results {
		entries = append(entries, map[string]any{
			"test_id":         result.TestID,
			"operation":       string(result.Operation),
			"inputs":          difftest.SanitizeInput(result.Input),
			"results":         difftest.SanitizeResults(result.Results),
			"inconsistencies": nonNilList(result.Inconsistencies),
			"execution_time":  result.DurationsSeconds(),
		})
	}

	body, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: encode results: %w", err)
	}

	path := filepath.Join(a.outputDir, filename)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("report: write results: %w", err)
	}

	a.log.Info("results saved", nil, map[string]interface{}{
		"path":  path,
		"tests": len(results),
	})
	return path, nil
}

// GenerateReport renders the run summary: totals, the consistency rate,
// per-adapter success rates (a success is a non-nil payload), per-operation
// statistics and the first ten inconsistencies.
func (a *Analyzer) GenerateReport(results []*difftest.TestResult) string {
	total := len(results)
	inconsistent := 0
	for _, result := range results {
		if !result.Consistent() {
			inconsistent++
		}
	}

	adapterStats := make(map[string]*successCount)
	for _, result := range results {
		for adapter, payload := range result.Results {
			stats := adapterStats[adapter]
			if stats == nil {
				stats = &successCount{}
				adapterStats[adapter] = stats
			}
			stats.total++
			if payload != nil {
				stats.success++
			}
		}
	}
	adapters := make([]string, 0, len(adapterStats))
	for adapter := range adapterStats {
		adapters = append(adapters, adapter)
	}
	sort.Strings(adapters)

	opStats := make(map[difftest.Operation]*inconsistencyCount)
	var opOrder []difftest.Operation
	for _, result := range results {
		stats := opStats[result.Operation]
		if stats == nil {
			stats = &inconsistencyCount{}
			opStats[result.Operation] = stats
			opOrder = append(opOrder, result.Operation)
		}
		stats.count++
		if !result.Consistent() {
			stats.inconsistencies++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n=== VDBMS Differential Fuzzing Test Report ===\n\n")
	fmt.Fprintf(&b, "Summary:\n")
	fmt.Fprintf(&b, "- Total Tests: %d\n", total)
	fmt.Fprintf(&b, "- Inconsistencies Found: %d\n", inconsistent)
	fmt.Fprintf(&b, "- Consistency Rate: %.1f%%\n", percent(total-inconsistent, total))

	fmt.Fprintf(&b, "\nDatabase Success Rates:\n")
	for _, adapter := range adapters {
		stats := adapterStats[adapter]
		fmt.Fprintf(&b, "- %s: %d/%d (%.1f%% success)\n",
			adapter, stats.success, stats.total, percent(stats.success, stats.total))
	}

	fmt.Fprintf(&b, "\nOperation Statistics:\n")
	for _, op := range opOrder {
		stats := opStats[op]
		fmt.Fprintf(&b, "- %s: %d tests, %d inconsistencies (%.1f%% consistency)\n",
			op, stats.count, stats.inconsistencies, percent(stats.count-stats.inconsistencies, stats.count))
	}

	var all []string
	for _, result := range results {
		for _, inc := range result.Inconsistencies {
			all = append(all, fmt.Sprintf("%s (%s): %s", result.TestID, result.Operation, inc))
		}
	}
	if len(all) > 0 {
		fmt.Fprintf(&b, "\nTop Inconsistencies:\n")
		for i, inc := range all[:min(10, len(all))] {
			fmt.Fprintf(&b, "%d. %s\n", i+1, inc)
		}
	}

	return b.String()
}

// SaveReport writes a rendered report to a text file and returns its path.
// An empty filename picks a timestamped default.
func (a *Analyzer) SaveReport(report string, filename string) (string, error) {
	if filename == "" {
		filename = fmt.Sprintf("fuzz_report_%s.txt", time.Now().Format("20060102_150405"))
	}

	path := filepath.Join(a.outputDir, filename)
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("report: write report: %w", err)
	}

	a.log.Info("report saved", nil, map[string]interface{}{"path": path})
	return path, nil
}

type successCount struct {
	success int
	total   int
}

type inconsistencyCount struct {
	count           int
	inconsistencies int
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// nonNilList keeps the JSON rendition a list even when nothing was found.
func nonNilList(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
