package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/events"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/fuzz"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/logger"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/metrics"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/milvus"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/pgvector"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/qdrant"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/redisearch"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/report"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/resultstore"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/runner"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/tracer"
	"github.com/Aleph-Alpha/vdbfuzz/pkg/vectordb"
)

// knownAdapters lists every backend the binary can drive, in the default
// comparison-reference order.
var knownAdapters = []string{"qdrant", "milvus", "pgvector", "redisearch"}

// FileConfig is the Go shape of the JSON configuration file: one block per
// package, every block optional. Blocks the file omits keep their package
// defaults.
type FileConfig struct {
	Logger       logger.Config      `json:"logger"`
	Metrics      metrics.Config     `json:"metrics"`
	Tracer       tracer.Config      `json:"tracer"`
	Adapters     []string           `json:"adapters"`
	Qdrant       qdrant.Config      `json:"qdrant"`
	Milvus       milvus.Config      `json:"milvus"`
	Pgvector     pgvector.Config    `json:"pgvector"`
	Redisearch   redisearch.Config  `json:"redisearch"`
	Fuzz         fuzz.Config        `json:"fuzz"`
	TestSettings runner.Config      `json:"test_settings"`
	Events       events.Config      `json:"events"`
	ResultStore  resultstore.Config `json:"resultstore"`
	Report       report.Config      `json:"report"`
}

// defaultFileConfig assembles the per-package defaults into a complete file.
func defaultFileConfig() FileConfig {
	return FileConfig{
		Logger:       logger.Config{Level: logger.Info},
		Metrics:      metrics.DefaultConfig(),
		Tracer:       tracer.DefaultConfig(),
		Adapters:     knownAdapters,
		Qdrant:       qdrant.DefaultConfig(),
		Milvus:       milvus.DefaultConfig(),
		Pgvector:     pgvector.DefaultConfig(),
		Redisearch:   redisearch.DefaultConfig(),
		Fuzz:         fuzz.DefaultConfig(),
		TestSettings: runner.DefaultConfig(),
		Events:       events.DefaultConfig(),
		ResultStore:  resultstore.DefaultConfig(),
		Report:       report.DefaultConfig(),
	}
}

// loadConfig reads the JSON config file, keeping defaults for anything the
// file omits. A missing file is not an error: the defaults are written to
// the path so a first run leaves behind a template to edit.
func loadConfig(path string) (FileConfig, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := defaultFileConfig()
		if err := writeConfig(path, cfg); err != nil {
			return FileConfig{}, err
		}
		return cfg, nil
	}
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := defaultFileConfig()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func writeConfig(path string, cfg FileConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// validate checks the configuration, refilling fixable gaps with defaults and
// returning the issues that need operator attention.
func (c *FileConfig) validate() []string {
	var issues []string

	if len(c.Adapters) == 0 {
		c.Adapters = knownAdapters
	}
	seen := make(map[string]bool, len(c.Adapters))
	for _, name := range c.Adapters {
		if seen[name] {
			issues = append(issues, fmt.Sprintf("adapter %q listed twice", name))
			continue
		}
		seen[name] = true

		switch name {
		case "qdrant", "milvus", "pgvector", "redisearch":
		default:
			issues = append(issues, fmt.Sprintf("unknown adapter %q", name))
		}
	}

	if c.Qdrant.Endpoint == "" {
		issues = append(issues, "qdrant: endpoint cannot be empty")
	}
	issues = append(issues, validatePort("qdrant", c.Qdrant.Port)...)

	if c.Milvus.Address == "" {
		issues = append(issues, "milvus: address cannot be empty")
	}

	if c.Pgvector.Host == "" {
		issues = append(issues, "pgvector: host cannot be empty")
	}
	issues = append(issues, validatePort("pgvector", c.Pgvector.Port)...)

	if c.Redisearch.Host == "" {
		issues = append(issues, "redisearch: host cannot be empty")
	}
	issues = append(issues, validatePort("redisearch", c.Redisearch.Port)...)

	if c.Fuzz.VectorDimension <= 0 {
		issues = append(issues, "fuzz: vector_dimension must be positive")
	}

	if c.TestSettings.NumTests <= 0 {
		c.TestSettings.NumTests = runner.DefaultNumTests
	}
	if c.TestSettings.EdgeCaseRatio < 0 {
		issues = append(issues, fmt.Sprintf("test_settings: edge_case_ratio cannot be negative, got %v", c.TestSettings.EdgeCaseRatio))
	}

	if c.ResultStore.Enabled && c.ResultStore.Host == "" {
		issues = append(issues, "resultstore: host cannot be empty when enabled")
	}

	if c.Report.Upload.Enabled {
		if c.Report.Upload.Endpoint == "" {
			issues = append(issues, "report: upload endpoint cannot be empty when enabled")
		}
		if c.Report.Upload.Bucket == "" {
			issues = append(issues, "report: upload bucket cannot be empty when enabled")
		}
	}

	return issues
}

func validatePort(name string, port int) []string {
	if port < 1 || port > 65535 {
		return []string{fmt.Sprintf("%s: port %d outside 1-65535", name, port)}
	}
	return nil
}

// buildAdapters instantiates the configured backends in config order, which
// the orchestrator treats as comparison-reference order.
func buildAdapters(cfg FileConfig, log *logger.Logger) ([]vectordb.Adapter, error) {
	adapters := make([]vectordb.Adapter, 0, len(cfg.Adapters))
	for _, name := range cfg.Adapters {
		switch name {
		case "qdrant":
			adapters = append(adapters, qdrant.New(cfg.Qdrant, log))
		case "milvus":
			adapters = append(adapters, milvus.New(cfg.Milvus, log))
		case "pgvector":
			adapters = append(adapters, pgvector.New(cfg.Pgvector, log))
		case "redisearch":
			adapters = append(adapters, redisearch.New(cfg.Redisearch, log))
		default:
			return nil, fmt.Errorf("unknown adapter %q", name)
		}
	}
	return adapters, nil
}
