package resultstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/vdbfuzz/pkg/difftest"
)

// TestRecord is one archived test result. Inputs, payloads and timings are
// stored as jsonb so inconsistency hunts can query into them with Postgres
// JSON operators instead of re-parsing result files.
type TestRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	RunID     string `gorm:"type:varchar(64);not null;index" json:"run_id"`
	TestID    string `gorm:"type:varchar(64);not null;index" json:"test_id"`
	Operation string `gorm:"type:varchar(32);index" json:"operation"`

	Input           string `gorm:"type:jsonb" json:"input"`
	Results         string `gorm:"type:jsonb" json:"results"`
	Durations       string `gorm:"type:jsonb" json:"durations"`
	Inconsistencies string `gorm:"type:jsonb" json:"inconsistencies"`

	Consistent         bool `gorm:"index" json:"consistent"`
	InconsistencyCount int  `json:"inconsistency_count"`
}

// Persist archives one test result. Payloads are sanitized before encoding
// because edge-case inputs deliberately carry NaN and infinite floats that
// encoding/json rejects.
func (s *Store) Persist(ctx context.Context, result *difftest.TestResult) error {
	record, err := s.newRecord(result)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("resultstore: save %s: %w", result.TestID, err)
	}

	s.log.Debug("archived test result", nil, map[string]interface{}{
		"test_id":    result.TestID,
		"operation":  string(result.Operation),
		"consistent": result.Consistent(),
	})
	return nil
}

func (s *Store) newRecord(result *difftest.TestResult) (*TestRecord, error) {
	input, err := encodeColumn(difftest.SanitizeInput(result.Input))
	if err != nil {
		return nil, fmt.Errorf("resultstore: encode input of %s: %w", result.TestID, err)
	}
	results, err := encodeColumn(difftest.SanitizeResults(result.Results))
	if err != nil {
		return nil, fmt.Errorf("resultstore: encode results of %s: %w", result.TestID, err)
	}
	durations, err := encodeColumn(result.DurationsSeconds())
	if err != nil {
		return nil, fmt.Errorf("resultstore: encode durations of %s: %w", result.TestID, err)
	}
	inconsistencies, err := encodeColumn(inconsistencyList(result.Inconsistencies))
	if err != nil {
		return nil, fmt.Errorf("resultstore: encode inconsistencies of %s: %w", result.TestID, err)
	}

	return &TestRecord{
		RunID:              s.runID,
		TestID:             result.TestID,
		Operation:          string(result.Operation),
		Input:              input,
		Results:            results,
		Durations:          durations,
		Inconsistencies:    inconsistencies,
		Consistent:         result.Consistent(),
		InconsistencyCount: len(result.Inconsistencies),
	}, nil
}

func encodeColumn(v any) (string, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// inconsistencyList keeps the jsonb column a list even when there is nothing
// to report; a nil slice would encode as SQL-unfriendly "null".
func inconsistencyList(inconsistencies []string) []string {
	if inconsistencies == nil {
		return []string{}
	}
	return inconsistencies
}
