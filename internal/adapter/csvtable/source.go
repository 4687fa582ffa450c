package csvtable

import (
	"context"
	"sync"

	"github.com/couchcryptid/storm-impact-etl/internal/domain"
)

// FileSource reads the reconcile inputs from CSV files.
// It implements pipeline.TableSource.
type FileSource struct {
	TracksPath   string
	TriggersPath string
	ImpactsPath  string

	mu      sync.Mutex
	columns []string
}

// Tracks reads the track table.
func (s *FileSource) Tracks(_ context.Context) ([]domain.StormTrack, error) {
	return ReadFile(s.TracksPath, ReadTracks)
}

// Triggers reads the trigger table.
func (s *FileSource) Triggers(_ context.Context) ([]domain.TriggerFact, error) {
	return ReadFile(s.TriggersPath, ReadTriggers)
}

// Impacts reads the impact table and remembers its header for OutputColumns.
func (s *FileSource) Impacts(_ context.Context) ([]domain.ImpactRecord, error) {
	t, err := ReadFile(s.ImpactsPath, ReadImpacts)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.columns = t.Columns
	s.mu.Unlock()
	return t.Records, nil
}

// OutputColumns is the resolved table header for the last impact table read.
func (s *FileSource) OutputColumns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return OutputColumns(s.columns)
}
