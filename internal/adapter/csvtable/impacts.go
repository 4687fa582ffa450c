package csvtable

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-impact-etl/internal/domain"
)

// Impact table columns the reconciler reads.
const (
	ColEventName = "Event Name"
	ColStartYear = "Start Year"
	ColAsap0ID   = "asap0_id"
)

// ResolvedColumns are appended to the impact columns in the output table.
var ResolvedColumns = []string{"sid", "match_outcome", "run_id", "resolved_at"}

// ImpactTable is an EM-DAT export. Columns keeps the source header order so
// output mirrors the input.
type ImpactTable struct {
	Columns []string
	Records []domain.ImpactRecord
}

// ReadImpacts reads an impact table. Event Name may be empty; Start Year and
// asap0_id must be integers.
func ReadImpacts(r io.Reader, source string) (*ImpactTable, error) {
	rr, err := newRowReader(r, source, ColEventName, ColStartYear, ColAsap0ID)
	if err != nil {
		return nil, err
	}

	t := &ImpactTable{Columns: rr.header}
	for {
		rec, err := rr.next()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, err
		}

		ir := domain.ImpactRecord{EventName: rr.get(rec, ColEventName)}
		if ir.StartYear, err = rr.int(rec, ColStartYear); err != nil {
			return nil, err
		}
		if ir.Asap0ID, err = rr.int(rec, ColAsap0ID); err != nil {
			return nil, err
		}
		for i, h := range rr.header {
			if h == ColEventName || h == ColStartYear || h == ColAsap0ID || i >= len(rec) {
				continue
			}
			if ir.Extra == nil {
				ir.Extra = make(map[string]string, len(rr.header)-3)
			}
			ir.Extra[h] = rec[i]
		}
		t.Records = append(t.Records, ir)
	}
}

// OutputColumns is the resolved table header: the impact columns without
// any stale resolution columns, followed by ResolvedColumns.
func OutputColumns(impactColumns []string) []string {
	out := make([]string, 0, len(impactColumns)+len(ResolvedColumns))
	for _, c := range impactColumns {
		if !isResolvedColumn(c) {
			out = append(out, c)
		}
	}
	return append(out, ResolvedColumns...)
}

func isResolvedColumn(c string) bool {
	for _, r := range ResolvedColumns {
		if c == r {
			return true
		}
	}
	return false
}

func resolvedRecord(columns []string, ri domain.ResolvedImpact) []string {
	rec := make([]string, len(columns))
	for i, c := range columns {
		switch c {
		case ColEventName:
			rec[i] = ri.EventName
		case ColStartYear:
			rec[i] = strconv.Itoa(ri.StartYear)
		case ColAsap0ID:
			rec[i] = strconv.Itoa(ri.Asap0ID)
		case "sid":
			rec[i] = ri.SID
		case "match_outcome":
			rec[i] = string(ri.Outcome)
		case "run_id":
			rec[i] = ri.RunID
		case "resolved_at":
			rec[i] = ri.ResolvedAt.Format(time.RFC3339)
		default:
			rec[i] = ri.Extra[c]
		}
	}
	return rec
}

// WriteResolved writes a complete resolved table.
func WriteResolved(w io.Writer, columns []string, impacts []domain.ResolvedImpact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, ri := range impacts {
		if err := cw.Write(resolvedRecord(columns, ri)); err != nil {
			return fmt.Errorf("write resolved row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Sink streams resolved impacts into a CSV file. Rows go to a temporary file
// that replaces the destination only on Commit, so a failed run never leaves
// a partial table behind.
type Sink struct {
	path      string
	columnsFn func() []string
	columns   []string
	tmp       *os.File
	w         *csv.Writer
	// good is the temp file size after the header and every complete batch.
	good int64
}

// NewSink creates a sink writing to path. columns is called once, when the
// first batch arrives, so it may depend on tables loaded after construction.
func NewSink(path string, columns func() []string) *Sink {
	return &Sink{path: path, columnsFn: columns}
}

func (s *Sink) open() error {
	if s.tmp != nil {
		return nil
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	s.tmp = tmp
	s.w = csv.NewWriter(tmp)
	s.columns = s.columnsFn()
	if err := s.w.Write(s.columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return s.mark()
}

// mark flushes buffered rows and records the end of the last complete batch.
func (s *Sink) mark() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return err
	}
	off, err := s.tmp.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("locate temp file end: %w", err)
	}
	s.good = off
	return nil
}

// rollback drops whatever a failed batch wrote so a retry starts clean.
func (s *Sink) rollback(cause error) error {
	if err := s.tmp.Truncate(s.good); err != nil {
		return errors.Join(cause, fmt.Errorf("truncate temp file: %w", err))
	}
	if _, err := s.tmp.Seek(s.good, io.SeekStart); err != nil {
		return errors.Join(cause, fmt.Errorf("rewind temp file: %w", err))
	}
	s.w = csv.NewWriter(s.tmp)
	return cause
}

// LoadBatch appends rows. It implements pipeline.BatchLoader. A failed batch
// leaves no rows behind, so the batch may be retried.
func (s *Sink) LoadBatch(_ context.Context, batch []domain.ResolvedImpact) error {
	if err := s.open(); err != nil {
		return err
	}
	for _, ri := range batch {
		if err := s.w.Write(resolvedRecord(s.columns, ri)); err != nil {
			return s.rollback(fmt.Errorf("write resolved row: %w", err))
		}
	}
	if err := s.mark(); err != nil {
		return s.rollback(fmt.Errorf("flush resolved rows: %w", err))
	}
	return nil
}

// Commit moves the completed table into place.
func (s *Sink) Commit(_ context.Context) error {
	if err := s.open(); err != nil {
		return err
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	tmpPath := s.tmp.Name()
	if err := s.tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	s.tmp = nil
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename output file: %w", err)
	}
	return nil
}

// Close discards uncommitted rows.
func (s *Sink) Close() error {
	if s.tmp == nil {
		return nil
	}
	name := s.tmp.Name()
	_ = s.tmp.Close()
	s.tmp = nil
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove temp file: %w", err)
	}
	return nil
}
