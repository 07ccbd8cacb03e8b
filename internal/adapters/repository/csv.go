package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/okian/playoffs/internal/domain/dedupe"
	"github.com/okian/playoffs/internal/domain/model"
	"github.com/okian/playoffs/pkg/logger"
	"github.com/okian/playoffs/pkg/metrics"
)

const ctxCheckRows = 512

var _ Store = (*CSVStore)(nil)

// CSVStore reads records from a CSV file with a header row.
type CSVStore struct {
	path    string
	columns Columns
	logger  logger.Logger
}

// NewCSVStore creates a store for the file at path. The file is read on
// every Records call.
func NewCSVStore(path string, opts ...Option) *CSVStore {
	s := &CSVStore{
		path:    path,
		columns: DefaultColumns(),
		logger:  logger.Get().Named("repository"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Records implements Store.
func (s *CSVStore) Records(ctx context.Context) ([]model.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	records, err := ReadCSV(ctx, f, s.columns)
	if err != nil {
		s.logger.Error(ctx, "reading records failed", logger.String("path", s.path), logger.Error(err))
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	metrics.UpdateRecordsLoaded(len(records))
	s.logger.Info(ctx, "records loaded", logger.String("path", s.path), logger.Int("count", len(records)))
	return records, nil
}

type columnIndex struct {
	year, league, final, team int
}

func locate(header []string, cols Columns) (columnIndex, error) {
	find := func(name string) int {
		for i, h := range header {
			h = strings.TrimPrefix(h, "\ufeff")
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}
	idx := columnIndex{
		year:   find(cols.Year),
		league: find(cols.LeaguePosition),
		final:  find(cols.FinalPosition),
		team:   -1,
	}
	if cols.Team != "" {
		idx.team = find(cols.Team)
	}
	for name, i := range map[string]int{cols.Year: idx.year, cols.LeaguePosition: idx.league, cols.FinalPosition: idx.final} {
		if i < 0 {
			return idx, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	return idx, nil
}

// ReadCSV parses records from r. The first row must be a header naming at
// least the year, league position and final position columns. Every season
// slot (year, league position) may appear once.
func ReadCSV(ctx context.Context, r io.Reader, cols Columns) ([]model.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoRecords
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformedRecord, err)
	}
	idx, err := locate(header, cols)
	if err != nil {
		return nil, err
	}

	seen := dedupe.NewInMemoryDeduper()
	var records []model.Record
	for row := 0; ; row++ {
		if row%ctxCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metrics.RecordRejectedRow("malformed")
			return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
		line, _ := cr.FieldPos(0)

		rec, err := parseRow(fields, idx, cols)
		if err != nil {
			metrics.RecordRejectedRow("malformed")
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err)
		}
		if seen.SeenAndRecord(ctx, rec.Key()) {
			metrics.RecordRejectedRow("duplicate")
			return nil, fmt.Errorf("%w: line %d: year %d league position %d",
				ErrDuplicateRecord, line, rec.Year, rec.LeaguePosition)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

func parseRow(fields []string, idx columnIndex, cols Columns) (model.Record, error) {
	field := func(i int, name string) (int, error) {
		if i >= len(fields) {
			return 0, fmt.Errorf("column %q missing", name)
		}
		v, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", name, err)
		}
		return v, nil
	}

	var rec model.Record
	var err error
	if rec.Year, err = field(idx.year, cols.Year); err != nil {
		return rec, err
	}
	if rec.LeaguePosition, err = field(idx.league, cols.LeaguePosition); err != nil {
		return rec, err
	}
	if rec.FinalPosition, err = field(idx.final, cols.FinalPosition); err != nil {
		return rec, err
	}
	if idx.team >= 0 && idx.team < len(fields) {
		rec.Team = strings.TrimSpace(fields[idx.team])
	}

	switch {
	case rec.Year <= 0:
		return rec, fmt.Errorf("column %q: year %d must be positive", cols.Year, rec.Year)
	case rec.LeaguePosition < 1:
		return rec, fmt.Errorf("column %q: position %d must be at least 1", cols.LeaguePosition, rec.LeaguePosition)
	case rec.FinalPosition < 1:
		return rec, fmt.Errorf("column %q: position %d must be at least 1", cols.FinalPosition, rec.FinalPosition)
	}
	return rec, nil
}

// WriteCSV writes records with a header built from cols. The team column is
// written only when named.
func WriteCSV(w io.Writer, records []model.Record, cols Columns) error {
	cw := csv.NewWriter(w)
	header := []string{cols.Year}
	if cols.Team != "" {
		header = append(header, cols.Team)
	}
	header = append(header, cols.LeaguePosition, cols.FinalPosition)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{strconv.Itoa(r.Year)}
		if cols.Team != "" {
			row = append(row, r.Team)
		}
		row = append(row, strconv.Itoa(r.LeaguePosition), strconv.Itoa(r.FinalPosition))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
