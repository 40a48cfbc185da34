package records

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var (
	sourceLoads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "enrolytics_source_loads_total",
		Help: "Full reads of the record corpus from the source directory",
	})
	recordsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "enrolytics_records_loaded",
		Help: "Record count of the most recent source load",
	})
	rowsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "enrolytics_source_rows_dropped_total",
		Help: "Malformed rows dropped during source loads",
	})
)

// requiredColumns is the fixed source schema:
// date, state, district, pincode, age_0_5, age_5_17, age_18_plus.
const requiredColumns = 7

// Source yields the full record corpus.
type Source interface {
	Load(ctx context.Context) ([]Record, error)
}

// DirSource reads delimited records from every CSV file in a directory.
type DirSource struct {
	dir    string
	logger *slog.Logger
}

// NewDirSource constructs a source over the given directory.
func NewDirSource(dir string, logger *slog.Logger) *DirSource {
	return &DirSource{dir: dir, logger: logger}
}

// Load reads all source files concurrently and returns the combined record
// list. A missing or unreadable directory degrades to an empty corpus so
// downstream aggregation reports zero totals instead of failing.
func (s *DirSource) Load(ctx context.Context) ([]Record, error) {
	sourceLoads.Inc()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.ErrorContext(ctx, "record directory unreadable, serving empty corpus",
			"dir", s.dir,
			"error", err,
		)
		return nil, nil
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(s.dir, entry.Name()))
	}

	// Files are independent, so read them all concurrently and accumulate
	// after every read resolves. Per-slot results keep the merge race-free.
	results := make([][]Record, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			rows, err := s.loadFile(gctx, path)
			if err != nil {
				// One bad file must not sink the corpus.
				s.logger.WarnContext(gctx, "skipping unreadable source file", "file", path, "error", err)
				return nil
			}
			results[i] = rows
			return nil
		})
	}
	_ = g.Wait()

	var all []Record
	for _, rows := range results {
		all = append(all, rows...)
	}

	recordsLoaded.Set(float64(len(all)))
	s.logger.InfoContext(ctx, "record corpus loaded", "files", len(files), "records", len(all))
	return all, nil
}

func (s *DirSource) loadFile(ctx context.Context, path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Rows are validated per-row; a short row is dropped, not an error.
	r.FieldsPerRecord = -1

	var rows []Record
	header := true
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		rec, ok := s.parseRow(fields)
		if !ok {
			rowsDropped.Inc()
			continue
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// parseRow builds a record from one CSV row. Short rows and unparsable dates
// are dropped; unparsable counts default to zero.
func (s *DirSource) parseRow(fields []string) (Record, bool) {
	if len(fields) < requiredColumns {
		return Record{}, false
	}

	date, err := ParseDate(strings.TrimSpace(fields[0]))
	if err != nil {
		return Record{}, false
	}

	rec := Record{
		Date:      date,
		State:     strings.TrimSpace(fields[1]),
		District:  strings.TrimSpace(fields[2]),
		Pincode:   strings.TrimSpace(fields[3]),
		Age0to5:   parseCount(fields[4]),
		Age5to17:  parseCount(fields[5]),
		Age18Plus: parseCount(fields[6]),
	}
	rec.Total = rec.Age0to5 + rec.Age5to17 + rec.Age18Plus
	return rec, true
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
