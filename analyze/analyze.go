// Package analyze compares finished run reports across configurations.
// It is a read-only consumer of the report structure: it loads report
// files, builds a comparison table, and summarizes the buffer-occupancy
// snapshot series.
package analyze

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/c360/prodline/errors"
	"github.com/c360/prodline/report"
)

// Analyzer accumulates reports for comparison.
type Analyzer struct {
	mu      sync.Mutex
	reports []*report.Report
}

// New creates an empty analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Add appends an in-memory report.
func (a *Analyzer) Add(r *report.Report) {
	a.mu.Lock()
	a.reports = append(a.reports, r)
	a.mu.Unlock()
}

// Reports returns the loaded reports in insertion order.
func (a *Analyzer) Reports() []*report.Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*report.Report, len(a.reports))
	copy(out, a.reports)
	return out
}

// LoadReports reads report files concurrently. Order of the given paths
// is preserved in the result. Any unreadable or invalid file fails the
// whole load.
func (a *Analyzer) LoadReports(paths ...string) error {
	if len(paths) == 0 {
		return errors.WrapInvalid(errors.ErrReportNotFound, "Analyzer", "LoadReports", "no report paths given")
	}

	loaded := make([]*report.Report, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			r, err := report.Load(path)
			if err != nil {
				return err
			}
			if err := r.Validate(); err != nil {
				return errors.Wrap(err, "Analyzer", "LoadReports", fmt.Sprintf("validate %s", path))
			}
			loaded[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	a.mu.Lock()
	a.reports = append(a.reports, loaded...)
	a.mu.Unlock()
	return nil
}

// Row is one line of the comparison table.
type Row struct {
	Index           int
	BufferCapacity  int
	NumProducers    int
	NumConsumers    int
	TotalTimesteps  int64
	Produced        int64
	Consumed        int64
	Remaining       int
	ProducerWaits   int64
	ConsumerWaits   int64
	ElapsedSeconds  float64
	ProductionRate  float64
	ConsumptionRate float64
}

// ComparisonTable builds one row per loaded report, in load order.
func (a *Analyzer) ComparisonTable() []Row {
	rows := make([]Row, 0, len(a.Reports()))
	for i, r := range a.Reports() {
		rows = append(rows, Row{
			Index:           i + 1,
			BufferCapacity:  r.Config.BufferCapacity,
			NumProducers:    r.Config.NumProducers,
			NumConsumers:    r.Config.NumConsumers,
			TotalTimesteps:  r.Config.TotalTimesteps,
			Produced:        r.Results.TotalProduced,
			Consumed:        r.Results.TotalConsumed,
			Remaining:       r.Results.RemainingInBuffer,
			ProducerWaits:   r.Results.ProducerWaits,
			ConsumerWaits:   r.Results.ConsumerWaits,
			ElapsedSeconds:  r.Performance.ElapsedSeconds,
			ProductionRate:  r.Performance.ProductionRate,
			ConsumptionRate: r.Performance.ConsumptionRate,
		})
	}
	return rows
}

// RenderTable writes the comparison table as aligned text.
func (a *Analyzer) RenderTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "RUN\tBUFFER\tPROD\tCONS\tTIMESTEPS\tPRODUCED\tCONSUMED\tREMAINING\tTIME(S)\tPROD/S\tCONS/S"); err != nil {
		return err
	}
	for _, row := range a.ComparisonTable() {
		if _, err := fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\n",
			row.Index, row.BufferCapacity, row.NumProducers, row.NumConsumers,
			row.TotalTimesteps, row.Produced, row.Consumed, row.Remaining,
			row.ElapsedSeconds, row.ProductionRate, row.ConsumptionRate); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// SeriesSummary condenses a report's occupancy snapshot series.
type SeriesSummary struct {
	Count       int
	Min         int
	Max         int
	Mean        float64
	Final       int
	Utilization float64 // mean occupancy as a fraction of capacity
}

// Summarize computes the occupancy summary for one report. An empty
// snapshot series yields a zero summary.
func Summarize(r *report.Report) SeriesSummary {
	snaps := r.Snapshots
	if len(snaps) == 0 {
		return SeriesSummary{}
	}

	s := SeriesSummary{
		Count: len(snaps),
		Min:   snaps[0],
		Max:   snaps[0],
		Final: snaps[len(snaps)-1],
	}
	sum := 0
	for _, v := range snaps {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		sum += v
	}
	s.Mean = float64(sum) / float64(len(snaps))
	if r.Config.BufferCapacity > 0 {
		s.Utilization = s.Mean / float64(r.Config.BufferCapacity)
	}
	return s
}
