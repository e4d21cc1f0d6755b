package analyze

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/prodline/report"
)

func sampleReport(capacity int, produced, consumed int64, snapshots []int) *report.Report {
	return &report.Report{
		RunID:       "test-run",
		GeneratedAt: time.Now(),
		Config: report.Configuration{
			BufferCapacity: capacity,
			NumProducers:   2,
			NumConsumers:   3,
			TotalTimesteps: 100,
		},
		Results: report.Results{
			TotalProduced:     produced,
			TotalConsumed:     consumed,
			RemainingInBuffer: int(produced - consumed),
			ProducerWaits:     4,
			ConsumerWaits:     7,
		},
		Performance: report.NewPerformance(produced, consumed, 2*time.Second),
		Snapshots:   snapshots,
	}
}

func TestLoadReports(t *testing.T) {
	dir := t.TempDir()

	paths := make([]string, 3)
	for i := range paths {
		r := sampleReport(10+i, int64(100+i), int64(95+i), []int{1, 2, 3})
		paths[i] = filepath.Join(dir, "r"+string(rune('0'+i))+".json")
		require.NoError(t, r.Save(paths[i]))
	}

	a := New()
	require.NoError(t, a.LoadReports(paths...))

	reports := a.Reports()
	require.Len(t, reports, 3)
	// Input order is preserved despite concurrent loading.
	for i, r := range reports {
		assert.Equal(t, 10+i, r.Config.BufferCapacity)
	}
}

func TestLoadReportsNoPaths(t *testing.T) {
	err := New().LoadReports()
	require.Error(t, err)
}

func TestLoadReportsMissingFile(t *testing.T) {
	err := New().LoadReports(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadReportsInvalidReport(t *testing.T) {
	dir := t.TempDir()

	// Conservation violated: produced != consumed + remaining.
	r := sampleReport(10, 100, 95, []int{1})
	r.Results.RemainingInBuffer = 0
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, r.Save(path))

	err := New().LoadReports(path)
	require.Error(t, err)
}

func TestComparisonTable(t *testing.T) {
	a := New()
	a.Add(sampleReport(10, 100, 95, []int{1, 2}))
	a.Add(sampleReport(50, 200, 198, []int{3}))

	rows := a.ComparisonTable()
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Index)
	assert.Equal(t, 10, rows[0].BufferCapacity)
	assert.Equal(t, int64(100), rows[0].Produced)
	assert.Equal(t, int64(95), rows[0].Consumed)
	assert.Equal(t, 5, rows[0].Remaining)
	assert.Equal(t, int64(4), rows[0].ProducerWaits)
	assert.Equal(t, int64(7), rows[0].ConsumerWaits)
	assert.Equal(t, 2.0, rows[0].ElapsedSeconds)
	assert.Equal(t, 50.0, rows[0].ProductionRate)

	assert.Equal(t, 2, rows[1].Index)
	assert.Equal(t, 50, rows[1].BufferCapacity)
	assert.Equal(t, 100.0, rows[1].ProductionRate)
}

func TestRenderTable(t *testing.T) {
	a := New()
	a.Add(sampleReport(10, 100, 95, []int{1, 2}))

	var buf bytes.Buffer
	require.NoError(t, a.RenderTable(&buf))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "BUFFER")
	assert.Contains(t, lines[1], "100")
	assert.Contains(t, lines[1], "50.00")
}

func TestSummarize(t *testing.T) {
	r := sampleReport(10, 100, 95, []int{2, 8, 5, 4})

	s := Summarize(r)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 2, s.Min)
	assert.Equal(t, 8, s.Max)
	assert.Equal(t, 4, s.Final)
	assert.InDelta(t, 4.75, s.Mean, 1e-9)
	assert.InDelta(t, 0.475, s.Utilization, 1e-9)
}

func TestSummarizeEmptySeries(t *testing.T) {
	r := sampleReport(10, 100, 100, nil)
	assert.Equal(t, SeriesSummary{}, Summarize(r))
}
