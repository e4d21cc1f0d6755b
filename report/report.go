// Package report defines the final run report: the sole read-only
// contract between a finished simulation and the downstream
// analysis/plotting tooling.
//
// The JSON field names are the legacy ones the existing analyzers read
// (configuracao, resultados, desempenho, buffer_snapshots) and must not
// change. Go field names are idiomatic English.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/c360/prodline/errors"
)

// Configuration echoes the run parameters.
type Configuration struct {
	BufferCapacity int   `json:"capacidade_buffer"`
	NumProducers   int   `json:"num_produtores"`
	NumConsumers   int   `json:"num_consumidores"`
	TotalTimesteps int64 `json:"total_timesteps"`
}

// Results holds the final counters. The conservation property
// TotalProduced == TotalConsumed + RemainingInBuffer holds for every
// completed run.
type Results struct {
	TotalProduced     int64 `json:"total_produzido"`
	TotalConsumed     int64 `json:"total_consumido"`
	RemainingInBuffer int   `json:"itens_restantes_buffer"`
	ProducerWaits     int64 `json:"esperas_produtores"`
	ConsumerWaits     int64 `json:"esperas_consumidores"`
}

// Performance holds wall-clock throughput figures. Rates are zero when
// the elapsed time is zero.
type Performance struct {
	ElapsedSeconds  float64 `json:"tempo_execucao_segundos"`
	ProductionRate  float64 `json:"taxa_producao_por_segundo"`
	ConsumptionRate float64 `json:"taxa_consumo_por_segundo"`
}

// Report is the complete run report.
type Report struct {
	RunID       string        `json:"run_id,omitempty"`
	GeneratedAt time.Time     `json:"generated_at,omitempty"`
	Config      Configuration `json:"configuracao"`
	Results     Results       `json:"resultados"`
	Performance Performance   `json:"desempenho"`
	Snapshots   []int         `json:"buffer_snapshots"`
}

// NewPerformance derives throughput figures from counters and elapsed
// time, rounding to two decimals as the legacy report did.
func NewPerformance(produced, consumed int64, elapsed time.Duration) Performance {
	secs := elapsed.Seconds()
	p := Performance{ElapsedSeconds: round2(secs)}
	if secs > 0 {
		p.ProductionRate = round2(float64(produced) / secs)
		p.ConsumptionRate = round2(float64(consumed) / secs)
	}
	return p
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Save writes the report to a JSON file.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r.normalized(), "", "  ")
	if err != nil {
		return errors.WrapInvalid(err, "Report", "Save", "marshal report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapTransient(err, "Report", "Save", "write report file")
	}
	return nil
}

// Load reads a report from a JSON file.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Report", "Load", "read report file")
	}
	r := &Report{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, errors.WrapInvalid(err, "Report", "Load", "parse report file")
	}
	return r, nil
}

// normalized returns a copy whose snapshot slice is non-nil, so the
// JSON always carries a list for downstream readers.
func (r *Report) normalized() *Report {
	if r.Snapshots != nil {
		return r
	}
	copied := *r
	copied.Snapshots = []int{}
	return &copied
}

// Render writes the formatted text report.
func (r *Report) Render(w io.Writer) error {
	const rule = "======================================================================"

	_, err := fmt.Fprintf(w, `%[1]s
PRODUCTION LINE SIMULATION REPORT
%[1]s

[CONFIGURATION]
  Buffer Capacity:     %d
  Producers:           %d
  Consumers:           %d
  Total Timesteps:     %d

[RESULTS]
  Total Produced:      %d
  Total Consumed:      %d
  Remaining in Buffer: %d
  Producer Waits:      %d
  Consumer Waits:      %d

[PERFORMANCE]
  Elapsed Time:        %.2f seconds
  Production Rate:     %.2f units/second
  Consumption Rate:    %.2f units/second

%[1]s
`,
		rule,
		r.Config.BufferCapacity,
		r.Config.NumProducers,
		r.Config.NumConsumers,
		r.Config.TotalTimesteps,
		r.Results.TotalProduced,
		r.Results.TotalConsumed,
		r.Results.RemainingInBuffer,
		r.Results.ProducerWaits,
		r.Results.ConsumerWaits,
		r.Performance.ElapsedSeconds,
		r.Performance.ProductionRate,
		r.Performance.ConsumptionRate,
	)
	return err
}
