package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of one case.
type Result struct {
	Case       Case
	Lhs, Rhs   string
	Mode       Mode
	MaxDiff    float64
	Mismatches int
	Elapsed    time.Duration
	Err        error
}

// Passed reports whether both functions ran and agreed.
func (r Result) Passed() bool { return r.Err == nil }

// Report collects the results of one or more sweeps.
type Report struct {
	RunID   string
	Started time.Time
	Results []Result
}

// NewReport returns an empty report with a fresh run id.
func NewReport() *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
}

// Add appends results to the report.
func (r *Report) Add(results ...Result) {
	r.Results = append(r.Results, results...)
}

// Merge appends the results of other.
func (r *Report) Merge(other *Report) {
	if other != nil {
		r.Add(other.Results...)
	}
}

// Failed returns the results that did not pass.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Passed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Summary aggregates a report.
type Summary struct {
	RunID   string        `json:"run_id"`
	Cases   int           `json:"cases"`
	Passed  int           `json:"passed"`
	Failed  int           `json:"failed"`
	MaxDiff float64       `json:"max_diff"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

func (s Summary) String() string {
	return fmt.Sprintf("run %s: %d cases, %d passed, %d failed, max diff %g in %s",
		s.RunID, s.Cases, s.Passed, s.Failed, s.MaxDiff, s.Elapsed.Round(time.Millisecond))
}

// Summary returns the aggregate counts of the report.
func (r *Report) Summary() Summary {
	s := Summary{RunID: r.RunID, Cases: len(r.Results)}
	for _, res := range r.Results {
		if res.Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
		if res.MaxDiff > s.MaxDiff {
			s.MaxDiff = res.MaxDiff
		}
		s.Elapsed += res.Elapsed
	}
	return s
}

var csvHeader = []string{
	"run_id", "lhs", "rhs", "mode",
	"batch_size", "input_channels", "input_height", "input_width",
	"output_channels", "filter_height", "filter_width", "output_height", "output_width",
	"stride", "padding", "groups",
	"max_diff", "mismatches", "time_seconds", "error",
}

// WriteCSV writes one row per result, preceded by a header.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, res := range r.Results {
		c := res.Case
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		record := []string{
			r.RunID, res.Lhs, res.Rhs, res.Mode.String(),
			strconv.Itoa(c.BatchSize), strconv.Itoa(c.InputChannels),
			strconv.Itoa(c.InputHeight), strconv.Itoa(c.InputWidth),
			strconv.Itoa(c.OutputChannels), strconv.Itoa(c.FilterHeight),
			strconv.Itoa(c.FilterWidth), strconv.Itoa(c.OutputHeight),
			strconv.Itoa(c.OutputWidth), strconv.Itoa(c.Stride),
			strconv.Itoa(c.Padding), strconv.Itoa(c.Groups),
			fmt.Sprintf("%.6g", res.MaxDiff),
			strconv.Itoa(res.Mismatches),
			fmt.Sprintf("%.4f", res.Elapsed.Seconds()),
			errText,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
