// Package metrics tallies what a batch run saw. A RunMetrics value is
// owned by whoever drives the batch and is passed explicitly; nothing here
// is global.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/gnoswap-labs/cornelius/internal/extract"
	"github.com/gnoswap-labs/cornelius/internal/saturate"
)

type RunMetrics struct {
	StopReasons  map[saturate.StopReason]int
	SubjectFiles int
	Subjects     int
	Mutants      int
	Equivalences int
	// Equivalences split by kind: mutants equivalent to their original,
	// and mutants redundant only with other mutants.
	PrimaryEquivalent int
	MutantRedundant   int
	Iterations        int
	Elapsed      time.Duration
	FailedFiles  []string
}

func New() *RunMetrics {
	return &RunMetrics{StopReasons: make(map[saturate.StopReason]int)}
}

// RecordRun adds one saturation run.
func (m *RunMetrics) RecordRun(rep saturate.Report) {
	if m.StopReasons == nil {
		m.StopReasons = make(map[saturate.StopReason]int)
	}
	m.StopReasons[rep.Reason]++
	m.Iterations += rep.Iterations
	m.Elapsed += rep.Elapsed
}

func (m *RunMetrics) RecordFile(subjects, mutants int) {
	m.SubjectFiles++
	m.Subjects += subjects
	m.Mutants += mutants
}

// RecordResult adds the equivalences found for one subject.
func (m *RunMetrics) RecordResult(r extract.Result) {
	m.Equivalences += r.Score
	m.PrimaryEquivalent += len(r.PrimaryEquivalent)
	m.MutantRedundant += r.MutantRedundant
}

func (m *RunMetrics) RecordFailure(path string) {
	m.FailedFiles = append(m.FailedFiles, path)
}

// Runs is the number of saturation runs recorded.
func (m *RunMetrics) Runs() int {
	n := 0
	for _, c := range m.StopReasons {
		n += c
	}
	return n
}

// Merge adds other's tallies into m.
func (m *RunMetrics) Merge(other *RunMetrics) {
	if other == nil {
		return
	}
	if m.StopReasons == nil {
		m.StopReasons = make(map[saturate.StopReason]int)
	}
	for r, c := range other.StopReasons {
		m.StopReasons[r] += c
	}
	m.SubjectFiles += other.SubjectFiles
	m.Subjects += other.Subjects
	m.Mutants += other.Mutants
	m.Equivalences += other.Equivalences
	m.PrimaryEquivalent += other.PrimaryEquivalent
	m.MutantRedundant += other.MutantRedundant
	m.Iterations += other.Iterations
	m.Elapsed += other.Elapsed
	m.FailedFiles = append(m.FailedFiles, other.FailedFiles...)
}

// WriteTo prints the tallies as plain `Label: value` lines.
func (m *RunMetrics) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, line := range m.Lines() {
		n, err := fmt.Fprintf(w, "%s: %s\n", line.Label, line.Value)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Line is one labelled figure of a summary.
type Line struct {
	Label string
	Value string
}

// Lines lists the figures in display order, stop reasons first.
func (m *RunMetrics) Lines() []Line {
	var lines []Line
	for _, r := range saturate.StopReasons() {
		lines = append(lines, Line{Label: r.String() + " Stops", Value: fmt.Sprint(m.StopReasons[r])})
	}
	return append(lines,
		Line{"Total Subject Files", fmt.Sprint(m.SubjectFiles)},
		Line{"Failed Subject Files", fmt.Sprint(len(m.FailedFiles))},
		Line{"Total Subjects", fmt.Sprint(m.Subjects)},
		Line{"Total Mutants", fmt.Sprint(m.Mutants)},
		Line{"Total Discovered Equivalences", fmt.Sprint(m.Equivalences)},
		Line{"  Equivalent to Original", fmt.Sprint(m.PrimaryEquivalent)},
		Line{"  Redundant Among Mutants", fmt.Sprint(m.MutantRedundant)},
		Line{"Total Iterations", fmt.Sprint(m.Iterations)},
	)
}
