// Package report writes analysis results: the per-file .equiv-class
// files and the coloured terminal summary.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/gnoswap-labs/cornelius/internal/extract"
	"github.com/gnoswap-labs/cornelius/internal/metrics"
	"github.com/gnoswap-labs/cornelius/internal/rewrite"
	"github.com/gnoswap-labs/cornelius/internal/subject"
)

const Ext = ".equiv-class"

var (
	headerStyle = color.New(color.FgCyan, color.Bold)
	labelStyle  = color.New(color.FgWhite)
	valueStyle  = color.New(color.FgHiBlue, color.Bold)
	foundStyle  = color.New(color.FgGreen, color.Bold)
	errorStyle  = color.New(color.FgRed, color.Bold)
	ruleStyle   = color.New(color.FgYellow, color.Bold)
)

// SubjectResult pairs a subject with its analysis.
type SubjectResult struct {
	Subject subject.Subject
	Result  extract.Result
}

// Path is where the classes for subjectFile are written inside dir.
func Path(dir, subjectFile string) string {
	return filepath.Join(dir, filepath.Base(subjectFile)+Ext)
}

// FormatSubject renders one subject's classes, one per line as ascending
// space-separated identifiers. Mutants outside every multi-member class
// get a line of their own; the primary alone is left out.
func FormatSubject(sr SubjectResult) string {
	classes := make([][]uint32, 0, len(sr.Result.Classes)+len(sr.Subject.Mutants))
	grouped := make(map[uint32]bool)
	for _, c := range sr.Result.Classes {
		classes = append(classes, c)
		for _, id := range c {
			grouped[id] = true
		}
	}
	for _, m := range sr.Subject.Mutants {
		if !grouped[m.ID] {
			grouped[m.ID] = true
			classes = append(classes, []uint32{m.ID})
		}
	}
	sort.SliceStable(classes, func(i, j int) bool { return classes[i][0] < classes[j][0] })

	lines := make([]string, 0, len(classes))
	for _, c := range classes {
		ids := make([]string, len(c))
		for i, id := range c {
			ids[i] = strconv.FormatUint(uint64(id), 10)
		}
		lines = append(lines, strings.Join(ids, " "))
	}
	return strings.Join(lines, "\n") + "\n"
}

// WriteEquivClasses writes the results for subjectFile into dir and
// returns the path written.
func WriteEquivClasses(dir, subjectFile string, results []SubjectResult) (string, error) {
	blocks := make([]string, len(results))
	for i, sr := range results {
		blocks[i] = FormatSubject(sr)
	}
	path := Path(dir, subjectFile)
	if err := os.WriteFile(path, []byte(strings.Join(blocks, "\n")), 0o644); err != nil {
		return "", fmt.Errorf("failed to write results to %s: %w", path, err)
	}
	return path, nil
}

// PrintFound announces the equivalences found in one file.
func PrintFound(w io.Writer, n int) {
	if n == 0 {
		return
	}
	foundStyle.Fprintf(w, "    [+] Found %d equivalences\n", n)
}

// PrintFailure reports a subject file that could not be processed.
func PrintFailure(w io.Writer, path string, err error) {
	errorStyle.Fprint(w, "error")
	fmt.Fprintf(w, ": processing subject file %s: %v\n", path, err)
}

// PrintSummary prints the closing SUMMARY block.
func PrintSummary(w io.Writer, m *metrics.RunMetrics) {
	headerStyle.Fprintln(w, "        SUMMARY")
	headerStyle.Fprintln(w, "        =======")
	width := 0
	lines := m.Lines()
	for _, l := range lines {
		width = max(width, len(l.Label))
	}
	for _, l := range lines {
		labelStyle.Fprintf(w, "%-*s ", width+1, l.Label+":")
		valueStyle.Fprintln(w, l.Value)
	}
	for _, f := range m.FailedFiles {
		errorStyle.Fprint(w, "  failed")
		fmt.Fprintf(w, " %s\n", f)
	}
}

// PrintRules lists a rule set, one rule per line.
func PrintRules(w io.Writer, rules []*rewrite.Rule) {
	width := 0
	for _, r := range rules {
		width = max(width, len(r.Name))
	}
	for _, r := range rules {
		ruleStyle.Fprintf(w, "%-*s ", width, r.Name)
		fmt.Fprintf(w, "%s => %s", r.LHS, r.RHS)
		for _, g := range r.Guards {
			fmt.Fprintf(w, "  if %s", g)
		}
		fmt.Fprintln(w)
	}
}
