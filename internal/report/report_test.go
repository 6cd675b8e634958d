package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/cornelius/internal/extract"
	"github.com/gnoswap-labs/cornelius/internal/metrics"
	"github.com/gnoswap-labs/cornelius/internal/rewrite"
	"github.com/gnoswap-labs/cornelius/internal/saturate"
	"github.com/gnoswap-labs/cornelius/internal/subject"
)

func sample() []SubjectResult {
	return []SubjectResult{
		{
			Subject: subject.Subject{Method: "A@f()", Mutants: []extract.Mutant{{ID: 7}, {ID: 3}, {ID: 9}, {ID: 4}}},
			Result:  extract.Result{Score: 2, Classes: [][]uint32{{0, 7}, {3, 9}}},
		},
		{
			Subject: subject.Subject{Method: "A@g()", Mutants: []extract.Mutant{{ID: 12}}},
		},
	}
}

func TestFormatSubject(t *testing.T) {
	t.Parallel()
	results := sample()
	assert.Equal(t, "0 7\n3 9\n4\n", FormatSubject(results[0]))
	assert.Equal(t, "12\n", FormatSubject(results[1]))
	assert.Equal(t, "\n", FormatSubject(SubjectResult{}), "a lone primary is not written")
}

func TestWriteEquivClasses(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path, err := WriteEquivClasses(dir, "some/where/Foo.xml", sample())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Foo.xml.equiv-class"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0 7\n3 9\n4\n\n12\n", string(data))

	_, err = WriteEquivClasses(filepath.Join(dir, "missing"), "Foo.xml", sample())
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()
	m := metrics.New()
	m.RecordFile(2, 5)
	m.RecordRun(saturate.Report{Reason: saturate.Saturated})
	m.RecordResult(extract.Result{Score: 3, PrimaryEquivalent: []uint32{4, 9}, MutantRedundant: 1})
	m.RecordFailure("broken.xml")

	var buf bytes.Buffer
	PrintSummary(&buf, m)
	out := buf.String()
	assert.Contains(t, out, "SUMMARY")
	assert.Contains(t, out, "Total Mutants:")
	assert.Contains(t, out, "Total Discovered Equivalences:")
	assert.Contains(t, out, "Equivalent to Original:")
	assert.Contains(t, out, "Redundant Among Mutants:")
	assert.Contains(t, out, "broken.xml")
}

func TestPrintFound(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	PrintFound(&buf, 0)
	assert.Empty(t, buf.String())
	PrintFound(&buf, 4)
	assert.Contains(t, buf.String(), "[+] Found 4 equivalences")

	buf.Reset()
	PrintFailure(&buf, "x.xml", errors.New("boom"))
	assert.Contains(t, buf.String(), "processing subject file x.xml: boom")
}

func TestPrintRules(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	PrintRules(&buf, rewrite.Lookup(rewrite.DefaultRules(), "add-ident", "commute-add"))
	out := buf.String()
	assert.Contains(t, out, "(+ ?a 0) => ?a  if is_not_const ?a")
	assert.Contains(t, out, "(+ ?a ?b) => (+ ?b ?a)")
}
