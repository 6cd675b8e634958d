package subject

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/cornelius/internal/extract"
	"github.com/gnoswap-labs/cornelius/internal/peg"
)

const serializerXML = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<subjects>
  <subject method="Foo@bar(int,int)" sourcefile="Foo.java">
    <pid>2</pid>
    <mutant mid="7" pid="3"/>
    <mutant mid="8" pid="4"/>
  </subject>
  <id_table>
    <dedup_entry id="0" peg="3"/>
    <dedup_entry id="1" peg="4"/>
    <dedup_entry id="2" peg="(+ 0 1)"/>
    <dedup_entry id="3" peg="(+ 1 0)"/>
    <dedup_entry id="4" peg="&quot;x&quot;"/>
  </id_table>
  <node_equivalences>
    <node_equivalence>
      <first>4</first>
      <second>1</second>
    </node_equivalence>
  </node_equivalences>
</subjects>
`

const legacyXML = `<subjects>
  <subject sourcefile="A.java" method="A@f()">
    <pid>1</pid>
    <mutant mid="3" pid="0"/>
  </subject>
  <identifier_table>
    <dedup_entry><identifier>0</identifier><peg_representation>"a"</peg_representation></dedup_entry>
    <dedup_entry><identifier>1</identifier><peg_representation>(--- 0)</peg_representation></dedup_entry>
  </identifier_table>
  <node_equivalences>
    <node_equivalence first="0" second="1"/>
  </node_equivalences>
</subjects>
`

func TestDecodeSerializerFormat(t *testing.T) {
	t.Parallel()
	f, err := Decode(strings.NewReader(serializerXML))
	require.NoError(t, err)

	require.Len(t, f.Subjects, 1)
	s := f.Subjects[0]
	assert.Equal(t, "Foo.java", s.SourceFile)
	assert.Equal(t, "Foo@bar(int,int)", s.Method)
	assert.Equal(t, extract.RawID(2), s.Primary)
	assert.Equal(t, []extract.Mutant{{ID: 7, Raw: 3}, {ID: 8, Raw: 4}}, s.Mutants)

	require.Len(t, f.Table, 5)
	assert.Equal(t, Entry{Raw: 4, PEG: `"x"`}, f.Table[4])
	assert.Equal(t, []Equivalence{{First: 4, Second: 1}}, f.Equivalences)
	assert.Equal(t, 2, f.NumMutants())
}

func TestDecodeLegacyFormat(t *testing.T) {
	t.Parallel()
	f, err := Decode(strings.NewReader(legacyXML))
	require.NoError(t, err)

	assert.Equal(t, []Entry{{Raw: 0, PEG: `"a"`}, {Raw: 1, PEG: "(--- 0)"}}, f.Table)
	assert.Equal(t, []Equivalence{{First: 0, Second: 1}}, f.Equivalences)
	assert.Equal(t, extract.RawID(1), f.Subjects[0].Primary)
}

func TestBuild(t *testing.T) {
	t.Parallel()
	f, err := Decode(strings.NewReader(serializerXML))
	require.NoError(t, err)
	c, err := Build(f)
	require.NoError(t, err)

	assert.Equal(t, 5, c.Mapping.Len())
	x, _ := c.Mapping.Lookup(4)
	four, _ := c.Mapping.Lookup(1)
	assert.Equal(t, c.Graph.Find(x), c.Graph.Find(four), "declared equivalence holds before saturation")

	sum, _ := c.Mapping.Lookup(2)
	v, ok := c.Graph.Constant(sum)
	require.True(t, ok)
	assert.Equal(t, peg.IntValue{Val: 7}, v)

	res, err := c.Analyze(f.Path, f.Subjects[0])
	require.NoError(t, err)
	assert.Equal(t, [][]uint32{{0, 7}}, res.Classes)
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		table []Entry
		eqs   []Equivalence
		is    error
	}{
		{
			name:  "operator without children",
			table: []Entry{{Raw: 0, PEG: "(+ )"}},
			is:    peg.ErrArity,
		},
		{
			name:  "unknown operator",
			table: []Entry{{Raw: 0, PEG: `"a"`}, {Raw: 1, PEG: "(frob 0)"}},
			is:    peg.ErrUnknownOperator,
		},
		{
			name:  "non-increasing ids",
			table: []Entry{{Raw: 3, PEG: `"a"`}, {Raw: 3, PEG: `"b"`}},
			is:    ErrNonIncreasingID,
		},
		{
			name:  "forward reference",
			table: []Entry{{Raw: 0, PEG: `"a"`}, {Raw: 1, PEG: "(+ 0 2)"}, {Raw: 2, PEG: `"b"`}},
			is:    ErrUnresolvedReference,
		},
		{
			name:  "self reference",
			table: []Entry{{Raw: 0, PEG: "(--- 0)"}},
			is:    ErrUnresolvedReference,
		},
		{
			name:  "missing child",
			table: []Entry{{Raw: 0, PEG: `"a"`}, {Raw: 5, PEG: "(+ 0 3)"}},
			is:    ErrUnresolvedReference,
		},
		{
			name:  "dangling equivalence",
			table: []Entry{{Raw: 0, PEG: `"a"`}},
			eqs:   []Equivalence{{First: 0, Second: 9}},
			is:    ErrUnresolvedReference,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(&File{Path: "s.xml", Table: tt.table, Equivalences: tt.eqs})
			require.Error(t, err)

			var ingestErr *IngestionError
			require.True(t, errors.As(err, &ingestErr), "got %T: %v", err, err)
			assert.Equal(t, "s.xml", ingestErr.File)
			assert.ErrorIs(t, err, tt.is)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		doc  string
		is   error
	}{
		{"not xml", "<subjects><subject>", nil},
		{"no table", "<subjects></subjects>", ErrNoTable},
		{"negative id", `<subjects><id_table><dedup_entry id="-1" peg="0"/></id_table></subjects>`, ErrNegativeID},
		{"bad id", `<subjects><id_table><dedup_entry id="one" peg="0"/></id_table></subjects>`, ErrBadNumber},
		{"bad pid", `<subjects><subject method="m"><pid>x</pid></subject><id_table/></subjects>`, ErrBadNumber},
		{"bad mid", `<subjects><subject method="m"><pid>0</pid><mutant mid="" pid="0"/></subject><id_table/></subjects>`, ErrBadNumber},
		{"bad equivalence", `<subjects><id_table/><node_equivalences><node_equivalence first="0"/></node_equivalences></subjects>`, ErrBadNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			var ingestErr *IngestionError
			assert.ErrorAs(t, err, &ingestErr)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "subjects.xml")
	require.NoError(t, os.WriteFile(path, []byte(legacyXML), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)

	c, err := Build(f)
	require.NoError(t, err)
	res, err := c.Analyze(f.Path, f.Subjects[0])
	require.NoError(t, err)
	assert.Equal(t, [][]uint32{{0, 3}}, res.Classes)

	_, err = Load(filepath.Join(dir, "missing.xml"))
	var ingestErr *IngestionError
	require.ErrorAs(t, err, &ingestErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnalyzeUnknownPrimary(t *testing.T) {
	t.Parallel()
	f := &File{Path: "s.xml", Table: []Entry{{Raw: 0, PEG: `"a"`}}}
	c, err := Build(f)
	require.NoError(t, err)

	_, err = c.Analyze(f.Path, Subject{Method: "m", Primary: 4})
	var ingestErr *IngestionError
	require.ErrorAs(t, err, &ingestErr)
	assert.ErrorIs(t, err, extract.ErrUnknownIdentifier)
	assert.Contains(t, err.Error(), `subject "m"`)
}
