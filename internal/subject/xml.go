package subject

import "encoding/xml"

// The wire types accept both spellings in circulation: the serializer
// writes `id_table` with `id`/`peg` attributes and `first`/`second`
// child elements, older files use `identifier_table` with
// `identifier`/`peg_representation` elements.

type xmlSubjects struct {
	XMLName      xml.Name          `xml:"subjects"`
	Subjects     []xmlSubject      `xml:"subject"`
	IDTable      *xmlTable         `xml:"id_table"`
	LegacyTable  *xmlTable         `xml:"identifier_table"`
	Equivalences []xmlEquivalences `xml:"node_equivalences"`
}

type xmlSubject struct {
	SourceFile string      `xml:"sourcefile,attr"`
	Method     string      `xml:"method,attr"`
	PID        string      `xml:"pid"`
	PIDAttr    string      `xml:"pid,attr"`
	Mutants    []xmlMutant `xml:"mutant"`
}

type xmlMutant struct {
	MID     string `xml:"mid,attr"`
	PID     string `xml:"pid,attr"`
	MIDElem string `xml:"mid"`
	PIDElem string `xml:"pid"`
}

type xmlTable struct {
	Entries []xmlEntry `xml:"dedup_entry"`
}

type xmlEntry struct {
	ID         string `xml:"id,attr"`
	PEG        string `xml:"peg,attr"`
	Identifier string `xml:"identifier"`
	PEGRepr    string `xml:"peg_representation"`
}

type xmlEquivalences struct {
	Pairs []xmlEquivalence `xml:"node_equivalence"`
}

type xmlEquivalence struct {
	First      string `xml:"first"`
	Second     string `xml:"second"`
	FirstAttr  string `xml:"first,attr"`
	SecondAttr string `xml:"second,attr"`
}

func either(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
