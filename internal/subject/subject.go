// Package subject reads subject files: the shared table of PEG terms, the
// subjects (an original method and its mutants) that refer into it, and
// declared equivalences between table entries.
package subject

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gnoswap-labs/cornelius/internal/extract"
)

// Subject is one original method and its mutants.
type Subject struct {
	SourceFile string
	Method     string
	Primary    extract.RawID
	Mutants    []extract.Mutant
}

// Entry is one row of the identifier table.
type Entry struct {
	Raw extract.RawID
	PEG string
}

// Equivalence declares two table entries equal.
type Equivalence struct {
	First, Second extract.RawID
}

// File is a decoded subject file.
type File struct {
	Path         string
	Subjects     []Subject
	Table        []Entry
	Equivalences []Equivalence
}

// NumMutants is the total number of mutants over all subjects.
func (f *File) NumMutants() int {
	n := 0
	for _, s := range f.Subjects {
		n += len(s.Mutants)
	}
	return n
}

// Load reads and decodes the subject file at path.
func Load(path string) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, &IngestionError{File: path, Err: err}
	}
	defer fd.Close()

	f, err := decode(fd, path)
	if err != nil {
		return nil, err
	}
	f.Path = path
	return f, nil
}

// Decode reads a subject file from r.
func Decode(r io.Reader) (*File, error) {
	return decode(r, "")
}

func decode(r io.Reader, path string) (*File, error) {
	var doc xmlSubjects
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &IngestionError{File: path, Err: err}
	}

	table := doc.IDTable
	if table == nil {
		table = doc.LegacyTable
	}
	if table == nil {
		return nil, &IngestionError{File: path, Err: ErrNoTable}
	}

	f := &File{Path: path}
	for i, e := range table.Entries {
		entry := fmt.Sprintf("entry #%d", i+1)
		raw, err := parseRaw(either(e.ID, e.Identifier))
		if err != nil {
			return nil, &IngestionError{File: path, Entry: entry, Err: err}
		}
		f.Table = append(f.Table, Entry{Raw: raw, PEG: strings.TrimSpace(either(e.PEG, e.PEGRepr))})
	}

	for i, s := range doc.Subjects {
		entry := fmt.Sprintf("subject %q", s.Method)
		pid, err := parseRaw(either(strings.TrimSpace(s.PID), s.PIDAttr))
		if err != nil {
			return nil, &IngestionError{File: path, Entry: entry, Err: fmt.Errorf("pid: %w", err)}
		}
		sub := Subject{SourceFile: s.SourceFile, Method: s.Method, Primary: pid}
		for j, m := range s.Mutants {
			mid, err := parseNumber(either(m.MID, strings.TrimSpace(m.MIDElem)))
			if err != nil {
				return nil, ingestionErr(path, entry, "mutant #%d: mid: %w", j+1, err)
			}
			mpid, err := parseRaw(either(m.PID, strings.TrimSpace(m.PIDElem)))
			if err != nil {
				return nil, ingestionErr(path, entry, "mutant %d: pid: %w", mid, err)
			}
			sub.Mutants = append(sub.Mutants, extract.Mutant{ID: mid, Raw: mpid})
		}
		if sub.Method == "" {
			sub.Method = "subject#" + strconv.Itoa(i+1)
		}
		f.Subjects = append(f.Subjects, sub)
	}

	for _, eqs := range doc.Equivalences {
		for i, p := range eqs.Pairs {
			entry := fmt.Sprintf("node_equivalence #%d", i+1)
			first, err := parseRaw(either(strings.TrimSpace(p.First), p.FirstAttr))
			if err != nil {
				return nil, &IngestionError{File: path, Entry: entry, Err: err}
			}
			second, err := parseRaw(either(strings.TrimSpace(p.Second), p.SecondAttr))
			if err != nil {
				return nil, &IngestionError{File: path, Entry: entry, Err: err}
			}
			f.Equivalences = append(f.Equivalences, Equivalence{First: first, Second: second})
		}
	}
	return f, nil
}

// parseRaw parses a table id. Negative ids get ErrNegativeID.
func parseRaw(s string) (extract.RawID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrBadNumber, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w %d", ErrNegativeID, v)
	}
	if v > int64(^uint32(0)) {
		return 0, fmt.Errorf("%w %q: out of range", ErrBadNumber, s)
	}
	return extract.RawID(v), nil
}

func parseNumber(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrBadNumber, s)
	}
	return uint32(v), nil
}
