package subject

import (
	"fmt"

	"github.com/gnoswap-labs/cornelius/internal/egraph"
	"github.com/gnoswap-labs/cornelius/internal/extract"
	"github.com/gnoswap-labs/cornelius/internal/peg"
)

// Corpus is the ingested form of a File: every table entry added to a
// fresh e-graph, with declared equivalences already merged.
type Corpus struct {
	Graph   *egraph.EGraph
	Mapping extract.IDMapping
}

// Build ingests f. Ids must be strictly increasing, and every child must
// refer to an earlier entry.
func Build(f *File) (*Corpus, error) {
	g := egraph.New()
	entries := make(map[extract.RawID]peg.ID, len(f.Table))

	var prev extract.RawID
	for i, e := range f.Table {
		entry := fmt.Sprintf("id %d", e.Raw)
		if i > 0 && e.Raw <= prev {
			return nil, ingestionErr(f.Path, entry, "%w: %d follows %d", ErrNonIncreasingID, e.Raw, prev)
		}
		prev = e.Raw

		node, err := peg.ParseNode(e.PEG)
		if err != nil {
			return nil, &IngestionError{File: f.Path, Entry: entry, Err: err}
		}
		for j, c := range node.Children {
			raw := extract.RawID(c)
			id, ok := entries[raw]
			if !ok || raw >= e.Raw {
				return nil, ingestionErr(f.Path, entry, "%w: child %d refers to id %d", ErrUnresolvedReference, j, raw)
			}
			node.Children[j] = id
		}

		id, err := g.Add(node)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", f.Path, entry, err)
		}
		entries[e.Raw] = id
	}

	for i, eq := range f.Equivalences {
		a, aok := entries[eq.First]
		b, bok := entries[eq.Second]
		if !aok || !bok {
			return nil, ingestionErr(f.Path, fmt.Sprintf("node_equivalence #%d", i+1),
				"%w: %d = %d", ErrUnresolvedReference, eq.First, eq.Second)
		}
		g.Union(a, b)
	}
	g.Rebuild()
	if err := g.Err(); err != nil {
		return nil, &IngestionError{File: f.Path, Entry: "node_equivalences", Err: err}
	}

	return &Corpus{Graph: g, Mapping: extract.NewIDMapping(entries)}, nil
}

// Analyze runs extraction for one subject, reporting unknown ids as
// ingestion errors.
func (c *Corpus) Analyze(path string, s Subject) (extract.Result, error) {
	res, err := extract.Analyze(c.Graph, c.Mapping, s.Primary, s.Mutants)
	if err != nil {
		return extract.Result{}, &IngestionError{File: path, Entry: fmt.Sprintf("subject %q", s.Method), Err: err}
	}
	return res, nil
}
