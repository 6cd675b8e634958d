// Package extract reads the equivalence classes of a saturated e-graph back
// out in terms of external mutant identifiers.
package extract

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gnoswap-labs/cornelius/internal/egraph"
	"github.com/gnoswap-labs/cornelius/internal/peg"
)

// ErrUnknownIdentifier means a raw id was never ingested.
var ErrUnknownIdentifier = errors.New("unknown identifier")

// PrimaryID is the identifier reported for the original program.
const PrimaryID uint32 = 0

// RawID is an id from the subject file's identifier table.
type RawID uint32

// IDMapping maps raw ids to the classes they were inserted as. It is fixed
// once built; canonical classes are always obtained through the graph.
type IDMapping struct {
	ids map[RawID]peg.ID
}

// NewIDMapping copies entries into a mapping.
func NewIDMapping(entries map[RawID]peg.ID) IDMapping {
	ids := make(map[RawID]peg.ID, len(entries))
	for raw, id := range entries {
		ids[raw] = id
	}
	return IDMapping{ids: ids}
}

func (m IDMapping) Lookup(raw RawID) (peg.ID, bool) {
	id, ok := m.ids[raw]
	return id, ok
}

func (m IDMapping) Len() int {
	return len(m.ids)
}

// Mutant pairs a mutant identifier with the raw id of its term.
type Mutant struct {
	ID  uint32
	Raw RawID
}

// Result is the analysis of one subject.
type Result struct {
	// Score is the number of redundant members over all classes.
	Score int
	// Classes holds each group of two or more identifiers that share a
	// class, ascending, ordered by smallest member.
	Classes [][]uint32
	// PrimaryEquivalent lists mutants in the same class as the primary.
	PrimaryEquivalent []uint32
	// MutantRedundant is the part of Score not explained by
	// PrimaryEquivalent: mutants equivalent only to other mutants.
	MutantRedundant int
}

// Analyze groups the primary and mutants by canonical class.
func Analyze(g *egraph.EGraph, mapping IDMapping, primary RawID, mutants []Mutant) (Result, error) {
	resolve := func(raw RawID) (peg.ID, error) {
		id, ok := mapping.Lookup(raw)
		if !ok {
			return 0, fmt.Errorf("%w: raw id %d", ErrUnknownIdentifier, raw)
		}
		return g.Find(id), nil
	}

	primaryClass, err := resolve(primary)
	if err != nil {
		return Result{}, fmt.Errorf("primary: %w", err)
	}

	groups := map[peg.ID]map[uint32]bool{primaryClass: {PrimaryID: true}}
	for _, m := range mutants {
		class, err := resolve(m.Raw)
		if err != nil {
			return Result{}, fmt.Errorf("mutant %d: %w", m.ID, err)
		}
		if groups[class] == nil {
			groups[class] = make(map[uint32]bool)
		}
		groups[class][m.ID] = true
	}

	var res Result
	for class, members := range groups {
		if len(members) < 2 {
			continue
		}
		ids := make([]uint32, 0, len(members))
		for id := range members {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		res.Classes = append(res.Classes, ids)
		res.Score += len(ids) - 1

		if class == primaryClass {
			for _, id := range ids {
				if id != PrimaryID {
					res.PrimaryEquivalent = append(res.PrimaryEquivalent, id)
				}
			}
		}
	}
	sort.Slice(res.Classes, func(i, j int) bool { return res.Classes[i][0] < res.Classes[j][0] })
	res.MutantRedundant = res.Score - len(res.PrimaryEquivalent)
	return res, nil
}
