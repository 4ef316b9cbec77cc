// Package kcat holds the shared data model for turnover-number
// reconciliation: one Query per model reaction, Candidate rows normalized
// from the source databases, and the batch-wide matching Criteria.
package kcat

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// SourceDB tags the originating database of a candidate row.
type SourceDB string

const (
	SourceSabioRK SourceDB = "sabio_rk"
	SourceBrenda  SourceDB = "brenda"
)

// Variant is the measured enzyme form.
type Variant int

const (
	VariantWildtype Variant = iota
	VariantMutant
	VariantUnknown
)

func (v Variant) String() string {
	switch v {
	case VariantWildtype:
		return "wildtype"
	case VariantMutant:
		return "mutant"
	}
	return "unknown"
}

// ParseVariant maps free-text variant annotations onto the enum.
// Anything that is neither clearly wildtype nor clearly mutant is unknown.
func ParseVariant(s string) Variant {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "wildtype" || s == "wild-type" || s == "wild type":
		return VariantWildtype
	case strings.Contains(s, "mutant") || strings.Contains(s, "mutated"):
		return VariantMutant
	}
	return VariantUnknown
}

// Query is one row of the model-extraction table: a reaction direction with
// its EC code, metabolites and the accessions of the catalyzing proteins.
type Query struct {
	Rxn            string
	KeggReactionID string
	ECCode         string
	Direction      string
	SubstrateNames []string // index-aligned with SubstrateKEGG
	SubstrateKEGG  []string
	ProductNames   []string
	ProductKEGG    []string
	Genes          []string
	Accessions     []string // zero, one or several UniProt accessions
}

// Accession returns the single reference accession, or "" when the query has
// none or several (ambiguous references are never silently resolved).
func (q Query) Accession() string {
	if len(q.Accessions) == 1 {
		return q.Accessions[0]
	}
	return ""
}

// HasAccession reports membership of acc in the query's accession set.
func (q Query) HasAccession(acc string) bool {
	if acc == "" {
		return false
	}
	for _, a := range q.Accessions {
		if a == acc {
			return true
		}
	}
	return false
}

// Candidate is one normalized kinetic-parameter row from a source database.
// Nullable columns are pointers; Value is always a valid number (rows with
// unparseable values are dropped during normalization).
type Candidate struct {
	Accession      string
	Organism       string
	Substrate      string // raw semicolon-joined text, schema differs per source
	Product        string
	KeggReactionID string // only SABIO-RK provides one
	PH             *float64
	TempC          *float64
	Variant        Variant
	Value          float64
	Source         SourceDB
	Identity       *float64 // percent identity vs the query enzyme, set by the ranker
}

// Range is a closed numeric interval.
type Range struct {
	Min, Max float64
}

func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

func (r Range) Mean() float64 { return (r.Min + r.Max) / 2 }

func (r Range) String() string { return fmt.Sprintf("[%g, %g]", r.Min, r.Max) }

// Criteria are the batch-wide experimental conditions every query is
// matched against. Constant across one run.
type Criteria struct {
	Organism  string
	TempRange Range // °C
	PHRange   Range
	Variant   Variant // expected form, wildtype unless configured otherwise
}

// Aggregation selects the statistic applied to rows tying at the best score.
type Aggregation int

const (
	AggMin Aggregation = iota // conservative default: slowest rate wins
	AggMean
	AggMax
)

func (a Aggregation) String() string {
	switch a {
	case AggMean:
		return "mean"
	case AggMax:
		return "max"
	}
	return "min"
}

// ParseAggregation accepts min/mean/max.
func ParseAggregation(s string) (Aggregation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "min":
		return AggMin, nil
	case "mean":
		return AggMean, nil
	case "max":
		return AggMax, nil
	}
	return AggMin, fmt.Errorf("unknown aggregation %q (want min, mean or max)", s)
}

var fold = cases.Fold()

// FoldName canonicalizes a metabolite display name for comparison.
func FoldName(s string) string { return fold.String(strings.TrimSpace(s)) }

// SplitField splits a raw semicolon-joined database field into trimmed,
// non-empty parts.
func SplitField(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NameSet builds a case-folded membership set from metabolite names.
func NameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if f := FoldName(n); f != "" {
			set[f] = true
		}
	}
	return set
}

// FieldSet is NameSet over a raw semicolon-joined field.
func FieldSet(field string) map[string]bool { return NameSet(SplitField(field)) }

// Intersects reports whether any folded member of field is in set.
func Intersects(set map[string]bool, field string) bool {
	for _, p := range SplitField(field) {
		if set[FoldName(p)] {
			return true
		}
	}
	return false
}

// Ptr is a small helper for the pointer-typed nullable columns.
func Ptr(v float64) *float64 { return &v }
