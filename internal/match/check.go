// Package match implements the best-match selection core: independent
// criterion checkers, the relaxation-level state machine, the Arrhenius
// temperature corrector and the selector orchestrating them.
package match

import (
	"fmt"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
)

// Per-criterion penalty contributions. A candidate's score is the sum over
// all dimensions; 0 is a perfect match.
const (
	penEnzyme         = 2
	penOrganism       = 2
	penVariantUnknown = 1
	penPHUnknown      = 1
	penPHOutOfRange   = 2
	penSubstrate      = 3
	penTempUnknown    = 1
	penTempOutOfRange = 2
)

// ScoreNotFound is the sentinel emitted when no usable candidate exists.
// It sits above every reachable additive score.
const ScoreNotFound = 14

// EnzymePenalty is 0 when the candidate accession belongs to the query's
// accession set (any member counts), else 2.
func EnzymePenalty(c kcat.Candidate, q kcat.Query) int {
	if q.HasAccession(c.Accession) {
		return 0
	}
	return penEnzyme
}

// OrganismPenalty is 0 on an exact (case-sensitive) organism match, else 2.
func OrganismPenalty(c kcat.Candidate, crit kcat.Criteria) int {
	if c.Organism == crit.Organism {
		return 0
	}
	return penOrganism
}

// VariantPenalty is 0 for wildtype and 1 for unknown. Mutants are filtered
// out before scoring and must not reach the checkers.
func VariantPenalty(c kcat.Candidate) int {
	if c.Variant == kcat.VariantWildtype {
		return 0
	}
	return penVariantUnknown
}

// PHPenalty is 0 inside the range (inclusive), 1 when the candidate has no
// pH annotation, 2 when out of range.
func PHPenalty(c kcat.Candidate, crit kcat.Criteria) int {
	if c.PH == nil {
		return penPHUnknown
	}
	if crit.PHRange.Contains(*c.PH) {
		return 0
	}
	return penPHOutOfRange
}

// SubstratePenalty matches the candidate's reaction against the query's
// metabolites. SABIO-RK rows carrying the query's KEGG reaction ID accept on
// either substrate- or product-name overlap (direction-aware); every other
// case falls back to substrate-name overlap only. Matching is a case-folded
// set intersection over the semicolon-joined fields.
//
// An unrecognized source tag is a contract violation by the pool builder and
// is returned as an error, never as a soft penalty.
func SubstratePenalty(c kcat.Candidate, q kcat.Query) (int, error) {
	subs := kcat.NameSet(q.SubstrateNames)
	switch c.Source {
	case kcat.SourceSabioRK:
		if c.KeggReactionID != "" && c.KeggReactionID == q.KeggReactionID {
			if kcat.Intersects(subs, c.Substrate) || kcat.Intersects(kcat.NameSet(q.ProductNames), c.Product) {
				return 0, nil
			}
			return penSubstrate, nil
		}
		if kcat.Intersects(subs, c.Substrate) {
			return 0, nil
		}
		return penSubstrate, nil
	case kcat.SourceBrenda:
		// BRENDA has no reaction identifier, names only.
		if kcat.Intersects(subs, c.Substrate) {
			return 0, nil
		}
		return penSubstrate, nil
	}
	return 0, fmt.Errorf("match: unknown source database %q", c.Source)
}

// TempPenalty is 0 inside the range. Out-of-range or missing temperatures
// score 0 with needsCorrection=true when an Arrhenius extrapolation is
// feasible for this query (see Feasible); otherwise 1 (missing) or 2
// (out of range).
func TempPenalty(c kcat.Candidate, crit kcat.Criteria, correctable bool) (pen int, needsCorrection bool) {
	if c.TempC != nil && crit.TempRange.Contains(*c.TempC) {
		return 0, false
	}
	if correctable {
		return 0, true
	}
	if c.TempC == nil {
		return penTempUnknown, false
	}
	return penTempOutOfRange, false
}

// FilterVariants drops candidates whose variant contradicts the expected
// form: mutants never survive, unknowns always do. Idempotent.
func FilterVariants(pool []kcat.Candidate, expected kcat.Variant) []kcat.Candidate {
	out := make([]kcat.Candidate, 0, len(pool))
	for _, c := range pool {
		if c.Variant == expected || c.Variant == kcat.VariantUnknown {
			out = append(out, c)
		}
	}
	return out
}
