// Package similarity annotates candidate pools with percent sequence
// identity against the query's reference enzyme, used by the selector to
// break ties when the enzyme criterion is relaxed.
package similarity

import (
	"github.com/rs/zerolog/log"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
)

// SequenceSource resolves a protein accession to its amino-acid sequence.
// An empty string with nil error means "not found" (soft absence).
type SequenceSource interface {
	Sequence(accession string) (string, error)
}

// Ranker computes identity percentages for candidate pools.
type Ranker struct {
	Sequences SequenceSource
}

func NewRanker(src SequenceSource) *Ranker { return &Ranker{Sequences: src} }

// Annotate returns a copy of pool with the Identity column filled in.
// When the query has no single reference accession, or its sequence cannot
// be retrieved, every identity stays nil and the pool order and size are
// untouched; absence of a reference never reorders or drops candidates.
func (r *Ranker) Annotate(q kcat.Query, pool []kcat.Candidate) []kcat.Candidate {
	out := make([]kcat.Candidate, len(pool))
	copy(out, pool)

	ref := q.Accession()
	if ref == "" {
		return out
	}
	refSeq, err := r.Sequences.Sequence(ref)
	if err != nil || refSeq == "" {
		if err != nil {
			log.Warn().Str("accession", ref).Err(err).Msg("reference sequence unavailable")
		}
		return out
	}

	// one lookup per distinct accession; the source is expected to memoize
	identities := map[string]*float64{}
	for i := range out {
		acc := out[i].Accession
		if acc == "" {
			continue
		}
		id, seen := identities[acc]
		if !seen {
			seq, err := r.Sequences.Sequence(acc)
			switch {
			case err != nil:
				id = nil // lookup failed, identity unknown
			case seq == "":
				id = kcat.Ptr(0) // no entry: zero identity, not unknown
			default:
				id = kcat.Ptr(Identity(refSeq, seq))
			}
			identities[acc] = id
		}
		out[i].Identity = id
	}
	return out
}
