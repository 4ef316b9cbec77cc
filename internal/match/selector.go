package match

import (
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
)

// Result is the outcome of matching one query against its candidate pool.
// Kcat is nil exactly when Score == ScoreNotFound. TempC is set only when an
// Arrhenius correction produced the value (and Source is empty then, since
// the number no longer belongs to a single measurement).
type Result struct {
	Score  int
	Level  Level
	Kcat   *float64
	Source kcat.SourceDB
	TempC  *float64
}

// NotFound reports whether the result is the no-match sentinel.
func (r Result) NotFound() bool { return r.Kcat == nil }

// Ranker annotates a candidate pool with sequence-identity percentages
// against the query's reference enzyme. Implemented by similarity.Ranker;
// nil disables identity ordering.
type Ranker interface {
	Annotate(q kcat.Query, pool []kcat.Candidate) []kcat.Candidate
}

// Selector scores candidate pools against one set of batch criteria.
type Selector struct {
	Criteria kcat.Criteria
	Agg      kcat.Aggregation
	Ranker   Ranker // optional
}

// scored pairs a candidate with its additive penalty and correction flag.
type scored struct {
	cand       kcat.Candidate
	score      int
	correction bool
}

// Best walks the relaxation levels in order and returns the lowest-penalty
// candidate of the first level with any gated survivor, or the ScoreNotFound
// sentinel when the pool is exhausted. Mutant candidates are removed before
// anything else; an unknown source tag inside a checker aborts with an error
// (pool-builder contract violation).
func (s *Selector) Best(q kcat.Query, pool []kcat.Candidate) (Result, error) {
	pool = FilterVariants(pool, s.Criteria.Variant)
	if len(pool) == 0 {
		return s.notFound(q), nil
	}

	correctable := Feasible(q, pool, s.Criteria)

	for _, level := range searchOrder {
		candidates := pool
		if level == LevelRelaxEnzyme && s.Ranker != nil {
			candidates = rankByIdentity(s.Ranker.Annotate(q, pool))
		}
		best, err := s.scanLevel(q, candidates, level, correctable)
		if err != nil {
			return Result{}, err
		}
		if len(best) == 0 {
			continue
		}
		return s.finish(q, pool, level, best), nil
	}
	return s.notFound(q), nil
}

// scanLevel scores every candidate passing the level's hard gates and
// returns the ones tying at the minimum score. Candidates whose running sum
// exceeds the best known score short-circuit to +Inf.
func (s *Selector) scanLevel(q kcat.Query, pool []kcat.Candidate, level Level, correctable bool) ([]scored, error) {
	g := levelGates[level]
	bestScore := math.MaxInt
	var best []scored

	for _, c := range pool {
		subPen, err := SubstratePenalty(c, q)
		if err != nil {
			return nil, err
		}
		enzPen := EnzymePenalty(c, q)
		orgPen := OrganismPenalty(c, s.Criteria)
		phPen := PHPenalty(c, s.Criteria)

		if g.enzyme && enzPen != 0 {
			continue
		}
		if g.organism && orgPen != 0 {
			continue
		}
		if g.substrate && subPen != 0 {
			continue
		}
		if g.ph && phPen != 0 {
			continue
		}

		// at gated levels phPen is necessarily 0; once the gate is
		// relaxed the graded pH penalty joins the sum
		score := enzPen + orgPen + subPen + phPen + VariantPenalty(c)
		if score > bestScore {
			continue // pruned, cannot beat the current best
		}
		var corrected bool
		if g.tempScored {
			var tempPen int
			tempPen, corrected = TempPenalty(c, s.Criteria, correctable)
			score += tempPen
		}

		switch {
		case score < bestScore:
			bestScore = score
			best = best[:0]
			best = append(best, scored{cand: c, score: score, correction: corrected})
		case score == bestScore:
			// tie, kept for the aggregation policy
			best = append(best, scored{cand: c, score: score, correction: corrected})
		}
	}
	return best, nil
}

// finish turns the tied best rows of a level into a Result, applying the
// aggregation policy and, when flagged, the Arrhenius correction.
func (s *Selector) finish(q kcat.Query, pool []kcat.Candidate, level Level, best []scored) Result {
	if level == LevelRelaxEnzyme {
		best = closestByIdentity(best)
	}
	res := Result{Score: best[0].score, Level: level}

	// An in-range measurement always beats an extrapolation at the same
	// score; the correction is the fallback when every tied row needs it.
	if measured := uncorrected(best); len(measured) > 0 {
		best = measured
	} else if v, _, ok := Correct(q, pool, s.Criteria); ok {
		res.Kcat = kcat.Ptr(v)
		res.TempC = kcat.Ptr(s.Criteria.TempRange.Mean())
		return res
	}

	switch s.Agg {
	case kcat.AggMean:
		sum := 0.0
		for _, b := range best {
			sum += b.cand.Value
		}
		res.Kcat = kcat.Ptr(sum / float64(len(best)))
		res.Source = best[0].cand.Source
	case kcat.AggMax:
		pick := best[0]
		for _, b := range best[1:] {
			if b.cand.Value > pick.cand.Value {
				pick = b
			}
		}
		res.Kcat = kcat.Ptr(pick.cand.Value)
		res.Source = pick.cand.Source
	default: // AggMin
		pick := best[0]
		for _, b := range best[1:] {
			if b.cand.Value < pick.cand.Value {
				pick = b
			}
		}
		res.Kcat = kcat.Ptr(pick.cand.Value)
		res.Source = pick.cand.Source
	}
	return res
}

// uncorrected returns the tied rows whose temperature needs no correction.
func uncorrected(best []scored) []scored {
	out := best[:0:0]
	for _, b := range best {
		if !b.correction {
			out = append(out, b)
		}
	}
	return out
}

func (s *Selector) notFound(q kcat.Query) Result {
	log.Warn().
		Str("ec", q.ECCode).
		Str("rxn", q.Rxn).
		Msg("no usable candidate, routing to prediction fallback")
	return Result{Score: ScoreNotFound, Level: LevelNoMatch}
}

// closestByIdentity narrows score-tied rows to the ones sharing the highest
// identity percentage, so the aggregation statistic runs over the nearest
// sequences only. Rows without an identity are kept only when none has one.
func closestByIdentity(best []scored) []scored {
	var top *float64
	for _, b := range best {
		if b.cand.Identity != nil && (top == nil || *b.cand.Identity > *top) {
			top = b.cand.Identity
		}
	}
	if top == nil {
		return best
	}
	out := best[:0:0]
	for _, b := range best {
		if b.cand.Identity != nil && *b.cand.Identity == *top {
			out = append(out, b)
		}
	}
	return out
}

// rankByIdentity stably orders a pool by identity percentage, highest first,
// rows without an identity last. Original order is preserved within ties and
// when no identities were assigned at all.
func rankByIdentity(pool []kcat.Candidate) []kcat.Candidate {
	out := make([]kcat.Candidate, len(pool))
	copy(out, pool)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Identity, out[j].Identity
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a > *b
	})
	return out
}
