package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
)

func wildtype(acc, org, substrate string, ph, temp, value float64) kcat.Candidate {
	return kcat.Candidate{
		Accession: acc,
		Organism:  org,
		Substrate: substrate,
		PH:        kcat.Ptr(ph),
		TempC:     kcat.Ptr(temp),
		Value:     value,
		Variant:   kcat.VariantWildtype,
		Source:    kcat.SourceBrenda,
	}
}

var selQuery = kcat.Query{
	Rxn:            "PFK",
	ECCode:         "2.7.1.11",
	SubstrateNames: []string{"ATP", "D-Fructose 6-phosphate"},
	ProductNames:   []string{"ADP"},
	Accessions:     []string{"P0A796"},
}

func newSelector() *Selector {
	return &Selector{Criteria: testCriteria}
}

func TestBest_ExactMatch(t *testing.T) {
	pool := []kcat.Candidate{wildtype("P0A796", "Escherichia coli", "ATP", 7.0, 25, 120)}

	res, err := newSelector().Best(selQuery, pool)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, LevelExact, res.Level)
	require.NotNil(t, res.Kcat)
	assert.Equal(t, 120.0, *res.Kcat)
	assert.Equal(t, kcat.SourceBrenda, res.Source)
}

func TestBest_UncorrectableTemperatureStillReturned(t *testing.T) {
	// single observation at 50°C: no Arrhenius support, penalty 2, but the
	// row still wins at the exact level
	pool := []kcat.Candidate{wildtype("P0A796", "Escherichia coli", "ATP", 7.0, 50, 80)}

	res, err := newSelector().Best(selQuery, pool)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, LevelExact, res.Level)
	require.NotNil(t, res.Kcat)
	assert.Equal(t, 80.0, *res.Kcat)
}

func TestBest_ArrheniusCorrection(t *testing.T) {
	// two same-enzyme observations straddling the range enable correction
	pool := []kcat.Candidate{
		wildtype("P0A796", "Escherichia coli", "ATP", 7.0, 10, 15),
		wildtype("P0A796", "Escherichia coli", "ATP", 7.0, 50, 400),
	}

	res, err := newSelector().Best(selQuery, pool)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, LevelExact, res.Level)
	require.NotNil(t, res.Kcat)
	assert.Greater(t, *res.Kcat, 15.0)
	assert.Less(t, *res.Kcat, 400.0)
	require.NotNil(t, res.TempC, "corrected results carry the target temperature")
	assert.Equal(t, testCriteria.TempRange.Mean(), *res.TempC)
	assert.Empty(t, res.Source, "corrected values have no single source measurement")
}

func TestBest_EmptyPoolSentinel(t *testing.T) {
	res, err := newSelector().Best(selQuery, nil)
	require.NoError(t, err)
	assert.True(t, res.NotFound())
	assert.Equal(t, ScoreNotFound, res.Score)
	assert.Equal(t, LevelNoMatch, res.Level)
	assert.Nil(t, res.Kcat)
	assert.Empty(t, res.Source)
}

func TestBest_MutantOnlyPoolSentinel(t *testing.T) {
	c := wildtype("P0A796", "Escherichia coli", "ATP", 7.0, 25, 120)
	c.Variant = kcat.VariantMutant
	res, err := newSelector().Best(selQuery, []kcat.Candidate{c})
	require.NoError(t, err)
	assert.True(t, res.NotFound())
}

func TestBest_RelaxationLevels(t *testing.T) {
	foreignEnzyme := wildtype("Q99999", "Escherichia coli", "ATP", 7.0, 25, 50)
	foreignOrganism := wildtype("Q99999", "Homo sapiens", "ATP", 7.0, 25, 50)
	badConditions := wildtype("P0A796", "Escherichia coli", "ATP", 9.5, 25, 50)
	noSubstrate := wildtype("Q99999", "Homo sapiens", "pyruvate", 9.5, 50, 50)

	cases := []struct {
		name  string
		pool  []kcat.Candidate
		level Level
		score int
	}{
		{"enzyme relaxed", []kcat.Candidate{foreignEnzyme}, LevelRelaxEnzyme, 2},
		{"organism relaxed", []kcat.Candidate{foreignOrganism}, LevelRelaxOrganism, 4},
		{"conditions relaxed", []kcat.Candidate{badConditions}, LevelRelaxTempPH, 2},
		{"ec only", []kcat.Candidate{noSubstrate}, LevelECOnly, 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := newSelector().Best(selQuery, tc.pool)
			require.NoError(t, err)
			assert.Equal(t, tc.level, res.Level)
			assert.Equal(t, tc.score, res.Score)
			require.NotNil(t, res.Kcat)
		})
	}
}

// Once the pH gate is relaxed, the graded penalty distinguishes a
// missing annotation (1) from an out-of-range measurement (2).
func TestRelaxedLevelsScorePH(t *testing.T) {
	outOfRange := wildtype("P0A796", "Escherichia coli", "ATP", 9.5, 25, 50)
	unknown := wildtype("P0A796", "Escherichia coli", "ATP", 0, 25, 60)
	unknown.PH = nil

	res, err := newSelector().Best(selQuery, []kcat.Candidate{outOfRange})
	require.NoError(t, err)
	assert.Equal(t, LevelRelaxTempPH, res.Level)
	assert.Equal(t, 2, res.Score)

	res, err = newSelector().Best(selQuery, []kcat.Candidate{unknown})
	require.NoError(t, err)
	assert.Equal(t, LevelRelaxTempPH, res.Level)
	assert.Equal(t, 1, res.Score)

	// with both present the unannotated row wins on the lower penalty
	res, err = newSelector().Best(selQuery, []kcat.Candidate{outOfRange, unknown})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Score)
	require.NotNil(t, res.Kcat)
	assert.Equal(t, 60.0, *res.Kcat)
}

// An in-range measured row must win over an extrapolation tying at the
// same score, whatever order the pool arrives in.
func TestBest_MeasuredBeatsCorrectionOnTie(t *testing.T) {
	inRange := wildtype("P0A796", "Escherichia coli", "ATP", 7.0, 29, 120)
	outOfRange := wildtype("P0A796", "Escherichia coli", "ATP", 7.0, 50, 400)

	for name, pool := range map[string][]kcat.Candidate{
		"in-range first": {inRange, outOfRange},
		"in-range last":  {outOfRange, inRange},
	} {
		res, err := newSelector().Best(selQuery, pool)
		require.NoError(t, err, name)
		assert.Equal(t, 0, res.Score, name)
		assert.Equal(t, LevelExact, res.Level, name)
		require.NotNil(t, res.Kcat, name)
		assert.Equal(t, 120.0, *res.Kcat, name)
		assert.Equal(t, kcat.SourceBrenda, res.Source, name)
		assert.Nil(t, res.TempC, name)
	}
}

// Nested relaxations must never increase the achievable score (the
// Exact ⊂ RelaxEnzyme ⊂ RelaxOrganism ⊂ ECOnly chain).
func TestMonotonicityAcrossNestedLevels(t *testing.T) {
	s := newSelector()
	pool := []kcat.Candidate{
		wildtype("Q11111", "Escherichia coli", "ATP", 7.0, 25, 10),
		wildtype("Q22222", "Homo sapiens", "ATP", 6.8, 22, 20),
		wildtype("Q33333", "Homo sapiens", "pyruvate", 5.0, 60, 30),
	}

	chain := []Level{LevelExact, LevelRelaxEnzyme, LevelRelaxOrganism, LevelECOnly}
	prev := ScoreNotFound + 1
	for _, level := range chain {
		best, err := s.scanLevel(selQuery, pool, level, false)
		require.NoError(t, err)
		score := ScoreNotFound
		if len(best) > 0 {
			score = best[0].score
		}
		assert.LessOrEqual(t, score, prev, "level %s", level)
		prev = score
	}
}

func TestDeterminism(t *testing.T) {
	pool := []kcat.Candidate{
		wildtype("Q99999", "Homo sapiens", "ATP", 6.8, 22, 20),
		wildtype("Q88888", "Homo sapiens", "ATP", 6.8, 22, 15),
		wildtype("Q77777", "Homo sapiens", "pyruvate", 5.0, 60, 30),
	}
	s := newSelector()
	first, err := s.Best(selQuery, pool)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := s.Best(selQuery, pool)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAggregationPolicies(t *testing.T) {
	// two rows tying at the same (relaxed-organism) score
	a := wildtype("Q99999", "Homo sapiens", "ATP", 7.0, 25, 10)
	a.Source = kcat.SourceSabioRK
	b := wildtype("Q88888", "Homo sapiens", "ATP", 7.0, 25, 30)
	pool := []kcat.Candidate{a, b}

	for _, tc := range []struct {
		agg    kcat.Aggregation
		want   float64
		source kcat.SourceDB
	}{
		{kcat.AggMin, 10, kcat.SourceSabioRK},
		{kcat.AggMax, 30, kcat.SourceBrenda},
		{kcat.AggMean, 20, kcat.SourceSabioRK}, // mean reports the first tied row's source
	} {
		s := newSelector()
		s.Agg = tc.agg
		res, err := s.Best(selQuery, pool)
		require.NoError(t, err)
		require.NotNil(t, res.Kcat, "agg %s", tc.agg)
		assert.Equal(t, tc.want, *res.Kcat, "agg %s", tc.agg)
		assert.Equal(t, tc.source, res.Source, "agg %s", tc.agg)
	}
}

func TestBest_UnknownSourceIsError(t *testing.T) {
	c := wildtype("P0A796", "Escherichia coli", "ATP", 7.0, 25, 120)
	c.Source = "uniprot"
	_, err := newSelector().Best(selQuery, []kcat.Candidate{c})
	require.Error(t, err)
}

type fakeRanker struct{ identities map[string]float64 }

func (f fakeRanker) Annotate(q kcat.Query, pool []kcat.Candidate) []kcat.Candidate {
	out := make([]kcat.Candidate, len(pool))
	copy(out, pool)
	for i := range out {
		if id, ok := f.identities[out[i].Accession]; ok {
			out[i].Identity = kcat.Ptr(id)
		}
	}
	return out
}

func TestRelaxEnzymePrefersCloserSequence(t *testing.T) {
	// both rows tie on penalties; the higher identity must win even though
	// the min-value aggregation would otherwise prefer the slower far row
	near := wildtype("Q11111", "Escherichia coli", "ATP", 7.0, 25, 500)
	far := wildtype("Q22222", "Escherichia coli", "ATP", 7.0, 25, 1)
	s := newSelector()
	s.Ranker = fakeRanker{identities: map[string]float64{"Q11111": 92.5, "Q22222": 31.0}}

	res, err := s.Best(selQuery, []kcat.Candidate{far, near})
	require.NoError(t, err)
	assert.Equal(t, LevelRelaxEnzyme, res.Level)
	require.NotNil(t, res.Kcat)
	assert.Equal(t, 500.0, *res.Kcat)
}
