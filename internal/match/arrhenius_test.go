package match

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
)

// synthesize builds a candidate obeying ln(k) = lnA - Ea/(R·T) exactly.
func synthesize(acc string, tempC, lnA, ea float64) kcat.Candidate {
	tK := tempC + kelvinOffset
	return kcat.Candidate{
		Accession: acc,
		Source:    kcat.SourceBrenda,
		PH:        kcat.Ptr(7.0),
		TempC:     kcat.Ptr(tempC),
		Value:     math.Exp(lnA - ea/(gasConstant*tK)),
		Variant:   kcat.VariantWildtype,
	}
}

func TestArrheniusRoundTrip(t *testing.T) {
	const ea = 80000.0
	const lnA = 20.0
	q := kcat.Query{Accessions: []string{"P0A796"}}
	crit := kcat.Criteria{
		TempRange: kcat.Range{Min: 28, Max: 32},
		PHRange:   kcat.Range{Min: 6, Max: 8},
	}
	pool := []kcat.Candidate{
		synthesize("P0A796", 20, lnA, ea),
		synthesize("P0A796", 40, lnA, ea),
	}

	require.True(t, Feasible(q, pool, crit))
	got, fit, ok := Correct(q, pool, crit)
	require.True(t, ok)

	assert.InDelta(t, ea, fit.Ea, 1e-6, "two exact points must recover Ea")
	assert.InDelta(t, 1.0, fit.RSquared, 1e-12)

	want := math.Exp(lnA - ea/(gasConstant*(30+kelvinOffset)))
	assert.InDelta(t, want, got, want*1e-9, "extrapolation at the target mean (30°C)")
}

func TestArrheniusInfeasible(t *testing.T) {
	q := kcat.Query{Accessions: []string{"P0A796"}}
	crit := kcat.Criteria{TempRange: kcat.Range{Min: 20, Max: 30}, PHRange: kcat.Range{Min: 6, Max: 8}}

	single := []kcat.Candidate{synthesize("P0A796", 50, 20, 80000)}
	assert.False(t, Feasible(q, single, crit), "one observation is not enough")

	// two observations but at the same temperature
	dup := []kcat.Candidate{synthesize("P0A796", 50, 20, 80000), synthesize("P0A796", 50, 21, 80000)}
	assert.False(t, Feasible(q, dup, crit))

	// two temperatures but on a different enzyme
	other := []kcat.Candidate{synthesize("Q99999", 20, 20, 80000), synthesize("Q99999", 40, 20, 80000)}
	assert.False(t, Feasible(q, other, crit))

	_, _, ok := Correct(q, single, crit)
	assert.False(t, ok)
}

func TestArrheniusPHFilter(t *testing.T) {
	q := kcat.Query{Accessions: []string{"P0A796"}}
	crit := kcat.Criteria{TempRange: kcat.Range{Min: 20, Max: 30}, PHRange: kcat.Range{Min: 6, Max: 8}}

	outOfPH := synthesize("P0A796", 40, 20, 80000)
	outOfPH.PH = kcat.Ptr(4.0)
	pool := []kcat.Candidate{synthesize("P0A796", 20, 20, 80000), outOfPH}
	assert.False(t, Feasible(q, pool, crit), "incompatible pH rows must not qualify")
}
