package match

import (
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
)

// gasConstant is R in J/(mol·K).
const gasConstant = 8.314

const kelvinOffset = 273.15

// Activation energies outside this band are biologically implausible and
// logged, but the fit is still used.
var plausibleEa = kcat.Range{Min: 50000, Max: 150000}

// arrheniusPoints collects the (temperature K, kcat) observations usable for
// an extrapolation: rows measured on one of the query's own accessions, at a
// compatible pH, with both temperature and value present.
func arrheniusPoints(q kcat.Query, pool []kcat.Candidate, crit kcat.Criteria) (temps, values []float64) {
	for _, c := range pool {
		if !q.HasAccession(c.Accession) {
			continue
		}
		if c.TempC == nil || c.PH == nil || !crit.PHRange.Contains(*c.PH) {
			continue
		}
		if c.Value <= 0 { // ln(k) undefined
			continue
		}
		temps = append(temps, *c.TempC+kelvinOffset)
		values = append(values, c.Value)
	}
	return temps, values
}

func distinct(vals []float64) int {
	seen := make(map[float64]bool, len(vals))
	for _, v := range vals {
		seen[v] = true
	}
	return len(seen)
}

// Feasible reports whether the pool supports an Arrhenius extrapolation for
// this query: at least two distinct temperature observations on the query's
// enzyme at compatible pH.
func Feasible(q kcat.Query, pool []kcat.Candidate, crit kcat.Criteria) bool {
	temps, _ := arrheniusPoints(q, pool, crit)
	return distinct(temps) >= 2
}

// ArrheniusFit is the result of the ln(k) = ln(A) - Ea/(R·T) regression.
type ArrheniusFit struct {
	Ea       float64 // J/mol
	LnA      float64
	RSquared float64
}

// fitEa runs an ordinary least squares fit of ln(k) against 1/T.
func fitEa(tempsK, values []float64) ArrheniusFit {
	x := make([]float64, len(tempsK))
	y := make([]float64, len(values))
	for i := range tempsK {
		x[i] = 1 / tempsK[i]
		y[i] = math.Log(values[i])
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	fit := ArrheniusFit{
		Ea:       -beta * gasConstant,
		LnA:      alpha,
		RSquared: stat.RSquared(x, y, nil, alpha, beta),
	}
	if !plausibleEa.Contains(fit.Ea) {
		log.Warn().
			Float64("ea_j_per_mol", fit.Ea).
			Msgf("estimated Ea outside the expected range %s J/mol", plausibleEa)
	}
	return fit
}

// Correct extrapolates a kcat at the mean of the target temperature range
// from the qualifying observations. The first qualifying row serves as the
// reference point, matching the original selection. Returns ok=false when
// fewer than two distinct temperatures are available.
func Correct(q kcat.Query, pool []kcat.Candidate, crit kcat.Criteria) (value float64, fit ArrheniusFit, ok bool) {
	temps, values := arrheniusPoints(q, pool, crit)
	if distinct(temps) < 2 {
		return 0, ArrheniusFit{}, false
	}
	fit = fitEa(temps, values)

	tTarget := crit.TempRange.Mean() + kelvinOffset
	tRef, kRef := temps[0], values[0]
	value = kRef * math.Exp(fit.Ea/gasConstant*(1/tRef-1/tTarget))
	return value, fit, true
}
