// Package simpool generates synthetic candidate pools for tests and
// benchmarks. Seeded generation is reproducible; seed 0 derives one from
// the clock.
package simpool

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
)

// Params shapes a generated pool. Fractions are clamped to [0, 1].
type Params struct {
	Size          int
	Organism      string  // organism assigned to the on-target share
	Accession     string  // accession assigned to the on-target share
	OnTarget      float64 // fraction matching Organism and Accession
	MutantFrac    float64 // fraction annotated as mutants
	MissingConds  float64 // fraction without pH and temperature
	TempRange     kcat.Range
	PHRange       kcat.Range
	ValueMin, Max float64
}

// Make returns a synthetic pool. If seed==0 we use a time-based seed;
// otherwise results are reproducible.
func Make(p Params, seed int64) []kcat.Candidate {
	if p.Size <= 0 {
		return []kcat.Candidate{}
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))

	clamp := func(f float64) float64 {
		if f < 0 {
			return 0
		}
		if f > 1 {
			return 1
		}
		return f
	}
	onTarget := clamp(p.OnTarget)
	mutant := clamp(p.MutantFrac)
	missing := clamp(p.MissingConds)

	span := func(rg kcat.Range) float64 {
		return rg.Min + r.Float64()*(rg.Max-rg.Min)
	}

	pool := make([]kcat.Candidate, p.Size)
	for i := range pool {
		c := kcat.Candidate{
			Organism:  fmt.Sprintf("Organism sp. %03d", r.Intn(1000)),
			Accession: fmt.Sprintf("Q%05d", r.Intn(100000)),
			Substrate: fmt.Sprintf("substrate-%d", r.Intn(50)),
			Value:     p.ValueMin + r.Float64()*(p.Max-p.ValueMin),
			Variant:   kcat.VariantWildtype,
			Source:    kcat.SourceSabioRK,
		}
		if r.Float64() < onTarget {
			c.Organism = p.Organism
			c.Accession = p.Accession
		}
		if r.Float64() < mutant {
			c.Variant = kcat.VariantMutant
		}
		if r.Float64() >= missing {
			c.PH = kcat.Ptr(span(p.PHRange))
			c.TempC = kcat.Ptr(span(p.TempRange))
		}
		if r.Intn(2) == 0 {
			c.Source = kcat.SourceBrenda
		}
		pool[i] = c
	}
	return pool
}
