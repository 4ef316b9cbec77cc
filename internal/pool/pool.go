// Package pool assembles per-reaction candidate pools from the configured
// kinetic databases. Fetches are memoized per (source, EC, KEGG reaction)
// so reactions sharing an EC number hit the network once.
package pool

import (
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
)

// Fetcher is one kinetic database. Implementations return every turnover
// entry for the EC number, already normalized to candidate rows.
type Fetcher interface {
	Fetch(ecCode, keggReactionID string) ([]kcat.Candidate, error)
	Source() kcat.SourceDB
}

// Builder merges candidates from its fetchers, in order.
type Builder struct {
	fetchers []Fetcher
	memo     *gocache.Cache
}

func NewBuilder(fetchers ...Fetcher) *Builder {
	return &Builder{
		fetchers: fetchers,
		memo:     gocache.New(gocache.NoExpiration, 0),
	}
}

// Candidates returns the merged pool for a query. A fetcher failure after
// its own retries are exhausted contributes an empty slice rather than
// aborting the run; the reaction then scores as not found.
func (b *Builder) Candidates(q kcat.Query) []kcat.Candidate {
	var out []kcat.Candidate
	for _, f := range b.fetchers {
		out = append(out, b.fetch(f, q)...)
	}
	return out
}

func (b *Builder) fetch(f Fetcher, q kcat.Query) []kcat.Candidate {
	key := memoKey(f.Source(), q.ECCode, q.KeggReactionID)
	if hit, ok := b.memo.Get(key); ok {
		return hit.([]kcat.Candidate)
	}
	cands, err := f.Fetch(q.ECCode, q.KeggReactionID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("source", string(f.Source())).
			Str("ec", q.ECCode).
			Str("rxn", q.Rxn).
			Msg("candidate fetch failed, treating pool as empty")
		cands = nil
	}
	b.memo.Set(key, cands, gocache.NoExpiration)
	return cands
}

func memoKey(src kcat.SourceDB, ec, kegg string) string {
	return strings.Join([]string{string(src), ec, kegg}, "|")
}
