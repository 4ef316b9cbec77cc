// Package uniprot fetches amino-acid sequences from the UniProtKB REST
// endpoint. It backs the similarity ranker's SequenceSource.
package uniprot

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	cache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://rest.uniprot.org/uniprotkb"

// Client resolves accessions to sequences, memoizing every answer (hits and
// misses alike) for the lifetime of the batch run.
type Client struct {
	http *resty.Client
	memo *cache.Cache
}

// New builds a client against the public UniProt endpoint. Transient
// gateway errors (502/503/504) are retried with backoff.
func New() *Client { return NewWithBaseURL(defaultBaseURL) }

func NewWithBaseURL(baseURL string) *Client {
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || retryableStatus(r.StatusCode())
		})
	return &Client{http: hc, memo: cache.New(cache.NoExpiration, cache.NoExpiration)}
}

func retryableStatus(code int) bool {
	return code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}

// Sequence returns the amino-acid sequence for an accession, "" when
// UniProt has no entry. Nothing here is fatal: lookup failures degrade to
// absent sequences after retries are exhausted.
func (c *Client) Sequence(accession string) (string, error) {
	if accession == "" {
		return "", nil
	}
	if v, ok := c.memo.Get(accession); ok {
		return v.(string), nil
	}

	resp, err := c.http.R().Get(fmt.Sprintf("/%s.fasta", accession))
	if err != nil {
		return "", fmt.Errorf("uniprot: fetch %s: %w", accession, err)
	}
	if resp.StatusCode() != http.StatusOK {
		log.Debug().Str("accession", accession).Int("status", resp.StatusCode()).Msg("uniprot: no sequence")
		c.memo.SetDefault(accession, "")
		return "", nil
	}

	seq := parseFasta(resp.String())
	c.memo.SetDefault(accession, seq)
	return seq, nil
}

// parseFasta joins the sequence lines of a single-record FASTA document.
func parseFasta(doc string) string {
	var b strings.Builder
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ">") {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}
