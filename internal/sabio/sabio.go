// Package sabio queries the SABIO-RK kinetic-law REST service for turnover
// numbers and normalizes the tabular export into candidate records.
//
// The service works in two steps:
//  1. search kinetic-law entry IDs for a query string
//  2. export the selected fields of those entries as TSV
package sabio

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
)

const defaultBaseURL = "https://sabiork.h-its.org"

const (
	searchPath = "/sabioRestWebServices/searchKineticLaws/entryIDs"
	exportPath = "/entry/exportToExcelCustomizable"
)

// exportFields mirrors the columns the original pipeline asked for.
var exportFields = []string{
	"EntryID", "ECNumber", "KeggReactionID", "Reaction", "Substrate", "Product",
	"UniProtKB_AC", "Organism", "Enzyme Variant", "Temperature", "pH",
	"KineticMechanismType", "Parameter",
}

type Client struct {
	http *resty.Client
}

func New() *Client { return NewWithBaseURL(defaultBaseURL) }

func NewWithBaseURL(baseURL string) *Client {
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(15 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := r.StatusCode()
			return code == http.StatusBadGateway ||
				code == http.StatusServiceUnavailable ||
				code == http.StatusGatewayTimeout
		})
	return &Client{http: hc}
}

func (c *Client) Source() kcat.SourceDB { return kcat.SourceSabioRK }

// Fetch returns the kcat candidates for an EC code, optionally narrowed to
// one KEGG reaction ID. An EC code without data yields an empty slice.
func (c *Client) Fetch(ecCode, keggReactionID string) ([]kcat.Candidate, error) {
	ids, err := c.entryIDs(ecCode, keggReactionID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	tsv, err := c.export(ids)
	if err != nil {
		return nil, err
	}
	return parseExport(tsv)
}

func (c *Client) entryIDs(ecCode, keggReactionID string) ([]string, error) {
	parts := []string{`Parametertype:"kcat"`}
	if ecCode != "" {
		parts = append(parts, fmt.Sprintf(`ECNumber:%q`, ecCode))
	}
	if keggReactionID != "" {
		parts = append(parts, fmt.Sprintf(`KeggReactionID:%q`, keggReactionID))
	}

	resp, err := c.http.R().
		SetQueryParam("format", "txt").
		SetQueryParam("q", strings.Join(parts, " AND ")).
		Get(searchPath)
	if err != nil {
		return nil, fmt.Errorf("sabio: search %s: %w", ecCode, err)
	}
	body := strings.TrimSpace(resp.String())
	if resp.StatusCode() == http.StatusNotFound || body == "no data found" || body == "" {
		log.Debug().Str("ec", ecCode).Msg("sabio: no entries")
		return nil, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("sabio: search %s: status %d", ecCode, resp.StatusCode())
	}
	return strings.Fields(body), nil
}

func (c *Client) export(entryIDs []string) (string, error) {
	req := c.http.R().SetQueryParam("format", "tsv")
	for _, f := range exportFields {
		req.QueryParam.Add("fields[]", f)
	}
	for _, id := range entryIDs {
		req.FormData.Add("entryIDs[]", id)
	}

	resp, err := req.Post(exportPath)
	if err != nil {
		return "", fmt.Errorf("sabio: export: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("sabio: export: status %d", resp.StatusCode())
	}
	return resp.String(), nil
}
