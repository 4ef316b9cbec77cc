// Package brenda fetches turnover numbers from the BRENDA SOAP interface.
//
// BRENDA requires a registered account. The client authenticates every call
// with the account email and the sha256 hex digest of the password, as the
// interface specifies. Results come back as a single flattened string of
// '!'-separated records of '#'-separated key*value fields.
package brenda

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
)

const (
	defaultEndpoint = "https://www.brenda-enzymes.org/soap/brenda_zeep.php"

	// BRENDA reports this value for entries with no measured number.
	missingValue = -999
)

// Client talks to the BRENDA SOAP endpoint.
type Client struct {
	http         *resty.Client
	endpoint     string
	email        string
	passwordHash string
}

// CredentialsFromEnv reads BRENDA_EMAIL and BRENDA_PASSWORD, loading a .env
// file first if one is present in the working directory.
func CredentialsFromEnv() (email, password string, err error) {
	_ = godotenv.Load()
	email = os.Getenv("BRENDA_EMAIL")
	password = os.Getenv("BRENDA_PASSWORD")
	if email == "" || password == "" {
		return "", "", fmt.Errorf("brenda: BRENDA_EMAIL and BRENDA_PASSWORD must be set")
	}
	return email, password, nil
}

// New builds a client for the production endpoint. The password is hashed
// immediately and never retained.
func New(email, password string) *Client {
	return NewWithEndpoint(defaultEndpoint, email, password)
}

func NewWithEndpoint(endpoint, email, password string) *Client {
	sum := sha256.Sum256([]byte(password))
	return &Client{
		http: resty.New().
			SetTimeout(60 * time.Second).
			SetRetryCount(3).
			SetRetryWaitTime(2 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil {
					return true
				}
				switch r.StatusCode() {
				case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
					return true
				}
				return false
			}),
		endpoint:     endpoint,
		email:        email,
		passwordHash: hex.EncodeToString(sum[:]),
	}
}

// Source implements the pool fetcher contract.
func (c *Client) Source() kcat.SourceDB { return kcat.SourceBrenda }

// Fetch returns all wildtype-or-unannotated turnover entries for the EC
// number. BRENDA is keyed by EC only; the KEGG reaction id is ignored.
func (c *Client) Fetch(ecCode, _ string) ([]kcat.Candidate, error) {
	if ecCode == "" {
		return nil, nil
	}
	raw, err := c.call("getTurnoverNumber", []string{
		c.email,
		c.passwordHash,
		"ecNumber*" + ecCode,
		"turnoverNumber*",
		"turnoverNumberMaximum*",
		"substrate*",
		"commentary*",
		"organism*",
		"ligandStructureId*",
		"literature*",
	})
	if err != nil {
		return nil, fmt.Errorf("brenda: getTurnoverNumber %s: %w", ecCode, err)
	}
	return parseRecords(raw), nil
}

func (c *Client) call(method string, params []string) (string, error) {
	var body strings.Builder
	body.WriteString(xml.Header)
	body.WriteString(`<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ns1="http://soapinterop.org/"><SOAP-ENV:Body>`)
	body.WriteString("<ns1:" + method + ">")
	for _, p := range params {
		body.WriteString("<param>")
		_ = xml.EscapeText(&body, []byte(p))
		body.WriteString("</param>")
	}
	body.WriteString("</ns1:" + method + "></SOAP-ENV:Body></SOAP-ENV:Envelope>")

	resp, err := c.http.R().
		SetHeader("Content-Type", "text/xml; charset=utf-8").
		SetHeader("SOAPAction", method).
		SetBody(body.String()).
		Post(c.endpoint)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode())
	}
	return extractReturn(resp.Body())
}

// extractReturn pulls the character data of the first <return> element out of
// the SOAP response envelope.
func extractReturn(body []byte) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(string(body)))
	inReturn := false
	var out strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "return" {
				inReturn = true
			}
			if t.Name.Local == "Fault" {
				return "", fmt.Errorf("soap fault")
			}
		case xml.EndElement:
			if t.Name.Local == "return" {
				return out.String(), nil
			}
		case xml.CharData:
			if inReturn {
				out.Write(t)
			}
		}
	}
	return "", fmt.Errorf("no return element in response")
}

var (
	rePH   = regexp.MustCompile(`pH\s*([0-9]+(?:\.[0-9]+)?)`)
	reTemp = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*(?:°C|&deg;C|\x{00b0}C)`)
)

// parseRecords converts the flattened result string into candidate rows.
// Entries with the missing-value sentinel are dropped.
func parseRecords(raw string) []kcat.Candidate {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []kcat.Candidate
	for _, rec := range strings.Split(raw, "!") {
		fields := map[string]string{}
		for _, f := range strings.Split(rec, "#") {
			if k, v, ok := strings.Cut(f, "*"); ok {
				fields[k] = v
			}
		}
		val, err := strconv.ParseFloat(fields["turnoverNumber"], 64)
		if err != nil || val == missingValue || val <= 0 {
			continue
		}
		commentary := fields["commentary"]
		out = append(out, kcat.Candidate{
			Organism:  strings.TrimSpace(fields["organism"]),
			Substrate: strings.TrimSpace(fields["substrate"]),
			PH:        matchFloat(rePH, commentary),
			TempC:     matchFloat(reTemp, commentary),
			Variant:   commentaryVariant(commentary),
			Value:     val,
			Source:    kcat.SourceBrenda,
		})
	}
	log.Debug().Int("records", len(out)).Msg("brenda records parsed")
	return out
}

func matchFloat(re *regexp.Regexp, s string) *float64 {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

// commentaryVariant classifies the free-text commentary. BRENDA has no
// dedicated variant column; mutants are only identifiable from commentary.
func commentaryVariant(s string) kcat.Variant {
	l := strings.ToLower(s)
	switch {
	case strings.Contains(l, "mutant") || strings.Contains(l, "mutated"):
		return kcat.VariantMutant
	case strings.Contains(l, "wild-type") || strings.Contains(l, "wild type") || strings.Contains(l, "wildtype"):
		return kcat.VariantWildtype
	}
	return kcat.VariantUnknown
}
