// Package table reads the model-extraction table and writes the annotated
// result table. Both sides are tab-separated; a .gz suffix on either path
// switches to parallel gzip transparently.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
	"github.com/h-escoffier/WILDkCAT/internal/match"
)

// Columns the input table must provide. Extra columns pass through to the
// output untouched.
var required = []string{
	"rxn", "KEGG_rxn_id", "ec_code", "direction",
	"substrates_name", "substrates_kegg", "products_name", "products_kegg",
	"genes_model", "uniprot_model", "kegg_genes", "intersection_genes",
}

// Appended output columns, in order.
var appended = []string{"kcat", "matching_score", "kcat_db"}

// Row is one input line: the parsed query plus the raw fields so the
// output preserves every input column verbatim.
type Row struct {
	Query kcat.Query
	Raw   []string
}

// Table is the parsed input file.
type Table struct {
	Header []string
	Rows   []Row
}

// Read loads and validates the extraction table.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("table: %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("table: %s: reading header: %w", path, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, want := range required {
		if _, ok := col[want]; !ok {
			return nil, fmt.Errorf("table: %s: missing column %q", path, want)
		}
	}

	t := &Table{Header: header}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("table: %s: line %d: %w", path, line+1, err)
		}
		line++
		get := func(name string) string {
			i := col[name]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		t.Rows = append(t.Rows, Row{
			Query: kcat.Query{
				Rxn:            get("rxn"),
				KeggReactionID: get("KEGG_rxn_id"),
				ECCode:         get("ec_code"),
				Direction:      get("direction"),
				SubstrateNames: kcat.SplitField(get("substrates_name")),
				SubstrateKEGG:  kcat.SplitField(get("substrates_kegg")),
				ProductNames:   kcat.SplitField(get("products_name")),
				ProductKEGG:    kcat.SplitField(get("products_kegg")),
				Genes:          kcat.SplitField(get("genes_model")),
				Accessions:     kcat.SplitField(get("uniprot_model")),
			},
			Raw: rec,
		})
	}
	return t, nil
}

// Out delivers one scored row for writing. Idx is the input row index;
// the writer restores input order no matter how workers finish.
type Out struct {
	Idx   int
	Row   Row
	Match match.Result
}

// Stats is emitted after the input channel closes.
type Stats struct {
	Rows     int         `json:"rows"`
	WithKcat int         `json:"with_kcat"`
	NotFound int         `json:"not_found"`
	Scores   map[int]int `json:"score_counts"`
}

// NewWriter starts the writer goroutine.
//   - send Out values on the returned chan, one per input row
//   - close the chan when workers are done
//   - read the final Stats from the second chan
func NewWriter(path string, header []string) (chan<- Out, <-chan Stats, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	var w io.Writer = f
	var gz *pgzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = pgzip.NewWriter(f)
		w = gz
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(append(append([]string{}, header...), appended...)); err != nil {
		f.Close()
		return nil, nil, err
	}

	in := make(chan Out)
	out := make(chan Stats, 1)

	go func() {
		defer f.Close()
		defer close(out)

		stats := Stats{Scores: make(map[int]int)}
		pending := make(map[int]Out)
		next := 0

		write := func(o Out) {
			_ = cw.Write(append(append([]string{}, o.Row.Raw...), formatResult(o.Match)...))
			stats.Rows++
			stats.Scores[o.Match.Score]++
			if o.Match.Kcat != nil {
				stats.WithKcat++
			} else {
				stats.NotFound++
			}
		}

		for o := range in {
			pending[o.Idx] = o
			for {
				buf, ok := pending[next]
				if !ok {
					break
				}
				write(buf)
				delete(pending, next)
				next++
			}
		}
		// anything left arrived with gaps; flush in index order anyway
		for len(pending) > 0 {
			if o, ok := pending[next]; ok {
				write(o)
				delete(pending, next)
			}
			next++
		}
		cw.Flush()
		if gz != nil {
			gz.Close()
		}
		out <- stats
	}()

	return in, out, nil
}

func formatResult(r match.Result) []string {
	val := ""
	if r.Kcat != nil {
		val = strconv.FormatFloat(*r.Kcat, 'g', -1, 64)
	}
	return []string{val, strconv.Itoa(r.Score), string(r.Source)}
}
