// Package report summarizes a finished run: a colored terminal digest,
// an HTML report and the fallback input file for downstream kcat
// prediction of the reactions the databases could not cover.
package report

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
	"github.com/h-escoffier/WILDkCAT/internal/match"
)

// Outcome pairs a query with its final match result.
type Outcome struct {
	Query kcat.Query
	Match match.Result
}

// Summary is the aggregate view of one run.
type Summary struct {
	RunID       string
	GeneratedAt time.Time
	Organism    string
	Rows        int
	WithKcat    int
	NotFound    int
	Levels      map[string]int
	Scores      map[int]int
}

// Build computes the summary over every scored row.
func Build(organism string, outcomes []Outcome) Summary {
	s := Summary{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
		Organism:    organism,
		Levels:      make(map[string]int),
		Scores:      make(map[int]int),
	}
	for _, o := range outcomes {
		s.Rows++
		s.Levels[o.Match.Level.String()]++
		s.Scores[o.Match.Score]++
		if o.Match.Kcat != nil {
			s.WithKcat++
		} else {
			s.NotFound++
		}
	}
	return s
}

// MatchRate is the fraction of rows that received a value, in percent.
func (s Summary) MatchRate() float64 {
	if s.Rows == 0 {
		return 0
	}
	return 100 * float64(s.WithKcat) / float64(s.Rows)
}

// sortedScores returns the observed scores in ascending order.
func (s Summary) sortedScores() []int {
	keys := make([]int, 0, len(s.Scores))
	for k := range s.Scores {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Print writes the terminal digest.
func (s Summary) Print(w io.Writer) {
	bold := color.New(color.Bold).FprintfFunc()
	green := color.New(color.FgGreen).FprintfFunc()
	red := color.New(color.FgRed).FprintfFunc()

	bold(w, "run %s (%s)\n", s.RunID, s.Organism)
	fmt.Fprintf(w, "  reactions   %d\n", s.Rows)
	green(w, "  with kcat   %d (%.1f%%)\n", s.WithKcat, s.MatchRate())
	if s.NotFound > 0 {
		red(w, "  not found   %d\n", s.NotFound)
	}
	fmt.Fprintf(w, "  score distribution\n")
	for _, score := range s.sortedScores() {
		fmt.Fprintf(w, "    %2d  %s %d\n", score, strings.Repeat("#", bar(s.Scores[score], s.Rows)), s.Scores[score])
	}
}

// bar scales a count to at most 40 columns.
func bar(n, total int) int {
	if total == 0 {
		return 0
	}
	w := n * 40 / total
	if w == 0 && n > 0 {
		w = 1
	}
	return w
}

var htmlReport = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>kcat retrieval report {{.RunID}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #999; padding: 0.3em 0.8em; text-align: left; }
th { background: #eee; }
.ok { color: #1a7f37; }
.bad { color: #b42318; }
</style>
</head>
<body>
<h1>kcat retrieval report</h1>
<p>Run <code>{{.RunID}}</code> for <em>{{.Organism}}</em>, generated {{.GeneratedAt.Format "2006-01-02 15:04:05"}}.</p>
<table>
<tr><th>Reactions</th><td>{{.Rows}}</td></tr>
<tr><th>With kcat</th><td class="ok">{{.WithKcat}} ({{printf "%.1f" .MatchRate}}%)</td></tr>
<tr><th>Not found</th><td class="bad">{{.NotFound}}</td></tr>
</table>
<h2>Matching levels</h2>
<table>
<tr><th>Level</th><th>Reactions</th></tr>
{{range $level, $n := .Levels}}<tr><td>{{$level}}</td><td>{{$n}}</td></tr>
{{end}}</table>
<h2>Score distribution</h2>
<table>
<tr><th>Score</th><th>Reactions</th></tr>
{{range $score := .ScoreOrder}}<tr><td>{{$score}}</td><td>{{index $.Scores $score}}</td></tr>
{{end}}</table>
</body>
</html>
`))

// WriteHTML renders the report to a file.
func (s Summary) WriteHTML(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	data := struct {
		Summary
		ScoreOrder []int
	}{s, s.sortedScores()}
	return htmlReport.Execute(f, data)
}

// mlInputHeader matches what sequence-based kcat predictors consume.
var mlInputHeader = []string{"rxn", "ec_code", "uniprot", "substrates_kegg", "matching_score"}

// WriteMLInput writes the prediction fallback file: reactions that ended
// without a value or above the score limit. Predictors need a protein
// sequence and a substrate structure, so rows without a single UniProt
// accession or without substrate KEGG ids are skipped.
func WriteMLInput(path string, outcomes []Outcome, scoreLimit int) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(mlInputHeader); err != nil {
		return 0, err
	}
	n := 0
	for _, o := range outcomes {
		if o.Match.Kcat != nil && o.Match.Score <= scoreLimit {
			continue
		}
		acc := o.Query.Accession()
		if acc == "" || len(o.Query.SubstrateKEGG) == 0 {
			continue
		}
		rec := []string{
			o.Query.Rxn,
			o.Query.ECCode,
			acc,
			strings.Join(o.Query.SubstrateKEGG, ";"),
			fmt.Sprintf("%d", o.Match.Score),
		}
		if err := w.Write(rec); err != nil {
			return n, err
		}
		n++
	}
	w.Flush()
	return n, w.Error()
}
