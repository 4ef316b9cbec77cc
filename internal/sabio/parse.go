package sabio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
)

// parseExport turns the customizable-export TSV into candidate records.
// Only rows whose parameter is the turnover number survive; rows without a
// parseable numeric value are dropped.
func parseExport(tsv string) ([]kcat.Candidate, error) {
	r := csv.NewReader(strings.NewReader(tsv))
	r.Comma = '\t'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sabio: export header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []kcat.Candidate
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sabio: export row: %w", err)
		}
		if !strings.EqualFold(field(row, "parameter.name"), "kcat") {
			continue
		}
		value, err := strconv.ParseFloat(field(row, "parameter.startValue"), 64)
		if err != nil {
			continue
		}
		out = append(out, kcat.Candidate{
			Accession:      field(row, "UniProtKB_AC"),
			Organism:       field(row, "Organism"),
			Substrate:      field(row, "Substrate"),
			Product:        field(row, "Product"),
			KeggReactionID: field(row, "KeggReactionID"),
			PH:             parseFloat(field(row, "pH")),
			TempC:          parseFloat(field(row, "Temperature")),
			Variant:        kcat.ParseVariant(field(row, "Enzyme Variant")),
			Value:          value,
			Source:         kcat.SourceSabioRK,
		})
	}
	return out, nil
}

// parseFloat is the forgiving numeric conversion used for the condition
// columns: anything non-numeric becomes nil.
func parseFloat(s string) *float64 {
	if s == "" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
