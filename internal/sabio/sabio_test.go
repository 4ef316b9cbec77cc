package sabio

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
)

const exportTSV = "EntryID\tECNumber\tKeggReactionID\tSubstrate\tProduct\tUniProtKB_AC\tOrganism\tEnzyme Variant\tTemperature\tpH\tparameter.name\tparameter.startValue\n" +
	"100\t2.7.1.11\tR00756\tATP;D-Fructose 6-phosphate\tADP;D-Fructose 1,6-bisphosphate\tP0A796\tEscherichia coli\twildtype\t25\t7.0\tkcat\t120.5\n" +
	"101\t2.7.1.11\tR00756\tATP\tADP\tP0A796\tEscherichia coli\tmutant D127N\t25\t7.0\tkcat\t3.2\n" +
	"102\t2.7.1.11\tR00756\tATP\tADP\t\tEscherichia coli\t\t\t\tkcat\t88\n" +
	"103\t2.7.1.11\tR00756\tATP\tADP\tP0A796\tEscherichia coli\twildtype\t25\t7.0\tKm\t0.2\n" +
	"104\t2.7.1.11\tR00756\tATP\tADP\tP0A796\tEscherichia coli\twildtype\t25\t7.0\tkcat\tn/a\n"

func TestParseExport(t *testing.T) {
	cands, err := parseExport(exportTSV)
	require.NoError(t, err)
	require.Len(t, cands, 3, "Km row and unparseable value dropped")

	c := cands[0]
	assert.Equal(t, "P0A796", c.Accession)
	assert.Equal(t, "Escherichia coli", c.Organism)
	assert.Equal(t, "R00756", c.KeggReactionID)
	assert.Equal(t, kcat.VariantWildtype, c.Variant)
	require.NotNil(t, c.PH)
	assert.Equal(t, 7.0, *c.PH)
	require.NotNil(t, c.TempC)
	assert.Equal(t, 25.0, *c.TempC)
	assert.Equal(t, 120.5, c.Value)
	assert.Equal(t, kcat.SourceSabioRK, c.Source)

	assert.Equal(t, kcat.VariantMutant, cands[1].Variant)

	blank := cands[2]
	assert.Equal(t, kcat.VariantUnknown, blank.Variant)
	assert.Nil(t, blank.PH)
	assert.Nil(t, blank.TempC)
}

func TestParseExportEmpty(t *testing.T) {
	cands, err := parseExport("")
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case searchPath:
			q := r.URL.Query().Get("q")
			assert.Contains(t, q, `Parametertype:"kcat"`)
			assert.Contains(t, q, `ECNumber:"2.7.1.11"`)
			assert.Contains(t, q, `KeggReactionID:"R00756"`)
			fmt.Fprint(w, "100\n101\n102\n103\n104\n")
		case exportPath:
			require.NoError(t, r.ParseForm())
			assert.Equal(t, []string{"100", "101", "102", "103", "104"}, r.PostForm["entryIDs[]"])
			fmt.Fprint(w, exportTSV)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL)
	cands, err := c.Fetch("2.7.1.11", "R00756")
	require.NoError(t, err)
	assert.Len(t, cands, 3)
}

func TestFetchNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "no data found")
	}))
	defer srv.Close()

	cands, err := NewWithBaseURL(srv.URL).Fetch("9.9.9.9", "")
	require.NoError(t, err)
	assert.Empty(t, cands)
}
