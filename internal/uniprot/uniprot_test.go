package uniprot

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fastaDoc = ">sp|P0A796|PFKA_ECOLI ATP-dependent 6-phosphofructokinase\nMIKKIGVLTSGGDAPGMNAAIRGVVRSALTE\nGLEVMGIYDGYLGLYEDRMVQLDRYSVSDMI\n"

func TestParseFasta(t *testing.T) {
	assert.Equal(t,
		"MIKKIGVLTSGGDAPGMNAAIRGVVRSALTEGLEVMGIYDGYLGLYEDRMVQLDRYSVSDMI",
		parseFasta(fastaDoc))
	assert.Equal(t, "", parseFasta(""))
}

func TestSequence(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		switch r.URL.Path {
		case "/P0A796.fasta":
			fmt.Fprint(w, fastaDoc)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewWithBaseURL(srv.URL)

	seq, err := c.Sequence("P0A796")
	require.NoError(t, err)
	assert.Len(t, seq, 62)

	// second call must come from the memo, misses included
	_, err = c.Sequence("P0A796")
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	seq, err = c.Sequence("MISSING")
	require.NoError(t, err)
	assert.Equal(t, "", seq, "absence is soft")
	_, _ = c.Sequence("MISSING")
	assert.Equal(t, 2, hits, "negative answers are memoized too")
}

func TestSequenceEmptyAccession(t *testing.T) {
	c := NewWithBaseURL("http://127.0.0.1:0")
	seq, err := c.Sequence("")
	require.NoError(t, err)
	assert.Equal(t, "", seq)
}
