package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
organism = "Saccharomyces cerevisiae"
variant = "wildtype"
aggregation = "mean"
sources = ["brenda"]

[temperature]
min = 28.0
max = 32.0

[ph]
min = 5.0
max = 6.5
`))
	require.NoError(t, err)

	assert.Equal(t, "Saccharomyces cerevisiae", cfg.Organism)
	assert.Equal(t, kcat.AggMean, cfg.Agg())
	assert.True(t, cfg.HasSource(kcat.SourceBrenda))
	assert.False(t, cfg.HasSource(kcat.SourceSabioRK))

	crit := cfg.Criteria()
	assert.Equal(t, kcat.Range{Min: 28, Max: 32}, crit.TempRange)
	assert.Equal(t, kcat.Range{Min: 5, Max: 6.5}, crit.PHRange)
	assert.Equal(t, kcat.VariantWildtype, crit.Variant)

	// defaults survive a partial file
	assert.Equal(t, 6, cfg.MLScoreLimit)
	assert.Equal(t, 4, cfg.Threads)
}

func TestLoadDefersValidation(t *testing.T) {
	// a file without organism must load fine: a flag can still provide it
	cfg, err := Load(writeConfig(t, "aggregation = \"max\"\n"))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate(), "validation still catches the gap once the config is final")

	cfg.Organism = "Escherichia coli"
	assert.NoError(t, cfg.Validate())
}

func TestLoadUnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "organism = \"E. coli\"\ntypo_key = 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "typo_key")
}

func TestValidate(t *testing.T) {
	base := Default()
	base.Organism = "Escherichia coli"
	require.NoError(t, base.Validate())

	noOrg := base
	noOrg.Organism = ""
	assert.Error(t, noOrg.Validate())

	inverted := base
	inverted.Temperature = Interval{Min: 40, Max: 20}
	assert.Error(t, inverted.Validate())

	badAgg := base
	badAgg.Aggregation = "median"
	assert.Error(t, badAgg.Validate())

	badSource := base
	badSource.Sources = []string{"uniprot"}
	assert.Error(t, badSource.Validate())

	noSource := base
	noSource.Sources = nil
	assert.Error(t, noSource.Validate())

	noThreads := base
	noThreads.Threads = 0
	assert.Error(t, noThreads.Validate())
}
