package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/places-scan/pkg/types"
)

func TestListSettingsFromEnvironment(t *testing.T) {
	t.Setenv("PLACES_SCAN_KEYWORDS", "tea house,bubble tea")
	t.Setenv("PLACES_SCAN_DENY_NAME_KEYWORDS", " gas station , car wash,,")
	t.Setenv("PLACES_SCAN_OUTPUT_SINKS", "csv, YAML")
	initConfig()

	cfg := scanConfig()
	assert.Equal(t, []string{"tea house", "bubble tea"}, cfg.Keywords)
	assert.Equal(t, []string{"gas station", "car wash"}, cfg.DenyNameKeywords)

	out := outputConfig()
	assert.Equal(t, []string{"csv", "yaml"}, out.Sinks)
}

func TestListSettingsDefaults(t *testing.T) {
	initConfig()

	def := types.DefaultScanConfig()
	cfg := scanConfig()
	assert.Equal(t, def.Types, cfg.Types)
	assert.Equal(t, def.Keywords, cfg.Keywords)
	assert.Equal(t, def.DenyNameKeywords, cfg.DenyNameKeywords)
	assert.Equal(t, types.DefaultOutputConfig().Sinks, outputConfig().Sinks)
}

func TestPostgresDSNFromEnvironment(t *testing.T) {
	for _, env := range []string{"PLACES_SCAN_POSTGRES_DSN", "PLACES_SCAN_OUTPUT_POSTGRES_DSN"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, "postgres://localhost/places?sslmode=disable")
			initConfig()

			out := outputConfig()
			require.Equal(t, "postgres://localhost/places?sslmode=disable", out.PostgresDSN)

			out.Sinks = []string{types.SinkPostgres}
			_, err := buildChain(out, outputPaths{}, "", nopConverter{})
			assert.NoError(t, err)
		})
	}
}

func TestMissingPostgresDSNNamesEnvironmentVariable(t *testing.T) {
	o := types.DefaultOutputConfig()
	o.Sinks = []string{types.SinkPostgres}
	_, err := buildChain(o, outputPaths{}, "", nopConverter{})
	assert.ErrorContains(t, err, "PLACES_SCAN_POSTGRES_DSN")
}
