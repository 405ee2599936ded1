package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"
)

func TestParseConfig(t *testing.T) {

	names, err := parseConfig(defaultConfig)
	require.NoError(t, err)
	assert.True(t, names["SA1000"])
	assert.False(t, names["SA9999"])

	_, err = parseConfig([]byte(`{"staticlint": `))
	assert.Error(t, err)
}

func TestPick(t *testing.T) {

	names := map[string]bool{"SA4006": true, "S1002": true, "ST1005": true}

	analyzers := pick(names, staticcheck.Analyzers, simple.Analyzers, stylecheck.Analyzers)
	require.Len(t, analyzers, 3)

	for _, a := range analyzers {
		assert.True(t, names[a.Name], a.Name)
	}

	assert.Empty(t, pick(nil, staticcheck.Analyzers))
}
