package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edr-t2sql/t2sql/internal/kb"
	"github.com/edr-t2sql/t2sql/internal/lexical"
	"github.com/edr-t2sql/t2sql/internal/limits"
	"github.com/edr-t2sql/t2sql/internal/schema"
)

func TestBuildBoundsKBSnippetAndColumns(t *testing.T) {
	s, err := schema.Parse([]byte(`{"tables":[
		{"name":"weak_password_app","columns":[{"name":"app_id"},{"name":"name"}]}
	]}`))
	require.NoError(t, err)

	catalog, err := kb.Parse([]byte(`{"tables":[
		{"name":"weak_password_app","purpose":"weak password apps","columns":[{"name":"app_id","desc":"app id"}]}
	]}`))
	require.NoError(t, err)

	limiter := limits.NewContextLimiter(&limits.ContextLimits{
		MaxEffectiveTables: 5, MaxColumnsPerTable: 1, MaxKBCharsPerTable: 1000, MaxKBCharsTotal: 2000,
	})

	built := Build(s, catalog, []string{"weak_password_app"}, lexical.Tokenize("应用"), limiter)

	assert.Len(t, built.EffectiveSchema.Tables, 1)
	assert.Contains(t, built.KBSnippet, "weak_password_app")
	assert.Len(t, built.SelectedColumnsByTable["weak_password_app"], 1)
}
