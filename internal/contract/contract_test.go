package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edr-t2sql/t2sql/internal/planmodel"
	"github.com/edr-t2sql/t2sql/internal/schema"
)

func TestBuildExpandsAllowedColumnsFromMustPredicates(t *testing.T) {
	s, err := schema.Parse([]byte(`{"tables":[
		{"name":"weak_password_app_detail","columns":[{"name":"app_id"},{"name":"pass_wd"}]}
	]}`))
	require.NoError(t, err)

	plan := &planmodel.Plan{
		Task:           "list",
		MustTables:     []string{"weak_password_app_detail"},
		MustPredicates: []string{"weak_password_app_detail.pass_wd IS NOT NULL"},
	}

	c := Build(plan, s, map[string][]string{"weak_password_app_detail": {"app_id"}})

	assert.Contains(t, c.AllowedColumns["weak_password_app_detail"], "pass_wd")
	assert.Contains(t, c.AllowedColumns["weak_password_app_detail"], "app_id")
	assert.Equal(t, []string{"ORDER BY"}, c.ForbiddenClauses)
}

func TestBuildAllowsOrderByForTrendTask(t *testing.T) {
	s, err := schema.Parse([]byte(`{"tables":[{"name":"t","columns":[{"name":"c"}]}]}`))
	require.NoError(t, err)

	plan := &planmodel.Plan{Task: "trend", MustTables: []string{"t"}}
	c := Build(plan, s, nil)
	assert.Empty(t, c.ForbiddenClauses)
}
