package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edr-t2sql/t2sql/internal/planmodel"
)

type stubProvider struct {
	response string
	err      error
}

func (s stubProvider) Complete(ctx context.Context, model, system, user string, temperature float64) (string, error) {
	return s.response, s.err
}

func TestFirstDisallowedTableFindsOffender(t *testing.T) {
	p := &planmodel.Plan{MustTables: []string{"virus_details"}, ShouldTables: []string{"bogus_table"}}
	offender, ok := firstDisallowedTable(p, []string{"virus_details"})
	assert.True(t, ok)
	assert.Equal(t, "bogus_table", offender)
}

func TestFirstDisallowedTableAllAllowed(t *testing.T) {
	p := &planmodel.Plan{MustTables: []string{"virus_details"}}
	_, ok := firstDisallowedTable(p, []string{"virus_details"})
	assert.False(t, ok)
}

func TestCleanDropsDisallowedTablesAndReferencingPredicates(t *testing.T) {
	p := &planmodel.Plan{
		MustTables:     []string{"virus_details", "bogus_table"},
		MustPredicates: []string{"virus_details.level > 2", "bogus_table.x = 1"},
	}
	cleaned := clean(p, []string{"virus_details"})
	assert.Equal(t, []string{"virus_details"}, cleaned.MustTables)
	assert.Equal(t, []string{"virus_details.level > 2"}, cleaned.MustPredicates)
}

func TestReferencesOnlyAllowedIgnoresNonIdentifierDots(t *testing.T) {
	assert.True(t, referencesOnlyAllowed("COUNT(*) = 1.5", []string{"t"}))
	assert.True(t, referencesOnlyAllowed("t.col = 1", []string{"t"}))
	assert.False(t, referencesOnlyAllowed("other.col = 1", []string{"t"}))
}

func TestGeneratePlanDecodesJSONWrappedInProse(t *testing.T) {
	provider := stubProvider{response: "here you go:\n```json\n" +
		`{"task":"count","subject":"app","confidence":0.7}` + "\n```"}
	p, err := generatePlan(context.Background(), provider, "m", "q")
	require.NoError(t, err)
	assert.Equal(t, "count", p.Task)
}

func TestGeneratePlanPropagatesProviderError(t *testing.T) {
	provider := stubProvider{err: assert.AnError}
	_, err := generatePlan(context.Background(), provider, "m", "q")
	assert.Error(t, err)
}
