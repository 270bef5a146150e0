package guard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edr-t2sql/t2sql/internal/contract"
	"github.com/edr-t2sql/t2sql/internal/errs"
)

func sampleContract() contract.Contract {
	return contract.Contract{
		AllowedTables: []string{"virus_details"},
		AllowedColumns: map[string][]string{
			"virus_details": {"node_id", "level", "found_time"},
		},
	}
}

func TestRewriteAddsDefaultLimit(t *testing.T) {
	sql, err := Rewrite("SELECT virus_details.node_id FROM virus_details", sampleContract(), false, 0)
	require.NoError(t, err)
	assert.Contains(t, sql, "LIMIT 200")
}

func TestRewriteClampsOversizedLimit(t *testing.T) {
	sql, err := Rewrite("SELECT virus_details.node_id FROM virus_details LIMIT 5000", sampleContract(), false, 200)
	require.NoError(t, err)
	assert.Contains(t, sql, "LIMIT 200")
	assert.NotContains(t, sql, "5000")
}

func TestRewriteStripsLimitForSingleRowAggregate(t *testing.T) {
	sql, err := Rewrite("SELECT COUNT(*) FROM virus_details LIMIT 200", sampleContract(), false, 200)
	require.NoError(t, err)
	assert.NotContains(t, sql, "LIMIT")
}

func TestRewriteStripsOrderByUnlessTrend(t *testing.T) {
	sql, err := Rewrite("SELECT virus_details.node_id FROM virus_details ORDER BY virus_details.node_id", sampleContract(), false, 200)
	require.NoError(t, err)
	assert.NotContains(t, sql, "ORDER BY")
}

func TestRewriteKeepsOrderByForTrend(t *testing.T) {
	sql, err := Rewrite("SELECT virus_details.node_id FROM virus_details ORDER BY virus_details.node_id", sampleContract(), true, 200)
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY")
}

func TestRewriteRejectsCJK(t *testing.T) {
	_, err := Rewrite("SELECT 中文 FROM virus_details", sampleContract(), false, 200)
	assert.True(t, errors.Is(err, errs.ErrGuardRejected))
}

func TestRewriteRejectsSelectStar(t *testing.T) {
	_, err := Rewrite("SELECT * FROM virus_details", sampleContract(), false, 200)
	assert.True(t, errors.Is(err, errs.ErrGuardRejected))
}

func TestRewriteRejectsUnauthorizedTable(t *testing.T) {
	_, err := Rewrite("SELECT x FROM other_table", sampleContract(), false, 200)
	assert.True(t, errors.Is(err, errs.ErrGuardRejected))
}

func TestRewriteFixesIntervalLiteral(t *testing.T) {
	sql, err := Rewrite("SELECT virus_details.node_id FROM virus_details WHERE virus_details.found_time > NOW() - INTERVAL '30' DAY", sampleContract(), false, 200)
	require.NoError(t, err)
	assert.Contains(t, sql, "INTERVAL 30 DAY")
}
