package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edr-t2sql/t2sql/internal/candidate"
	"github.com/edr-t2sql/t2sql/internal/contract"
)

func baseContract() contract.Contract {
	return contract.Contract{
		AllowedTables: []string{"weak_password_app", "weak_password_app_detail"},
		AllowedColumns: map[string][]string{
			"weak_password_app":        {"name", "app_id"},
			"weak_password_app_detail": {"level", "pass_wd", "app_id"},
		},
		MustTables:     []string{"weak_password_app", "weak_password_app_detail"},
		MustJoins:      []string{"weak_password_app_detail.app_id = weak_password_app.app_id"},
		MustPredicates: []string{"weak_password_app_detail.pass_wd IS NOT NULL"},
	}
}

func TestValidateOnePassesWhenAllConstraintsPresent(t *testing.T) {
	sql := "SELECT weak_password_app.name, weak_password_app.app_id FROM weak_password_app " +
		"JOIN weak_password_app_detail ON weak_password_app_detail.app_id = weak_password_app.app_id " +
		"WHERE weak_password_app_detail.pass_wd IS NOT NULL LIMIT 200"
	res := ValidateOne(candidate.Candidate{Label: "c1", SQL: sql}, baseContract())
	require.True(t, res.Passed)
	assert.False(t, res.Candidate.Repaired)
}

func TestValidateOneRepairsMissingPredicate(t *testing.T) {
	sql := "SELECT weak_password_app.name, weak_password_app.app_id FROM weak_password_app " +
		"JOIN weak_password_app_detail ON weak_password_app_detail.app_id = weak_password_app.app_id LIMIT 200"
	res := ValidateOne(candidate.Candidate{Label: "c1", SQL: sql}, baseContract())
	require.True(t, res.Passed)
	assert.True(t, res.Candidate.Repaired)
	assert.Contains(t, res.Candidate.SQL, "pass_wd")
}

func TestValidateOneRejectsUnauthorizedTable(t *testing.T) {
	sql := "SELECT * FROM some_other_table"
	res := ValidateOne(candidate.Candidate{Label: "c1", SQL: sql}, baseContract())
	assert.False(t, res.Passed)
}

func TestValidateAllRunsConcurrently(t *testing.T) {
	sql := "SELECT weak_password_app.name FROM weak_password_app " +
		"JOIN weak_password_app_detail ON weak_password_app_detail.app_id = weak_password_app.app_id " +
		"WHERE weak_password_app_detail.pass_wd IS NOT NULL"
	cands := []candidate.Candidate{{Label: "c1", SQL: sql}, {Label: "c2", SQL: sql}}
	results, err := ValidateAll(context.Background(), cands, baseContract())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Passed)
	}
}
