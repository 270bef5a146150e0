package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "tables": [
    {
      "name": "weak_password_app",
      "columns": [
        {"name": "app_id", "type": "bigint"},
        {"name": "name", "type": "varchar"}
      ]
    },
    {
      "name": "weak_password_app_detail",
      "columns": [
        {"name": "app_id", "type": "bigint"},
        {"name": "pass_wd", "type": "varchar"},
        {"name": "last_find_time", "type": "datetime"}
      ],
      "foreign_keys": [
        {"column": "app_id", "ref_table": "weak_password_app", "ref_column": "app_id"}
      ]
    }
  ]
}`

func TestParseAndLookup(t *testing.T) {
	s, err := Parse([]byte(sampleJSON))
	require.NoError(t, err)
	require.Len(t, s.Tables, 2)

	assert.True(t, s.HasTable("Weak_Password_App"))
	assert.False(t, s.HasTable("nonexistent"))
	assert.True(t, s.HasColumn("weak_password_app_detail", "PASS_WD"))
	assert.False(t, s.HasColumn("weak_password_app_detail", "missing"))
}

func TestFilterPreservesOrder(t *testing.T) {
	s, err := Parse([]byte(sampleJSON))
	require.NoError(t, err)

	filtered := s.Filter([]string{"weak_password_app_detail", "weak_password_app", "ghost_table"})
	require.Len(t, filtered.Tables, 2)
	assert.Equal(t, "weak_password_app_detail", filtered.Tables[0].Name)
	assert.Equal(t, "weak_password_app", filtered.Tables[1].Name)
}
