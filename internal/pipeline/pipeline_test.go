package pipeline

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackRecordReportsMethodAndWrapsCause(t *testing.T) {
	p := &Pipeline{}
	rec, err := p.fallback("未授权的问题", errors.New("boom"))
	require.Error(t, err)
	assert.Equal(t, "fallback", rec.Method)
	assert.Equal(t, "未授权的问题", rec.Question)
	assert.Empty(t, rec.SQL)
}

func TestRecordOmitsEmptyOptionalFields(t *testing.T) {
	rec := Record{Question: "q", SQL: "SELECT 1", Method: "plan_generate_validate"}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "repaired")
	assert.NotContains(t, string(data), "plan")
	assert.NotContains(t, string(data), "additional_candidate")
}
