package limits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLimitsValid(t *testing.T) {
	require.NoError(t, Validate(DefaultContextLimits()))
}

func TestValidateRejectsNonPositive(t *testing.T) {
	l := DefaultContextLimits()
	l.MaxEffectiveTables = 0
	assert.Error(t, Validate(l))
}

func TestValidateRejectsTooLarge(t *testing.T) {
	l := DefaultContextLimits()
	l.MaxEffectiveTables = 10_000
	err := Validate(l)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestContextLimiterUpdate(t *testing.T) {
	cl := NewContextLimiter(nil)
	err := cl.Update(&ContextLimits{MaxEffectiveTables: -1, MaxColumnsPerTable: 1, MaxKBCharsPerTable: 1, MaxKBCharsTotal: 1})
	assert.Error(t, err)

	err = cl.Update(&ContextLimits{MaxEffectiveTables: 5, MaxColumnsPerTable: 5, MaxKBCharsPerTable: 500, MaxKBCharsTotal: 1000})
	require.NoError(t, err)
	assert.Equal(t, 5, cl.Limits().MaxEffectiveTables)
}

func TestTruncateTables(t *testing.T) {
	cl := NewContextLimiter(&ContextLimits{MaxEffectiveTables: 2, MaxColumnsPerTable: 3, MaxKBCharsPerTable: 10, MaxKBCharsTotal: 10})
	got := cl.TruncateTables([]string{"a", "b", "c", "d"})
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestTruncateColumnsUnderLimit(t *testing.T) {
	cl := NewContextLimiter(nil)
	got := cl.TruncateColumns([]string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, got)
}
