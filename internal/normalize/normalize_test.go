package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFragmentStripsTablePrefixAndCase(t *testing.T) {
	got := Fragment("Weak_Password_App_Detail.Pass_Wd  IS   NOT NULL")
	assert.Equal(t, "pass_wd is not null", got)
}

func TestFragmentEqSpacing(t *testing.T) {
	got := Fragment("a.app_id   =    b.app_id")
	assert.Equal(t, "app_id=app_id", got)
}

func TestFragmentNotIsNullEquivalence(t *testing.T) {
	got := Fragment("NOT a.x IS NULL")
	assert.Equal(t, "x is not null", got)
}

func TestFragmentNotIsNotNullEquivalence(t *testing.T) {
	got := Fragment("NOT a.x IS NOT NULL")
	assert.Equal(t, "x is null", got)
}

func TestSplitTopLevelAndBasic(t *testing.T) {
	atoms := SplitTopLevelAnd("A.x IS NOT NULL AND B.y = 1")
	assert.Equal(t, []string{"A.x IS NOT NULL", "B.y = 1"}, atoms)
}

func TestSplitTopLevelAndStripsOneParenPair(t *testing.T) {
	atoms := SplitTopLevelAnd("(A.x IS NOT NULL) AND (B.y = 1)")
	assert.Equal(t, []string{"A.x IS NOT NULL", "B.y = 1"}, atoms)
}

func TestSplitTopLevelAndPreservesNestedParens(t *testing.T) {
	atoms := SplitTopLevelAnd("A.x IN (1, 2, 3) AND B.y = 1")
	assert.Equal(t, []string{"A.x IN (1, 2, 3)", "B.y = 1"}, atoms)
}

func TestContainsFragment(t *testing.T) {
	haystacks := []string{"weak_password_app_detail.app_id = weak_password_app.app_id"}
	assert.True(t, ContainsFragment(Fragment("b.app_id = c.app_id"), haystacks))
}
