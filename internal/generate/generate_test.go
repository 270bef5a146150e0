package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edr-t2sql/t2sql/internal/contract"
)

func TestBuildIncludesMustPredicatesAndTimeframeFragment(t *testing.T) {
	days := 30
	c := contract.Contract{
		AllowedTables:  []string{"virus_details"},
		MustPredicates: []string{"virus_details.level > 2"},
		TimeframeDays:  &days,
	}
	msg := Build("最近30天病毒数量", c, "count", 0)
	assert.Contains(t, msg, "virus_details.level > 2")
	assert.Contains(t, msg, "DATE_SUB(NOW(), INTERVAL 30 DAY)")
}

func TestBuildAddsTrendHint(t *testing.T) {
	msg := Build("趋势", contract.Contract{AllowedTables: []string{"t"}}, "trend", 0)
	assert.Contains(t, msg, "trend question")
}

func TestBuildClampsRequestedCandidateCount(t *testing.T) {
	c := contract.Contract{AllowedTables: []string{"t"}}
	msg := Build("q", c, "count", 5)
	assert.Contains(t, msg, "Produce exactly 3 candidate(s).")
}
