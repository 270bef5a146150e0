package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edr-t2sql/t2sql/internal/schema"
)

func TestTokenizeExtractsAsciiAndChinese(t *testing.T) {
	tokens := Tokenize("哪些应用存在弱口令? check app_id 123")
	assert.Contains(t, tokens, "弱口令")
	assert.Contains(t, tokens, "app_id")
	assert.Contains(t, tokens, "123")
}

func TestScoreTableSemanticMatchOutranksUnrelated(t *testing.T) {
	threat := schema.Table{Name: "threat_domain_static", Columns: []schema.Column{{Name: "domain"}}}
	other := schema.Table{Name: "unrelated_table", Columns: []schema.Column{{Name: "id"}}}

	tokens := Tokenize("威胁域名查询")
	assert.Greater(t, ScoreTable(threat, tokens), ScoreTable(other, tokens))
}

func TestAutoSelectTablesDynamicTopK(t *testing.T) {
	s, err := schema.Parse([]byte(`{"tables":[
		{"name":"threat_domain_static","columns":[{"name":"domain"}]},
		{"name":"threat_malicious_list","columns":[{"name":"id"}]},
		{"name":"unrelated_one","columns":[{"name":"id"}]},
		{"name":"unrelated_two","columns":[{"name":"id"}]}
	]}`))
	require.NoError(t, err)

	tokens := Tokenize("威胁域名")
	scored := AutoSelectTables(s, tokens)
	require.NotEmpty(t, scored)
	assert.Equal(t, "threat_domain_static", scored[0].Name)
}

func TestClassifyTaskTrend(t *testing.T) {
	assert.Equal(t, TaskHintTrend, ClassifyTask("最近30天弱口令应用数量趋势"))
}

func TestClassifyTaskCount(t *testing.T) {
	assert.Equal(t, TaskHintCount, ClassifyTask("病毒感染终端总数"))
}

func TestClassifyTaskUnknown(t *testing.T) {
	assert.Equal(t, TaskHintUnknown, ClassifyTask("列出所有应用"))
}
