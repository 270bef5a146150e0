package lexical

import (
	"sort"
	"strings"

	"github.com/edr-t2sql/t2sql/internal/schema"
)

// semanticMap expands a Chinese domain token into the English terms it is
// likely to correspond to in a table/column name.
var semanticMap = map[string][]string{
	"威胁":  {"threat", "malicious", "risk"},
	"域名":  {"domain", "url", "dns"},
	"恶意":  {"malicious", "threat", "bad"},
	"黑名单": {"blacklist", "block", "deny"},
	"在线":  {"online", "connected", "active", "statistics"},
	"离线":  {"offline", "disconnected", "inactive", "statistics"},
	"终端":  {"node", "endpoint", "terminal", "machine"},
	"节点":  {"node", "endpoint", "machine"},
	"状态":  {"status", "state", "statistics"},
	"连接":  {"connect", "connection", "link", "statistics"},
	"情况":  {"statistics", "status", "state", "summary"},
	"统计":  {"statistics", "stat", "count", "summary"},
	"记录":  {"record", "log", "entry"},
	"文件":  {"file", "document"},
	"进程":  {"process", "proc"},
	"端口":  {"port"},
	"漏洞":  {"vulnerability", "vuln", "cve"},
	"病毒":  {"virus", "malware"},
	"用户":  {"user", "account"},
	"密码":  {"password", "pwd"},
	"弱口令": {"weak", "password"},
	"监控":  {"monitor", "watch"},
	"分析":  {"analysis", "analyze"},
	"趋势":  {"trend", "statistics", "time"},
	"总数":  {"count", "total", "summary"},
	"分布":  {"distribution", "group", "statistics"},
}

var commonColumns = map[string]struct{}{
	"id": {}, "name": {}, "value": {}, "key": {}, "type": {}, "status": {},
	"time": {}, "date": {}, "create_time": {}, "update_time": {},
	"start_time": {}, "end_time": {}, "level": {},
}

var statisticalIndicators = []string{"情况", "统计", "总数", "分布", "趋势"}
var threatIndicators = []string{"威胁", "恶意", "黑名单"}

// expandTokens unions the raw tokens with every semantic-map expansion they
// trigger.
func expandTokens(tokens []string) []string {
	extended := append([]string(nil), tokens...)
	for _, tok := range tokens {
		if mapped, ok := semanticMap[tok]; ok {
			extended = append(extended, mapped...)
		}
	}
	return extended
}

// ScoredTable is one table with its lexical match score.
type ScoredTable struct {
	Name  string
	Score float64
}

// ScoreTable computes a table's lexical match score against tokens, per
// SPEC_FULL.md §4.1's weighted-booster scheme.
func ScoreTable(t schema.Table, tokens []string) float64 {
	name := strings.ToLower(t.Name)
	extended := expandTokens(tokens)
	extendedSet := make(map[string]struct{}, len(extended))
	for _, e := range extended {
		extendedSet[e] = struct{}{}
	}

	var score float64

	if name != "" {
		if _, ok := extendedSet[name]; ok {
			score += 10.0
		}
	}

	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		if _, ok := extendedSet[part]; ok {
			score += 5.0
		}
	}

	for tk := range extendedSet {
		if len(tk) > 2 && strings.Contains(name, tk) {
			score += 1.0
		}
	}

	semanticMatches := 0
	for _, tok := range tokens {
		mapped, ok := semanticMap[tok]
		if !ok {
			continue
		}
		for _, m := range mapped {
			if strings.Contains(name, m) {
				semanticMatches++
				break
			}
		}
	}
	switch {
	case semanticMatches >= 2:
		score += 8.0
	case semanticMatches >= 1:
		score += 4.0
	}

	isStatisticalQuery := tokenSetIntersects(tokens, statisticalIndicators)
	if isStatisticalQuery && strings.Contains(name, "statistics") {
		score += 20.0
	}

	isThreatQuery := tokenSetIntersects(tokens, threatIndicators)
	if isThreatQuery && containsAny(name, "threat", "malicious", "blacklist") {
		score += 10.0
	}

	for _, col := range t.Columns {
		lc := strings.ToLower(col.Name)
		_, isCommon := commonColumns[lc]
		for tk := range extendedSet {
			if tk == "" || !strings.Contains(lc, tk) {
				continue
			}
			switch {
			case tk == lc && !isCommon:
				score += 2.0
			case tk == lc && isCommon:
				score += 0.1
			case !isCommon:
				score += 0.5
			default:
				score -= 0.9
			}
		}
	}

	if _, ok := extendedSet[name]; ok && name != "" {
		score += 15.0
	}

	if score < 0 {
		score = 0
	}
	return score
}

func tokenSetIntersects(tokens []string, indicators []string) bool {
	for _, tok := range tokens {
		for _, ind := range indicators {
			if tok == ind {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, candidates ...string) bool {
	for _, c := range candidates {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}

// AutoSelectTables scores every table in s against tokens and returns a
// dynamically-sized top-K: base 8, +4 if the best score indicates an exact
// table-name hit (>=10), +2 more if at least two tables score >=5.
func AutoSelectTables(s *schema.Schema, tokens []string) []ScoredTable {
	scored := make([]ScoredTable, 0, len(s.Tables))
	for _, t := range s.Tables {
		scored = append(scored, ScoredTable{Name: t.Name, Score: ScoreTable(t, tokens)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	topK := 8
	if len(scored) > 0 && scored[0].Score >= 10.0 {
		topK += 4
	}
	highScoreCount := 0
	for _, st := range scored {
		if st.Score >= 5.0 {
			highScoreCount++
		}
	}
	if highScoreCount >= 2 {
		topK += 2
	}
	if topK > len(scored) {
		topK = len(scored)
	}
	if topK < 1 && len(scored) > 0 {
		topK = 1
	}
	return scored[:topK]
}

// SelectColumns scores each table's columns against tokens (name matches
// weighted 1.0, comment matches 0.3) and returns the top N per table.
func SelectColumns(s *schema.Schema, tableNames []string, tokens []string, topNPerTable int) map[string][]string {
	result := make(map[string][]string, len(tableNames))
	for _, tname := range tableNames {
		t, ok := s.Table(tname)
		if !ok {
			continue
		}
		type scoredCol struct {
			name  string
			score float64
		}
		cols := make([]scoredCol, 0, len(t.Columns))
		for _, c := range t.Columns {
			lc := strings.ToLower(c.Name)
			comment := strings.ToLower(c.Comment)
			var sc float64
			for _, tk := range tokens {
				if tk == "" {
					continue
				}
				if strings.Contains(lc, tk) {
					sc += 1.0
				}
				if strings.Contains(comment, tk) {
					sc += 0.3
				}
			}
			cols = append(cols, scoredCol{name: c.Name, score: sc})
		}
		sort.SliceStable(cols, func(i, j int) bool { return cols[i].score > cols[j].score })
		n := topNPerTable
		if n < 1 {
			n = 1
		}
		if n > len(cols) {
			n = len(cols)
		}
		names := make([]string, n)
		for i := 0; i < n; i++ {
			names[i] = cols[i].name
		}
		result[tname] = names
	}
	return result
}
