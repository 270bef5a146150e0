// Package lexical implements the Token/Lexical Shortlister (C1): a
// dependency-free scoring pass over the schema that proposes an initial
// candidate table set from the question's tokens, before any LLM call runs.
package lexical

import (
	"regexp"
	"strings"
)

var asciiTokenPattern = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*|\d+`)

// chineseKeywords is the fixed ~50-term domain vocabulary substring-matched
// against the raw question text (Chinese has no whitespace word boundaries,
// so this is a keyword scan rather than a segmenter).
var chineseKeywords = []string{
	"威胁", "域名", "恶意", "黑名单", "在线", "离线", "终端", "节点", "状态",
	"连接", "情况", "统计", "记录", "数据", "文件", "进程", "端口", "漏洞",
	"病毒", "安全", "风险", "告警", "日志", "时间", "今天", "昨天", "趋势",
	"计数", "总数", "分布", "按", "查询", "检索", "搜索", "列表", "详情",
	"用户", "账号", "密码", "弱口令", "攻击", "防护", "监控", "分析",
	"资产", "设备", "主机", "服务器", "网络", "流量", "异常", "事件",
}

// Tokenize extracts ASCII word/number runs and any occurrence of a
// predefined Chinese domain keyword, deduplicated.
func Tokenize(question string) []string {
	seen := make(map[string]struct{})
	var tokens []string

	for _, m := range asciiTokenPattern.FindAllString(toLowerASCII(question), -1) {
		if _, ok := seen[m]; !ok {
			seen[m] = struct{}{}
			tokens = append(tokens, m)
		}
	}
	for _, kw := range chineseKeywords {
		if containsRune(question, kw) {
			if _, ok := seen[kw]; !ok {
				seen[kw] = struct{}{}
				tokens = append(tokens, kw)
			}
		}
	}
	return tokens
}

func toLowerASCII(s string) string {
	return strings.ToLower(s)
}

func containsRune(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
