package lexical

import "strings"

// TaskHint is a best-guess, non-authoritative task classification derived
// from lexical patterns in the question. It is passed into the Planner
// prompt as a suggestion only; the Planner LLM call remains authoritative
// over the final Plan.task.
type TaskHint string

const (
	TaskHintList         TaskHint = "list"
	TaskHintCount        TaskHint = "count"
	TaskHintTrend        TaskHint = "trend"
	TaskHintRank         TaskHint = "rank"
	TaskHintDetail       TaskHint = "detail"
	TaskHintFilter       TaskHint = "filter"
	TaskHintDistribution TaskHint = "distribution"
	TaskHintUnknown      TaskHint = ""
)

// classificationRule maps a set of trigger substrings to a task hint,
// checked in priority order (first match wins), mirroring the
// pattern-classification idiom used elsewhere in this codebase for
// categorizing free-form input into a small fixed set of labels.
type classificationRule struct {
	hint     TaskHint
	triggers []string
}

var classificationRules = []classificationRule{
	{TaskHintTrend, []string{"趋势", "近7天", "近30天", "近90天", "每天", "按天"}},
	{TaskHintRank, []string{"排名", "top", "TOP", "前10", "前五", "最多的"}},
	{TaskHintCount, []string{"共多少", "总数", "数量", "多少个", "count"}},
	{TaskHintDistribution, []string{"分布", "占比", "比例"}},
	{TaskHintDetail, []string{"详情", "详细信息", "具体"}},
}

// ClassifyTask returns a best-effort TaskHint for question, or
// TaskHintUnknown if no trigger matched.
func ClassifyTask(question string) TaskHint {
	lower := strings.ToLower(question)
	for _, rule := range classificationRules {
		for _, trigger := range rule.triggers {
			if strings.Contains(lower, strings.ToLower(trigger)) || strings.Contains(question, trigger) {
				return rule.hint
			}
		}
	}
	return TaskHintUnknown
}
