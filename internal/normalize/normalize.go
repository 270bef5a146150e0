// Package normalize provides pure, reversible-free string normalization for
// SQL predicate/join fragments, used by the AST Validator (C7) and the
// Minimal Repairer (C8) to compare a MUST requirement against what a
// candidate's WHERE/JOIN clauses actually contain.
//
// The normalization never parses SQL; it only rewrites text so that two
// semantically-equivalent fragments (different alias prefixes, whitespace,
// or NOT-IS-NULL phrasing) compare equal as substrings.
package normalize

import (
	"regexp"
	"strings"
)

var tablePrefixPattern = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]*\.`)
var whitespacePattern = regexp.MustCompile(`\s+`)
var eqSpacingPattern = regexp.MustCompile(`\s*=\s*`)

// rule is one ordered, priority-ranked text rewrite, modeled on this
// codebase's rule-table normalizer idiom: a small ordered list of
// pattern/replacement pairs applied in sequence rather than one monolithic
// regex.
type rule struct {
	pattern     *regexp.Regexp
	replacement string
	priority    int
}

// equivalenceRules captures phrasing the LLM may emit interchangeably; both
// directions of the NOT-IS-NULL equivalence are rewritten to the same
// canonical form so a "not x is null" MUST requirement matches a
// "x is not null" candidate fragment and vice versa.
var equivalenceRules = []rule{
	{
		pattern:     regexp.MustCompile(`(?i)not\s+([a-z0-9_.` + "`" + `]+)\s+is\s+not\s+null`),
		replacement: "$1 is null",
		priority:    200,
	},
	{
		pattern:     regexp.MustCompile(`(?i)not\s+([a-z0-9_.` + "`" + `]+)\s+is\s+null`),
		replacement: "$1 is not null",
		priority:    100,
	},
}

// Fragment lowercases, strips `table.` prefixes, collapses whitespace and
// `\s*=\s*` runs, and applies the NOT-IS-NULL equivalence rewrite. Used for
// both predicate atoms and join conditions.
func Fragment(s string) string {
	s = strings.ToLower(s)
	s = tablePrefixPattern.ReplaceAllString(s, "")
	s = eqSpacingPattern.ReplaceAllString(s, "=")
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	rules := append([]rule(nil), equivalenceRules...)
	for i := range rules {
		for j := i + 1; j < len(rules); j++ {
			if rules[j].priority > rules[i].priority {
				rules[i], rules[j] = rules[j], rules[i]
			}
		}
	}
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, r.replacement)
	}
	return s
}

// SplitTopLevelAnd decomposes a predicate into its top-level AND-joined
// atoms. Each atom has exactly one pair of wrapping parentheses stripped, if
// present, but nested parens inside an atom (e.g. an IN-list) are preserved.
func SplitTopLevelAnd(predicate string) []string {
	depth := 0
	start := 0
	var atoms []string
	runes := []rune(predicate)

	pushAtom := func(end int) {
		atom := strings.TrimSpace(string(runes[start:end]))
		if atom != "" {
			atoms = append(atoms, stripOneParenPair(atom))
		}
	}

	i := 0
	for i < len(runes) {
		switch runes[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		}
		if depth == 0 && matchesWordAt(runes, i, "and") {
			pushAtom(i)
			i += 3
			start = i
			continue
		}
		i++
	}
	pushAtom(len(runes))
	return atoms
}

// matchesWordAt reports whether the case-insensitive word occurs at position
// i as a standalone token (surrounded by non-identifier characters).
func matchesWordAt(runes []rune, i int, word string) bool {
	if i+len(word) > len(runes) {
		return false
	}
	for k, w := range word {
		r := runes[i+k]
		if r != w && r != w-('a'-'A') {
			return false
		}
	}
	if i > 0 && isIdentChar(runes[i-1]) {
		return false
	}
	end := i + len(word)
	if end < len(runes) && isIdentChar(runes[end]) {
		return false
	}
	return true
}

func isIdentChar(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func stripOneParenPair(atom string) string {
	if len(atom) < 2 || atom[0] != '(' || atom[len(atom)-1] != ')' {
		return atom
	}
	depth := 0
	for i, r := range atom {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(atom)-1 {
				// the first '(' closes before the end: not a single wrapping pair
				return atom
			}
		}
	}
	return strings.TrimSpace(atom[1 : len(atom)-1])
}

// ContainsFragment reports whether needle (already normalized) appears as a
// substring of any of haystacks (each normalized before comparison).
func ContainsFragment(needle string, haystacks []string) bool {
	for _, h := range haystacks {
		if strings.Contains(Fragment(h), needle) {
			return true
		}
	}
	return false
}
