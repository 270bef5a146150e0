// Package limits bounds the size of the Planner prompt the Context Builder (C3)
// assembles, so prompt size stays predictable regardless of schema size.
package limits

import "fmt"

// ContextLimits caps the effective_schema/kb_snippet/selected_columns outputs
// of the Schema/KB Context Builder (C3).
type ContextLimits struct {
	MaxEffectiveTables   int `json:"max_effective_tables"`
	MaxColumnsPerTable   int `json:"max_columns_per_table"`
	MaxKBCharsPerTable   int `json:"max_kb_chars_per_table"`
	MaxKBCharsTotal      int `json:"max_kb_chars_total"`
}

// DefaultContextLimits mirrors SPEC_FULL.md §4.3's defaults.
func DefaultContextLimits() *ContextLimits {
	return &ContextLimits{
		MaxEffectiveTables: 12,
		MaxColumnsPerTable: 15,
		MaxKBCharsPerTable: 1000,
		MaxKBCharsTotal:    2000,
	}
}

// ContextLimiter enforces a ContextLimits configuration.
type ContextLimiter struct {
	limits *ContextLimits
}

// NewContextLimiter builds a limiter; a nil config falls back to defaults.
func NewContextLimiter(l *ContextLimits) *ContextLimiter {
	if l == nil {
		l = DefaultContextLimits()
	}
	return &ContextLimiter{limits: l}
}

// Limits returns the current configuration.
func (cl *ContextLimiter) Limits() *ContextLimits {
	return cl.limits
}

// Update replaces the configuration after validating it.
func (cl *ContextLimiter) Update(l *ContextLimits) error {
	if err := Validate(l); err != nil {
		return err
	}
	cl.limits = l
	return nil
}

// Validate rejects non-positive or implausibly large limits. Update calls it
// before replacing the configuration; NewContextLimiter does not.
func Validate(l *ContextLimits) error {
	if l.MaxEffectiveTables <= 0 {
		return fmt.Errorf("MaxEffectiveTables must be positive")
	}
	if l.MaxColumnsPerTable <= 0 {
		return fmt.Errorf("MaxColumnsPerTable must be positive")
	}
	if l.MaxKBCharsPerTable <= 0 {
		return fmt.Errorf("MaxKBCharsPerTable must be positive")
	}
	if l.MaxKBCharsTotal <= 0 {
		return fmt.Errorf("MaxKBCharsTotal must be positive")
	}
	if l.MaxEffectiveTables > 500 {
		return fmt.Errorf("MaxEffectiveTables too large (> 500)")
	}
	if l.MaxKBCharsTotal > 1_000_000 {
		return fmt.Errorf("MaxKBCharsTotal too large (> 1,000,000)")
	}
	return nil
}

// TruncateTables caps a table list at the configured effective-table count.
func (cl *ContextLimiter) TruncateTables(tables []string) []string {
	if len(tables) <= cl.limits.MaxEffectiveTables {
		return tables
	}
	return tables[:cl.limits.MaxEffectiveTables]
}

// TruncateColumns caps a column list at the configured per-table count.
func (cl *ContextLimiter) TruncateColumns(columns []string) []string {
	if len(columns) <= cl.limits.MaxColumnsPerTable {
		return columns
	}
	return columns[:cl.limits.MaxColumnsPerTable]
}
