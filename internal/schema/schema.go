// Package schema loads and indexes the m_schema.json table/column/foreign-key export.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Column describes one schema column.
type Column struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment,omitempty"`
}

// ForeignKey describes a column -> ref_table.ref_column edge.
type ForeignKey struct {
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
}

// Table is one schema table.
type Table struct {
	Name        string       `json:"name"`
	Comment     string       `json:"comment,omitempty"`
	Columns     []Column     `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
}

// ColumnNames returns the lowercase names of the table's columns.
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, strings.ToLower(c.Name))
	}
	return names
}

// Schema is the full m_schema.json document, plus a lowercase-name index.
type Schema struct {
	Tables []Table `json:"tables"`

	byName map[string]*Table
}

// Load reads and parses a schema file from disk.
func Load(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse builds a Schema from raw JSON bytes, indexing tables by lowercase name.
func Parse(raw []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("schema: decode: %w", err)
	}
	s.reindex()
	return &s, nil
}

func (s *Schema) reindex() {
	s.byName = make(map[string]*Table, len(s.Tables))
	for i := range s.Tables {
		s.byName[strings.ToLower(s.Tables[i].Name)] = &s.Tables[i]
	}
}

// Table looks up a table by case-insensitive name.
func (s *Schema) Table(name string) (*Table, bool) {
	t, ok := s.byName[strings.ToLower(name)]
	return t, ok
}

// HasTable reports whether a table exists, case-insensitively.
func (s *Schema) HasTable(name string) bool {
	_, ok := s.byName[strings.ToLower(name)]
	return ok
}

// HasColumn reports whether table.column exists, case-insensitively.
func (s *Schema) HasColumn(table, column string) bool {
	t, ok := s.Table(table)
	if !ok {
		return false
	}
	column = strings.ToLower(column)
	for _, c := range t.Columns {
		if strings.ToLower(c.Name) == column {
			return true
		}
	}
	return false
}

// TableNames returns every table name, in file order.
func (s *Schema) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// Filter returns a new Schema containing only the named tables, preserving the
// order given in names. Unknown names are silently skipped.
func (s *Schema) Filter(names []string) *Schema {
	out := &Schema{Tables: make([]Table, 0, len(names))}
	for _, n := range names {
		if t, ok := s.Table(n); ok {
			out.Tables = append(out.Tables, *t)
		}
	}
	out.reindex()
	return out
}
