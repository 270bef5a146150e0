// Package kb loads and indexes the kb_catalog.json knowledge-base enrichment
// and renders bounded, HTML-stripped text snippets for the Planner prompt.
package kb

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TopValue is one (value, count) pair recorded for a column.
type TopValue struct {
	Value string
	Count int64
}

// UnmarshalJSON accepts the catalog's `[value, count]` tuple encoding.
func (tv *TopValue) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &tv.Value); err != nil {
		// tolerate non-string values by re-encoding them as text
		var anyVal interface{}
		if err2 := json.Unmarshal(pair[0], &anyVal); err2 != nil {
			return err
		}
		tv.Value = fmt.Sprintf("%v", anyVal)
	}
	return json.Unmarshal(pair[1], &tv.Count)
}

// ColumnEntry is per-column KB enrichment.
type ColumnEntry struct {
	Name      string     `json:"name"`
	Desc      string     `json:"desc,omitempty"`
	Aliases   []string   `json:"aliases,omitempty"`
	TopValues []TopValue `json:"top_values,omitempty"`
}

// TableEntry is per-table KB enrichment. All fields optional.
type TableEntry struct {
	Name        string                   `json:"name"`
	Purpose     string                   `json:"purpose,omitempty"`
	Aliases     []string                 `json:"aliases,omitempty"`
	GoodFor     []string                 `json:"good_for,omitempty"`
	TopValues   []TopValue    `json:"top_values,omitempty"`
	Columns     []ColumnEntry `json:"columns,omitempty"`
	TopNColumns map[string][]TopValue `json:"topn_columns,omitempty"`
}

// Catalog is the full kb_catalog.json document.
type Catalog struct {
	Tables []TableEntry `json:"tables"`

	byName map[string]*TableEntry
}

// Load reads and parses a KB catalog file from disk. A missing file is not an
// error: the KB is always optional enrichment, so Load returns an empty
// Catalog in that case.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Catalog{byName: map[string]*TableEntry{}}, nil
		}
		return nil, fmt.Errorf("kb: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse builds a Catalog from raw JSON bytes.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("kb: decode: %w", err)
	}
	c.byName = make(map[string]*TableEntry, len(c.Tables))
	for i := range c.Tables {
		c.byName[strings.ToLower(c.Tables[i].Name)] = &c.Tables[i]
	}
	return &c, nil
}

// Table looks up a table's KB entry by case-insensitive name. Absence is
// expected and not an error: KB coverage is invariant-allowed to be partial.
func (c *Catalog) Table(name string) (*TableEntry, bool) {
	if c == nil || c.byName == nil {
		return nil, false
	}
	t, ok := c.byName[strings.ToLower(name)]
	return t, ok
}

// stripHTML removes any markup from text pasted into a KB string (e.g. a
// description copied from a wiki page) and collapses whitespace, so the
// Planner prompt never carries raw HTML that could be mistaken for
// instructions. Plain text with no markup passes through unchanged.
func stripHTML(text string) string {
	if !strings.ContainsAny(text, "<>") {
		return text
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}
	doc.Find("script, style").Remove()
	cleaned := doc.Text()
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return text
	}
	return cleaned
}

// Snippet renders one table's KB entry as a short markdown block, truncated
// to maxChars. Returns "" if the table has no KB entry.
func Snippet(entry *TableEntry, maxChars int) string {
	if entry == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n", entry.Name)
	if entry.Purpose != "" {
		fmt.Fprintf(&b, "purpose: %s\n", stripHTML(entry.Purpose))
	}
	if len(entry.Aliases) > 0 {
		fmt.Fprintf(&b, "aliases: %s\n", stripHTML(strings.Join(entry.Aliases, ", ")))
	}
	if len(entry.GoodFor) > 0 {
		fmt.Fprintf(&b, "good_for: %s\n", strings.Join(entry.GoodFor, ", "))
	}
	for _, col := range entry.Columns {
		if col.Desc == "" && len(col.Aliases) == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s", col.Name, stripHTML(col.Desc))
		if len(col.Aliases) > 0 {
			fmt.Fprintf(&b, " (aka %s)", strings.Join(col.Aliases, ", "))
		}
		b.WriteString("\n")
	}
	out := b.String()
	if len(out) > maxChars {
		out = out[:maxChars]
	}
	return out
}
