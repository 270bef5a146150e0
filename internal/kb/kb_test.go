package kb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "tables": [
    {
      "name": "threat_domain_static",
      "purpose": "<p>Known <b>malicious</b> domains</p>",
      "aliases": ["威胁域名", "threat domain"],
      "good_for": ["threat lookup"],
      "columns": [
        {"name": "domain", "desc": "the domain name", "aliases": ["域名"]}
      ]
    }
  ]
}`

func TestLoadMissingFileIsNotError(t *testing.T) {
	c, err := Load("/nonexistent/kb_catalog.json")
	require.NoError(t, err)
	_, ok := c.Table("anything")
	assert.False(t, ok)
}

func TestSnippetStripsHTML(t *testing.T) {
	c, err := Parse([]byte(sampleJSON))
	require.NoError(t, err)

	entry, ok := c.Table("THREAT_DOMAIN_STATIC")
	require.True(t, ok)

	snippet := Snippet(entry, 2000)
	assert.Contains(t, snippet, "Known malicious domains")
	assert.NotContains(t, snippet, "<p>")
	assert.NotContains(t, snippet, "<b>")
}

func TestSnippetTruncation(t *testing.T) {
	c, err := Parse([]byte(sampleJSON))
	require.NoError(t, err)
	entry, _ := c.Table("threat_domain_static")

	snippet := Snippet(entry, 10)
	assert.LessOrEqual(t, len(snippet), 10)
}
