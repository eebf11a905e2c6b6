// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package prefixfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	cidrtrie "github.com/absolutelightning/go-cidr-trie"
	"github.com/stretchr/testify/require"
)

const textList = `# private ranges
10.0.0.0/8      corp
10.1.0.0/16     corp east

192.168.0.0/16
not-a-prefix    ignored
2001:db8::/32   other family
10.0.0.0/8      corp again
`

const yamlList = `
- 10.0.0.0/8
- prefix: 10.1.0.0/16
  value: corp east
- prefix: 172.16.0.0/12
  value: 42
- prefix: 10.1.2.3/8
  value: host bits
`

func TestParse_Text(t *testing.T) {
	t.Parallel()

	entries, err := Parse(strings.NewReader(textList), FormatText)
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{Prefix: "10.0.0.0/8", Value: "corp", Line: 2},
		{Prefix: "10.1.0.0/16", Value: "corp east", Line: 3},
		{Prefix: "192.168.0.0/16", Line: 5},
		{Prefix: "not-a-prefix", Value: "ignored", Line: 6},
		{Prefix: "2001:db8::/32", Value: "other family", Line: 7},
		{Prefix: "10.0.0.0/8", Value: "corp again", Line: 8},
	}, entries)
}

func TestParse_YAML(t *testing.T) {
	t.Parallel()

	entries, err := Parse(strings.NewReader(yamlList), FormatYAML)
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{Prefix: "10.0.0.0/8", Line: 1},
		{Prefix: "10.1.0.0/16", Value: "corp east", Line: 2},
		{Prefix: "172.16.0.0/12", Value: "42", Line: 3},
		{Prefix: "10.1.2.3/8", Value: "host bits", Line: 4},
	}, entries)

	entries, err = Parse(strings.NewReader("  \n"), FormatYAML)
	require.NoError(t, err)
	require.Empty(t, entries)

	_, err = Parse(strings.NewReader("prefix: 10.0.0.0/8"), FormatYAML)
	require.Error(t, err)

	_, err = Parse(strings.NewReader(""), Format("json"))
	require.Error(t, err)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	entries, err := Parse(strings.NewReader(textList), FormatText)
	require.NoError(t, err)
	trie := Build(entries)
	require.Equal(t, 3, trie.Size())

	value, ok := trie.Get(cidrtrie.MustParsePrefix("10.0.0.0/8"))
	require.True(t, ok)
	require.Equal(t, "corp again", value)
	value, ok = trie.Get(cidrtrie.MustParsePrefix("192.168.0.0/16"))
	require.True(t, ok)
	require.Empty(t, value)

	// the first valid entry fixes the family
	six := Build([]Entry{{Prefix: "bogus"}, {Prefix: "2001:db8::/32"}, {Prefix: "10.0.0.0/8"}})
	require.Equal(t, 1, six.Size())
	require.True(t, six.Contains(cidrtrie.MustParsePrefix("2001:db8::/32")))

	require.True(t, Build(nil).IsEmpty())
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	textPath := filepath.Join(dir, "ranges.txt")
	require.NoError(t, os.WriteFile(textPath, []byte(textList), 0o600))
	yamlPath := filepath.Join(dir, "ranges.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlList), 0o600))

	trie, err := Load(textPath, FormatAuto)
	require.NoError(t, err)
	require.Equal(t, 3, trie.Size())

	trie, err = Load(yamlPath, FormatAuto)
	require.NoError(t, err)
	require.Equal(t, 3, trie.Size())
	value, _ := trie.Get(cidrtrie.MustParsePrefix("172.16.0.0/12"))
	require.Equal(t, "42", value)

	// an explicit format wins over the extension
	_, err = Load(yamlPath, FormatText)
	require.NoError(t, err)
	_, err = Load(textPath, FormatYAML)
	require.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.txt"), FormatAuto)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	type exp struct {
		name   string
		format Format
		err    bool
	}
	cases := []exp{
		{name: "", format: FormatAuto},
		{name: "text", format: FormatText},
		{name: "YAML", format: FormatYAML},
		{name: "yml", format: FormatYAML},
		{name: "csv", err: true},
	}
	for _, c := range cases {
		format, err := ParseFormat(c.name)
		if c.err {
			require.Error(t, err, c.name)
			continue
		}
		require.NoError(t, err, c.name)
		require.Equal(t, c.format, format, c.name)
	}
}
