// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	cidrtrie "github.com/absolutelightning/go-cidr-trie"
	"github.com/stretchr/testify/require"
)

const privateList = `10.0.0.0/8      ten
10.1.0.0/16     ten-one
192.168.0.0/16  home
`

func writeList(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTreeCmd(t *testing.T) {
	list := writeList(t, "private.txt", privateList)

	out, err := execute(t, "tree", "-f", list)
	require.NoError(t, err)
	require.Equal(t, "\n"+
		"○ 0.0.0.0/0\n"+
		"├─● 10.0.0.0/8 = ten\n"+
		"│ └─● 10.1.0.0/16 = ten-one\n"+
		"└─● 192.168.0.0/16 = home\n", out)

	out, err = execute(t, "tree", "-f", list, "--added-only")
	require.NoError(t, err)
	require.Contains(t, out, "└─● 10.1.0.0/16 = ten-one")

	out, err = execute(t, "tree", "-f", list, "-o", "json")
	require.NoError(t, err)
	var entries []entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Equal(t, []entry{
		{Prefix: "10.1.0.0/16", Value: "ten-one"},
		{Prefix: "10.0.0.0/8", Value: "ten"},
		{Prefix: "192.168.0.0/16", Value: "home"},
	}, entries)
}

func TestLookupCmd(t *testing.T) {
	list := writeList(t, "private.txt", privateList)

	out, err := execute(t, "lookup", "-f", list, "10.1.2.3", "10.200.0.1", "8.8.8.8", "2001:db8::1")
	require.NoError(t, err)
	require.Equal(t, ""+
		"10.1.2.3\t10.1.0.0/16\tten-one\n"+
		"10.200.0.1\t10.0.0.0/8\tten\n"+
		"8.8.8.8\t-\n"+
		"2001:db8::1\t-\n", out)

	out, err = execute(t, "lookup", "-f", list, "--all", "-o", "json", "10.1.2.3")
	require.NoError(t, err)
	var results []lookupResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Equal(t, []lookupResult{{
		Address:    "10.1.2.3",
		Found:      true,
		Prefix:     "10.1.0.0/16",
		Value:      "ten-one",
		Containing: []string{"10.0.0.0/8", "10.1.0.0/16"},
	}}, results)

	_, err = execute(t, "lookup", "-f", list, "not-an-address")
	require.ErrorIs(t, err, cidrtrie.ErrInvalidKey)
	_, err = execute(t, "lookup", "-f", list, "--cache-size", "-1", "10.1.2.3")
	require.Error(t, err)
}

func TestRangeCmd(t *testing.T) {
	list := writeList(t, "private.yaml", `
- prefix: 10.0.0.0/8
  value: ten
- prefix: 10.1.0.0/16
  value: ten-one
- 172.16.0.0/12
- prefix: 192.168.0.0/16
  value: home
`)

	out, err := execute(t, "range", "-f", list, "10.0.0.0/8", "192.168.0.0/16")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.0/8\tten\n172.16.0.0/12\n192.168.0.0/16\thome\n", out)

	out, err = execute(t, "range", "-f", list, "--exclusive-end", "--descending", "10.1.0.0/16", "192.168.0.0/16")
	require.NoError(t, err)
	require.Equal(t, "172.16.0.0/12\n10.0.0.0/8\tten\n10.1.0.0/16\tten-one\n", out)

	_, err = execute(t, "range", "-f", list, "192.168.0.0/16", "10.0.0.0/8")
	require.ErrorIs(t, err, cidrtrie.ErrOutOfRange)
	_, err = execute(t, "range", "-f", list, "::/0", "10.0.0.0/8")
	require.Error(t, err)
}

func TestRootCmd_Errors(t *testing.T) {
	list := writeList(t, "private.txt", privateList)

	_, err := execute(t, "tree")
	require.ErrorContains(t, err, "--file")
	_, err = execute(t, "tree", "-f", list, "-o", "xml")
	require.ErrorContains(t, err, "xml")
	_, err = execute(t, "tree", "-f", list, "--file-format", "csv")
	require.Error(t, err)
	_, err = execute(t, "tree", "-f", filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = execute(t, "tree", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRootCmd_Config(t *testing.T) {
	list := writeList(t, "private.txt", privateList)
	config := writeList(t, "config.yaml", "file: "+list+"\noutput: json\n")

	out, err := execute(t, "lookup", "--config", config, "10.1.2.3")
	require.NoError(t, err)
	require.Contains(t, out, `"prefix": "10.1.0.0/16"`)

	// flags win over the config file
	out, err = execute(t, "lookup", "--config", config, "-o", "text", "10.1.2.3")
	require.NoError(t, err)
	require.Equal(t, "10.1.2.3\t10.1.0.0/16\tten-one\n", out)

	t.Setenv("CIDRTRIE_FILE", list)
	out, err = execute(t, "tree", "--with-non-added=false")
	require.NoError(t, err)
	require.Contains(t, out, "● 192.168.0.0/16 = home")
}

func TestRangeEntries(t *testing.T) {
	t.Parallel()

	trie := &prefixTrie{}
	for _, key := range []string{"10.0.0.0/8", "10.1.0.0/16", "10.2.0.0/16"} {
		trie.Put(cidrtrie.MustParsePrefix(key), key)
	}
	entries, err := rangeEntries(trie, cidrtrie.MustParsePrefix("10.1.0.0/16"), cidrtrie.MustParsePrefix("10.0.0.0/8"), false, false)
	require.NoError(t, err)
	require.Equal(t, []entry{{Prefix: "10.1.0.0/16", Value: "10.1.0.0/16"}, {Prefix: "10.2.0.0/16", Value: "10.2.0.0/16"}}, entries)

	// empty ranges encode as an empty list
	entries, err = rangeEntries(trie, cidrtrie.MustParsePrefix("11.0.0.0/8"), cidrtrie.MustParsePrefix("12.0.0.0/8"), true, true)
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)

	matcher, err := trie.Matcher(0)
	require.NoError(t, err)
	results, err := lookup(trie, matcher, []string{"10.2.0.1"}, true)
	require.NoError(t, err)
	require.Equal(t, "10.2.0.0/16", results[0].Prefix)
	require.Equal(t, []string{"10.0.0.0/8", "10.2.0.0/16"}, results[0].Containing)
}
