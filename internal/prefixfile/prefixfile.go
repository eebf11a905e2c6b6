// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package prefixfile reads lists of CIDR prefixes, each optionally labelled
// with a value, into an associative trie.
//
// Text lists hold one prefix per line, optionally followed by whitespace and
// the value. Blank lines and lines starting with # are ignored. YAML lists
// are sequences of either bare prefixes or mappings with prefix and value
// keys.
package prefixfile

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	cidrtrie "github.com/absolutelightning/go-cidr-trie"
	ms "github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var log = logrus.WithField("component", "prefixfile")

// Format is the syntax of a prefix list.
type Format string

const (
	// FormatAuto picks FormatYAML for .yaml and .yml files, FormatText otherwise.
	FormatAuto Format = ""
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

// Entry is one prefix of a list.
type Entry struct {
	Prefix string `mapstructure:"prefix"`
	Value  string `mapstructure:"value"`

	// Line is the 1-based line of text lists or the 1-based item of YAML lists.
	Line int `mapstructure:"-"`
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch format := Format(strings.ToLower(name)); format {
	case FormatAuto, FormatText, FormatYAML:
		return format, nil
	case "yml":
		return FormatYAML, nil
	}
	return FormatAuto, errors.Errorf("unknown prefix list format %q", name)
}

// Load reads the list at path into a new trie. Entries that do not parse as
// a prefix, or whose address family differs from the first valid entry, are
// logged and skipped. A prefix listed twice keeps the last value.
func Load(path string, format Format) (*cidrtrie.AssociativeTrie[cidrtrie.Prefix, string], error) {
	if format == FormatAuto {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			format = FormatYAML
		default:
			format = FormatText
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening prefix list")
	}
	defer f.Close()

	entries, err := Parse(f, format)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	trie := Build(entries)
	log.WithField("file", path).WithField("prefixes", trie.Size()).Debug("loaded prefix list")
	return trie, nil
}

// Parse reads the entries of a list without validating the prefixes.
func Parse(r io.Reader, format Format) ([]Entry, error) {
	switch format {
	case FormatText, FormatAuto:
		return parseText(r)
	case FormatYAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, "reading YAML prefix list")
		}
		return parseYAML(data)
	}
	return nil, errors.Errorf("unknown prefix list format %q", format)
}

func parseText(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		entries = append(entries, Entry{
			Prefix: fields[0],
			Value:  strings.Join(fields[1:], " "),
			Line:   line,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "scanning line %d", line+1)
	}
	return entries, nil
}

func parseYAML(data []byte) ([]Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var items []any
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrap(err, "decoding YAML prefix list")
	}
	entries := make([]Entry, 0, len(items))
	for i, item := range items {
		entry := Entry{Line: i + 1}
		if prefix, ok := item.(string); ok {
			entry.Prefix = prefix
		} else {
			decoder, err := ms.NewDecoder(&ms.DecoderConfig{
				WeaklyTypedInput: true,
				Result:           &entry,
			})
			if err != nil {
				return nil, errors.Wrap(err, "creating decoder")
			}
			if err := decoder.Decode(item); err != nil {
				return nil, errors.Wrapf(err, "decoding item %d", i+1)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Build adds the valid entries to a new trie, see Load.
func Build(entries []Entry) *cidrtrie.AssociativeTrie[cidrtrie.Prefix, string] {
	trie := &cidrtrie.AssociativeTrie[cidrtrie.Prefix, string]{}
	bitCount := 0
	for _, entry := range entries {
		entryLog := log.WithField("prefix", entry.Prefix).WithField("line", entry.Line)
		key, err := cidrtrie.ParsePrefix(entry.Prefix)
		if err != nil {
			entryLog.WithError(err).Warn("skipping invalid prefix")
			continue
		}
		if bitCount == 0 {
			bitCount = key.BitCount()
		} else if key.BitCount() != bitCount {
			entryLog.Warn("skipping prefix of another address family")
			continue
		}
		if _, existed := trie.Put(key, entry.Value); existed {
			entryLog.Debug("prefix listed again, keeping the last value")
		}
	}
	return trie
}
