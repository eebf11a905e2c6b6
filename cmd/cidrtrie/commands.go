// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"fmt"
	"io"
	"strings"

	cidrtrie "github.com/absolutelightning/go-cidr-trie"
	"github.com/absolutelightning/go-cidr-trie/internal/prefixfile"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type prefixTrie = cidrtrie.AssociativeTrie[cidrtrie.Prefix, string]

type entry struct {
	Prefix string `json:"prefix"`
	Value  string `json:"value,omitempty"`
}

type lookupResult struct {
	Address    string   `json:"address"`
	Found      bool     `json:"found"`
	Prefix     string   `json:"prefix,omitempty"`
	Value      string   `json:"value,omitempty"`
	Containing []string `json:"containing,omitempty"`
}

func (c *cli) load() (*prefixTrie, error) {
	if c.file == "" {
		return nil, errors.New("no prefix list given, use --file")
	}
	format, err := prefixfile.ParseFormat(c.fileFormat)
	if err != nil {
		return nil, err
	}
	return prefixfile.Load(c.file, format)
}

func (c *cli) isJSON() (bool, error) {
	switch strings.ToLower(c.output) {
	case "", "text":
		return false, nil
	case "json":
		return true, nil
	}
	return false, errors.Errorf("unknown output format %q", c.output)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (c *cli) treeCmd() *cobra.Command {
	var withSizes, withNonAdded, addedOnly bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the trie built from the prefix list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := c.isJSON()
			if err != nil {
				return err
			}
			trie, err := c.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				entries := make([]entry, 0, trie.Size())
				for node := range trie.All() {
					entries = append(entries, entry{Prefix: node.Key().String(), Value: node.Value()})
				}
				return writeJSON(out, entries)
			}
			if addedOnly {
				_, err = io.WriteString(out, trie.AddedNodesTreeString())
			} else {
				_, err = io.WriteString(out, trie.TreeString(withNonAdded, withSizes))
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&withSizes, "with-sizes", false, "show the number of prefixes below each node")
	cmd.Flags().BoolVar(&withNonAdded, "with-non-added", true, "show the keys of junction nodes")
	cmd.Flags().BoolVar(&addedOnly, "added-only", false, "show only listed prefixes, each below the prefix containing it")
	return cmd
}

func (c *cli) lookupCmd() *cobra.Command {
	var all bool
	var cacheSize int
	cmd := &cobra.Command{
		Use:   "lookup ADDRESS...",
		Short: "Find the most specific listed prefix containing each address or prefix",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := c.isJSON()
			if err != nil {
				return err
			}
			trie, err := c.load()
			if err != nil {
				return err
			}
			matcher, err := trie.Matcher(cacheSize)
			if err != nil {
				return err
			}
			results, err := lookup(trie, matcher, args, all)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, results)
			}
			for _, result := range results {
				prefix := result.Prefix
				if !result.Found {
					prefix = "-"
				}
				line := fmt.Sprintf("%s\t%s\t%s", result.Address, prefix, result.Value)
				if all {
					line += "\t" + strings.Join(result.Containing, ",")
				}
				if _, err := fmt.Fprintln(out, strings.TrimRight(line, "\t")); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "also list every listed prefix containing the address")
	cmd.Flags().IntVar(&cacheSize, "cache-size", cidrtrie.DefaultMatcherSize, "number of lookups to remember")
	return cmd
}

func lookup(trie *prefixTrie, matcher *cidrtrie.Matcher[cidrtrie.Prefix, string], args []string, all bool) ([]lookupResult, error) {
	results := make([]lookupResult, 0, len(args))
	for _, arg := range args {
		key, err := cidrtrie.ParsePrefix(arg)
		if err != nil {
			return nil, err
		}
		if trie.Root() != nil && key.BitCount() != trie.Root().Key().BitCount() {
			log.WithField("address", arg).Warn("address family differs from the prefix list")
			results = append(results, lookupResult{Address: key.String()})
			continue
		}
		result := lookupResult{Address: key.String()}
		if node := matcher.LongestPrefixMatchNode(key); node != nil {
			result.Found = true
			result.Prefix = node.Key().String()
			result.Value = node.Value()
		}
		if all {
			for _, containing := range trie.ElementsContaining(key).Keys() {
				result.Containing = append(result.Containing, containing.String())
			}
		}
		log.WithField("address", result.Address).WithField("prefix", result.Prefix).Debug("lookup")
		results = append(results, result)
	}
	return results, nil
}

func (c *cli) rangeCmd() *cobra.Command {
	var descending, exclusiveEnd bool
	cmd := &cobra.Command{
		Use:   "range FROM TO",
		Short: "List the prefixes ordered between two keys of the trie order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, err := c.isJSON()
			if err != nil {
				return err
			}
			from, err := cidrtrie.ParsePrefix(args[0])
			if err != nil {
				return err
			}
			to, err := cidrtrie.ParsePrefix(args[1])
			if err != nil {
				return err
			}
			trie, err := c.load()
			if err != nil {
				return err
			}
			if root := trie.Root(); root != nil {
				for _, key := range []cidrtrie.Prefix{from, to} {
					if key.BitCount() != root.Key().BitCount() {
						return errors.Errorf("%s is not of the address family of the prefix list", key)
					}
				}
			}
			entries, err := rangeEntries(trie, from, to, !exclusiveEnd, descending)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, entries)
			}
			for _, e := range entries {
				if _, err := fmt.Fprintln(out, strings.TrimRight(e.Prefix+"\t"+e.Value, "\t")); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&descending, "descending", false, "list in reverse order")
	cmd.Flags().BoolVar(&exclusiveEnd, "exclusive-end", false, "leave out TO itself")
	return cmd
}

func rangeEntries(trie *prefixTrie, from, to cidrtrie.Prefix, toInclusive, descending bool) ([]entry, error) {
	view, err := trie.AsMap().SubMapBounds(from, true, to, toInclusive)
	if err != nil {
		return nil, err
	}
	if descending {
		view = view.Descending()
	}
	entries := make([]entry, 0)
	for key, value := range view.All() {
		entries = append(entries, entry{Prefix: key.String(), Value: value})
	}
	return entries, nil
}
