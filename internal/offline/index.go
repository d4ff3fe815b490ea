package offline

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

const indexFile = "index.yaml"

// Entry describes one cached resource.
type Entry struct {
	Path        string `yaml:"path" json:"path"`
	Status      int    `yaml:"status" json:"status"`
	ContentType string `yaml:"contentType" json:"contentType"`
	Digest      string `yaml:"digest" json:"digest"`
	Size        int64  `yaml:"size" json:"size"`
}

// Index is the manifest of an installed cache, stored as index.yaml.
type Index struct {
	Name        string  `yaml:"name" json:"name"`
	Origin      string  `yaml:"origin" json:"origin"`
	InstalledAt string  `yaml:"installedAt" json:"installedAt"`
	Entries     []Entry `yaml:"entries" json:"entries"`
}

// marshalIndex renders idx as canonical YAML: mapping keys sorted, entries
// sorted by path, so an unchanged install rewrites identical bytes.
func marshalIndex(idx Index) ([]byte, error) {
	entries := append([]Entry(nil), idx.Entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	list := make([]any, 0, len(entries))
	for _, e := range entries {
		list = append(list, map[string]any{
			"path":        e.Path,
			"status":      e.Status,
			"contentType": e.ContentType,
			"digest":      e.Digest,
			"size":        e.Size,
		})
	}
	top := canonicalNode(map[string]any{
		"name":        idx.Name,
		"origin":      idx.Origin,
		"installedAt": idx.InstalledAt,
		"entries":     list,
	})

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(top); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	return append(out, '\n'), nil
}

func readIndex(path string) (Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Index{}, err
	}
	var idx Index
	if err := yaml.Unmarshal(b, &idx); err != nil {
		return Index{}, fmt.Errorf("invalid cache index %s: %w", path, err)
	}
	return idx, nil
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func scalarFrom(v any) *yaml.Node {
	n := &yaml.Node{}
	_ = n.Encode(v)
	return n
}

func canonicalNode(v any) *yaml.Node {
	switch x := v.(type) {
	case map[string]any:
		n := &yaml.Node{Kind: yaml.MappingNode}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			n.Content = append(n.Content, scalarNode(k), canonicalNode(x[k]))
		}
		return n
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, it := range x {
			n.Content = append(n.Content, canonicalNode(it))
		}
		return n
	default:
		return scalarFrom(x)
	}
}
