// Package document loads configuration documents from a YAML document
// stream, assigning each an origin and fanning out the reserved `multi`
// type into its constituent documents (spec §6).
package document

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forgehub/forgehub/pkg/ferr"
	"github.com/forgehub/forgehub/pkg/object"
)

// Raw is one loaded document: a declared type, its data fields with `type`
// (and any reserved fields) removed, and the origin the loader assigned it.
type Raw struct {
	Type   string
	Data   map[string]any
	Origin object.Origin
}

const multiType = "multi"

// isReserved reports whether a field name is one of the reserved prefixes
// (`_` or `x-`) that the loader ignores (spec §6).
func isReserved(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, "x-")
}

// LoadStream reads every document in r (a `---`-separated YAML stream) and
// returns the loaded Raw sequence, fanning out any `multi` documents. file
// is recorded as each document's origin file.
func LoadStream(r io.Reader, file string) ([]Raw, error) {
	dec := yaml.NewDecoder(r)
	var out []Raw
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ferr.DocumentParseError{File: file, Cause: err}
		}
		if len(node.Content) == 0 {
			continue
		}
		docs, err := loadOne(&node, file)
		if err != nil {
			return nil, err
		}
		out = append(out, docs...)
	}
	return out, nil
}

// loadOne interprets a single decoded YAML document node.
func loadOne(node *yaml.Node, file string) ([]Raw, error) {
	root := node.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ferr.DocumentParseError{File: file, Line: root.Line, Cause: fmt.Errorf("document root must be a mapping")}
	}

	fields, err := decodeMapping(root)
	if err != nil {
		return nil, &ferr.DocumentParseError{File: file, Line: root.Line, Cause: err}
	}

	typ, _ := fields["type"].(string)
	origin := object.Origin{File: file, Line: root.Line}

	if typ == multiType {
		return expandMulti(root, origin)
	}

	delete(fields, "type")
	for k := range fields {
		if isReserved(k) {
			delete(fields, k)
		}
	}
	return []Raw{{Type: typ, Data: fields, Origin: origin}}, nil
}

// expandMulti fans a `multi` document out into one Raw per mapping-valued
// entry: the entry's key becomes the document's `name` field if absent, and
// entries under reserved-prefixed keys are skipped (spec §6).
func expandMulti(root *yaml.Node, origin object.Origin) ([]Raw, error) {
	var out []Raw
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		key := keyNode.Value
		if key == "type" || isReserved(key) {
			continue
		}
		if valNode.Kind != yaml.MappingNode {
			continue
		}
		entry, err := decodeMapping(valNode)
		if err != nil {
			return nil, &ferr.DocumentParseError{File: origin.File, Line: valNode.Line, Cause: err}
		}
		typ, _ := entry["type"].(string)
		if _, hasName := entry["name"]; !hasName {
			entry["name"] = key
		}
		delete(entry, "type")
		for k := range entry {
			if isReserved(k) {
				delete(entry, k)
			}
		}
		out = append(out, Raw{
			Type:   typ,
			Data:   entry,
			Origin: object.Origin{File: origin.File, Line: valNode.Line},
		})
	}
	return out, nil
}

// decodeMapping decodes a yaml.Node mapping into a plain map[string]any,
// recursing through sequences and nested mappings via node.Decode.
func decodeMapping(node *yaml.Node) (map[string]any, error) {
	var m map[string]any
	if err := node.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// SortedTypes returns the distinct document types seen in docs, sorted, for
// diagnostics (e.g. "unknown template" error listings).
func SortedTypes(docs []Raw) []string {
	seen := map[string]bool{}
	for _, d := range docs {
		seen[d.Type] = true
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
