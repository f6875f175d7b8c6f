package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadStreamParsesMultipleDocuments(t *testing.T) {
	stream := strings.NewReader(`
type: tag
name: dist-f40
maven: true
---
type: target
name: dist-f40-candidate
`)
	docs, err := LoadStream(stream, "tags.yaml")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "tag", docs[0].Type)
	require.Equal(t, "dist-f40", docs[0].Data["name"])
	require.Equal(t, "tags.yaml", docs[0].Origin.File)
	require.NotZero(t, docs[0].Origin.Line)

	_, ok := docs[0].Data["type"]
	require.False(t, ok, "the type field must be consumed, not left in Data")
}

func TestLoadStreamStripsReservedFields(t *testing.T) {
	stream := strings.NewReader(`
type: tag
name: dist-f40
_comment: not a real field
x-owner: release-engineering
`)
	docs, err := LoadStream(stream, "tags.yaml")
	require.NoError(t, err)

	_, ok := docs[0].Data["_comment"]
	require.False(t, ok, "underscore-prefixed fields must be stripped")
	_, ok = docs[0].Data["x-owner"]
	require.False(t, ok, "x-prefixed fields must be stripped")
}

func TestLoadStreamExpandsMultiDocument(t *testing.T) {
	stream := strings.NewReader(`
type: multi
dist-f40:
  type: tag
  maven: true
dist-f39:
  type: tag
  name: dist-f39-renamed
`)
	docs, err := LoadStream(stream, "tags.yaml")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	byName := map[string]Raw{}
	for _, d := range docs {
		byName[d.Data["name"].(string)] = d
	}
	d, ok := byName["dist-f40"]
	require.True(t, ok, "expected a dist-f40 tag entry taking its name from the map key")
	require.Equal(t, "tag", d.Type)

	d, ok = byName["dist-f39-renamed"]
	require.True(t, ok, "expected an explicit name field to override the map key")
	require.Equal(t, "tag", d.Type)
}

func TestLoadStreamMultiSkipsReservedKeys(t *testing.T) {
	stream := strings.NewReader(`
type: multi
_comment: skip me
dist-f40:
  type: tag
`)
	docs, err := LoadStream(stream, "tags.yaml")
	require.NoError(t, err)
	require.Len(t, docs, 1, "the _comment entry must be skipped")
}

func TestLoadStreamRejectsNonMappingRoot(t *testing.T) {
	stream := strings.NewReader("- not\n- a\n- mapping\n")
	_, err := LoadStream(stream, "bad.yaml")
	require.Error(t, err)
}

func TestLoadStreamSkipsEmptyDocuments(t *testing.T) {
	stream := strings.NewReader("---\n---\ntype: tag\nname: solo\n")
	docs, err := LoadStream(stream, "tags.yaml")
	require.NoError(t, err)
	require.Len(t, docs, 1, "empty leading documents must be skipped")
}

func TestSortedTypesDedupsAndSorts(t *testing.T) {
	docs := []Raw{{Type: "target"}, {Type: "tag"}, {Type: "tag"}}
	require.Equal(t, []string{"tag", "target"}, SortedTypes(docs))
}
