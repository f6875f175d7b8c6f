package forgeload

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgehub/forgehub/pkg/ferr"
	"github.com/forgehub/forgehub/pkg/namespace"
	"github.com/forgehub/forgehub/pkg/object"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestFilesWalksDirectoriesAndFiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "type: tag\nname: a\n")
	writeFile(t, dir, "b.txt", "ignored")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, sub, "c.yml", "type: tag\nname: c\n")

	files, err := Files([]string{dir})
	require.NoError(t, err)
	require.Len(t, files, 2)
}

func TestFilesRejectsDisallowedExtensionNamedDirectly(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "bad.txt", "x")
	_, err := Files([]string{p})
	require.Error(t, err)
}

func TestIngestWrapsParseFailureWithoutDroppingTheCause(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "not: [a, mapping")

	ns := namespace.New(object.NewRegistry())
	err := Ingest(ns, []string{dir})
	require.Error(t, err)
	require.Contains(t, err.Error(), "parsing")

	var parseErr *ferr.DocumentParseError
	require.True(t, errors.As(err, &parseErr), "the wrapped error must still unwrap to the underlying parse error")
}

func TestIngestResolvesBodyFileRelativeToDeclaringDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "child.tmpl", "type: tag\nname: {{.Name}}\n")
	writeFile(t, dir, "templates.yaml", "type: template\nname: tag-from-file\nbody-file: child.tmpl\n")

	ns := namespace.New(object.NewRegistry())
	require.NoError(t, Ingest(ns, []string{dir}))

	expanded, err := ns.Expand()
	require.NoError(t, err)
	require.Empty(t, expanded) // no call sites, only the template itself is declared
}
