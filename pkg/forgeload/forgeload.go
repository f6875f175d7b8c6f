// Package forgeload discovers configuration files on disk and feeds them
// into a namespace.Namespace, the way the teacher's pkg/gator/filereader.go
// discovers and reads manifests before handing them to its own pipeline.
package forgeload

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/forgehub/forgehub/pkg/document"
	"github.com/forgehub/forgehub/pkg/ferr"
	"github.com/forgehub/forgehub/pkg/namespace"
	"github.com/forgehub/forgehub/pkg/object"
)

var allowedExtensions = []string{".yaml", ".yml"}

// Files walks paths (files or directories) and returns every file with an
// allowed extension, directories expanded recursively, matching the
// teacher's filesBelow/normalize idiom.
func Files(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("forgeload: stat %q: %w", p, err)
		}
		if !info.IsDir() {
			if !allowedExtension(p) {
				return nil, fmt.Errorf("forgeload: %q must have one of extensions %v", p, allowedExtensions)
			}
			out = append(out, p)
			continue
		}
		err = filepath.Walk(p, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() {
				return nil
			}
			if allowedExtension(path) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("forgeload: walking %q: %w", p, err)
		}
	}
	return out, nil
}

func allowedExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, a := range allowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// Ingest reads every file in paths and feeds its documents into ns,
// resolving a template's body-file field relative to the file it was
// declared in before handing the document to ns.Ingest.
func Ingest(ns *namespace.Namespace, paths []string) error {
	files, err := Files(paths)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := ingestFile(ns, f); err != nil {
			return fmt.Errorf("forgeload: %s: %w", f, err)
		}
	}
	return nil
}

func ingestFile(ns *namespace.Namespace, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return ferr.Wrap(err, "forgeload: opening %s", path)
	}
	defer file.Close()

	docs, err := document.LoadStream(file, path)
	if err != nil {
		return ferr.Wrap(err, "forgeload: parsing %s", path)
	}

	for _, raw := range docs {
		if err := resolveBodyFile(raw, path); err != nil {
			return err
		}
		if err := ns.Ingest(raw); err != nil {
			return err
		}
	}
	return nil
}

// resolveBodyFile reads a template's body-file (relative to the declaring
// file's directory) into its body field in place, when body is absent.
func resolveBodyFile(raw document.Raw, declaringFile string) error {
	if raw.Type != string(object.KindTemplate) {
		return nil
	}
	if _, hasBody := raw.Data["body"]; hasBody {
		return nil
	}
	bodyFile, _ := raw.Data["body-file"].(string)
	if bodyFile == "" {
		return nil
	}
	if !filepath.IsAbs(bodyFile) {
		bodyFile = filepath.Join(filepath.Dir(declaringFile), bodyFile)
	}
	content, err := os.ReadFile(bodyFile)
	if err != nil {
		return ferr.Wrap(err, "reading body-file %q", bodyFile)
	}
	raw.Data["body"] = string(content)
	return nil
}
