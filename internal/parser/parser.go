// Package parser loads workflow definitions from YAML documents. Parsing is
// purely syntactic: cross-field consistency is the validator's job.
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/flowkit-io/flowkit/pkg/schema"
)

// Parse decodes a YAML document into a Workflow. It fails with a PARSE_ERROR
// when the document does not decode into the required shape: unknown or
// mistyped fields, a missing name, or missing/empty steps. No partial
// workflow is ever returned.
func Parse(data []byte) (*schema.Workflow, error) {
	var wf schema.Workflow
	if err := yaml.UnmarshalWithOptions(data, &wf, yaml.Strict()); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeParse, "malformed workflow document: %v", err).WithCause(err)
	}
	if wf.Name == "" {
		return nil, schema.NewError(schema.ErrCodeParse, "workflow is missing required field \"name\"")
	}
	if len(wf.Steps) == 0 {
		return nil, schema.NewError(schema.ErrCodeParse, "workflow has no steps")
	}
	return &wf, nil
}

// Load reads and parses a workflow file. A missing file is reported as
// FILE_NOT_FOUND; everything else is delegated to Parse.
func Load(path string) (*schema.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, schema.NewErrorf(schema.ErrCodeFileNotFound, "workflow file not found: %s", path).WithCause(err)
		}
		return nil, schema.NewErrorf(schema.ErrCodeFileNotFound, "read workflow file %s: %v", path, err).WithCause(err)
	}
	wf, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return wf, nil
}

// Entry pairs a loaded workflow with the file it came from.
type Entry struct {
	Path     string
	Workflow *schema.Workflow
}

// ListWorkflows loads every .yml/.yaml file in dir, in lexicographical
// order. Files that fail to parse are skipped with their error recorded in
// the returned map, keyed by path; a directory of workflows should remain
// listable even when one file is broken.
func ListWorkflows(dir string) ([]Entry, map[string]error, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read workflow directory: %w", err)
	}

	var paths []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(de.Name()))
		if ext == ".yml" || ext == ".yaml" {
			paths = append(paths, filepath.Join(dir, de.Name()))
		}
	}
	sort.Strings(paths)

	var entries []Entry
	broken := make(map[string]error)
	for _, path := range paths {
		wf, err := Load(path)
		if err != nil {
			broken[path] = err
			continue
		}
		entries = append(entries, Entry{Path: path, Workflow: wf})
	}
	return entries, broken, nil
}
