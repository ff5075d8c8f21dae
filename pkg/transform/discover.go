package transform

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/germanamz/aibindgen/pkg/directive"
)

// DefaultSuffix is appended to the base name of generated files.
const DefaultSuffix = "_aigen"

// OutputPath returns the generated file path for the annotated file path.
// Test files keep their _test.go ending: x_test.go becomes x_aigen_test.go.
func OutputPath(path, suffix string) string {
	if base, ok := strings.CutSuffix(path, "_test.go"); ok {
		return base + suffix + "_test.go"
	}
	return strings.TrimSuffix(path, ".go") + suffix + ".go"
}

// IsGenerated reports whether path names a file produced with suffix.
func IsGenerated(path, suffix string) bool {
	return strings.HasSuffix(path, suffix+".go") || strings.HasSuffix(path, suffix+"_test.go")
}

// Candidates expands paths into the sorted list of annotated Go files.
// A path is a file, a directory, or a directory followed by "/..." to
// include every subdirectory. Vendor, testdata, and directories whose name
// starts with "." or "_" are skipped when walking; previously generated
// files are always skipped.
func Candidates(paths []string, suffix string) ([]string, error) {
	var out []string

	for _, p := range paths {
		root, recursive := strings.CutSuffix(p, "/...")
		if root == "" {
			root = "."
		}

		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("transform: %w", err)
		}

		if !info.IsDir() {
			out = append(out, root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				if path == root {
					return nil
				}
				if !recursive || skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			if !strings.HasSuffix(path, ".go") || IsGenerated(path, suffix) {
				return nil
			}

			if annotatedFile(path) {
				out = append(out, path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("transform: walk %s: %w", root, err)
		}
	}

	slices.Sort(out)

	return slices.Compact(out), nil
}

func skipDir(name string) bool {
	return name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// annotatedFile reports whether the file at path carries a file-level
// directive or at least one declaration directive.
func annotatedFile(path string) bool {
	f, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		// Broken files are left for the compiler to report.
		return false
	}

	if _, ok := directive.FindFile(f); ok {
		return true
	}

	return len(annotated(f)) > 0
}
