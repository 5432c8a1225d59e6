// Package manifest detects and parses dependency manifest files pulled
// out of a repository tree: NuGet project files, package.json, go.mod,
// and pip requirements.
package manifest

import (
	"path"
	"sort"
	"strings"

	"github.com/repoatlas/repoatlas/internal/log"
	"github.com/repoatlas/repoatlas/internal/model"
)

// Parser reads dependency information from one manifest format. Content
// arrives as blob text fetched from the repository, never from the
// local filesystem.
type Parser interface {
	// Kind returns the manifest kind identifier (e.g. "nuget", "npm").
	Kind() string

	// Supports reports whether this parser handles the given repository
	// path.
	Supports(path string) bool

	// Parse extracts the dependencies declared in content. A parse error
	// means the file is malformed, not that it is empty.
	Parse(path, content string) ([]model.Dependency, error)
}

// Parsers returns all registered manifest parsers.
func Parsers() []Parser {
	return []Parser{
		&NuGet{},
		&PackageJSON{},
		&GoMod{},
		&Requirements{},
	}
}

// skipDirs are tree prefixes that hold vendored copies of other
// projects' manifests.
var skipDirs = []string{"node_modules/", "vendor/"}

// Detect filters a repository tree down to the manifest paths worth
// fetching.
func Detect(paths []string) []string {
	parsers := Parsers()
	var matched []string
	for _, p := range paths {
		if vendored(p) {
			continue
		}
		for _, parser := range parsers {
			if parser.Supports(p) {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched
}

func vendored(p string) bool {
	for _, dir := range skipDirs {
		if strings.HasPrefix(p, dir) || strings.Contains(p, "/"+dir) {
			return true
		}
	}
	return false
}

// ParseFiles runs every fetched manifest through its parser and merges
// the results. Dependencies deduplicate on name and version; kinds come
// back sorted. A malformed manifest is logged and skipped rather than
// failing the whole set.
func ParseFiles(files []model.FileEntry) ([]model.Dependency, []string) {
	parsers := Parsers()

	type depKey struct{ name, version string }
	seen := make(map[depKey]bool)
	kinds := make(map[string]bool)
	var deps []model.Dependency

	for _, f := range files {
		parser := match(parsers, f.Path)
		if parser == nil {
			continue
		}
		parsed, err := parser.Parse(f.Path, f.Content)
		if err != nil {
			log.Warn("skipping malformed manifest", "path", f.Path, "kind", parser.Kind(), "error", err)
			continue
		}
		kinds[parser.Kind()] = true
		for _, d := range parsed {
			k := depKey{strings.ToLower(d.Name), d.Version}
			if seen[k] {
				continue
			}
			seen[k] = true
			deps = append(deps, d)
		}
	}

	kindList := make([]string, 0, len(kinds))
	for k := range kinds {
		kindList = append(kindList, k)
	}
	sort.Strings(kindList)

	return deps, kindList
}

func match(parsers []Parser, p string) Parser {
	for _, parser := range parsers {
		if parser.Supports(p) {
			return parser
		}
	}
	return nil
}

func base(p string) string {
	return path.Base(p)
}
