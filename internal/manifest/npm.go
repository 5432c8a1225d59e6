package manifest

import (
	"encoding/json"
	"strings"

	"github.com/repoatlas/repoatlas/internal/model"
)

// PackageJSON parses package.json files. It extracts dependencies and
// devDependencies; the declared range string is kept as the version.
type PackageJSON struct{}

func (p *PackageJSON) Kind() string { return "npm" }

func (p *PackageJSON) Supports(path string) bool {
	return strings.EqualFold(base(path), "package.json")
}

type packageFile struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func (p *PackageJSON) Parse(_, content string) ([]model.Dependency, error) {
	var pkg packageFile
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		return nil, err
	}

	var deps []model.Dependency
	for name, version := range pkg.Dependencies {
		deps = append(deps, model.Dependency{Name: name, Version: cleanRange(version)})
	}
	for name, version := range pkg.DevDependencies {
		deps = append(deps, model.Dependency{Name: name, Version: cleanRange(version)})
	}
	return deps, nil
}

// cleanRange strips the common npm range sigils so "^4.17.21" compares
// as "4.17.21". Compound ranges stay as written.
func cleanRange(version string) string {
	trimmed := strings.TrimLeft(version, "^~=v")
	if strings.ContainsAny(trimmed, " |<>*x") {
		return version
	}
	return trimmed
}
