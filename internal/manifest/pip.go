package manifest

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/repoatlas/repoatlas/internal/model"
)

// Requirements parses pip requirements files. Pinned versions (==) are
// recorded; range specifiers leave the version empty since they name a
// constraint, not an installed version.
type Requirements struct{}

var requirementRE = regexp.MustCompile(`^([a-zA-Z0-9][-a-zA-Z0-9._]*)\s*(?:\[[^\]]*\])?\s*(==)?\s*([^,;#\s]*)`)

func (r *Requirements) Kind() string { return "pip" }

func (r *Requirements) Supports(path string) bool {
	name := base(path)
	return name == "requirements.txt" ||
		(strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"))
}

func (r *Requirements) Parse(_, content string) ([]model.Dependency, error) {
	var deps []model.Dependency

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '-' {
			continue
		}
		if strings.Contains(line, "://") || strings.HasPrefix(line, "git+") {
			continue
		}

		m := requirementRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		dep := model.Dependency{Name: normalizePip(m[1])}
		if m[2] == "==" {
			dep.Version = m[3]
		}
		deps = append(deps, dep)
	}

	return deps, scanner.Err()
}

// normalizePip applies PEP 503 name normalization: lowercase with runs
// of ".", "-", "_" collapsed to a single "-".
func normalizePip(name string) string {
	return pipSeparatorRE.ReplaceAllString(strings.ToLower(name), "-")
}

var pipSeparatorRE = regexp.MustCompile(`[-_.]+`)
