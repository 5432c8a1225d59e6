package manifest

import (
	"bufio"
	"strings"

	"github.com/repoatlas/repoatlas/internal/model"
)

// GoMod parses go.mod files. Only direct requirements count; lines
// tagged "// indirect" are skipped.
type GoMod struct{}

func (g *GoMod) Kind() string { return "gomod" }

func (g *GoMod) Supports(path string) bool {
	return base(path) == "go.mod"
}

func (g *GoMod) Parse(_, content string) ([]model.Dependency, error) {
	var deps []model.Dependency
	inRequire := false

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "require (") || line == "require(" {
			inRequire = true
			continue
		}
		if inRequire && line == ")" {
			inRequire = false
			continue
		}

		if strings.HasPrefix(line, "require ") && !strings.Contains(line, "(") {
			line = strings.TrimPrefix(line, "require ")
		} else if !inRequire {
			continue
		}

		if dep, ok := parseRequireLine(line); ok {
			deps = append(deps, dep)
		}
	}

	return deps, scanner.Err()
}

func parseRequireLine(line string) (model.Dependency, bool) {
	if strings.Contains(line, "// indirect") {
		return model.Dependency{}, false
	}
	if idx := strings.Index(line, "//"); idx != -1 {
		line = line[:idx]
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return model.Dependency{}, false
	}
	return model.Dependency{
		Name:    fields[0],
		Version: strings.TrimPrefix(fields[1], "v"),
	}, true
}
