package manifest

import (
	"encoding/xml"
	"strings"

	"github.com/repoatlas/repoatlas/internal/model"
)

// NuGet parses .NET dependency manifests: SDK-style project files
// (*.csproj, *.fsproj, *.vbproj) with PackageReference elements, and
// legacy packages.config files.
type NuGet struct{}

func (n *NuGet) Kind() string { return "nuget" }

func (n *NuGet) Supports(p string) bool {
	name := strings.ToLower(base(p))
	if name == "packages.config" {
		return true
	}
	for _, ext := range []string{".csproj", ".fsproj", ".vbproj"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (n *NuGet) Parse(p, content string) ([]model.Dependency, error) {
	if strings.EqualFold(base(p), "packages.config") {
		return parsePackagesConfig(content)
	}
	return parseProjectFile(content)
}

type projectFile struct {
	ItemGroups []struct {
		PackageReferences []packageReference `xml:"PackageReference"`
	} `xml:"ItemGroup"`
}

// packageReference covers both attribute and nested-element forms:
//
//	<PackageReference Include="Newtonsoft.Json" Version="12.0.3" />
//	<PackageReference Include="Newtonsoft.Json"><Version>12.0.3</Version></PackageReference>
type packageReference struct {
	Include        string `xml:"Include,attr"`
	VersionAttr    string `xml:"Version,attr"`
	VersionElement string `xml:"Version"`
}

func parseProjectFile(content string) ([]model.Dependency, error) {
	var proj projectFile
	if err := xml.Unmarshal([]byte(content), &proj); err != nil {
		return nil, err
	}

	var deps []model.Dependency
	for _, group := range proj.ItemGroups {
		for _, ref := range group.PackageReferences {
			if ref.Include == "" {
				continue
			}
			version := ref.VersionAttr
			if version == "" {
				version = strings.TrimSpace(ref.VersionElement)
			}
			deps = append(deps, model.Dependency{Name: ref.Include, Version: version})
		}
	}
	return deps, nil
}

type packagesConfig struct {
	Packages []struct {
		ID      string `xml:"id,attr"`
		Version string `xml:"version,attr"`
	} `xml:"package"`
}

func parsePackagesConfig(content string) ([]model.Dependency, error) {
	var cfg packagesConfig
	if err := xml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, err
	}

	var deps []model.Dependency
	for _, pkg := range cfg.Packages {
		if pkg.ID == "" {
			continue
		}
		deps = append(deps, model.Dependency{Name: pkg.ID, Version: pkg.Version})
	}
	return deps, nil
}
