package output

import (
	"encoding/json"
	"io"

	"github.com/repoatlas/repoatlas/internal/model"
	"github.com/repoatlas/repoatlas/internal/search"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

func (f *JSONFormatter) encode(v any, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

func (f *JSONFormatter) Repositories(repos []model.RepositorySummary, w io.Writer) error {
	return f.encode(repos, w)
}

func (f *JSONFormatter) Snapshot(snap model.Snapshot, w io.Writer) error {
	return f.encode(snap, w)
}

func (f *JSONFormatter) Teams(teams map[string][]model.TeamRepository, w io.Writer) error {
	return f.encode(teams, w)
}

func (f *JSONFormatter) SearchResults(results []search.Result, w io.Writer) error {
	return f.encode(results, w)
}
