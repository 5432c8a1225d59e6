package output

import (
	"io"

	"github.com/repoatlas/repoatlas/internal/model"
	"github.com/repoatlas/repoatlas/internal/search"
)

// Format represents the output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Formatter defines the interface for output formatters
type Formatter interface {
	Repositories(repos []model.RepositorySummary, w io.Writer) error
	Snapshot(snap model.Snapshot, w io.Writer) error
	Teams(teams map[string][]model.TeamRepository, w io.Writer) error
	SearchResults(results []search.Result, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	default:
		return &TableFormatter{}
	}
}
