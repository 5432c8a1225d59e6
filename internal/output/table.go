package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/repoatlas/repoatlas/internal/model"
	"github.com/repoatlas/repoatlas/internal/search"
)

// TableFormatter formats output as a terminal table
type TableFormatter struct{}

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func hyperlink(text, url string) string {
	// Only use hyperlinks if stdout is a terminal
	if url == "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

// truncateToWidth truncates a string to fit within maxWidth display
// columns, accounting for wide characters
func truncateToWidth(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}

	cutWidth := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if cutWidth+rw > maxWidth-3 { // Leave room for "..."
			return s[:i] + "..."
		}
		cutWidth += rw
	}
	return s
}

// padRight pads a string with spaces to reach the target visible width
func padRight(s string, targetWidth int) string {
	width := runewidth.StringWidth(s)
	if width >= targetWidth {
		return s
	}
	return s + strings.Repeat(" ", targetWidth-width)
}

// Repositories outputs a repository listing, most recently pushed first
func (f *TableFormatter) Repositories(repos []model.RepositorySummary, w io.Writer) error {
	if len(repos) == 0 {
		fmt.Fprintln(w, "No repositories found.")
		return nil
	}

	const (
		colName   = 32
		colBranch = 16
	)

	fmt.Fprintf(w, "%-*s  %-*s  %s\n", colName, "Repository", colBranch, "Default Branch", "Pushed")
	fmt.Fprintln(w, strings.Repeat("-", colName+colBranch+12))

	for _, r := range repos {
		name := truncateToWidth(r.Name, colName)
		fmt.Fprintf(w, "%s  %-*s  %s\n",
			padRight(hyperlink(name, r.URL), colName),
			colBranch, r.DefaultBranch,
			formatAge(time.Since(r.PushedAt)))
	}

	fmt.Fprintf(w, "\n%d repositories\n", len(repos))
	return nil
}

// Snapshot outputs one snapshot as a readable report
func (f *TableFormatter) Snapshot(snap model.Snapshot, w io.Writer) error {
	fmt.Fprintf(w, "%s\n", color.New(color.Bold).Sprint(snap.ID))
	fmt.Fprintf(w, "  Branch:   %s\n", snap.Branch)
	if snap.Commit.OID != "" {
		fmt.Fprintf(w, "  Commit:   %s (%s)\n", snap.Commit.OID, snap.Commit.CommittedAt.Format(time.RFC3339))
	} else {
		fmt.Fprintf(w, "  Commit:   %s\n", color.YellowString("none (empty repository)"))
	}
	fmt.Fprintf(w, "  Taken:    %s\n", snap.TakenAt.Format(time.RFC3339))
	if snap.AsOf != nil {
		fmt.Fprintf(w, "  As of:    %s\n", snap.AsOf.Format(time.RFC3339))
	}
	if len(snap.Metadata.Topics) > 0 {
		fmt.Fprintf(w, "  Topics:   %s\n", strings.Join(snap.Metadata.Topics, ", "))
	}
	fmt.Fprintf(w, "  Activity: %d issues, %d pull requests, %d projects\n",
		snap.Metadata.IssueCount, snap.Metadata.PullRequestCount, snap.Metadata.ProjectCount)

	if snap.HasCD {
		fmt.Fprintf(w, "  Pipeline: %s (%s)\n", color.GreenString("yes"), strings.Join(snap.CDFiles, ", "))
	} else {
		fmt.Fprintf(w, "  Pipeline: no\n")
	}

	if len(snap.Teams) > 0 {
		fmt.Fprintf(w, "  Teams:    %s\n", strings.Join(snap.Teams, ", "))
	}

	if len(snap.Dependencies) > 0 {
		fmt.Fprintf(w, "\n  Dependencies (%s):\n", strings.Join(snap.ManifestKinds, ", "))
		deps := append([]model.Dependency(nil), snap.Dependencies...)
		sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
		for _, d := range deps {
			if d.Version != "" {
				fmt.Fprintf(w, "    %s %s\n", d.Name, color.CyanString(d.Version))
			} else {
				fmt.Fprintf(w, "    %s\n", d.Name)
			}
		}
	}

	return nil
}

// Teams outputs team repository access grouped by team
func (f *TableFormatter) Teams(teams map[string][]model.TeamRepository, w io.Writer) error {
	if len(teams) == 0 {
		fmt.Fprintln(w, "No teams found.")
		return nil
	}

	names := make([]string, 0, len(teams))
	for name := range teams {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(w, "%s (%d repositories)\n", color.New(color.Bold).Sprint(name), len(teams[name]))
		for _, tr := range teams[name] {
			fmt.Fprintf(w, "  %-40s  %s\n", truncateToWidth(tr.Repository, 40), colorPermission(tr.Permission))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// SearchResults outputs matching repositories
func (f *TableFormatter) SearchResults(results []search.Result, w io.Writer) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No matches.")
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(w, "%s/%s  %s\n", r.Owner, r.Repository, color.New(color.Faint).Sprint(r.SnapshotID))
	}
	fmt.Fprintf(w, "\n%d matches\n", len(results))
	return nil
}

func colorPermission(p string) string {
	switch p {
	case "admin":
		return color.RedString(p)
	case "write":
		return color.YellowString(p)
	default:
		return p
	}
}

func formatAge(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	days := int(d.Hours() / 24)
	if days < 7 {
		return fmt.Sprintf("%dd", days)
	}
	weeks := days / 7
	if weeks < 4 {
		return fmt.Sprintf("%dw", weeks)
	}
	months := days / 30
	return fmt.Sprintf("%dmo", months)
}
