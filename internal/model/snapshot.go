package model

import (
	"fmt"
	"time"
)

// CommitRef identifies the commit a snapshot was resolved against: its
// object ID, its pushed and committed timestamps, and the root tree the
// file-reading operations address content through.
type CommitRef struct {
	OID         string    `json:"oid" bson:"oid"`
	PushedAt    time.Time `json:"pushedAt" bson:"pushed_at"`
	CommittedAt time.Time `json:"committedAt" bson:"committed_at"`
	TreeOID     string    `json:"treeOid" bson:"tree_oid"`
}

// Dependency is a single declared dependency extracted from a manifest
// file at the snapshot's tree.
type Dependency struct {
	Name    string `json:"name" bson:"name"`
	Version string `json:"version,omitempty" bson:"version,omitempty"`
}

// FileEntry pairs a tree path with the blob content read at that path.
type FileEntry struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// TreeEntry is one row of a recursive tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob" or "tree"
	Size int    `json:"size,omitempty"`
}

// Snapshot is the immutable point-in-time document produced by one
// aggregation call. It is constructed fresh per request and never
// mutated after assembly.
type Snapshot struct {
	ID           string       `json:"id" bson:"_id"`
	Owner        string       `json:"owner" bson:"owner"`
	Repository   string       `json:"repository" bson:"repository"`
	Branch       string       `json:"branch" bson:"branch"`
	TakenAt      time.Time    `json:"takenAt" bson:"taken_at"`
	AsOf         *time.Time   `json:"asOf,omitempty" bson:"as_of,omitempty"`
	Commit       CommitRef    `json:"commit" bson:"commit"`
	Metadata     Repository   `json:"metadata" bson:"metadata"`
	Dependencies []Dependency `json:"dependencies" bson:"dependencies"`
	Teams        []string     `json:"teams" bson:"teams"`
	// ManifestKinds lists which manifest formats were found at the tree
	// (nuget, npm, gomod, pip), used by the search layer's type filter.
	ManifestKinds []string `json:"manifestKinds" bson:"manifest_kinds"`
	// HasCD is true when the tree contains a recognized pipeline
	// definition; CDFiles records which ones matched.
	HasCD   bool     `json:"hasCd" bson:"has_cd"`
	CDFiles []string `json:"cdFiles" bson:"cd_files"`
}

// SnapshotID builds the canonical snapshot identifier. Snapshots are
// idempotent by (repository, commit): re-aggregating the same commit
// replaces the stored document instead of duplicating it.
func SnapshotID(owner, repo, commitOID string) string {
	return fmt.Sprintf("%s/%s@%s", owner, repo, commitOID)
}
