package model

import "time"

// Repository holds the upstream metadata for a single repository.
// Branch and topic sets are deduplicated; collections the upstream omits
// are always empty slices, never nil.
type Repository struct {
	Name             string    `json:"name" bson:"name"`
	URL              string    `json:"url" bson:"url"`
	PushedAt         time.Time `json:"pushedAt" bson:"pushed_at"`
	CreatedAt        time.Time `json:"createdAt" bson:"created_at"`
	DefaultBranch    string    `json:"defaultBranch,omitempty" bson:"default_branch,omitempty"`
	Branches         []string  `json:"branches" bson:"branches"`
	Topics           []string  `json:"topics" bson:"topics"`
	ProjectCount     int       `json:"projectCount" bson:"project_count"`
	IssueCount       int       `json:"issueCount" bson:"issue_count"`
	PullRequestCount int       `json:"pullRequestCount" bson:"pull_request_count"`
}

// RepositorySummary is the listing shape returned by the owner-scoped
// repository walk, ordered by most-recently-pushed descending.
type RepositorySummary struct {
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	PushedAt      time.Time `json:"pushedAt"`
	DefaultBranch string    `json:"defaultBranch,omitempty"`
}

// TeamRepository is one edge of the team walk: a repository name and the
// permission level the team holds over it.
type TeamRepository struct {
	Repository string `json:"repository"`
	Permission string `json:"permission"`
}

// OwnerType discriminates the two upstream owner entity types, which need
// different query roots but share result semantics.
type OwnerType string

const (
	OwnerUser         OwnerType = "User"
	OwnerOrganization OwnerType = "Organization"
)
