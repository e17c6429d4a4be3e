// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"strings"
)

// RepositoryStats holds the counters published for a single repository.
// It is the core domain entity of this application.
type RepositoryStats struct {
	OpenIssuesCount int `json:"open_issues_count"`
	StargazersCount int `json:"stargazers_count"`
}

// Repository identifies a GitHub repository by owner and name.
type Repository struct {
	Owner string
	Name  string
}

// ParseRepository parses an "owner/name" identifier.
func ParseRepository(s string) (Repository, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repository{}, fmt.Errorf("invalid repository %q: expected owner/name", s)
	}
	return Repository{Owner: parts[0], Name: parts[1]}, nil
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}
