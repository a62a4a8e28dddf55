package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxRepositoryURLLength bounds the accepted repoUrl input.
const MaxRepositoryURLLength = 256

var repositoryURLPattern = regexp.MustCompile(`^https://github\.com/([A-Za-z0-9](?:[A-Za-z0-9-]{0,38}))/([A-Za-z0-9._-]{1,100}?)(?:\.git)?/?$`)

// RepoRef identifies a GitHub repository by owner and name.
type RepoRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName returns the owner/repo path.
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// URL returns the canonical https URL of the repository.
func (r RepoRef) URL() string {
	return "https://github.com/" + r.FullName()
}

// ParseRepositoryURL validates a https://github.com/<owner>/<repo>[.git][/] URL
// and returns the normalized owner/repo pair.
func ParseRepositoryURL(raw string) (RepoRef, error) {
	if raw == "" {
		return RepoRef{}, fmt.Errorf("repository URL is empty")
	}
	if len(raw) > MaxRepositoryURLLength {
		return RepoRef{}, fmt.Errorf("repository URL too long (max %d characters)", MaxRepositoryURLLength)
	}

	m := repositoryURLPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return RepoRef{}, fmt.Errorf("repository URL must look like https://github.com/owner/repo")
	}

	name := m[2]
	if name == "." || name == ".." {
		return RepoRef{}, fmt.Errorf("invalid repository name %q", name)
	}
	return RepoRef{Owner: m[1], Name: name}, nil
}
