package domain

import "time"

// RepositorySnapshot is the flattened set of GitHub facts about one repository,
// assembled once per analysis request and never persisted.
type RepositorySnapshot struct {
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Description   string   `json:"description"`
	Homepage      string   `json:"homepage,omitempty"`
	DefaultBranch string   `json:"default_branch"`
	Language      string   `json:"language"`
	Topics        []string `json:"topics"`

	// Languages maps language name to byte count.
	Languages map[string]int `json:"languages"`

	Stars      int `json:"stars"`
	Forks      int `json:"forks"`
	Watchers   int `json:"watchers"`
	OpenIssues int `json:"open_issues"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	PushedAt  time.Time `json:"pushed_at"`

	Archived bool `json:"archived"`
	Fork     bool `json:"fork"`

	Signals   Signals  `json:"signals"`
	CISystems []string `json:"ci_systems"`

	TotalCommits int `json:"total_commits"`
	Contributors int `json:"contributors"`
	Branches     int `json:"branches"`
	Releases     int `json:"releases"`
	OpenPulls    int `json:"open_pull_requests"`
	ClosedIssues int `json:"closed_issues"`

	// FileStructure lists root entries as "type: name".
	FileStructure []string         `json:"file_structure"`
	RecentCommits []CommitSummary  `json:"recent_commits"`
	ReadmeExcerpt string           `json:"readme_excerpt"`
	Manifest      *PackageManifest `json:"manifest,omitempty"`
}

// Signals are presence flags derived from the repository root.
type Signals struct {
	HasReadme         bool `json:"has_readme"`
	HasTests          bool `json:"has_tests"`
	HasLicense        bool `json:"has_license"`
	HasCI             bool `json:"has_ci"`
	HasContributing   bool `json:"has_contributing"`
	HasChangelog      bool `json:"has_changelog"`
	HasCodeOfConduct  bool `json:"has_code_of_conduct"`
	HasSecurityPolicy bool `json:"has_security_policy"`
	HasDocs           bool `json:"has_docs"`
	HasDockerfile     bool `json:"has_dockerfile"`
	HasMakefile       bool `json:"has_makefile"`
	UsesTypeScript    bool `json:"uses_typescript"`
}

// CommitSummary is a lightweight view of a recent commit.
type CommitSummary struct {
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
	Author  string    `json:"author"`
}

// PackageManifest is the subset of package.json fed into the prompt.
type PackageManifest struct {
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	Description     string   `json:"description"`
	Scripts         []string `json:"scripts"`
	Dependencies    []string `json:"dependencies"`
	DevDependencies []string `json:"dev_dependencies"`
}
