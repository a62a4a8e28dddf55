package github

import (
	"strings"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
	gogithub "github.com/google/go-github/v68/github"
)

type rootEntry struct {
	Name string
	Type string // file, dir, symlink, submodule
}

// Keyword lists matched case-insensitively as substrings of root entry names.
var (
	testKeywords          = []string{"test", "spec", "__tests__"}
	licenseKeywords       = []string{"license", "licence", "copying"}
	contributingKeywords  = []string{"contributing"}
	changelogKeywords     = []string{"changelog", "changes.md", "history.md"}
	codeOfConductKeywords = []string{"code_of_conduct", "code-of-conduct"}
	securityKeywords      = []string{"security"}
	dockerKeywords        = []string{"dockerfile", "docker-compose", "compose.yaml", "compose.yml"}
	makefileKeywords      = []string{"makefile"}
)

// ciFiles maps a root entry name (lower case) to the CI system it implies.
var ciFiles = []struct {
	name   string
	system string
}{
	{".github", "GitHub Actions"},
	{".gitlab-ci.yml", "GitLab CI"},
	{"jenkinsfile", "Jenkins"},
	{".travis.yml", "Travis CI"},
	{".circleci", "CircleCI"},
	{"azure-pipelines.yml", "Azure Pipelines"},
	{"bitbucket-pipelines.yml", "Bitbucket Pipelines"},
	{".drone.yml", "Drone"},
	{"appveyor.yml", "AppVeyor"},
}

func rootEntries(dir []*gogithub.RepositoryContent) []rootEntry {
	out := make([]rootEntry, 0, len(dir))
	for _, c := range dir {
		if c == nil || c.GetName() == "" {
			continue
		}
		out = append(out, rootEntry{Name: c.GetName(), Type: c.GetType()})
	}
	return out
}

func fileStructure(entries []rootEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Type+": "+e.Name)
	}
	return out
}

func hasEntry(entries []rootEntry, name string) bool {
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return true
		}
	}
	return false
}

func anyContains(entries []rootEntry, keywords []string) bool {
	for _, e := range entries {
		lower := strings.ToLower(e.Name)
		for _, k := range keywords {
			if strings.Contains(lower, k) {
				return true
			}
		}
	}
	return false
}

func hasDocsDir(entries []rootEntry) bool {
	for _, e := range entries {
		if e.Type != "dir" {
			continue
		}
		switch strings.ToLower(e.Name) {
		case "docs", "doc", "documentation", "website":
			return true
		}
	}
	return false
}

// detectCI returns the CI systems implied by root entries, in table order.
func detectCI(entries []rootEntry) []string {
	systems := []string{}
	for _, ci := range ciFiles {
		for _, e := range entries {
			if strings.ToLower(e.Name) == ci.name {
				systems = append(systems, ci.system)
				break
			}
		}
	}
	return systems
}

// applySignals derives presence flags from the root listing and languages.
// HasLicense may already be set from repository metadata.
func applySignals(snap *domain.RepositorySnapshot, entries []rootEntry, hasReadme bool) {
	s := &snap.Signals
	s.HasReadme = hasReadme || anyContains(entries, []string{"readme"})
	s.HasTests = anyContains(entries, testKeywords)
	s.HasLicense = s.HasLicense || anyContains(entries, licenseKeywords)
	s.HasContributing = anyContains(entries, contributingKeywords)
	s.HasChangelog = anyContains(entries, changelogKeywords)
	s.HasCodeOfConduct = anyContains(entries, codeOfConductKeywords)
	s.HasSecurityPolicy = anyContains(entries, securityKeywords)
	s.HasDocs = hasDocsDir(entries)
	s.HasDockerfile = anyContains(entries, dockerKeywords)
	s.HasMakefile = anyContains(entries, makefileKeywords)
	_, ts := snap.Languages["TypeScript"]
	s.UsesTypeScript = ts || hasEntry(entries, "tsconfig.json")

	snap.CISystems = detectCI(entries)
	s.HasCI = len(snap.CISystems) > 0
}
