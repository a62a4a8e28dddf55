package github

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
	gogithub "github.com/google/go-github/v68/github"
)

// Character budgets applied to decoded file content to bound prompt size.
const (
	ReadmeCharBudget   = 2000
	ManifestCharBudget = 4000
	manifestListLimit  = 25
)

// decodeContent returns the text of a base64-encoded file from the contents API.
func decodeContent(rc *gogithub.RepositoryContent) (string, error) {
	if rc == nil {
		return "", fmt.Errorf("empty content")
	}
	if rc.GetEncoding() == "base64" {
		if rc.Content == nil {
			return "", fmt.Errorf("base64 encoding of null content")
		}
		raw := strings.Map(func(r rune) rune {
			if r == '\n' || r == '\r' {
				return -1
			}
			return r
		}, *rc.Content)
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return "", fmt.Errorf("decode base64 content: %w", err)
		}
		return string(b), nil
	}
	return rc.GetContent()
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// parseManifest extracts the prompt-relevant parts of a package.json.
// Text is cut to ManifestCharBudget first, so an oversized manifest fails to parse.
func parseManifest(text string) (*domain.PackageManifest, error) {
	text = truncateRunes(text, ManifestCharBudget)

	var pkg struct {
		Name            string            `json:"name"`
		Version         string            `json:"version"`
		Description     string            `json:"description"`
		Scripts         map[string]string `json:"scripts"`
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal([]byte(text), &pkg); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}

	return &domain.PackageManifest{
		Name:            pkg.Name,
		Version:         pkg.Version,
		Description:     pkg.Description,
		Scripts:         sortedKeys(pkg.Scripts, manifestListLimit),
		Dependencies:    sortedKeys(pkg.Dependencies, manifestListLimit),
		DevDependencies: sortedKeys(pkg.DevDependencies, manifestListLimit),
	}, nil
}

func sortedKeys(m map[string]string, limit int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}
