package github

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// Repository describes one repository returned by discovery. Fields mirror
// the subset of the list endpoint the pipeline consumes.
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Language      string `json:"language"`
	DefaultBranch string `json:"default_branch"`
	Size          int    `json:"size"`
	Fork          bool   `json:"fork"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url"`
}

// ListRepositories returns all non-fork repositories owned by the identifier,
// in host-reported order. An empty result is valid.
func (c *Client) ListRepositories(ctx context.Context, owner string) ([]Repository, error) {
	if owner == "" {
		return nil, fmt.Errorf("owner is required")
	}

	listURL := fmt.Sprintf("%s/users/%s/repos", c.APIURL, url.PathEscape(owner))

	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("type", "owner")

	var repos []Repository
	for page := 1; ; page++ {
		var items []map[string]any
		if err := c.getJSON(ctx, listURL, addPage(q, page), &items); err != nil {
			return nil, fmt.Errorf("list repositories for %s: %w", owner, err)
		}

		var decoded []Repository
		cfg := &mapstructure.DecoderConfig{
			Result:  &decoded,
			TagName: "json",
		}
		decoder, err := mapstructure.NewDecoder(cfg)
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(items); err != nil {
			return nil, fmt.Errorf("decode repositories: %w", err)
		}

		for _, repo := range decoded {
			if repo.Fork {
				continue
			}
			repos = append(repos, repo)
		}

		if len(items) < perPage {
			break
		}
	}

	return repos, nil
}

// Languages returns the byte counts per language for a repository, largest
// first by host convention.
func (c *Client) Languages(ctx context.Context, owner, repo string) (map[string]int, error) {
	langURL := fmt.Sprintf("%s/repos/%s/%s/languages", c.APIURL, url.PathEscape(owner), url.PathEscape(repo))

	langs := map[string]int{}
	if err := c.getJSON(ctx, langURL, nil, &langs); err != nil {
		return nil, fmt.Errorf("languages for %s/%s: %w", owner, repo, err)
	}

	return langs, nil
}
