package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// TreeEntry is a single path inside a repository tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Size int    `json:"size"`
}

// IsBlob reports whether the entry is a regular file.
func (e TreeEntry) IsBlob() bool { return e.Type == "blob" }

type treeResponse struct {
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// Tree returns the recursive file listing of the repository at the given ref.
// The ref is usually the default branch; "HEAD" works for any.
func (c *Client) Tree(ctx context.Context, owner, repo, ref string) ([]TreeEntry, error) {
	if ref == "" {
		ref = "HEAD"
	}

	treeURL := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s",
		c.APIURL, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(ref))

	q := url.Values{}
	q.Set("recursive", "1")

	var resp treeResponse
	if err := c.getJSON(ctx, treeURL, q, &resp); err != nil {
		return nil, fmt.Errorf("tree for %s/%s: %w", owner, repo, err)
	}

	return resp.Tree, nil
}

type contentResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// FileContent fetches a single file through the contents endpoint and decodes
// its payload.
func (c *Client) FileContent(ctx context.Context, owner, repo, path string) (string, error) {
	contentsURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.APIURL, url.PathEscape(owner), url.PathEscape(repo), escapePath(path))

	var resp contentResponse
	if err := c.getJSON(ctx, contentsURL, nil, &resp); err != nil {
		return "", fmt.Errorf("contents of %s in %s/%s: %w", path, owner, repo, err)
	}

	if resp.Encoding != "base64" {
		return resp.Content, nil
	}

	// The API wraps base64 payloads with newlines.
	compact := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, resp.Content)

	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return "", fmt.Errorf("decode contents of %s: %w", path, err)
	}

	return string(decoded), nil
}

// escapePath escapes each path segment while keeping separators intact.
func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
