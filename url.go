package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var readmeBranches = []string{"main", "master"}

// isURL reports whether s is an absolute URL.
func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// repoPath extracts "owner/name" when s references a repository on host,
// with or without the protocol.
func repoPath(s, host string) (string, bool) {
	if strings.HasPrefix(s, host+"/") {
		s = "https://" + s
	}
	u, err := url.ParseRequestURI(s)
	if err != nil || !strings.EqualFold(u.Hostname(), host) {
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return parts[0] + "/" + parts[1], true
}

// readmeURL resolves GitHub and GitLab repository references to their raw
// README. It returns nil when arg does not reference a repository; the
// caller falls through to the other source kinds.
func readmeURL(arg string) (*source, error) {
	if repo, ok := repoPath(arg, "github.com"); ok {
		for _, branch := range readmeBranches {
			u := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/README.md", repo, branch)
			if src, err := fetchMarkdown(u); err == nil {
				return src, nil
			}
		}
		return nil, fmt.Errorf("unable to find README for %s", repo)
	}

	if repo, ok := repoPath(arg, "gitlab.com"); ok {
		for _, branch := range readmeBranches {
			u := fmt.Sprintf("https://gitlab.com/%s/-/raw/%s/README.md", repo, branch)
			if src, err := fetchMarkdown(u); err == nil {
				return src, nil
			}
		}
		return nil, fmt.Errorf("unable to find README for %s", repo)
	}

	return nil, nil
}

// fetchMarkdown GETs a URL; the caller is responsible for closing the
// source's reader.
func fetchMarkdown(u string) (*source, error) {
	resp, err := http.Get(u) //nolint:noctx,bodyclose,gosec
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
	}
	return &source{resp.Body, u}, nil
}
