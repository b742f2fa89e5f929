// internal/model/models.go
package model

import (
	"strings"
	"time"

	apperrors "github.com/toluwase/gitdash/internal/errors"
)

// Repository represents the metadata of a GitHub repository as shown in the
// catalog. Instances are immutable once fetched; a refresh replaces the whole
// collection.
type Repository struct {
	ID              int64     `json:"id"`
	FullName        string    `json:"full_name"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	StarsCount      int       `json:"stars_count"`
	UpdatedAt       time.Time `json:"updated_at"`
	Language        *string   `json:"language,omitempty"`
	URL             string    `json:"url"`
	DefaultBranch   string    `json:"default_branch"`
	Homepage        *string   `json:"homepage,omitempty"`
	License         *string   `json:"license,omitempty"`
	OpenIssuesCount int       `json:"open_issues_count"`
	Topics          []string  `json:"topics,omitempty"`
}

// ReleaseNote is a published release of a repository. Name falls back to the
// tag when the release was published without a title.
type ReleaseNote struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	TagName     string    `json:"tag_name"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url"`
	Body        string    `json:"body"`
}

// CommitRecord is a single commit on the default branch.
type CommitRecord struct {
	SHA        string    `json:"sha"`
	URL        string    `json:"url"`
	Message    string    `json:"message"`
	AuthorName string    `json:"author_name"`
	AuthoredAt time.Time `json:"authored_at"`
}

// Summary returns the first line of the commit message.
func (c CommitRecord) Summary() string {
	if i := strings.IndexByte(c.Message, '\n'); i >= 0 {
		return strings.TrimRight(c.Message[:i], "\r")
	}
	return c.Message
}

// Detail returns everything after the first line of the commit message.
func (c CommitRecord) Detail() string {
	if i := strings.IndexByte(c.Message, '\n'); i >= 0 {
		return strings.TrimSpace(c.Message[i+1:])
	}
	return ""
}

// Contributor is an account that has contributed commits to a repository.
type Contributor struct {
	ID            int64  `json:"id"`
	Login         string `json:"login"`
	AvatarURL     string `json:"avatar_url"`
	ProfileURL    string `json:"profile_url"`
	Contributions int    `json:"contributions"`
}

// TocEntry is one heading in a README outline. Derived, never persisted.
type TocEntry struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// Tab identifies one of the four content views of a selected repository.
type Tab string

const (
	TabReadme       Tab = "readme"
	TabReleases     Tab = "releases"
	TabCommits      Tab = "commits"
	TabContributors Tab = "contributors"
)

// Valid reports whether t is one of the known tabs.
func (t Tab) Valid() bool {
	switch t {
	case TabReadme, TabReleases, TabCommits, TabContributors:
		return true
	}
	return false
}

// Status is the lifecycle of a TabContent.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// TabContent is the content of exactly one (repository, tab) selection. At
// most one payload field is populated, matching Tab, and only when Status is
// ready.
type TabContent struct {
	FullName string         `json:"full_name"`
	Tab      Tab            `json:"tab"`
	Status   Status         `json:"status"`
	Reason   string         `json:"reason,omitempty"`
	Readme   string         `json:"readme,omitempty"`
	Releases []ReleaseNote  `json:"releases,omitempty"`
	Commits  []CommitRecord `json:"commits,omitempty"`
	Contribs []Contributor  `json:"contributors,omitempty"`
}

// SplitFullName splits an "owner/name" pair.
func SplitFullName(fullName string) (owner, name string, err error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &apperrors.ErrInvalidRepoFormat{Repo: fullName}
	}
	return parts[0], parts[1], nil
}
