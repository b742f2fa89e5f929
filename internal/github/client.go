// internal/github/client.go
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/toluwase/gitdash/internal/model"
)

const (
	// Page size for account repository listings. One page covers typical
	// account sizes; pagination beyond it is out of scope.
	reposPerPage = 100

	// Fixed bound on the commit history shown per repository.
	commitsPerPage = 20
)

// AccountKind is the resolved type of an account handle.
type AccountKind string

const (
	AccountOrganization AccountKind = "organization"
	AccountUser         AccountKind = "user"
	AccountUnresolved   AccountKind = "unresolved"
)

// TransportError wraps a failure that never produced an HTTP status, such as
// an unreachable network.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response from the upstream API.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Message)
}

// AccountResolutionError means a handle could not be resolved to a repository
// collection on either the organization or the user endpoint. Status is zero
// when the failure was transport-level.
type AccountResolutionError struct {
	Status int
	Err    error
}

func (e *AccountResolutionError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("account could not be resolved: %v", e.Err)
	}
	return fmt.Sprintf("account could not be resolved (status %d)", e.Status)
}

func (e *AccountResolutionError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the upstream API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance. An empty token is
// legal; requests are then unauthenticated and subject to the lower
// anonymous rate limit.
func NewClient(token string, logger *slog.Logger) *Client {
	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		hc = oauth2.NewClient(context.Background(), ts)
	}

	return &Client{
		gh:     github.NewClient(hc),
		logger: logger,
	}
}

// WithBaseURL points the client at a GitHub-compatible API rooted at rawURL,
// for example a GitHub Enterprise instance. It returns the client for
// chaining.
func (c *Client) WithBaseURL(rawURL string) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse API base URL: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	c.gh.BaseURL = u
	return c, nil
}

// ListAccountRepositories resolves a handle to its repository collection.
// The organization-scoped listing is tried first; a 404 there falls back to
// the user-scoped listing with identical parameters. Any other failure, on
// either endpoint, surfaces as an AccountResolutionError.
func (c *Client) ListAccountRepositories(ctx context.Context, handle string) ([]model.Repository, AccountKind, error) {
	orgOpts := &github.RepositoryListByOrgOptions{
		Type:        "all",
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: reposPerPage},
	}

	c.logger.Debug("Listing organization repositories", "handle", handle)
	repos, _, err := c.gh.Repositories.ListByOrg(ctx, handle, orgOpts)
	if err == nil {
		return toRepositories(repos), AccountOrganization, nil
	}

	terr := translateErr(err)
	if !IsNotFound(terr) {
		return nil, AccountUnresolved, resolutionError(terr)
	}

	c.logger.Debug("Organization not found, falling back to user listing", "handle", handle)
	userOpts := &github.RepositoryListByUserOptions{
		Type:        "all",
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: reposPerPage},
	}
	repos, _, err = c.gh.Repositories.ListByUser(ctx, handle, userOpts)
	if err != nil {
		return nil, AccountUnresolved, resolutionError(translateErr(err))
	}
	return toRepositories(repos), AccountUser, nil
}

// GetReadme fetches the README body for the repository's default branch
// context. A missing README surfaces as a 404 StatusError.
func (c *Client) GetReadme(ctx context.Context, fullName string) (string, error) {
	owner, name, err := model.SplitFullName(fullName)
	if err != nil {
		return "", err
	}

	readme, _, err := c.gh.Repositories.GetReadme(ctx, owner, name, nil)
	if err != nil {
		return "", translateErr(err)
	}
	body, err := readme.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode readme content: %w", err)
	}
	return body, nil
}

// ListReleases fetches the release collection for a repository.
func (c *Client) ListReleases(ctx context.Context, fullName string) ([]model.ReleaseNote, error) {
	owner, name, err := model.SplitFullName(fullName)
	if err != nil {
		return nil, err
	}

	releases, _, err := c.gh.Repositories.ListReleases(ctx, owner, name, nil)
	if err != nil {
		return nil, translateErr(err)
	}

	out := make([]model.ReleaseNote, 0, len(releases))
	for _, r := range releases {
		out = append(out, toInternalRelease(r))
	}
	return out, nil
}

// ListCommits fetches the most recent commits on the default branch, bounded
// to a single fixed-size page.
func (c *Client) ListCommits(ctx context.Context, fullName string) ([]model.CommitRecord, error) {
	owner, name, err := model.SplitFullName(fullName)
	if err != nil {
		return nil, err
	}

	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: commitsPerPage},
	}
	commits, _, err := c.gh.Repositories.ListCommits(ctx, owner, name, opts)
	if err != nil {
		return nil, translateErr(err)
	}

	out := make([]model.CommitRecord, 0, len(commits))
	for _, cm := range commits {
		out = append(out, toInternalCommit(cm))
	}
	return out, nil
}

// ListContributors fetches the contributor collection for a repository.
func (c *Client) ListContributors(ctx context.Context, fullName string) ([]model.Contributor, error) {
	owner, name, err := model.SplitFullName(fullName)
	if err != nil {
		return nil, err
	}

	contributors, _, err := c.gh.Repositories.ListContributors(ctx, owner, name, nil)
	if err != nil {
		return nil, translateErr(err)
	}

	out := make([]model.Contributor, 0, len(contributors))
	for _, u := range contributors {
		out = append(out, toInternalContributor(u))
	}
	return out, nil
}

// translateErr maps go-github errors onto the local error taxonomy.
func translateErr(err error) error {
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return &StatusError{Code: er.Response.StatusCode, Message: er.Message}
	}
	var rl *github.RateLimitError
	if errors.As(err, &rl) && rl.Response != nil {
		return &StatusError{Code: rl.Response.StatusCode, Message: rl.Message}
	}
	return &TransportError{Err: err}
}

func resolutionError(err error) error {
	var se *StatusError
	if errors.As(err, &se) {
		return &AccountResolutionError{Status: se.Code, Err: err}
	}
	return &AccountResolutionError{Err: err}
}

func toRepositories(repos []*github.Repository) []model.Repository {
	out := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		out = append(out, toInternalRepository(r))
	}
	return out
}

// toInternalRepository translates a github.Repository object to our internal
// model.Repository.
func toInternalRepository(r *github.Repository) model.Repository {
	var license *string
	if l := r.GetLicense(); l != nil {
		name := l.GetSPDXID()
		if name == "" || name == "NOASSERTION" {
			name = l.GetName()
		}
		license = &name
	}

	return model.Repository{
		ID:              r.GetID(),
		FullName:        r.GetFullName(),
		Name:            r.GetName(),
		Description:     r.Description,
		StarsCount:      r.GetStargazersCount(),
		UpdatedAt:       r.GetUpdatedAt().Time,
		Language:        r.Language,
		URL:             r.GetHTMLURL(),
		DefaultBranch:   r.GetDefaultBranch(),
		Homepage:        r.Homepage,
		License:         license,
		OpenIssuesCount: r.GetOpenIssuesCount(),
		Topics:          r.Topics,
	}
}

// toInternalRelease translates a github.RepositoryRelease to our internal
// model.ReleaseNote. The display name falls back to the tag.
func toInternalRelease(r *github.RepositoryRelease) model.ReleaseNote {
	name := r.GetName()
	if name == "" {
		name = r.GetTagName()
	}
	return model.ReleaseNote{
		ID:          r.GetID(),
		Name:        name,
		TagName:     r.GetTagName(),
		Prerelease:  r.GetPrerelease(),
		PublishedAt: r.GetPublishedAt().Time,
		URL:         r.GetHTMLURL(),
		Body:        r.GetBody(),
	}
}

// toInternalCommit translates a github.RepositoryCommit to our internal
// model.CommitRecord.
func toInternalCommit(c *github.RepositoryCommit) model.CommitRecord {
	return model.CommitRecord{
		SHA:        c.GetSHA(),
		URL:        c.GetHTMLURL(),
		Message:    c.GetCommit().GetMessage(),
		AuthorName: c.GetCommit().GetAuthor().GetName(),
		AuthoredAt: c.GetCommit().GetAuthor().GetDate().Time,
	}
}

// toInternalContributor translates a github.Contributor to our internal
// model.Contributor.
func toInternalContributor(u *github.Contributor) model.Contributor {
	return model.Contributor{
		ID:            u.GetID(),
		Login:         u.GetLogin(),
		AvatarURL:     u.GetAvatarURL(),
		ProfileURL:    u.GetHTMLURL(),
		Contributions: u.GetContributions(),
	}
}
