// internal/catalog/catalog.go
package catalog

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/toluwase/gitdash/internal/github"
	"github.com/toluwase/gitdash/internal/model"
)

// cacheKey is the single versioned key under which the repository collection
// is persisted. Bumping the version orphans blobs written with an older
// shape; the store treats them as absent.
const cacheKey = "catalog.v2.repositories"

// Status is the catalog lifecycle.
type Status string

const (
	StatusEmpty     Status = "empty"
	StatusLoading   Status = "loading"
	StatusPopulated Status = "populated"
	StatusFailed    Status = "failed"
)

// Lister resolves an account handle to its repository collection.
type Lister interface {
	ListAccountRepositories(ctx context.Context, handle string) ([]model.Repository, github.AccountKind, error)
}

// Cache is the persistence seam for the repository collection.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Stats are the catalog aggregates shown alongside navigation.
type Stats struct {
	TotalRepositories int    `json:"total_repositories"`
	TotalStars        int    `json:"total_stars"`
	TopLanguage       string `json:"top_language,omitempty"`
}

// Catalog owns the canonical repository collection for the configured
// account handle. It is the sole writer of the persistent cache.
type Catalog struct {
	client Lister
	cache  Cache
	logger *slog.Logger

	mu      sync.RWMutex
	handle  string
	kind    github.AccountKind
	status  Status
	repos   []model.Repository
	lastErr error
}

// New creates a Catalog for the given account handle.
func New(client Lister, cache Cache, logger *slog.Logger, handle string) *Catalog {
	return &Catalog{
		client: client,
		cache:  cache,
		logger: logger,
		handle: handle,
		kind:   github.AccountUnresolved,
		status: StatusEmpty,
	}
}

// Rehydrate loads the persisted collection, if any, so the last known state
// can be shown before any network call. It returns the number of
// repositories restored. A missing or corrupt cache value yields zero, never
// an error.
func (c *Catalog) Rehydrate(ctx context.Context) int {
	var repos []model.Repository
	if !c.cache.Get(ctx, cacheKey, &repos) || len(repos) == 0 {
		c.logger.Info("No cached catalog to rehydrate")
		return 0
	}
	sortByRecency(repos)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.repos = repos
	c.status = StatusPopulated
	c.logger.Info("Catalog rehydrated from cache", "count", len(repos))
	return len(repos)
}

// Refresh resolves the handle and replaces the collection wholesale. On
// success the new collection is persisted (last-writer-wins). On failure the
// prior in-memory collection is retained unchanged and the error is both
// recorded and returned.
func (c *Catalog) Refresh(ctx context.Context) error {
	c.mu.Lock()
	handle := c.handle
	c.status = StatusLoading
	c.mu.Unlock()

	logger := c.logger.With("handle", handle)
	logger.Info("Refreshing repository catalog")

	repos, kind, err := c.client.ListAccountRepositories(ctx, handle)
	if err != nil {
		logger.Error("Catalog refresh failed, keeping previous data", "error", err)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.lastErr = err
		if len(c.repos) > 0 {
			c.status = StatusPopulated
		} else {
			c.status = StatusFailed
		}
		return err
	}
	sortByRecency(repos)

	c.mu.Lock()
	c.repos = repos
	c.kind = kind
	c.status = StatusPopulated
	c.lastErr = nil
	c.mu.Unlock()
	logger.Info("Catalog refreshed", "count", len(repos), "account_kind", kind)

	// Refresh failures never clear shown data; a cache write failure
	// likewise only costs the next rehydration.
	if err := c.cache.Set(ctx, cacheKey, repos); err != nil {
		logger.Warn("Failed to persist catalog", "error", err)
	}
	return nil
}

// SetHandle switches the catalog to a different account. The in-memory
// collection and the persisted cache are invalidated; the caller is expected
// to Refresh afterwards.
func (c *Catalog) SetHandle(ctx context.Context, handle string) {
	c.mu.Lock()
	if handle == c.handle {
		c.mu.Unlock()
		return
	}
	c.handle = handle
	c.kind = github.AccountUnresolved
	c.repos = nil
	c.status = StatusEmpty
	c.lastErr = nil
	c.mu.Unlock()

	if err := c.cache.Delete(ctx, cacheKey); err != nil {
		c.logger.Warn("Failed to invalidate cached catalog", "error", err)
	}
}

// Handle returns the current account handle and its resolved kind.
func (c *Catalog) Handle() (string, github.AccountKind) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handle, c.kind
}

// Status returns the catalog lifecycle state.
func (c *Catalog) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Err returns the most recent refresh error, if the last refresh failed.
func (c *Catalog) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Repositories returns a copy of the collection, sorted by update recency.
func (c *Catalog) Repositories() []model.Repository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Repository, len(c.repos))
	copy(out, c.repos)
	return out
}

// Find returns the repository with the given fullName.
func (c *Catalog) Find(fullName string) (model.Repository, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.repos {
		if r.FullName == fullName {
			return r, true
		}
	}
	return model.Repository{}, false
}

// Filter returns the repositories whose name contains query, case
// insensitively, preserving catalog order. An empty query returns the whole
// collection.
func (c *Catalog) Filter(query string) []model.Repository {
	if query == "" {
		return c.Repositories()
	}
	q := strings.ToLower(query)

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Repository, 0, len(c.repos))
	for _, r := range c.repos {
		if strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r)
		}
	}
	return out
}

// Stats computes the catalog aggregates. The top language is the most
// frequent non-empty primary language; ties are broken by the
// lexicographically smallest language name.
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{TotalRepositories: len(c.repos)}
	counts := make(map[string]int)
	for _, r := range c.repos {
		stats.TotalStars += r.StarsCount
		if r.Language != nil && *r.Language != "" {
			counts[*r.Language]++
		}
	}

	best := 0
	for lang, n := range counts {
		if n > best || (n == best && lang < stats.TopLanguage) {
			best = n
			stats.TopLanguage = lang
		}
	}
	return stats
}

// sortByRecency orders repositories by UpdatedAt descending, the invariant
// the rest of the system assumes.
func sortByRecency(repos []model.Repository) {
	sort.SliceStable(repos, func(i, j int) bool {
		return repos[i].UpdatedAt.After(repos[j].UpdatedAt)
	})
}
