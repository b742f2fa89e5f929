// internal/content/loader.go
package content

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	apperrors "github.com/toluwase/gitdash/internal/errors"
	"github.com/toluwase/gitdash/internal/github"
	"github.com/toluwase/gitdash/internal/model"
)

// Reasons attached to the failed state when a fetch succeeded but there is
// nothing to show. Commits are deliberately asymmetric: an empty commit list
// renders as an empty ready list, not a failure.
const (
	ReasonNoReadme       = "README not found"
	ReasonNoReleases     = "No releases found"
	ReasonNoContributors = "No contributors found"
)

// EmptyResultError marks a successful fetch whose result set is semantically
// empty for the selected tab.
type EmptyResultError struct {
	Reason string
}

func (e *EmptyResultError) Error() string { return e.Reason }

// Fetcher is the outbound seam the loader drives, one call per tab.
type Fetcher interface {
	GetReadme(ctx context.Context, fullName string) (string, error)
	ListReleases(ctx context.Context, fullName string) ([]model.ReleaseNote, error)
	ListCommits(ctx context.Context, fullName string) ([]model.CommitRecord, error)
	ListContributors(ctx context.Context, fullName string) ([]model.Contributor, error)
}

// Loader drives the per-(repository, tab) fetch state machine. Only the most
// recently requested selection's result is ever applied to the visible
// state: each Load bumps a generation counter and cancels the context of the
// load it supersedes, and a completed load compares generations before
// publishing. Switching selections always re-fetches; there is no per-tab
// cache.
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger

	gen atomic.Uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	current model.TabContent
}

// NewLoader creates a Loader over the given fetcher.
func NewLoader(fetcher Fetcher, logger *slog.Logger) *Loader {
	l := &Loader{fetcher: fetcher, logger: logger}
	l.current = model.TabContent{Status: model.StatusIdle}
	return l
}

// Current returns the visible content state for the most recent selection.
func (l *Loader) Current() model.TabContent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Load fetches the content for a (repository, tab) selection and returns the
// resulting state. It also publishes that state as Current, unless a newer
// Load was issued while this one was in flight, in which case the result is
// discarded from the visible state and only returned to the caller.
func (l *Loader) Load(ctx context.Context, repo model.Repository, tab model.Tab) model.TabContent {
	gen, lctx := l.begin(ctx, repo, tab)

	state := l.fetch(lctx, repo, tab)
	l.apply(gen, state)
	return state
}

// begin publishes the loading state for the new selection and supersedes any
// in-flight load by cancelling its context.
func (l *Loader) begin(ctx context.Context, repo model.Repository, tab model.Tab) (uint64, context.Context) {
	gen := l.gen.Add(1)
	lctx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.cancel = cancel
	l.current = model.TabContent{
		FullName: repo.FullName,
		Tab:      tab,
		Status:   model.StatusLoading,
	}
	return gen, lctx
}

// apply publishes a finished state unless it has been superseded.
func (l *Loader) apply(gen uint64, state model.TabContent) {
	if gen != l.gen.Load() {
		l.logger.Debug("Discarding stale content result",
			"full_name", state.FullName, "tab", state.Tab)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Re-check under the lock; a newer begin may have run since.
	if gen != l.gen.Load() {
		return
	}
	l.current = state
}

func (l *Loader) fetch(ctx context.Context, repo model.Repository, tab model.Tab) model.TabContent {
	state := model.TabContent{FullName: repo.FullName, Tab: tab}
	logger := l.logger.With("full_name", repo.FullName, "tab", tab)

	switch tab {
	case model.TabReadme:
		body, err := l.fetcher.GetReadme(ctx, repo.FullName)
		if err != nil {
			if github.IsNotFound(err) {
				err = &EmptyResultError{Reason: ReasonNoReadme}
			}
			return failed(state, logger, err)
		}
		state.Readme = body

	case model.TabReleases:
		releases, err := l.fetcher.ListReleases(ctx, repo.FullName)
		if err != nil {
			return failed(state, logger, err)
		}
		if len(releases) == 0 {
			return failed(state, logger, &EmptyResultError{Reason: ReasonNoReleases})
		}
		state.Releases = releases

	case model.TabCommits:
		commits, err := l.fetcher.ListCommits(ctx, repo.FullName)
		if err != nil {
			return failed(state, logger, err)
		}
		if commits == nil {
			commits = []model.CommitRecord{}
		}
		state.Commits = commits

	case model.TabContributors:
		contributors, err := l.fetcher.ListContributors(ctx, repo.FullName)
		if err != nil {
			return failed(state, logger, err)
		}
		if len(contributors) == 0 {
			return failed(state, logger, &EmptyResultError{Reason: ReasonNoContributors})
		}
		state.Contribs = contributors

	default:
		return failed(state, logger, &apperrors.ErrUnknownTab{Tab: string(tab)})
	}

	state.Status = model.StatusReady
	return state
}

// failed maps any fetch error into the failed state, surfacing the message
// verbatim. No retries are attempted; the user re-triggers via navigation.
func failed(state model.TabContent, logger *slog.Logger, err error) model.TabContent {
	state.Status = model.StatusFailed
	state.Reason = err.Error()
	logger.Info("Content load failed", "reason", state.Reason)
	return state
}
