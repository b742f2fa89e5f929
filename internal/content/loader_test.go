// internal/content/loader_test.go
package content

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toluwase/gitdash/internal/github"
	"github.com/toluwase/gitdash/internal/model"
)

// fnFetcher lets each test script the outbound calls.
type fnFetcher struct {
	getReadme        func(ctx context.Context, fullName string) (string, error)
	listReleases     func(ctx context.Context, fullName string) ([]model.ReleaseNote, error)
	listCommits      func(ctx context.Context, fullName string) ([]model.CommitRecord, error)
	listContributors func(ctx context.Context, fullName string) ([]model.Contributor, error)
}

func (f *fnFetcher) GetReadme(ctx context.Context, fullName string) (string, error) {
	return f.getReadme(ctx, fullName)
}
func (f *fnFetcher) ListReleases(ctx context.Context, fullName string) ([]model.ReleaseNote, error) {
	return f.listReleases(ctx, fullName)
}
func (f *fnFetcher) ListCommits(ctx context.Context, fullName string) ([]model.CommitRecord, error) {
	return f.listCommits(ctx, fullName)
}
func (f *fnFetcher) ListContributors(ctx context.Context, fullName string) ([]model.Contributor, error) {
	return f.listContributors(ctx, fullName)
}

func newTestLoader(f Fetcher) *Loader {
	return NewLoader(f, slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func repo(fullName string) model.Repository {
	return model.Repository{FullName: fullName, DefaultBranch: "main"}
}

func TestLoader_Readme(t *testing.T) {
	t.Run("ready on success", func(t *testing.T) {
		f := &fnFetcher{getReadme: func(ctx context.Context, fullName string) (string, error) {
			return "# Hello", nil
		}}
		l := newTestLoader(f)

		state := l.Load(context.Background(), repo("acme/widgets"), model.TabReadme)

		assert.Equal(t, model.StatusReady, state.Status)
		assert.Equal(t, "# Hello", state.Readme)
		assert.Equal(t, state, l.Current())
	})

	t.Run("missing readme is a recoverable failure", func(t *testing.T) {
		f := &fnFetcher{getReadme: func(ctx context.Context, fullName string) (string, error) {
			return "", &github.StatusError{Code: http.StatusNotFound, Message: "Not Found"}
		}}
		l := newTestLoader(f)

		state := l.Load(context.Background(), repo("acme/widgets"), model.TabReadme)

		assert.Equal(t, model.StatusFailed, state.Status)
		assert.Equal(t, ReasonNoReadme, state.Reason)
	})
}

func TestLoader_Releases(t *testing.T) {
	t.Run("empty result is failed, not ready", func(t *testing.T) {
		f := &fnFetcher{listReleases: func(ctx context.Context, fullName string) ([]model.ReleaseNote, error) {
			return []model.ReleaseNote{}, nil
		}}
		l := newTestLoader(f)

		state := l.Load(context.Background(), repo("acme/widgets"), model.TabReleases)

		assert.Equal(t, model.StatusFailed, state.Status)
		assert.Equal(t, ReasonNoReleases, state.Reason)
	})

	t.Run("ready with releases", func(t *testing.T) {
		f := &fnFetcher{listReleases: func(ctx context.Context, fullName string) ([]model.ReleaseNote, error) {
			return []model.ReleaseNote{{ID: 1, Name: "v1"}}, nil
		}}
		l := newTestLoader(f)

		state := l.Load(context.Background(), repo("acme/widgets"), model.TabReleases)

		assert.Equal(t, model.StatusReady, state.Status)
		require.Len(t, state.Releases, 1)
	})
}

func TestLoader_CommitsEmptyIsReady(t *testing.T) {
	// Deliberate asymmetry: zero commits render as an empty list.
	f := &fnFetcher{listCommits: func(ctx context.Context, fullName string) ([]model.CommitRecord, error) {
		return nil, nil
	}}
	l := newTestLoader(f)

	state := l.Load(context.Background(), repo("acme/widgets"), model.TabCommits)

	assert.Equal(t, model.StatusReady, state.Status)
	require.NotNil(t, state.Commits)
	assert.Len(t, state.Commits, 0)
}

func TestLoader_ContributorsEmptyIsFailed(t *testing.T) {
	f := &fnFetcher{listContributors: func(ctx context.Context, fullName string) ([]model.Contributor, error) {
		return nil, nil
	}}
	l := newTestLoader(f)

	state := l.Load(context.Background(), repo("acme/widgets"), model.TabContributors)

	assert.Equal(t, model.StatusFailed, state.Status)
	assert.Equal(t, ReasonNoContributors, state.Reason)
}

func TestLoader_ErrorMessageSurfacedVerbatim(t *testing.T) {
	boom := errors.New("dial tcp 10.0.0.1:443: connect: connection refused")
	f := &fnFetcher{listCommits: func(ctx context.Context, fullName string) ([]model.CommitRecord, error) {
		return nil, boom
	}}
	l := newTestLoader(f)

	state := l.Load(context.Background(), repo("acme/widgets"), model.TabCommits)

	assert.Equal(t, model.StatusFailed, state.Status)
	assert.Equal(t, boom.Error(), state.Reason)
}

func TestLoader_UnknownTab(t *testing.T) {
	l := newTestLoader(&fnFetcher{})

	state := l.Load(context.Background(), repo("acme/widgets"), model.Tab("issues"))

	assert.Equal(t, model.StatusFailed, state.Status)
	assert.Contains(t, state.Reason, "unknown content tab")
}

func TestLoader_StaleResultIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f := &fnFetcher{getReadme: func(ctx context.Context, fullName string) (string, error) {
		if fullName == "acme/slow" {
			close(started)
			select {
			case <-release:
				return "# Slow readme", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		return "# Fast readme", nil
	}}
	l := newTestLoader(f)

	// Start loading repository A; its fetch blocks.
	slowDone := make(chan model.TabContent, 1)
	go func() {
		slowDone <- l.Load(context.Background(), repo("acme/slow"), model.TabReadme)
	}()
	<-started

	// Navigate to repository B before A resolves.
	fast := l.Load(context.Background(), repo("acme/fast"), model.TabReadme)
	assert.Equal(t, model.StatusReady, fast.Status)

	// Let A settle; its late result must never overwrite B's.
	close(release)
	select {
	case <-slowDone:
	case <-time.After(2 * time.Second):
		t.Fatal("slow load never settled")
	}

	current := l.Current()
	assert.Equal(t, "acme/fast", current.FullName)
	assert.Equal(t, "# Fast readme", current.Readme)
}

func TestLoader_SupersededLoadIsCancelled(t *testing.T) {
	started := make(chan struct{})
	f := &fnFetcher{getReadme: func(ctx context.Context, fullName string) (string, error) {
		if fullName == "acme/slow" {
			close(started)
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "ok", nil
	}}
	l := newTestLoader(f)

	slowDone := make(chan model.TabContent, 1)
	go func() {
		slowDone <- l.Load(context.Background(), repo("acme/slow"), model.TabReadme)
	}()
	<-started

	// Issuing a new load cancels the superseded one's context.
	l.Load(context.Background(), repo("acme/fast"), model.TabReadme)

	select {
	case state := <-slowDone:
		assert.Equal(t, model.StatusFailed, state.Status)
		assert.Equal(t, context.Canceled.Error(), state.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded load was not cancelled")
	}
}
