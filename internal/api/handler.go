// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/toluwase/gitdash/internal/catalog"
	"github.com/toluwase/gitdash/internal/content"
	"github.com/toluwase/gitdash/internal/github"
	"github.com/toluwase/gitdash/internal/markdown"
	"github.com/toluwase/gitdash/internal/model"
)

// Number of tab fetches the overview endpoint runs in parallel.
const overviewConcurrency = 3

// Catalog is the slice of the repository catalog the API consumes.
type Catalog interface {
	Repositories() []model.Repository
	Filter(query string) []model.Repository
	Find(fullName string) (model.Repository, bool)
	Stats() catalog.Stats
	Status() catalog.Status
	Err() error
	Refresh(ctx context.Context) error
	SetHandle(ctx context.Context, handle string)
	Handle() (string, github.AccountKind)
}

// Loader is the per-(repository, tab) content loader the API consumes.
type Loader interface {
	Load(ctx context.Context, repo model.Repository, tab model.Tab) model.TabContent
	Current() model.TabContent
}

// Handler is the container for API dependencies.
type Handler struct {
	catalog Catalog
	loader  Loader
	fetcher content.Fetcher
	logger  *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
// The surface is read-only: it exposes the process's own state and triggers
// refreshes, nothing more.
func NewRouter(cat Catalog, loader Loader, fetcher content.Fetcher, logger *slog.Logger) http.Handler {
	h := &Handler{
		catalog: cat,
		loader:  loader,
		fetcher: fetcher,
		logger:  logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/repos", h.listRepositories)
		r.Get("/stats", h.getStats)
		r.Post("/refresh", h.refresh)
		r.Put("/account", h.setAccount)
		r.Get("/repos/{owner}/{name}/overview", h.getOverview)
		r.Get("/repos/{owner}/{name}/{tab}", h.getTabContent)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type repositoriesResponse struct {
	Status       catalog.Status     `json:"status"`
	Error        string             `json:"error,omitempty"`
	Repositories []model.Repository `json:"repositories"`
}

// listRepositories returns the catalog, optionally filtered by a
// case-insensitive name substring.
// GET /v1/repos?q=substring
func (h *Handler) listRepositories(w http.ResponseWriter, r *http.Request) {
	resp := repositoriesResponse{
		Status:       h.catalog.Status(),
		Repositories: h.catalog.Filter(r.URL.Query().Get("q")),
	}
	if err := h.catalog.Err(); err != nil {
		resp.Error = err.Error()
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// getStats returns the catalog aggregates.
// GET /v1/stats
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.catalog.Stats())
}

// refresh re-resolves the account handle and replaces the catalog. A failed
// refresh keeps whatever the catalog already held.
// POST /v1/refresh
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status": h.catalog.Status(),
		"count":  len(h.catalog.Repositories()),
	})
}

// setAccount switches the catalog to a different account handle, invalidating
// the cached catalog, then refreshes.
// PUT /v1/account  {"handle": "acme"}
func (h *Handler) setAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Handle string `json:"handle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Handle == "" {
		respondWithError(w, http.StatusBadRequest, "Request body must be {\"handle\": \"...\"}")
		return
	}

	h.catalog.SetHandle(r.Context(), body.Handle)
	if err := h.catalog.Refresh(r.Context()); err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}

	handle, kind := h.catalog.Handle()
	respondWithJSON(w, http.StatusOK, map[string]any{
		"handle": handle,
		"kind":   kind,
		"count":  len(h.catalog.Repositories()),
	})
}

type readmeResponse struct {
	model.TabContent
	HTML string           `json:"html,omitempty"`
	Toc  []model.TocEntry `json:"toc,omitempty"`
}

// getTabContent loads one content tab for a repository. The result is always
// 200 with a TabContent; a fetch failure is a failed state, not an HTTP
// error. The readme tab additionally carries the rendered HTML (with
// normalized links) and the heading outline.
// GET /v1/repos/{owner}/{name}/{tab}
func (h *Handler) getTabContent(w http.ResponseWriter, r *http.Request) {
	tab := model.Tab(chi.URLParam(r, "tab"))
	if !tab.Valid() {
		respondWithError(w, http.StatusBadRequest, "Unknown tab. Must be one of: readme, releases, commits, contributors.")
		return
	}

	repo, ok := h.findRepo(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Repository not found")
		return
	}

	state := h.loader.Load(r.Context(), repo, tab)
	if tab != model.TabReadme {
		respondWithJSON(w, http.StatusOK, state)
		return
	}

	resp := readmeResponse{TabContent: state}
	if state.Status == model.StatusReady {
		html, err := markdown.Render([]byte(state.Readme), repo.FullName, repo.DefaultBranch)
		if err != nil {
			h.logger.Error("Failed to render readme", "full_name", repo.FullName, "error", err)
		} else {
			resp.HTML = html
		}
		resp.Toc = markdown.ExtractTOC([]byte(state.Readme))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

type overviewResponse struct {
	Repository   model.Repository     `json:"repository"`
	Releases     []model.ReleaseNote  `json:"releases"`
	Commits      []model.CommitRecord `json:"commits"`
	Contributors []model.Contributor  `json:"contributors"`
	Errors       map[string]string    `json:"errors,omitempty"`
}

// getOverview fans out the three list tabs for a repository concurrently and
// returns their union. Sections that fail report their error next to the
// ones that succeeded.
// GET /v1/repos/{owner}/{name}/overview
func (h *Handler) getOverview(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.findRepo(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Repository not found")
		return
	}

	resp := overviewResponse{Repository: repo}
	var mu sync.Mutex
	sectionErr := func(section string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if resp.Errors == nil {
			resp.Errors = make(map[string]string)
		}
		resp.Errors[section] = err.Error()
	}

	g, gctx := errgroup.WithContext(r.Context())
	g.SetLimit(overviewConcurrency)

	g.Go(func() error {
		releases, err := h.fetcher.ListReleases(gctx, repo.FullName)
		if err != nil {
			sectionErr("releases", err)
			return nil
		}
		resp.Releases = releases
		return nil
	})
	g.Go(func() error {
		commits, err := h.fetcher.ListCommits(gctx, repo.FullName)
		if err != nil {
			sectionErr("commits", err)
			return nil
		}
		resp.Commits = commits
		return nil
	})
	g.Go(func() error {
		contributors, err := h.fetcher.ListContributors(gctx, repo.FullName)
		if err != nil {
			sectionErr("contributors", err)
			return nil
		}
		resp.Contributors = contributors
		return nil
	})

	_ = g.Wait()
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) findRepo(r *http.Request) (model.Repository, bool) {
	fullName := chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name")
	return h.catalog.Find(fullName)
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
