package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kalambet/kvault/internal/autotag"
	"github.com/kalambet/kvault/internal/search"
	"github.com/kalambet/kvault/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

type AppDeps struct {
	Store     *storage.Store
	Search    *search.Engine
	Suggester *autotag.Suggester
}

// StoreRequest is the body of POST /records. AutoTag defaults to true when
// omitted.
type StoreRequest struct {
	Content string `json:"content"`
	Title   string `json:"title"`
	Tags    string `json:"tags"`
	AutoTag *bool  `json:"auto_tag"`
}

// SuggestRequest is the body of POST /tags/suggest.
type SuggestRequest struct {
	Content string `json:"content"`
	Title   string `json:"title"`
}

// NewAppHandler returns the JSON HTTP API over the store and search engine.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Post("/records", handleStore(deps))
	r.Get("/records/{id}", handleGetRecord(deps))
	r.Get("/search", handleSearch(deps))
	r.Get("/recent", handleRecent(deps))
	r.Get("/tags", handleSearchByTags(deps))
	r.Post("/tags/suggest", handleSuggestTags(deps))
	r.Get("/stats", handleStats(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleStore(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req StoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		autoTag := true
		if req.AutoTag != nil {
			autoTag = *req.AutoTag
		}

		summary, err := deps.Store.Store(r.Context(), storage.StoreInput{
			Content: req.Content,
			Title:   req.Title,
			Tags:    req.Tags,
			AutoTag: autoTag,
		})
		if err != nil {
			httpFailure(w, "store", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(summary)
	}
}

func handleGetRecord(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		rec, err := deps.Store.Get(r.Context(), id)
		if err != nil {
			httpFailure(w, "get", err)
			return
		}

		writeJSON(w, rec)
	}
}

func handleSearch(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimitParam(r, "limit", defaultSearchLimit)
		if err != nil {
			httpFailure(w, "search", err)
			return
		}

		q := r.URL.Query()
		resp, err := deps.Search.Search(r.Context(), q.Get("q"), limit, q.Get("tags"))
		if err != nil {
			httpFailure(w, "search", err)
			return
		}

		writeJSON(w, resp)
	}
}

func handleRecent(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimitParam(r, "limit", defaultRecentLimit)
		if err != nil {
			httpFailure(w, "list recent", err)
			return
		}

		results, err := deps.Search.Recent(r.Context(), limit)
		if err != nil {
			httpFailure(w, "list recent", err)
			return
		}

		writeJSON(w, results)
	}
}

func handleSearchByTags(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimitParam(r, "limit", defaultTagLimit)
		if err != nil {
			httpFailure(w, "search by tags", err)
			return
		}

		records, err := deps.Store.SearchByTags(r.Context(), storage.ParseTagList(r.URL.Query().Get("tags")), limit)
		if err != nil {
			httpFailure(w, "search by tags", err)
			return
		}

		writeJSON(w, deps.Search.Previews(records))
	}
}

func handleSuggestTags(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req SuggestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Content == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "content is required")
			return
		}

		writeJSON(w, suggest(deps.Suggester, req.Content, req.Title))
	}
}

func handleStats(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := deps.Store.Stats(r.Context())
		if err != nil {
			httpFailure(w, "stats", err)
			return
		}

		writeJSON(w, stats)
	}
}
