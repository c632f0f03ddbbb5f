// Package search ranks stored records against free-text queries.
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/kalambet/kvault/internal/storage"
)

const (
	defaultSearchLimit = 10
	defaultRecentLimit = 20
)

// RecordSource supplies the full record set in store order.
type RecordSource interface {
	All(ctx context.Context) ([]storage.Record, error)
}

// Result is one ranked record.
type Result struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Snippet   string   `json:"snippet"`
	Tags      []string `json:"tags"`
	Timestamp string   `json:"timestamp"`
	Score     float64  `json:"score,omitempty"`
}

// Response is the outcome of Search. Total counts every record that scored
// above zero, before truncation to the limit.
type Response struct {
	Query   string   `json:"query"`
	Total   int      `json:"total"`
	Results []Result `json:"results"`
}

// Engine scores records from a RecordSource. It holds no record state, so
// every call sees the latest writes.
type Engine struct {
	source        RecordSource
	snippetLength int
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithSnippetLength sets the snippet window in runes.
func WithSnippetLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.snippetLength = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an Engine reading from source.
func New(source RecordSource, opts ...Option) *Engine {
	e := &Engine{
		source:        source,
		snippetLength: DefaultSnippetLength,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type scored struct {
	score float64
	rec   storage.Record
}

// Search ranks records against query. tagFilter is a comma-separated list;
// when it names any tag, only records carrying one of them are scored.
// Equal scores keep store order.
func (e *Engine) Search(ctx context.Context, query string, limit int, tagFilter string) (Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Response{}, &storage.ValidationError{Field: "query", Msg: "must not be empty"}
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	records, err := e.source.All(ctx)
	if err != nil {
		return Response{}, err
	}

	if filter := storage.TagSet(storage.ParseTagList(tagFilter)); len(filter) > 0 {
		var kept []storage.Record
		for _, rec := range records {
			if rec.HasAnyTag(filter) {
				kept = append(kept, rec)
			}
		}
		records = kept
	}

	var hits []scored
	for _, rec := range records {
		if s := Score(rec, query); s > 0 {
			hits = append(hits, scored{score: s, rec: rec})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	resp := Response{Query: query, Total: len(hits), Results: []Result{}}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	for _, h := range hits {
		resp.Results = append(resp.Results, Result{
			ID:        h.rec.ID,
			Title:     h.rec.Title,
			Snippet:   Snippet(h.rec.Content, query, e.snippetLength),
			Tags:      h.rec.Tags,
			Timestamp: h.rec.Timestamp,
			Score:     h.score,
		})
	}

	e.logger.Debug("search", "query", query, "candidates", len(records), "total", resp.Total)
	return resp, nil
}

// Recent returns up to limit records, newest first, with leading previews
// instead of query-centred snippets.
func (e *Engine) Recent(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	records, err := e.source.All(ctx)
	if err != nil {
		return nil, err
	}
	records = append([]storage.Record(nil), records...)
	storage.SortNewestFirst(records)
	if len(records) > limit {
		records = records[:limit]
	}

	return e.Previews(records), nil
}

// Previews converts records to unscored results carrying leading previews,
// keeping their order.
func (e *Engine) Previews(records []storage.Record) []Result {
	results := make([]Result, 0, len(records))
	for _, rec := range records {
		results = append(results, Result{
			ID:        rec.ID,
			Title:     rec.Title,
			Snippet:   Preview(rec.Content, e.snippetLength),
			Tags:      rec.Tags,
			Timestamp: rec.Timestamp,
		})
	}
	return results
}
