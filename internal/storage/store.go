package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/kalambet/kvault/internal/autotag"
)

// DataFileName is the log file name inside the data directory.
const DataFileName = "knowledge.jsonl"

const (
	maxAppendAttempts = 3
	defaultBackoff    = 100 * time.Millisecond
	defaultTagLimit   = 20
	topTagCount       = 10
)

// Store is an append-only JSONL log of records.
//
// Every operation holds one exclusive lock for its whole duration: a mutex
// for goroutines of this process and an advisory flock on the log file for
// other processes. Reads take the same exclusive lock as writes.
type Store struct {
	path      string
	mu        sync.Mutex
	fileLock  *flock.Flock
	suggester *autotag.Suggester
	logger    *slog.Logger
	now       func() time.Time
	backoff   time.Duration

	// writeLine is swapped in tests to simulate failing appends.
	writeLine func(line []byte) error
}

// Option configures a Store.
type Option func(*Store)

// WithSuggester sets the tag suggester used when AutoTag is requested.
func WithSuggester(s *autotag.Suggester) Option {
	return func(st *Store) { st.suggester = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(st *Store) { st.logger = l }
}

// WithClock overrides the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(st *Store) { st.now = now }
}

// WithBackoff sets the base delay between append attempts. Attempt n waits
// n times the base.
func WithBackoff(d time.Duration) Option {
	return func(st *Store) { st.backoff = d }
}

// Open opens (or creates) the log in dataDir.
func Open(dataDir string, opts ...Option) (*Store, error) {
	if dataDir == "" {
		return nil, errors.New("data directory is required")
	}
	path := filepath.Join(dataDir, DataFileName)

	s := &Store{
		path:      path,
		fileLock:  flock.New(path),
		suggester: autotag.NewSuggester(nil),
		logger:    slog.Default(),
		now:       time.Now,
		backoff:   defaultBackoff,
	}
	s.writeLine = s.appendToFile
	for _, opt := range opts {
		opt(s)
	}

	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the log file.
func (s *Store) Path() string {
	return s.path
}

// Close releases the file lock handle if one is open.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileLock.Unlock()
}

func (s *Store) ensureFile() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return fmt.Errorf("creating data file: %w", err)
	}
	return f.Close()
}

// withLock runs fn while holding the exclusive lock. The lock is released
// on every return path.
func (s *Store) withLock(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFile(); err != nil {
		return err
	}
	if err := s.fileLock.Lock(); err != nil {
		return fmt.Errorf("locking %s: %w", s.path, err)
	}
	defer func() {
		if err := s.fileLock.Unlock(); err != nil {
			s.logger.Warn("releasing file lock", "path", s.path, "error", err)
		}
	}()

	return fn()
}

// Store validates in, fills in derived fields and appends a new record.
func (s *Store) Store(ctx context.Context, in StoreInput) (Summary, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return Summary{}, &ValidationError{Field: "content", Msg: "must not be empty"}
	}
	title := strings.TrimSpace(in.Title)

	tags := ParseTagList(in.Tags)
	if in.AutoTag {
		tags = mergeTags(tags, s.suggester.Suggest(content, title))
	}
	if tags == nil {
		tags = []string{}
	}

	if title == "" {
		title = autotag.GenerateTitle(content)
	}

	rec := Record{
		ID:        uuid.New().String(),
		Timestamp: s.now().Format(time.RFC3339Nano),
		Title:     title,
		Content:   content,
		Tags:      tags,
	}
	if err := s.appendRecord(ctx, rec); err != nil {
		return Summary{}, err
	}

	s.logger.Debug("record stored", "id", rec.ID, "tags", rec.Tags)
	return Summary{ID: rec.ID, Title: rec.Title, Tags: rec.Tags}, nil
}

// mergeTags unions manual and suggested tags, manual first.
func mergeTags(manual, suggested []string) []string {
	seen := make(map[string]struct{}, len(manual)+len(suggested))
	var out []string
	for _, list := range [][]string{manual, suggested} {
		for _, t := range list {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func encodeRecord(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encode terminates the value with the record separator.
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Store) appendRecord(ctx context.Context, rec Record) error {
	line, err := encodeRecord(rec)
	if err != nil {
		return &StorageError{Op: "append", Attempts: 0, Err: err}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		lastErr = s.withLock(ctx, func() error { return s.writeLine(line) })
		if lastErr == nil {
			return nil
		}
		s.logger.Warn("append failed", "attempt", attempt, "path", s.path, "error", lastErr)
		if attempt == maxAppendAttempts || ctx.Err() != nil {
			return &StorageError{Op: "append", Attempts: attempt, Err: lastErr}
		}

		select {
		case <-ctx.Done():
			return &StorageError{Op: "append", Attempts: attempt, Err: ctx.Err()}
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}
	return &StorageError{Op: "append", Attempts: maxAppendAttempts, Err: lastErr}
}

// appendToFile writes line in one call and syncs it. A previous torn write
// that left no trailing newline is terminated first so the new record
// starts on its own line.
func (s *Store) appendToFile(line []byte) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening data file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat data file: %w", err)
	}
	if size := info.Size(); size > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, size-1); err != nil {
			f.Close()
			return fmt.Errorf("reading data file tail: %w", err)
		}
		if last[0] != '\n' {
			line = append([]byte{'\n'}, line...)
		}
	}

	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("writing record: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing data file: %w", err)
	}
	return f.Close()
}

// All returns every record in on-disk order. Lines that do not decode to a
// record are skipped; a missing file is an empty store.
func (s *Store) All(ctx context.Context) ([]Record, error) {
	var records []Record
	err := s.withLock(ctx, func() error {
		var err error
		records, err = s.readAll()
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) readAll() ([]Record, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	defer f.Close()

	var records []Record
	skipped := 0
	r := bufio.NewReader(f)
	for {
		line, readErr := r.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			var rec Record
			if err := json.Unmarshal(line, &rec); err != nil || rec.ID == "" {
				skipped++
			} else {
				if rec.Tags == nil {
					rec.Tags = []string{}
				}
				records = append(records, rec)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("reading data file: %w", readErr)
		}
	}

	if skipped > 0 {
		s.logger.Debug("skipped unreadable lines", "path", s.path, "count", skipped)
	}
	return records, nil
}

// Get returns the record with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	records, err := s.All(ctx)
	if err != nil {
		return Record{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

// SearchByTags returns records carrying any of tags (case-insensitive),
// newest first, at most limit of them.
func (s *Store) SearchByTags(ctx context.Context, tags []string, limit int) ([]Record, error) {
	wanted := TagSet(tags)
	if len(wanted) == 0 {
		return nil, &ValidationError{Field: "tags", Msg: "at least one tag is required"}
	}
	if limit <= 0 {
		limit = defaultTagLimit
	}

	records, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	var matching []Record
	for _, rec := range records {
		if rec.HasAnyTag(wanted) {
			matching = append(matching, rec)
		}
	}
	SortNewestFirst(matching)
	if len(matching) > limit {
		matching = matching[:limit]
	}
	return matching, nil
}

// Stats counts records and tags across the log.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	records, err := s.All(ctx)
	if err != nil {
		return Stats{}, err
	}

	counts := make(map[string]int)
	var order []string
	for _, rec := range records {
		for _, t := range rec.Tags {
			if _, ok := counts[t]; !ok {
				order = append(order, t)
			}
			counts[t]++
		}
	}

	top := make([]TagCount, len(order))
	for i, t := range order {
		top[i] = TagCount{Tag: t, Count: counts[t]}
	}
	// Stable so equal counts keep first-seen order.
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > topTagCount {
		top = top[:topTagCount]
	}

	return Stats{
		TotalRecords: len(records),
		TotalTags:    len(order),
		TopTags:      top,
		DataLocation: s.path,
	}, nil
}
