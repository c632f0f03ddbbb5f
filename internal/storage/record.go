package storage

import (
	"sort"
	"strings"
	"time"
)

// Record is one immutable note in the log.
type Record struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
}

// StoreInput carries the caller-supplied fields of a new note.
type StoreInput struct {
	Content string
	Title   string
	// Tags is a comma-separated list of manual tags.
	Tags    string
	AutoTag bool
}

// Summary is returned by Store.Store.
type Summary struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// TagCount is one entry of Stats.TopTags.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Stats aggregates the whole log.
type Stats struct {
	TotalRecords int        `json:"total_records"`
	TotalTags    int        `json:"total_tags"`
	TopTags      []TagCount `json:"top_tags"`
	DataLocation string     `json:"data_location"`
}

// HasAnyTag reports whether the record carries any of the wanted tags,
// compared case-insensitively. wanted must already be lower-cased.
func (r Record) HasAnyTag(wanted map[string]struct{}) bool {
	for _, t := range r.Tags {
		if _, ok := wanted[strings.ToLower(t)]; ok {
			return true
		}
	}
	return false
}

// ParseTagList splits a comma-separated tag string, trimming entries and
// dropping empties and exact duplicates.
func ParseTagList(s string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// TagSet lower-cases tags into a lookup set for HasAnyTag.
func TagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// timestampLayouts are tried in order. The zone-less layout accepts logs
// written by tools that emit local time without an offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Newer reports whether a was created after b. Parsed instants are compared
// when both timestamps parse; otherwise the raw strings are.
func Newer(a, b Record) bool {
	ta, okA := parseTimestamp(a.Timestamp)
	tb, okB := parseTimestamp(b.Timestamp)
	if okA && okB {
		return ta.After(tb)
	}
	return a.Timestamp > b.Timestamp
}

// SortNewestFirst orders records by timestamp, newest first. Equal
// timestamps keep their relative order.
func SortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return Newer(records[i], records[j])
	})
}
