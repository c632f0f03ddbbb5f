package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kalambet/kvault/internal/search"
	"github.com/kalambet/kvault/internal/storage"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func tagLabel(tags []string) string {
	if len(tags) == 0 {
		return "no tags"
	}
	return strings.Join(tags, ", ")
}

// shortTime trims a timestamp to second precision for display.
func shortTime(ts string) string {
	if len(ts) > 19 {
		return ts[:19]
	}
	return ts
}

func printResults(w io.Writer, results []search.Result) {
	for i, r := range results {
		header := fmt.Sprintf("[%d] %s", i+1, r.Title)
		if r.Score > 0 {
			header += fmt.Sprintf("  (score %.1f)", r.Score)
		}
		fmt.Fprintln(w, colorize(colorBold, header))
		fmt.Fprintf(w, "    %s  %s  %s\n", colorize(colorCyan, r.ID), shortTime(r.Timestamp), tagLabel(r.Tags))
		fmt.Fprintf(w, "    %s\n\n", r.Snippet)
	}
}

func printRecord(w io.Writer, rec storage.Record) {
	fmt.Fprintln(w, colorize(colorBold, rec.Title))
	fmt.Fprintf(w, "  %s %s\n", colorize(colorBold, "ID:"), rec.ID)
	fmt.Fprintf(w, "  %s %s\n", colorize(colorBold, "Tags:"), tagLabel(rec.Tags))
	fmt.Fprintf(w, "  %s %s\n\n", colorize(colorBold, "Time:"), shortTime(rec.Timestamp))
	fmt.Fprintln(w, rec.Content)
}

func printStats(w io.Writer, stats storage.Stats) {
	fmt.Fprintf(w, "  %s %d\n", colorize(colorBold, "Records:"), stats.TotalRecords)
	fmt.Fprintf(w, "  %s %d\n", colorize(colorBold, "Tags:"), stats.TotalTags)
	fmt.Fprintf(w, "  %s %s\n", colorize(colorBold, "Data file:"), stats.DataLocation)
	if len(stats.TopTags) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\n", colorize(colorBold, "Top tags:"))
	for _, tc := range stats.TopTags {
		fmt.Fprintf(w, "    %s: %d\n", tc.Tag, tc.Count)
	}
}
