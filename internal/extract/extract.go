// Package extract turns files on disk into note text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// maxFileSize caps how much of a file is read.
const maxFileSize = 10 << 20 // 10MB

// ErrUnsupported is returned for files that do not hold readable text.
var ErrUnsupported = errors.New("unsupported file type")

// Document is the text pulled out of a file. Title is set only when the
// format carries one.
type Document struct {
	Title string
	Text  string
}

// File extracts text from path, choosing the decoder by extension: .pdf,
// .html and .htm are decoded, anything else must be UTF-8 text.
func File(path string) (Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err := PDF(path)
		if err != nil {
			return Document{}, err
		}
		return Document{Text: text}, nil
	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return Document{}, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		return HTML(io.LimitReader(f, maxFileSize))
	default:
		f, err := os.Open(path)
		if err != nil {
			return Document{}, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		text, err := Text(io.LimitReader(f, maxFileSize))
		if err != nil {
			return Document{}, fmt.Errorf("%s: %w", path, err)
		}
		return Document{Text: text}, nil
	}
}

// PDF returns the plain text of every page in the PDF at path. The PDF
// reader panics on some malformed inputs; that surfaces as an error.
func PDF(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(plain, maxFileSize)); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Text reads r and rejects content that is not valid UTF-8 or contains NUL
// bytes.
func Text(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return "", ErrUnsupported
	}
	return strings.TrimSpace(string(data)), nil
}

// skipped elements never contribute text.
var skipped = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

// block elements end a line of text.
var block = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"pre": true, "blockquote": true, "section": true, "article": true,
}

// HTML returns the visible text of an HTML document and its <title>.
func HTML(r io.Reader) (Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Document{}, fmt.Errorf("parsing html: %w", err)
	}

	doc := Document{Title: findTitle(root)}
	var lines []string
	var cur strings.Builder
	flush := func() {
		if line := strings.Join(strings.Fields(cur.String()), " "); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			cur.WriteString(n.Data)
			cur.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && block[n.Data] {
			flush()
		}
	}
	walk(root)
	flush()

	doc.Text = strings.Join(lines, "\n")
	return doc, nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil {
			return strings.Join(strings.Fields(n.FirstChild.Data), " ")
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
