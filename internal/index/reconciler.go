// Package index maintains the blog section of the site's index document.
// The document is parsed into a mutable tree, entries are spliced in place,
// and the whole tree is serialized back; markup outside the blog section is
// never touched.
package index

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path"
	"strings"
	"time"

	"github.com/9lbw/bloggen/internal/model"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/natefinch/atomic"
)

var (
	// ErrIndexNotFound means the index document does not exist. Fatal for
	// every mutating operation; nothing is written.
	ErrIndexNotFound = errors.New("index document not found")
	// ErrSectionNotFound means the index document has no blog section.
	ErrSectionNotFound = errors.New("blog section not found in index document")
)

const (
	sectionSelector = "section#blog"
	entrySelector   = "article.blog-post"
	headingSelector = "h2"
)

// Outcome reports what ReconcileOne did with the post.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeUpdated
)

func (o Outcome) String() string {
	if o == OutcomeUpdated {
		return "updated"
	}
	return "inserted"
}

// Entry is one blog entry as it appears in the index document.
type Entry struct {
	Title       string
	Href        string
	File        string // basename of Href, the key that ties an entry to its post
	DisplayDate string
	Description string
}

type entryNode struct {
	Entry
	sel *goquery.Selection
}

// Reconciler owns the index document for the duration of one operation:
// load, mutate, persist. It is not safe for concurrent use, matching the
// single-operator CLI it serves.
type Reconciler struct {
	indexPath string
	outputDir string
}

func New(indexPath, outputDir string) *Reconciler {
	return &Reconciler{indexPath: indexPath, outputDir: outputDir}
}

var entryTpl = template.Must(template.New("entry").Parse(
	`<article class="blog-post"><h3><a href="{{.Href}}">{{.Title}}</a></h3>` +
		`<time>{{.Date}}</time>{{if .Description}}<p>{{.Description}}</p>{{end}}</article>`))

func (r *Reconciler) entryHTML(post *model.Post) (string, error) {
	data := struct {
		Href        string
		Title       string
		Date        string
		Description string
	}{
		Href:        post.Href(r.outputDir),
		Title:       post.Title,
		Date:        post.DisplayDate(),
		Description: post.Description,
	}

	var buf bytes.Buffer
	if err := entryTpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build index entry for '%s': %w", post.Title, err)
	}
	return buf.String(), nil
}

// load parses the index document and locates the blog section.
func (r *Reconciler) load() (*goquery.Document, *goquery.Selection, error) {
	f, err := os.Open(r.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrIndexNotFound, r.indexPath)
		}
		return nil, nil, fmt.Errorf("failed to open index document '%s': %w", r.indexPath, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse index document '%s': %w", r.indexPath, err)
	}

	section := doc.Find(sectionSelector).First()
	if section.Length() == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrSectionNotFound, r.indexPath)
	}
	return doc, section, nil
}

// collect enumerates existing entries in document order.
func collect(section *goquery.Selection) []*entryNode {
	var nodes []*entryNode
	section.Find(entrySelector).Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		node := &entryNode{sel: s}
		node.Href = href
		node.File = path.Base(href)
		node.Title = strings.TrimSpace(link.Text())
		node.DisplayDate = strings.TrimSpace(s.Find("time").First().Text())
		node.Description = strings.TrimSpace(s.Find("p").First().Text())
		nodes = append(nodes, node)
	})
	return nodes
}

func (r *Reconciler) write(doc *goquery.Document) error {
	html, err := doc.Html()
	if err != nil {
		return fmt.Errorf("failed to serialize index document: %w", err)
	}
	if err := atomic.WriteFile(r.indexPath, strings.NewReader(html)); err != nil {
		return fmt.Errorf("failed to write index document '%s': %w", r.indexPath, err)
	}
	return nil
}

// ReconcileOne incorporates exactly one post into the index. A post whose
// output filename matches an existing entry replaces that entry in place;
// otherwise a new entry is inserted so the section stays ordered newest
// first. Sibling entries and all markup outside the section are undisturbed.
func (r *Reconciler) ReconcileOne(post *model.Post) (Outcome, error) {
	doc, section, err := r.load()
	if err != nil {
		return 0, err
	}

	entryHTML, err := r.entryHTML(post)
	if err != nil {
		return 0, err
	}

	entries := collect(section)
	for _, existing := range entries {
		if existing.File == post.OutputFile {
			existing.sel.ReplaceWithHtml(entryHTML)
			return OutcomeUpdated, r.write(doc)
		}
	}

	r.insert(section, entries, post, entryHTML)
	return OutcomeInserted, r.write(doc)
}

// insert places the new entry before the first existing entry that is
// strictly older. Entries whose display date does not parse are skipped,
// not fatal. With no insertion point the entry goes after the last entry,
// or directly after the section heading when the section is empty.
func (r *Reconciler) insert(section *goquery.Selection, entries []*entryNode, post *model.Post, entryHTML string) {
	if newDate, err := time.Parse("2006-01-02", post.Date); err == nil {
		for _, existing := range entries {
			existingDate, err := parseDisplayDate(existing.DisplayDate)
			if err != nil {
				continue
			}
			if newDate.After(existingDate) {
				existing.sel.BeforeHtml(entryHTML)
				return
			}
		}
	}

	if len(entries) > 0 {
		entries[len(entries)-1].sel.AfterHtml(entryHTML)
		return
	}
	if heading := section.Find(headingSelector).First(); heading.Length() > 0 {
		heading.AfterHtml(entryHTML)
		return
	}
	section.AppendHtml(entryHTML)
}

// RebuildSection drops every entry from the blog section, keeping the
// heading and anything else in it, and re-appends one entry per post. The
// caller supplies posts already sorted newest first. Running it twice with
// the same posts yields an identical section.
func (r *Reconciler) RebuildSection(posts []*model.Post) error {
	doc, section, err := r.load()
	if err != nil {
		return err
	}

	section.Find(entrySelector).Remove()
	for _, post := range posts {
		entryHTML, err := r.entryHTML(post)
		if err != nil {
			return err
		}
		section.AppendHtml(entryHTML)
	}
	return r.write(doc)
}

// Entries returns the current index entries in document order without
// mutating anything.
func (r *Reconciler) Entries() ([]Entry, error) {
	_, section, err := r.load()
	if err != nil {
		return nil, err
	}

	nodes := collect(section)
	entries := make([]Entry, 0, len(nodes))
	for _, node := range nodes {
		entries = append(entries, node.Entry)
	}
	return entries, nil
}

// parseDisplayDate converts a stored display date ("January 2, 2006", or a
// raw 2006-01-02 left by hand edits) back to a comparable time.
func parseDisplayDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	return dateparse.ParseAny(s)
}
