// Package report cross-checks the three on-disk artifact sets: markdown
// sources, rendered HTML files, and index entries. Read-only.
package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/9lbw/bloggen/internal/index"
	"github.com/9lbw/bloggen/internal/model"
)

// Reporter reads the artifact sets keyed by filename stem.
type Reporter struct {
	postsDir   string
	outputDir  string
	reconciler *index.Reconciler
}

func New(postsDir, outputDir string, reconciler *index.Reconciler) *Reporter {
	return &Reporter{postsDir: postsDir, outputDir: outputDir, reconciler: reconciler}
}

// VerifyReport lists every discrepancy found. Missing artifacts fail the
// check; orphans are warnings only.
type VerifyReport struct {
	IndexMissing bool
	MissingHTML  []string // markdown stems with no rendered HTML
	MissingEntry []string // markdown stems with no index entry
	OrphanHTML   []string // HTML stems with no markdown source
	OrphanEntry  []string // index entry stems with no markdown source
	Sources      int
}

// OK reports whether the check passed.
func (r *VerifyReport) OK() bool {
	return !r.IndexMissing && len(r.MissingHTML) == 0 && len(r.MissingEntry) == 0
}

// StatusReport carries the raw counts of each artifact set.
type StatusReport struct {
	Markdown int
	HTML     int
	Entries  int
}

// InSync reports whether all three counts agree.
func (s *StatusReport) InSync() bool {
	return s.Markdown == s.HTML && s.Markdown == s.Entries
}

func globStems(dir, pattern string) (map[string]bool, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan '%s': %w", dir, err)
	}
	stems := make(map[string]bool, len(matches))
	for _, m := range matches {
		stems[model.Stem(m)] = true
	}
	return stems, nil
}

func (r *Reporter) entryStems() (map[string]bool, error) {
	entries, err := r.reconciler.Entries()
	if err != nil {
		return nil, err
	}
	stems := make(map[string]bool, len(entries))
	for _, e := range entries {
		stems[model.Stem(e.File)] = true
	}
	return stems, nil
}

func sortedDiff(a, b map[string]bool) []string {
	var out []string
	for stem := range a {
		if !b[stem] {
			out = append(out, stem)
		}
	}
	sort.Strings(out)
	return out
}

// Verify cross-checks all three artifact sets. A missing index document is
// reported through the result, not as an error; filesystem failures are.
func (r *Reporter) Verify() (*VerifyReport, error) {
	mdStems, err := globStems(r.postsDir, "*.md")
	if err != nil {
		return nil, err
	}
	htmlStems, err := globStems(r.outputDir, "*.html")
	if err != nil {
		return nil, err
	}

	rep := &VerifyReport{Sources: len(mdStems)}

	entryStems, err := r.entryStems()
	if err != nil {
		if errors.Is(err, index.ErrIndexNotFound) {
			rep.IndexMissing = true
			entryStems = map[string]bool{}
		} else {
			return nil, err
		}
	}

	rep.MissingHTML = sortedDiff(mdStems, htmlStems)
	rep.MissingEntry = sortedDiff(mdStems, entryStems)
	rep.OrphanHTML = sortedDiff(htmlStems, mdStems)
	rep.OrphanEntry = sortedDiff(entryStems, mdStems)
	return rep, nil
}

// Status counts each artifact set. A missing index document counts as zero
// entries rather than failing, so status stays usable on a fresh site.
func (r *Reporter) Status() (*StatusReport, error) {
	mdStems, err := globStems(r.postsDir, "*.md")
	if err != nil {
		return nil, err
	}
	htmlStems, err := globStems(r.outputDir, "*.html")
	if err != nil {
		return nil, err
	}

	entries, err := r.reconciler.Entries()
	if err != nil && !errors.Is(err, index.ErrIndexNotFound) {
		return nil, err
	}

	return &StatusReport{
		Markdown: len(mdStems),
		HTML:     len(htmlStems),
		Entries:  len(entries),
	}, nil
}
