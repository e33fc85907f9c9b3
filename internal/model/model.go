package model

import (
	"html/template"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Post represents one blog post parsed from a markdown source file.
type Post struct {
	Title       string
	Date        string // YYYY-MM-DD as written in frontmatter, not strictly validated
	Description string
	Body        template.HTML
	SourceFile  string
	OutputFile  string
}

// Href returns the index-relative link target for the rendered post,
// e.g. "blog/my-post.html". Always forward slashes, it is a URL.
func (p *Post) Href(outputDir string) string {
	return path.Join(filepath.ToSlash(outputDir), p.OutputFile)
}

// DisplayDate formats the post date as "January 2, 2006" for the page
// chrome and the index entry. Dates that do not parse are shown as-is.
func (p *Post) DisplayDate() string {
	t, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return p.Date
	}
	return t.Format("January 2, 2006")
}

// OutputName derives the rendered filename from a markdown filename by
// swapping the extension.
func OutputName(sourceFile string) string {
	return strings.TrimSuffix(sourceFile, filepath.Ext(sourceFile)) + ".html"
}

// Stem strips the directory and extension from a path, giving the key used
// to cross-check sources, outputs, and index entries.
func Stem(p string) string {
	base := path.Base(filepath.ToSlash(p))
	return strings.TrimSuffix(base, path.Ext(base))
}
