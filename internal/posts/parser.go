package posts

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/9lbw/bloggen/internal/model"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Parser converts markdown source files into model.Post records. It holds a
// single goldmark instance configured once; goldmark is stateless across
// Convert calls, so one Parser can be reused for a whole batch.
type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	return &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				gmhtml.WithHardWraps(),
			),
		),
	}
}

// postMeta is the frontmatter envelope. Date stays a string: the original
// files carry plain YYYY-MM-DD values and we never need more precision.
type postMeta struct {
	Title       string `yaml:"title"`
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
}

// ParseFile reads one markdown file and returns the structured post with its
// body rendered to HTML. Missing frontmatter fields get defaults: title from
// the filename, date from the current day, empty description. A frontmatter
// block that fails to decode is an error; batch callers skip the file.
func (p *Parser) ParseFile(path string) (*model.Post, error) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file '%s': %w", path, err)
	}
	if !utf8.Valid(fileBytes) {
		return nil, fmt.Errorf("file '%s' is not valid UTF-8", path)
	}

	var meta postMeta
	body, err := frontmatter.Parse(bytes.NewReader(fileBytes), &meta)
	if err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter for '%s': %w", path, err)
	}

	var htmlBuffer bytes.Buffer
	if err := p.md.Convert(body, &htmlBuffer); err != nil {
		return nil, fmt.Errorf("failed to convert markdown to HTML for '%s': %w", path, err)
	}

	name := filepath.Base(path)

	title := meta.Title
	if title == "" {
		title = TitleFromFilename(name)
	}
	date := meta.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	return &model.Post{
		Title:       title,
		Date:        date,
		Description: meta.Description,
		Body:        template.HTML(htmlBuffer.String()),
		SourceFile:  name,
		OutputFile:  model.OutputName(name),
	}, nil
}

// ParseDir parses every markdown file directly inside dir, newest first.
// Files that fail to parse are reported and skipped; the batch continues.
func (p *Parser) ParseDir(dir string) ([]*model.Post, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan posts directory '%s': %w", dir, err)
	}
	sort.Strings(matches)

	var out []*model.Post
	for _, path := range matches {
		post, err := p.ParseFile(path)
		if err != nil {
			fmt.Printf("Error parsing %s: %v\n", path, err)
			continue
		}
		out = append(out, post)
	}
	SortByDateDesc(out)
	return out, nil
}

// SortByDateDesc orders posts newest first. ISO dates compare correctly as
// strings; the sort is stable so equal dates keep their relative order.
func SortByDateDesc(list []*model.Post) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date > list[j].Date
	})
}

var titleCaser = cases.Title(language.English)

// TitleFromFilename turns "my-first-post.md" into "My First Post".
func TitleFromFilename(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	stem = strings.ReplaceAll(strings.ReplaceAll(stem, "-", " "), "_", " ")
	return titleCaser.String(stem)
}
