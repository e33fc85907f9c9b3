package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/9lbw/bloggen/internal/model"

	"github.com/natefinch/atomic"
)

// overrideLayout, when present, replaces the embedded post chrome.
const overrideLayout = "layouts/post.html"

// defaultLayout is the fixed page chrome wrapped around every rendered post:
// header, navigation, footer, and the external stylesheet/script references.
const defaultLayout = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Post.Title}} - {{.Site.Title}}</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/katex@0.16.8/dist/katex.min.css">
    <link rel="stylesheet" href="../styles.css">
    <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.8.0/styles/github-dark.min.css">
</head>
<body class="light-mode">
    <div class="container">
        <header class="header">
            <h1 class="name"><a href="../index.html">{{.Site.Title}}</a></h1>
            <p class="tagline">{{.Site.Tagline}}</p>
        </header>

        <nav class="navigation">
{{- range .Site.Nav}}
            <a href="{{.URL}}">{{.Label}}</a>
{{- end}}
            <button id="theme-toggle" class="theme-toggle">&#9680;</button>
        </nav>

        <main class="content">
            <article class="blog-post-full">
                <h1>{{.Post.Title}}</h1>
                <time>{{.Post.DisplayDate}}</time>

                <div class="blog-content">
                    {{.Post.Body}}
                </div>

                <div class="blog-navigation">
                    <a href="../index.html#blog" class="back-link">&larr; Back to Blog</a>
                </div>
            </article>
        </main>

        <footer class="footer">
            <p>&copy; {{.Site.Title}}.</p>
            <div class="contact">
{{- range .Site.Contact}}
                <a href="{{.URL}}">{{.Label}}</a>
{{- end}}
            </div>
        </footer>
    </div>

    <script src="https://cdn.jsdelivr.net/npm/katex@0.16.8/dist/katex.min.js"></script>
    <script src="https://cdn.jsdelivr.net/npm/katex@0.16.8/dist/contrib/auto-render.min.js"></script>
    <script src="https://cdnjs.cloudflare.com/ajax/libs/highlight.js/11.8.0/highlight.min.js"></script>
    <script>hljs.highlightAll();</script>
    <script src="../site.js"></script>
</body>
</html>
`

// Renderer wraps rendered post bodies in the page chrome and writes the
// finished documents into the output directory.
type Renderer struct {
	tpl       *template.Template
	site      *model.SiteData
	outputDir string
}

// New builds a Renderer for the given site chrome and output directory. If
// layouts/post.html exists it is parsed instead of the embedded layout.
func New(site *model.SiteData, outputDir string) (*Renderer, error) {
	src := defaultLayout
	if fileBytes, err := os.ReadFile(overrideLayout); err == nil {
		fmt.Printf("Using layout override: %s\n", overrideLayout)
		src = string(fileBytes)
	}

	tpl, err := template.New("post").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse post layout: %w", err)
	}

	return &Renderer{tpl: tpl, site: site, outputDir: outputDir}, nil
}

// Render produces the complete HTML document for a post.
func (r *Renderer) Render(post *model.Post) (string, error) {
	data := struct {
		Site *model.SiteData
		Post *model.Post
	}{
		Site: r.site,
		Post: post,
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute post layout for '%s': %w", post.Title, err)
	}
	return buf.String(), nil
}

// WritePost renders the post and writes it to <outputDir>/<OutputFile>,
// overwriting any existing file. Returns the written path.
func (r *Renderer) WritePost(post *model.Post) (string, error) {
	doc, err := r.Render(post)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.outputDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create output directory '%s': %w", r.outputDir, err)
	}

	outputPath := filepath.Join(r.outputDir, post.OutputFile)
	if err := atomic.WriteFile(outputPath, bytes.NewReader([]byte(doc))); err != nil {
		return "", fmt.Errorf("failed to write '%s': %w", outputPath, err)
	}
	return outputPath, nil
}
