package posts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePost(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFileWithFrontmatter(t *testing.T) {
	dir := t.TempDir()
	path := writePost(t, dir, "hello-world.md", `---
title: Hello World
date: 2024-03-01
description: The very first post
---

# Greetings

Some **bold** text.
`)

	post, err := NewParser().ParseFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Hello World", post.Title)
	assert.Equal(t, "2024-03-01", post.Date)
	assert.Equal(t, "The very first post", post.Description)
	assert.Equal(t, "hello-world.md", post.SourceFile)
	assert.Equal(t, "hello-world.html", post.OutputFile)
	assert.Contains(t, string(post.Body), `<h1 id="greetings">Greetings</h1>`)
	assert.Contains(t, string(post.Body), "<strong>bold</strong>")
	assert.Equal(t, "March 1, 2024", post.DisplayDate())
}

func TestParseFileDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writePost(t, dir, "my-first-post.md", "Just some markdown, no frontmatter.\n")

	post, err := NewParser().ParseFile(path)
	require.NoError(t, err)

	assert.Equal(t, "My First Post", post.Title)
	assert.Equal(t, time.Now().Format("2006-01-02"), post.Date)
	assert.Empty(t, post.Description)
	assert.Contains(t, string(post.Body), "Just some markdown, no frontmatter.")
}

func TestParseFilePropagatesFrontmatterErrors(t *testing.T) {
	dir := t.TempDir()
	path := writePost(t, dir, "broken-meta.md", `---
title: [unterminated
date: 2024-01-01
---

body text
`)

	_, err := NewParser().ParseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frontmatter")
}

func TestParseFileMissing(t *testing.T) {
	_, err := NewParser().ParseFile(filepath.Join(t.TempDir(), "nope.md"))
	require.Error(t, err)
}

func TestParseFileRejectsInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.md")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0xfd}, 0o644))

	_, err := NewParser().ParseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UTF-8")
}

func TestParseDirSkipsBadFilesAndSortsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "old.md", "---\ntitle: Old\ndate: 2023-01-01\n---\nolder\n")
	writePost(t, dir, "new.md", "---\ntitle: New\ndate: 2024-06-01\n---\nnewer\n")
	writePost(t, dir, "mid.md", "---\ntitle: Mid\ndate: 2024-03-01\n---\nmiddle\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.md"), []byte{0xff, 0xfe}, 0o644))
	writePost(t, dir, "bad-meta.md", "---\ntitle: [unterminated\n---\nbody\n")
	writePost(t, dir, "notes.txt", "not a post")

	list, err := NewParser().ParseDir(dir)
	require.NoError(t, err)

	require.Len(t, list, 3, "bad files skipped, non-markdown ignored")
	assert.Equal(t, []string{"New", "Mid", "Old"},
		[]string{list[0].Title, list[1].Title, list[2].Title})
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "My First Post", TitleFromFilename("my-first-post.md"))
	assert.Equal(t, "Release Notes", TitleFromFilename("release_notes.md"))
	assert.Equal(t, "Plain", TitleFromFilename("plain.md"))
}
