package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputName(t *testing.T) {
	assert.Equal(t, "my-post.html", OutputName("my-post.md"))
	assert.Equal(t, "notes.html", OutputName("notes.markdown"))
}

func TestHref(t *testing.T) {
	p := &Post{OutputFile: "my-post.html"}
	assert.Equal(t, "blog/my-post.html", p.Href("blog"))
}

func TestDisplayDate(t *testing.T) {
	assert.Equal(t, "March 1, 2024", (&Post{Date: "2024-03-01"}).DisplayDate())
	// Unparseable dates are shown verbatim rather than dropped.
	assert.Equal(t, "someday", (&Post{Date: "someday"}).DisplayDate())
}

func TestStem(t *testing.T) {
	assert.Equal(t, "my-post", Stem("posts/my-post.md"))
	assert.Equal(t, "my-post", Stem("my-post.html"))
}
