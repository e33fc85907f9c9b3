package model

// Link is a single labelled hyperlink used in the navigation bar and the
// footer contact row.
type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// SiteData holds the site-wide chrome rendered into every post page:
// title, tagline, navigation, and footer contacts. Loaded from site.yaml.
type SiteData struct {
	Title   string `yaml:"title"`
	Tagline string `yaml:"tagline"`
	Nav     []Link `yaml:"nav"`
	Contact []Link `yaml:"contact"`
}

// DefaultSiteData returns the chrome used when no site.yaml is present.
func DefaultSiteData() *SiteData {
	return &SiteData{
		Title:   "My Blog",
		Tagline: "Notes and write-ups",
		Nav: []Link{
			{Label: "About", URL: "../index.html#about"},
			{Label: "Projects", URL: "../index.html#projects"},
			{Label: "Blog", URL: "../index.html#blog"},
		},
	}
}
