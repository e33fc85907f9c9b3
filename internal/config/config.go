package config

// Config carries the filesystem layout and serve options, decoded by viper.
type Config struct {
	PostsDir  string `mapstructure:"postsDir"`
	OutputDir string `mapstructure:"outputDir"`
	IndexFile string `mapstructure:"indexFile"`
	Port      int    `mapstructure:"port"`
}
