package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/9lbw/bloggen/internal/config"
	"github.com/9lbw/bloggen/internal/index"
	"github.com/9lbw/bloggen/internal/model"
	"github.com/9lbw/bloggen/internal/posts"
	"github.com/9lbw/bloggen/internal/render"
	"github.com/9lbw/bloggen/internal/report"
)

var cfgFile string
var appConfig config.Config
var siteData *model.SiteData

var (
	flagRebuildAll bool
	flagVerify     bool
	flagStatus     bool
)

var rootCmd = &cobra.Command{
	Use:   "bloggen [markdown-file]",
	Short: "Generate HTML blog posts and keep index.html in sync",
	Long: `bloggen renders Markdown posts from the posts directory into standalone
HTML pages and incrementally updates the blog section of index.html,
inserting or replacing entries in place instead of rewriting the section.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeConfig(cmd); err != nil {
			return err
		}
		return ensureDirectories()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case flagRebuildAll:
			return runRebuildAll()
		case flagVerify:
			return runVerify()
		case flagStatus:
			return runStatus()
		case len(args) == 1:
			return runSingle(args[0])
		default:
			_ = cmd.Help()
			os.Exit(1)
			return nil
		}
	},
}

// Execute wires in the site chrome loaded by main and runs the CLI.
func Execute(site *model.SiteData) {
	siteData = site
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.Flags().BoolVar(&flagRebuildAll, "rebuild-all", false, "render every post and rebuild the index's blog section")
	rootCmd.Flags().BoolVar(&flagVerify, "verify", false, "cross-check sources, rendered HTML, and index entries")
	rootCmd.Flags().BoolVar(&flagStatus, "status", false, "print artifact counts and a sync verdict")
}

func initializeConfig(_ *cobra.Command) error {
	v := viper.New()

	v.SetDefault("postsDir", "posts")
	v.SetDefault("outputDir", "blog")
	v.SetDefault("indexFile", "index.html")
	v.SetDefault("port", 1313)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BLOGGEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if cfgFile != "" {
				return fmt.Errorf("config file %s not found: %w", cfgFile, err)
			}
			// Defaults and environment variables apply.
		} else {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&appConfig); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return nil
}

func ensureDirectories() error {
	for _, dir := range []string{appConfig.PostsDir, appConfig.OutputDir} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
	}
	return nil
}

func newReconciler() *index.Reconciler {
	return index.New(appConfig.IndexFile, appConfig.OutputDir)
}

// runSingle renders one post and reconciles it into the index. A bare
// filename is retried relative to the posts directory before giving up.
func runSingle(arg string) error {
	mdPath := arg
	if _, err := os.Stat(mdPath); os.IsNotExist(err) {
		mdPath = filepath.Join(appConfig.PostsDir, arg)
		if _, err := os.Stat(mdPath); os.IsNotExist(err) {
			return fmt.Errorf("file %s not found", arg)
		}
	}

	parser := posts.NewParser()
	renderer, err := render.New(siteData, appConfig.OutputDir)
	if err != nil {
		return err
	}

	fmt.Printf("Processing %s...\n", mdPath)
	post, err := parser.ParseFile(mdPath)
	if err != nil {
		return err
	}

	outputPath, err := renderer.WritePost(post)
	if err != nil {
		return err
	}
	fmt.Printf("Generated %s\n", outputPath)

	outcome, err := newReconciler().ReconcileOne(post)
	if err != nil {
		return err
	}
	if outcome == index.OutcomeUpdated {
		fmt.Printf("Updated existing blog post: %s\n", post.Title)
	} else {
		fmt.Printf("Added new blog post: %s\n", post.Title)
	}
	return nil
}

// runRebuildAll renders every markdown source and destructively rebuilds
// the index's blog section from the full set. Individual file failures are
// reported and skipped.
func runRebuildAll() error {
	fmt.Println("Rebuilding all blog posts...")

	parser := posts.NewParser()
	renderer, err := render.New(siteData, appConfig.OutputDir)
	if err != nil {
		return err
	}

	parsed, err := parser.ParseDir(appConfig.PostsDir)
	if err != nil {
		return err
	}

	var rendered []*model.Post
	for _, post := range parsed {
		outputPath, err := renderer.WritePost(post)
		if err != nil {
			fmt.Printf("Error processing %s: %v\n", post.SourceFile, err)
			continue
		}
		fmt.Printf("Generated %s\n", outputPath)
		rendered = append(rendered, post)
	}

	if len(rendered) > 0 {
		if err := newReconciler().RebuildSection(rendered); err != nil {
			return err
		}
		fmt.Printf("Rebuilt blog section with %d blog posts\n", len(rendered))
	}

	fmt.Printf("Rebuilt %d blog posts\n", len(rendered))
	return nil
}

func runVerify() error {
	reporter := report.New(appConfig.PostsDir, appConfig.OutputDir, newReconciler())
	rep, err := reporter.Verify()
	if err != nil {
		return err
	}

	if rep.IndexMissing {
		fmt.Printf("Warning: %s not found\n", appConfig.IndexFile)
	}
	for _, stem := range rep.MissingHTML {
		fmt.Printf("Missing HTML file for: %s.md\n", stem)
	}
	for _, stem := range rep.MissingEntry {
		fmt.Printf("Missing index entry for: %s.md\n", stem)
	}
	for _, stem := range rep.OrphanHTML {
		fmt.Printf("Orphaned HTML file (no markdown source): %s.html\n", stem)
	}
	for _, stem := range rep.OrphanEntry {
		fmt.Printf("Orphaned index entry (no markdown source): %s\n", stem)
	}

	if !rep.OK() {
		return errors.New("blog integrity check failed")
	}
	fmt.Printf("Blog integrity check passed: %d posts verified\n", rep.Sources)
	return nil
}

func runStatus() error {
	reporter := report.New(appConfig.PostsDir, appConfig.OutputDir, newReconciler())
	status, err := reporter.Status()
	if err != nil {
		return err
	}

	fmt.Println("Blog Status:")
	fmt.Printf("  Markdown files: %d\n", status.Markdown)
	fmt.Printf("  HTML files: %d\n", status.HTML)
	fmt.Printf("  Index entries: %d\n", status.Entries)

	if status.InSync() {
		fmt.Println("  All files in sync")
	} else {
		fmt.Println("  Inconsistency detected - consider running --rebuild-all")
	}
	return nil
}
