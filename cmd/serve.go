package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var serverPort int

// serveCmd rebuilds everything once, then watches the posts directory and
// incrementally re-renders and reconciles posts as they change while
// serving the site root over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the site locally and watches the posts directory",
	Long: `The serve command performs a full rebuild, then starts a local web
server for the site root. Changes to markdown files in the posts directory
are picked up automatically: edited or new posts are re-rendered and
reconciled into index.html, deletions trigger a full rebuild.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("port") {
			serverPort = appConfig.Port
		}

		log.Println("Performing initial build...")
		if err := runRebuildAll(); err != nil {
			log.Fatalf("Initial build failed: %v. Please fix issues and try again.", err)
		}
		log.Println("Initial build successful.")

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.Fatalf("Failed to create file watcher: %v", err)
		}
		defer watcher.Close()

		go watchLoop(watcher, newRebuilder(500*time.Millisecond))

		if err := watcher.Add(appConfig.PostsDir); err != nil {
			log.Printf("Failed to watch %s: %v", appConfig.PostsDir, err)
		} else {
			log.Printf("Watching %s for changes...", appConfig.PostsDir)
		}

		serverAddr := fmt.Sprintf(":%d", serverPort)
		log.Printf("Serving site on http://localhost%s", serverAddr)
		log.Println("Press Ctrl+C to stop the server.")

		fs := http.FileServer(http.Dir("."))
		http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") && r.URL.Path != "/" {
				if _, err := os.Stat(filepath.Join(".", r.URL.Path, "index.html")); os.IsNotExist(err) {
					http.NotFound(w, r)
					return
				}
			}
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
			fs.ServeHTTP(w, r)
		})

		if err := http.ListenAndServe(serverAddr, nil); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
		return nil
	},
}

// rebuilder coalesces watcher events behind a single shared debounce timer
// and serializes all regeneration. The index document is a read-mutate-write
// unit, so two reprocessing runs must never overlap: a run that loads the
// index before another run's write lands would silently drop that entry.
type rebuilder struct {
	mu       sync.Mutex
	timer    *time.Timer
	pending  map[string]bool
	rebuild  bool
	debounce time.Duration

	runMu      sync.Mutex
	processOne func(name string) error
	rebuildAll func() error
}

func newRebuilder(debounce time.Duration) *rebuilder {
	return &rebuilder{
		pending:    make(map[string]bool),
		debounce:   debounce,
		processOne: runSingle,
		rebuildAll: runRebuildAll,
	}
}

// noteChange queues an edited or created post for incremental reprocessing.
func (b *rebuilder) noteChange(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.rebuild {
		b.pending[name] = true
	}
	b.schedule()
}

// noteRemoval requests a full rebuild, which purges stale index entries and
// supersedes any queued incremental work.
func (b *rebuilder) noteRemoval() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rebuild = true
	b.pending = make(map[string]bool)
	b.schedule()
}

// schedule resets the shared debounce timer. Callers hold mu.
func (b *rebuilder) schedule() {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.debounce, b.flush)
}

// flush drains the queued work and runs it. runMu makes flushes mutually
// exclusive even if a timer fires while an earlier flush is still going.
func (b *rebuilder) flush() {
	b.mu.Lock()
	names := make([]string, 0, len(b.pending))
	for name := range b.pending {
		names = append(names, name)
	}
	doRebuild := b.rebuild
	b.pending = make(map[string]bool)
	b.rebuild = false
	b.mu.Unlock()

	sort.Strings(names)

	b.runMu.Lock()
	defer b.runMu.Unlock()

	if doRebuild {
		log.Println("Rebuilding site due to removals...")
		if err := b.rebuildAll(); err != nil {
			log.Printf("Error during rebuild: %v", err)
		}
		return
	}
	for _, name := range names {
		log.Printf("Reprocessing %s...", name)
		if err := b.processOne(name); err != nil {
			log.Printf("Error reprocessing %s: %v", name, err)
		}
	}
}

func watchLoop(watcher *fsnotify.Watcher, builder *rebuilder) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(strings.ToLower(event.Name), ".md") {
				continue
			}

			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				log.Printf("Change detected: %s (%s)", event.Name, event.Op.String())
				builder.noteChange(event.Name)
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				log.Printf("Removal detected: %s. Scheduling full rebuild...", event.Name)
				builder.noteRemoval()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

func init() {
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 1313, "Port to serve the site on")
	rootCmd.AddCommand(serveCmd)
}
