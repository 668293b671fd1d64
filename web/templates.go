package web

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"hyperwatch/internal/utils"
)

var pageNames = []string{"home", "results", "watch"}

const (
	smallPosterPlaceholder = "https://via.placeholder.com/40x60/333/fff?text=No+Img"
	largePosterPlaceholder = "https://via.placeholder.com/300x450"
)

var funcs = template.FuncMap{
	"posterOr": func(placeholder, poster string) string {
		if poster == "" {
			return placeholder
		}
		return poster
	},
	"smallPoster": func() string { return smallPosterPlaceholder },
	"largePoster": func() string { return largePosterPlaceholder },
}

// Templates renders pages from the embedded templates, or from dir when set.
// With a dir, Watch re-parses on every change.
type Templates struct {
	dir    string
	source fs.FS
	logger *utils.Logger

	mu    sync.RWMutex
	pages map[string]*template.Template
}

func NewTemplates(dir string, logger *utils.Logger) (*Templates, error) {
	t := &Templates{dir: dir, logger: logger}
	if dir == "" {
		sub, err := fs.Sub(Files, "templates")
		if err != nil {
			return nil, err
		}
		t.source = sub
	} else {
		t.source = os.DirFS(dir)
	}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload parses every page against the shared layout. On error the previous set stays live.
func (t *Templates) Reload() error {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(t.source, "layout.html", name+".html")
		if err != nil {
			return fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tpl
	}

	t.mu.Lock()
	t.pages = pages
	t.mu.Unlock()
	return nil
}

func (t *Templates) Render(w io.Writer, page string, data interface{}) error {
	t.mu.RLock()
	tpl, ok := t.pages[page]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return tpl.ExecuteTemplate(w, "layout.html", data)
}

// Watch blocks until ctx is done. It is a no-op for embedded templates.
func (t *Templates) Watch(ctx context.Context) error {
	if t.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create template watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(t.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", t.dir, err)
	}
	t.logger.Info("Watching templates in", t.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".html" || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := t.Reload(); err != nil {
				t.logger.Error("Template reload failed:", err)
				continue
			}
			t.logger.Info("Templates reloaded after change to", filepath.Base(event.Name))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Error("Template watcher error:", err)
		}
	}
}
