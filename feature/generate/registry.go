package generate

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrNoSuchFile is returned for names that are not managed.
	ErrNoSuchFile = errors.New("no such file")
	// ErrNoRenderer is returned when no renderer handles a template extension.
	ErrNoRenderer = errors.New("no renderer for template")
)

// Template is the source of one managed file.
type Template struct {
	// Name is the managed file path relative to the mount point.
	Name string `json:"name"`
	// Path is the template file on disk, empty for embedded templates.
	Path string `json:"path,omitempty"`
	// Ext selects the renderer.
	Ext string `json:"ext"`
	// Embedded marks templates compiled into the binary.
	Embedded bool `json:"embedded"`
}

// Registry maps managed file names to templates.
type Registry struct {
	dirs      []string
	renderers map[string]Renderer
	builtin   []Template
	logger    *zap.Logger

	mu    sync.RWMutex
	files map[string]Template
}

// NewRegistry creates a registry over dirs. Earlier directories take
// precedence; builtin templates apply only when no directory provides the name.
func NewRegistry(dirs []string, renderers map[string]Renderer, builtin []Template, logger *zap.Logger) *Registry {
	return &Registry{
		dirs:      dirs,
		renderers: renderers,
		builtin:   builtin,
		logger:    logger,
		files:     map[string]Template{},
	}
}

// Scan rebuilds the managed file table from the plugin directories.
// Missing directories are skipped.
func (r *Registry) Scan() error {
	files := make(map[string]Template)

	for _, dir := range r.dirs {
		r.logger.Debug("Scanning plugin directory", zap.String("dir", dir))
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == dir && errors.Is(err, fs.ErrNotExist) {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			ext := filepath.Ext(rel)
			name := filepath.ToSlash(strings.TrimSuffix(rel, ext))
			if _, ok := r.renderers[ext]; !ok || name == "" {
				return nil
			}
			if _, ok := files[name]; ok {
				return nil
			}

			files[name] = Template{Name: name, Path: path, Ext: ext}
			r.logger.Info("Adding managed file", zap.String("name", name), zap.String("ext", ext))
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to scan plugin directory %s: %w", dir, err)
		}
	}

	for _, tpl := range r.builtin {
		if _, ok := files[tpl.Name]; !ok {
			files[tpl.Name] = tpl
		}
	}

	r.mu.Lock()
	r.files = files
	r.mu.Unlock()
	return nil
}

// Lookup returns the template of a managed file.
func (r *Registry) Lookup(name string) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tpl, ok := r.files[name]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrNoSuchFile, name)
	}
	return tpl, nil
}

// Templates returns every managed template sorted by name.
func (r *Registry) Templates() []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Template, 0, len(r.files))
	for _, tpl := range r.files {
		out = append(out, tpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns every managed file name sorted.
func (r *Registry) Names() []string {
	tpls := r.Templates()
	names := make([]string, len(tpls))
	for i, tpl := range tpls {
		names[i] = tpl.Name
	}
	return names
}

// Renderer returns the renderer for a template.
func (r *Registry) Renderer(tpl Template) (Renderer, error) {
	rd, ok := r.renderers[tpl.Ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRenderer, tpl.Ext)
	}
	return rd, nil
}
