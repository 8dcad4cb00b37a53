package cellmap

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry holds the templates known to the application.
type Registry struct {
	mu        sync.RWMutex
	templates map[int]Template
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[int]Template)}
}

// LoadFS walks fsys and registers every template declared in JSON/YAML files.
// When fsys is nil the returned registry is empty.
func LoadFS(fsys fs.FS, options ...LoadOption) (*Registry, error) {
	registry := NewRegistry()
	if fsys == nil {
		return registry, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isTemplateFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("cellmap: read %s: %w", path, err)
		}

		templates, err := ParseTemplates(data, path, options...)
		if err != nil {
			return err
		}
		for _, tpl := range templates {
			if err := registry.Register(tpl); err != nil {
				return fmt.Errorf("cellmap: %s: %w", path, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return registry, nil
}

// Register validates tpl, applies defaults and stores it.
func (r *Registry) Register(tpl Template) error {
	tpl = tpl.withDefaults()
	if err := tpl.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.templates == nil {
		r.templates = make(map[int]Template)
	}
	if _, exists := r.templates[tpl.ID]; exists {
		return fmt.Errorf("%w: id %d (%s)", ErrDuplicateTemplate, tpl.ID, tpl.Name)
	}
	r.templates[tpl.ID] = tpl
	return nil
}

// MustRegister panics when Register fails. Intended for static setup.
func (r *Registry) MustRegister(tpl Template) {
	if err := r.Register(tpl); err != nil {
		panic(err)
	}
}

// Template returns the template registered under id.
func (r *Registry) Template(id int) (Template, bool) {
	if r == nil {
		return Template{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[id]
	return tpl, ok
}

// Templates returns every registered template sorted by id.
func (r *Registry) Templates() []Template {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	out := make([]Template, 0, len(r.templates))
	for _, tpl := range r.templates {
		out = append(out, tpl)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports how many templates are registered.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

func isTemplateFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
