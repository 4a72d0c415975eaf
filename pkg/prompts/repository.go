package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/goccy/go-json"
)

// TemplateExt is the extension of template files.
const TemplateExt = ".txt"

// Repository holds the templates found in a directory.
type Repository struct {
	dir    string
	logger *slog.Logger

	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRepository loads every template in dir. A missing directory yields an
// empty repository.
func NewRepository(dir string, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Repository{
		dir:       dir,
		logger:    logger.With("component", "prompts"),
		templates: make(map[string]*Template),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload rereads the directory. Files that are not valid templates are
// skipped with a warning.
func (r *Repository) Reload() error {
	loaded := make(map[string]*Template)

	paths, err := filepath.Glob(filepath.Join(r.dir, "*"+TemplateExt))
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}
	if _, err := os.Stat(r.dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read template directory: %w", err)
	}

	for _, path := range paths {
		t, err := LoadTemplate(path)
		if err != nil {
			r.logger.Warn("Skipping invalid template", "path", path, "error", err)
			continue
		}
		loaded[t.FileName] = t
	}

	r.mu.Lock()
	r.templates = loaded
	r.mu.Unlock()

	r.logger.Debug("Templates loaded", "dir", r.dir, "count", len(loaded))
	return nil
}

// Get returns the template loaded from fileName.
func (r *Repository) Get(fileName string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[fileName]
	return t, ok
}

// List returns all templates ordered by file name.
func (r *Repository) List() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out
}

// LoadTemplate reads one JSON template file. All three fields are required.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Name         *string `json:"name"`
		SystemPrompt *string `json:"system_prompt"`
		UserPrompt   *string `json:"user_prompt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid template JSON: %w", err)
	}
	if raw.Name == nil || raw.SystemPrompt == nil || raw.UserPrompt == nil {
		return nil, fmt.Errorf("template requires name, system_prompt and user_prompt")
	}

	return &Template{
		FileName:     filepath.Base(path),
		Name:         *raw.Name,
		SystemPrompt: *raw.SystemPrompt,
		UserPrompt:   *raw.UserPrompt,
	}, nil
}
