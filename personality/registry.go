package personality

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var loadableExts = map[string]bool{
	".json": true,
	".txt":  true,
	".md":   true,
	".fil":  true,
}

// Registry is the process-wide personality catalog. Constructed once at
// startup, mutated only through Register; readers see either the old or
// the new definition, never a half-written one.
type Registry struct {
	dir           string
	mtx           sync.RWMutex
	personalities map[string]Personality
	defaultId     string
}

func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:           dir,
		personalities: map[string]Personality{},
	}
}

// LoadAll reads every personality file in the backing directory and
// returns the count loaded. Files that fail to parse are skipped with a
// warning, not fatal.
func (r *Registry) LoadAll() (int, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return 0, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !loadableExts[filepath.Ext(entry.Name())] {
			continue
		}
		names = append(names, entry.Name())
	}

	sort.Strings(names)

	r.mtx.Lock()
	defer r.mtx.Unlock()

	loaded := 0
	for _, name := range names {
		path := filepath.Join(r.dir, name)

		p, err := loadFile(path)
		if err != nil {
			slog.Warn("skipping personality file", "path", path, "error", err)
			continue
		}

		r.personalities[p.Id] = p
		if len(r.defaultId) == 0 {
			r.defaultId = p.Id
		}
		loaded++
	}

	return loaded, nil
}

func (r *Registry) Get(id string) (Personality, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	p, ok := r.personalities[id]
	if !ok {
		return Personality{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return p, nil
}

func (r *Registry) List() []Summary {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	summaries := make([]Summary, 0, len(r.personalities))
	for _, p := range r.personalities {
		summaries = append(summaries, summarize(p))
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Id < summaries[j].Id
	})

	return summaries
}

// Register parses the uploaded file content, persists it to the backing
// directory, and adds it to the catalog. The id is derived from
// preferredId when given, otherwise from the filename stem. An existing
// id is a Conflict; nothing is overwritten.
func (r *Registry) Register(filename string, content []byte, preferredId string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !loadableExts[ext] {
		return "", fmt.Errorf("%w: unsupported extension %q", ErrInvalid, ext)
	}

	id := Slugify(preferredId)
	if len(id) == 0 {
		id = Slugify(strings.TrimSuffix(filepath.Base(filename), ext))
	}
	if len(id) == 0 {
		return "", fmt.Errorf("%w: cannot derive an id", ErrInvalid)
	}

	p, err := parse(id, ext, content)
	if err != nil {
		return "", err
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, exists := r.personalities[id]; exists {
		return "", fmt.Errorf("%w: %s", ErrConflict, id)
	}

	path := filepath.Join(r.dir, id+ext)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}

	p.Path = path
	r.personalities[id] = p
	if len(r.defaultId) == 0 {
		r.defaultId = id
	}

	return id, nil
}

func (r *Registry) DefaultId() string {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.defaultId
}

func (r *Registry) Count() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.personalities)
}

func loadFile(path string) (Personality, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Personality{}, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	id := Slugify(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

	p, err := parse(id, ext, content)
	if err != nil {
		return Personality{}, err
	}

	p.Path = path

	return p, nil
}

func parse(id string, ext string, content []byte) (Personality, error) {
	if ext == ".json" {
		var tmpl Template
		if err := json.Unmarshal(content, &tmpl); err != nil {
			return Personality{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return Personality{
			Id:       id,
			Type:     TypeTemplate,
			Template: &tmpl,
		}, nil
	}

	return Personality{
		Id:     id,
		Type:   TypePrompt,
		Prompt: string(content),
	}, nil
}

func summarize(p Personality) Summary {
	if p.Type == TypeTemplate {
		name := p.Template.Name
		if len(name) == 0 {
			name = p.Id
		}
		role := p.Template.Role
		if len(role) == 0 {
			role = "Assistant"
		}
		return Summary{Id: p.Id, Name: name, Type: p.Type, Role: role}
	}

	return Summary{Id: p.Id, Name: p.Id, Type: p.Type, Role: "Custom Agent"}
}

// Slugify derives a filesystem-safe id: lowercase, spaces collapsed to
// hyphens, anything outside [a-z0-9._-] dropped.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}

	return strings.Trim(b.String(), "-")
}
