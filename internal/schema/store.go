// Package schema loads and serves form template definitions. Templates live
// in a directory of YAML or JSON files; each file holds either a single
// template or a catalog with a top-level "templates" list.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/planpress/planpress/internal/model"
)

// ErrNotFound is returned when no template matches the requested id.
var ErrNotFound = errors.New("template not found")

// Store is the in-memory template repository. Templates are immutable after
// load, so reads need no locking.
type Store struct {
	templates map[string]model.Template
}

type catalog struct {
	Templates []model.Template `json:"templates" yaml:"templates"`
}

// LoadDir reads every .yml/.yaml/.json file under dir into a Store. A file
// that fails to parse or contains an invalid template aborts the load; a
// directory with no templates at all is considered a configuration error.
func LoadDir(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}
	store := &Store{templates: make(map[string]model.Template)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yml" && ext != ".yaml" && ext != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := store.loadFile(path, ext); err != nil {
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
	}
	if len(store.templates) == 0 {
		return nil, fmt.Errorf("no templates found in %s", dir)
	}
	return store, nil
}

func (s *Store) loadFile(path, ext string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cat catalog
	if ext == ".json" {
		if err := json.Unmarshal(data, &cat); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	}
	templates := cat.Templates
	if len(templates) == 0 {
		// Not a catalog; try a single template document.
		var tpl model.Template
		if ext == ".json" {
			if err := json.Unmarshal(data, &tpl); err != nil {
				return fmt.Errorf("parse json: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &tpl); err != nil {
				return fmt.Errorf("parse yaml: %w", err)
			}
		}
		templates = []model.Template{tpl}
	}
	for _, tpl := range templates {
		if err := Validate(tpl); err != nil {
			return fmt.Errorf("template %q: %w", tpl.ID, err)
		}
		s.templates[tpl.ID] = tpl
	}
	return nil
}

// Get returns the template with the given id.
func (s *Store) Get(id string) (model.Template, error) {
	tpl, ok := s.templates[id]
	if !ok {
		return model.Template{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tpl, nil
}

// GetByBackingID resolves a template by the template_id carried in
// submission payloads.
func (s *Store) GetByBackingID(templateID string) (model.Template, error) {
	for _, tpl := range s.templates {
		if tpl.TemplateID == templateID {
			return tpl, nil
		}
	}
	return model.Template{}, fmt.Errorf("%w: template_id %s", ErrNotFound, templateID)
}

// List returns template summaries sorted by id for stable output.
func (s *Store) List() []model.TemplateSummary {
	out := make([]model.TemplateSummary, 0, len(s.templates))
	for _, tpl := range s.templates {
		out = append(out, tpl.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Validate checks the structural invariants a template must satisfy before it
// can drive a form session: an id, a backing template_id, at least one step,
// and at least one field per section.
func Validate(tpl model.Template) error {
	if tpl.ID == "" {
		return errors.New("missing id")
	}
	if tpl.TemplateID == "" {
		return errors.New("missing template_id")
	}
	if len(tpl.Sections) == 0 {
		return errors.New("template has no steps")
	}
	for _, section := range tpl.Sections {
		if section.Step < 1 {
			return fmt.Errorf("section %q: step ordinal must be >= 1", section.Title)
		}
		if len(section.Fields) == 0 {
			return fmt.Errorf("section %q: no fields", section.Title)
		}
		for _, field := range section.Fields {
			if field.ID == "" {
				return fmt.Errorf("section %q: field with empty id", section.Title)
			}
		}
	}
	return nil
}

// DuplicateFieldIDs reports field ids that appear more than once across the
// whole template. Duplicates are legal (later values overwrite earlier ones)
// but almost always a template authoring mistake, so callers log them.
func DuplicateFieldIDs(tpl model.Template) []string {
	seen := make(map[string]int)
	for _, field := range tpl.FlatFields() {
		seen[field.ID]++
	}
	var dupes []string
	for id, n := range seen {
		if n > 1 {
			dupes = append(dupes, id)
		}
	}
	sort.Strings(dupes)
	return dupes
}

// KnownFieldIDs returns the set of field ids declared by the template.
func KnownFieldIDs(tpl model.Template) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, field := range tpl.FlatFields() {
		ids[field.ID] = struct{}{}
	}
	return ids
}
