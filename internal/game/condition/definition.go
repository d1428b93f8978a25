// Package condition implements the condition library, the per-participant
// condition tracker, and aggregation of mechanical effects.
package condition

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownCondition is returned when a condition name is not in the library.
var ErrUnknownCondition = errors.New("unknown condition")

//go:embed library/*.yaml
var libraryFS embed.FS

// Definition is the static catalog entry of a condition. Definitions are shared
// between trackers and must not be modified after registration.
type Definition struct {
	ID          string
	Name        string
	Description string
	Effects     []Effect
	// Supersedes lists condition IDs whose effects this condition already includes.
	Supersedes []string
	// IncompatibleWith lists condition IDs that cannot be active alongside this one.
	IncompatibleWith []string
}

// definitionSpec is the YAML form of a Definition.
type definitionSpec struct {
	ID               string       `yaml:"id"`
	Name             string       `yaml:"name"`
	Description      string       `yaml:"description"`
	Effects          []effectSpec `yaml:"effects"`
	Supersedes       []string     `yaml:"supersedes"`
	IncompatibleWith []string     `yaml:"incompatible_with"`
}

func (s definitionSpec) decode() (*Definition, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("condition id must not be empty")
	}
	def := &Definition{
		ID:               strings.ToLower(s.ID),
		Name:             s.Name,
		Description:      s.Description,
		Supersedes:       lowerAll(s.Supersedes),
		IncompatibleWith: lowerAll(s.IncompatibleWith),
	}
	if def.Name == "" {
		def.Name = s.ID
	}
	for i, es := range s.Effects {
		e, err := es.decode()
		if err != nil {
			return nil, fmt.Errorf("condition %q effect %d: %w", s.ID, i, err)
		}
		def.Effects = append(def.Effects, e)
	}
	return def, nil
}

// Library holds the known condition definitions keyed by ID.
type Library struct {
	defs map[string]*Definition
}

// NewLibrary creates an empty Library.
func NewLibrary() *Library {
	return &Library{defs: make(map[string]*Definition)}
}

// Register adds def, overwriting any existing entry with the same ID.
//
// Precondition: def must not be nil and def.ID must not be empty.
func (l *Library) Register(def *Definition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("condition: definition must have an id")
	}
	def.ID = strings.ToLower(def.ID)
	l.defs[def.ID] = def
	return nil
}

// Get looks a condition up by ID or display name, case-insensitively.
func (l *Library) Get(name string) (*Definition, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if d, ok := l.defs[key]; ok {
		return d, true
	}
	for _, d := range l.defs {
		if strings.EqualFold(d.Name, key) {
			return d, true
		}
	}
	return nil, false
}

// All returns every definition sorted by ID.
func (l *Library) All() []*Definition {
	out := make([]*Definition, 0, len(l.defs))
	for _, d := range l.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered definitions.
func (l *Library) Len() int { return len(l.defs) }

// LoadFS parses every *.yaml file at the root of fsys into a Library.
// Unknown YAML fields are rejected.
//
// Postcondition: Returns a populated Library, or an error naming the first bad file.
// Two files defining the same ID are an error naming both.
func LoadFS(fsys fs.FS) (*Library, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading condition library: %w", err)
	}
	lib := NewLibrary()
	sources := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", e.Name(), err)
		}
		var spec definitionSpec
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", e.Name(), err)
		}
		def, err := spec.decode()
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", e.Name(), err)
		}
		if prev, ok := sources[def.ID]; ok {
			return nil, fmt.Errorf("condition %q is defined in both %q and %q", def.ID, prev, e.Name())
		}
		sources[def.ID] = e.Name()
		if err := lib.Register(def); err != nil {
			return nil, fmt.Errorf("registering %q: %w", e.Name(), err)
		}
	}
	return lib, nil
}

// LoadDirectory reads every *.yaml file in dir as a condition definition.
//
// Precondition: dir must be a readable directory.
func LoadDirectory(dir string) (*Library, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("reading condition dir %q: %w", dir, err)
	}
	lib, err := LoadFS(os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("condition dir %q: %w", dir, err)
	}
	return lib, nil
}

// DefaultLibrary returns the built-in library of the fifteen standard conditions.
func DefaultLibrary() (*Library, error) {
	sub, err := fs.Sub(libraryFS, "library")
	if err != nil {
		return nil, fmt.Errorf("opening embedded library: %w", err)
	}
	return LoadFS(sub)
}

func lowerAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
