package codegen

import "sort"

// Registry maps language names to implementations.
type Registry struct {
	languages map[string]Language
	display   map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		languages: make(map[string]Language),
		display:   make(map[string]string),
	}
}

// DefaultRegistry returns a registry with every built-in language.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, l := range []Language{
		CSharp{}, Java{}, NodeJS{}, PHP{}, Python{}, Ruby{}, VB{}, JSON{},
	} {
		r.Register(l)
	}
	return r
}

// Register adds a language, replacing any with the same name.
func (r *Registry) Register(l Language) {
	r.languages[l.Name()] = l
	r.display[l.Name()] = l.DisplayName()
}

// Get returns the language registered under name.
func (r *Registry) Get(name string) (Language, bool) {
	l, ok := r.languages[name]
	return l, ok
}

// DisplayName returns the human name for a language, falling back to name.
func (r *Registry) DisplayName(name string) string {
	if d, ok := r.display[name]; ok {
		return d
	}
	return name
}

// Names returns the implemented languages, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.languages))
	for n := range r.languages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Listing is one entry of the language list shown to users.
type Listing struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// List returns every language sorted by name.
func (r *Registry) List() []Listing {
	names := r.Names()
	out := make([]Listing, len(names))
	for i, n := range names {
		out[i] = Listing{Name: n, DisplayName: r.display[n]}
	}
	return out
}
