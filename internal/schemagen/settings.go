package schemagen

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed settings.cue
var settingsDef string

//go:embed esign.settings.cue
var defaultSettings []byte

// Method is a request body to explore.
type Method struct {
	Path     string
	Op       string
	Name     string
	Ancestor string
}

// Deletion removes one property from a definition before exploring.
type Deletion struct {
	Definition string
	Property   string
}

// Settings steer the compiler.
type Settings struct {
	Version       string
	Methods       []Method
	SwaggerDelete []Deletion
	// InlineObjects may appear under more than one attribute of a parent.
	InlineObjects map[string]bool
	// ReadOnly maps a definition to attributes a request never sets.
	ReadOnly map[string]map[string]bool
	// SpecialContainer is listed first among the auto containers.
	SpecialContainer string
}

// DefaultSettings returns the settings for the eSignature v2.1 API.
func DefaultSettings() (*Settings, error) {
	return ParseSettings(defaultSettings, "esign.settings.cue")
}

// LoadSettings reads settings from a CUE file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSettings(data, path)
}

// ParseSettings validates CUE settings against #Settings and extracts them.
func ParseSettings(data []byte, source string) (*Settings, error) {
	ctx := cuecontext.New()
	defs := ctx.CompileString(settingsDef, cue.Filename("settings.cue"))
	if defs.Err() != nil {
		return nil, fmt.Errorf("compiling settings definition: %w", defs.Err())
	}
	val := ctx.CompileBytes(data, cue.Filename(source))
	if val.Err() != nil {
		return nil, fmt.Errorf("compiling %s: %w", source, val.Err())
	}
	val = defs.LookupPath(cue.ParsePath("#Settings")).Unify(val)
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating %s: %w", source, err)
	}

	s := &Settings{
		InlineObjects: make(map[string]bool),
		ReadOnly:      make(map[string]map[string]bool),
	}
	s.Version, _ = val.LookupPath(cue.ParsePath("version")).String()
	s.SpecialContainer, _ = val.LookupPath(cue.ParsePath("specialContainer")).String()

	iter, _ := val.LookupPath(cue.ParsePath("methods")).List()
	for iter.Next() {
		m := iter.Value()
		var method Method
		method.Path, _ = m.LookupPath(cue.ParsePath("path")).String()
		method.Op, _ = m.LookupPath(cue.ParsePath("op")).String()
		method.Name, _ = m.LookupPath(cue.ParsePath("name")).String()
		method.Ancestor, _ = m.LookupPath(cue.ParsePath("ancestor")).String()
		s.Methods = append(s.Methods, method)
	}

	iter, _ = val.LookupPath(cue.ParsePath("swaggerDelete")).List()
	for iter.Next() {
		d := iter.Value()
		var del Deletion
		del.Definition, _ = d.LookupPath(cue.ParsePath("definition")).String()
		del.Property, _ = d.LookupPath(cue.ParsePath("property")).String()
		s.SwaggerDelete = append(s.SwaggerDelete, del)
	}

	iter, _ = val.LookupPath(cue.ParsePath("inlineObjects")).List()
	for iter.Next() {
		name, _ := iter.Value().String()
		s.InlineObjects[name] = true
	}

	fields, _ := val.LookupPath(cue.ParsePath("readonly")).Fields()
	for fields.Next() {
		attrs := make(map[string]bool)
		list, _ := fields.Value().List()
		for list.Next() {
			a, _ := list.Value().String()
			attrs[a] = true
		}
		s.ReadOnly[fields.Selector().Unquoted()] = attrs
	}
	return s, nil
}
