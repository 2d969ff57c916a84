// Package schemagen compiles the eSignature Swagger document into the object
// tables the assembler and code generator run on.
//
// The compiler walks the request bodies of the configured methods, collects
// every object definition reachable from them, and inverts the result into
// parent, child and attribute tables. Its output is the artifact format that
// schema.Load reads.
package schemagen

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Swagger is the subset of a Swagger 2.0 document the compiler reads. JSON
// input is read through the YAML decoder, which keeps property order.
type Swagger struct {
	Paths       map[string]map[string]Operation `yaml:"paths"`
	Definitions map[string]*Definition          `yaml:"definitions"`
}

// Operation is one method of a path.
type Operation struct {
	Summary    string      `yaml:"summary"`
	Parameters []Parameter `yaml:"parameters"`
}

// Parameter is a query, path or body parameter.
type Parameter struct {
	Name        string    `yaml:"name"`
	In          string    `yaml:"in"`
	Type        string    `yaml:"type"`
	Description string    `yaml:"description"`
	Schema      *Property `yaml:"schema"`
}

// Definition is an object definition.
type Definition struct {
	Type        string     `yaml:"type"`
	Description string     `yaml:"description"`
	Properties  Properties `yaml:"properties"`
	// SDKName is the class name the SDKs generate for the definition.
	SDKName string `yaml:"x-ds-definition-name"`
}

// Property is an object attribute, or an array's item type.
type Property struct {
	Type        string    `yaml:"type"`
	Ref         string    `yaml:"$ref"`
	Items       *Property `yaml:"items"`
	Description string    `yaml:"description"`
}

// Target returns the definition name a $ref points at.
func (p *Property) Target() string {
	if p == nil || p.Ref == "" {
		return ""
	}
	return p.Ref[strings.LastIndex(p.Ref, "/")+1:]
}

// IsObject reports whether p refers to a single object.
func (p *Property) IsObject() bool { return p.Ref != "" }

// IsArray reports whether p is an array of anything.
func (p *Property) IsArray() bool { return p.Type == "array" }

// IsObjectArray reports whether p is an array of objects.
func (p *Property) IsObjectArray() bool {
	return p.IsArray() && p.Items != nil && p.Items.Ref != ""
}

// IsComplex reports whether p is an object or an array.
func (p *Property) IsComplex() bool { return p.IsObject() || p.IsArray() }

// Properties keeps a definition's properties in document order.
type Properties struct {
	names  []string
	byName map[string]*Property
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (ps *Properties) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		var p Property
		if err := n.Content[i+1].Decode(&p); err != nil {
			return fmt.Errorf("property %s: %w", n.Content[i].Value, err)
		}
		ps.Set(n.Content[i].Value, &p)
	}
	return nil
}

// Set adds or replaces a property.
func (ps *Properties) Set(name string, p *Property) {
	if ps.byName == nil {
		ps.byName = make(map[string]*Property)
	}
	if _, ok := ps.byName[name]; !ok {
		ps.names = append(ps.names, name)
	}
	ps.byName[name] = p
}

// Get returns the named property.
func (ps *Properties) Get(name string) (*Property, bool) {
	p, ok := ps.byName[name]
	return p, ok
}

// Delete removes a property.
func (ps *Properties) Delete(name string) {
	if _, ok := ps.byName[name]; !ok {
		return
	}
	delete(ps.byName, name)
	for i, n := range ps.names {
		if n == name {
			ps.names = append(ps.names[:i:i], ps.names[i+1:]...)
			break
		}
	}
}

// Names returns the property names in document order.
func (ps *Properties) Names() []string {
	out := make([]string, len(ps.names))
	copy(out, ps.names)
	return out
}

// ParseSwagger reads a Swagger document in JSON or YAML.
func ParseSwagger(r io.Reader) (*Swagger, error) {
	var sw Swagger
	if err := yaml.NewDecoder(r).Decode(&sw); err != nil {
		return nil, fmt.Errorf("parsing swagger: %w", err)
	}
	if len(sw.Definitions) == 0 {
		return nil, fmt.Errorf("parsing swagger: no definitions")
	}
	return &sw, nil
}
