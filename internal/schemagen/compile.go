package schemagen

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/docusign/api-request-builder-open-src/internal/document"
	"github.com/docusign/api-request-builder-open-src/internal/schema"
)

// InconsistencyError stops a build: an object type is used for several
// attributes of one parent and is not an allowed inline duplicate.
type InconsistencyError struct {
	ObjectType string
	Parent     string
	Attributes []string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("object %s is used inline by %s for attributes %v; list it in inlineObjects to allow this",
		e.ObjectType, e.Parent, e.Attributes)
}

var scalarTypes = map[string]bool{"string": true, "integer": true, "number": true, "boolean": true}

// explored is the compiler's record of one object definition.
type explored struct {
	name string
	// items counts the entries the editor shows for the object: scalars,
	// scalar lists and inline duplicates. Objects without any are auto
	// containers.
	items         int
	hasArrayOfObj bool
}

type compiler struct {
	sw       *Swagger
	settings *Settings
	logger   *slog.Logger

	objects map[string]*explored
	order   []string
	// inline holds object types kept inline with their parents.
	inline map[string]bool
	// queryParams lists each method's query parameter names.
	queryParams map[string][]string
}

// Option configures Compile.
type Option func(*compiler)

// WithLogger sets the logger for progress and warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *compiler) { c.logger = l }
}

// Compile builds the object tables from sw. sw is modified by the
// settings' property deletions.
func Compile(sw *Swagger, settings *Settings, opts ...Option) (*schema.Tables, error) {
	c := &compiler{
		sw:          sw,
		settings:    settings,
		logger:      slog.Default(),
		objects:     make(map[string]*explored),
		inline:      make(map[string]bool),
		queryParams: make(map[string][]string),
	}
	for _, o := range opts {
		o(c)
	}

	for _, d := range settings.SwaggerDelete {
		if def, ok := sw.Definitions[d.Definition]; ok {
			def.Properties.Delete(d.Property)
		}
	}

	for _, m := range settings.Methods {
		if err := c.exploreMethod(m); err != nil {
			return nil, err
		}
	}
	c.logger.Info("explored methods", "objects", len(c.order))

	t := &schema.Tables{
		Version:         settings.Version,
		Parents:         c.parents(),
		Children:        c.children(),
		ChildAttributes: c.childAttributes(),
		AutoContainers:  c.autoContainers(),
	}
	return t, nil
}

// exploreMethod records the method's query parameters and explores its
// request body.
func (c *compiler) exploreMethod(m Method) error {
	ops, ok := c.sw.Paths[m.Path]
	if !ok {
		return fmt.Errorf("method %s: path %s not in swagger", m.Name, m.Path)
	}
	op, ok := ops[m.Op]
	if !ok {
		return fmt.Errorf("method %s: no %s operation on %s", m.Name, m.Op, m.Path)
	}
	var body *Parameter
	for i, p := range op.Parameters {
		switch p.In {
		case "query":
			c.queryParams[m.Name] = append(c.queryParams[m.Name], p.Name)
		case "body":
			if body == nil {
				body = &op.Parameters[i]
			}
		}
	}
	if body == nil || body.Schema.Target() == "" {
		return fmt.Errorf("method %s: no request body", m.Name)
	}
	c.logger.Info("exploring method", "method", m.Name, "query_parameters", len(c.queryParams[m.Name]))
	return c.explore(body.Schema.Target(), 1)
}

func (c *compiler) properties(name string) []string {
	def := c.sw.Definitions[name]
	if def == nil {
		return nil
	}
	var out []string
	for _, k := range def.Properties.Names() {
		if c.settings.ReadOnly[name][k] {
			continue
		}
		out = append(out, k)
	}
	return out
}

func (c *compiler) property(obj, attr string) *Property {
	p, _ := c.sw.Definitions[obj].Properties.Get(attr)
	return p
}

// explore records name and, depth first, every definition it refers to.
func (c *compiler) explore(name string, level int) error {
	if _, ok := c.objects[name]; ok {
		return nil
	}
	def, ok := c.sw.Definitions[name]
	if !ok || def == nil {
		return fmt.Errorf("definition %s not found", name)
	}
	if def.Type != "" && def.Type != "object" {
		c.logger.Warn("unexpected definition type", "object", name, "type", def.Type)
	}
	c.logger.Debug("exploring object", "object", name, "level", level)

	obj := &explored{name: name}
	keys := c.properties(name)
	for _, k := range keys {
		p := c.property(name, k)
		if p.IsObjectArray() {
			obj.hasArrayOfObj = true
		}
		if !p.IsComplex() {
			obj.items++
		}
	}
	c.objects[name] = obj
	c.order = append(c.order, name)

	type use struct{ attr, child string }
	var inlineUses []use
	for _, k := range keys {
		p := c.property(name, k)
		if !p.IsComplex() {
			continue
		}
		if p.IsObject() || p.IsObjectArray() {
			child := p.Target()
			if p.IsObjectArray() {
				child = p.Items.Target()
			}
			if _, ok := c.sw.Definitions[child]; !ok {
				c.logger.Warn("child is not defined", "object", name, "attribute", k, "child", child)
				continue
			}
			if err := c.explore(child, level+1); err != nil {
				return err
			}
			if ch, ok := c.objects[child]; ok && p.IsObject() && !ch.hasArrayOfObj {
				inlineUses = append(inlineUses, use{attr: k, child: child})
			}
			continue
		}
		// array of scalars
		obj.items++
	}

	counts := make(map[string][]string)
	var childOrder []string
	for _, u := range inlineUses {
		if _, seen := counts[u.child]; !seen {
			childOrder = append(childOrder, u.child)
		}
		counts[u.child] = append(counts[u.child], u.attr)
	}
	for _, child := range childOrder {
		attrs := counts[child]
		if len(attrs) < 2 {
			continue
		}
		if !c.settings.InlineObjects[child] {
			return &InconsistencyError{ObjectType: child, Parent: name, Attributes: attrs}
		}
		obj.items += len(attrs)
		c.inline[child] = true
		c.remove(child)
	}
	return nil
}

func (c *compiler) remove(name string) {
	delete(c.objects, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			return
		}
	}
}

// complexAttrs calls fn for each object, object array and scalar array
// attribute of obj, in property order. child is the object type, or the
// synthesized <obj>_<attr> name for a scalar array.
func (c *compiler) complexAttrs(obj string, fn func(attr, child string, style schema.Style, p *Property)) {
	for _, k := range c.properties(obj) {
		p := c.property(obj, k)
		switch {
		case p.IsObject():
			fn(k, p.Target(), schema.StyleObject, p)
		case p.IsObjectArray():
			fn(k, p.Items.Target(), schema.StyleArrayOfObject, p)
		case p.IsArray():
			fn(k, obj+"_"+k, schema.StyleArrayOfScalar, p)
		}
	}
}

// parents maps each explored object to the explored objects that can hold
// it. Scalar lists have exactly one parent.
func (c *compiler) parents() map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, name := range c.order {
		if schema.IsRoot(name) {
			continue
		}
		out[name] = make(map[string]string)
	}
	for _, searched := range c.order {
		if searched == document.RecipientViewRequest {
			continue
		}
		c.complexAttrs(searched, func(attr, child string, style schema.Style, _ *Property) {
			if style == schema.StyleArrayOfScalar {
				out[child] = map[string]string{searched: attr}
				return
			}
			if m, ok := out[child]; ok {
				m[searched] = attr
			}
		})
	}
	return out
}

func (c *compiler) children() map[string]map[string]schema.ChildLink {
	out := make(map[string]map[string]schema.ChildLink)
	for _, name := range c.order {
		if name == document.RecipientViewRequest {
			continue
		}
		links := make(map[string]schema.ChildLink)
		c.complexAttrs(name, func(attr, child string, style schema.Style, _ *Property) {
			if style != schema.StyleArrayOfScalar {
				if _, ok := c.objects[child]; !ok || schema.IsRoot(child) {
					return
				}
			}
			links[child] = schema.ChildLink{Attribute: attr, Style: style}
		})
		if len(links) > 0 {
			out[name] = links
		}
	}
	return out
}

func (c *compiler) childAttributes() map[string]map[string]schema.AttrInfo {
	out := make(map[string]map[string]schema.AttrInfo)
	add := func(name string) {
		if _, done := out[name]; done {
			return
		}
		attrs := make(map[string]schema.AttrInfo)
		c.complexAttrs(name, func(attr, child string, style schema.Style, p *Property) {
			info := schema.AttrInfo{ItemType: style, ObjectName: child}
			if style == schema.StyleArrayOfScalar {
				info.ScalarType = "string"
				if p.Items != nil && scalarTypes[p.Items.Type] {
					info.ScalarType = p.Items.Type
				} else {
					c.logger.Warn("unexpected scalar list item type", "object", name, "attribute", attr)
				}
			} else if def, ok := c.sw.Definitions[child]; ok {
				if def.SDKName != "" && def.SDKName != child {
					info.SDKObjectName = def.SDKName
				}
			} else {
				c.logger.Warn("no swagger definition", "object", child)
			}
			attrs[attr] = info
		})
		if len(attrs) > 0 {
			out[name] = attrs
		}
	}
	for _, name := range c.order {
		add(name)
	}
	for _, name := range sortedKeys(c.inline) {
		if _, ok := c.sw.Definitions[name]; ok {
			add(name)
		}
	}
	return out
}

// autoContainers lists the special container, then every explored object
// the editor shows no fields for.
func (c *compiler) autoContainers() []string {
	var out []string
	seen := make(map[string]bool)
	if sc := c.settings.SpecialContainer; sc != "" {
		if _, ok := c.objects[sc]; ok {
			out = append(out, sc)
			seen[sc] = true
		} else {
			c.logger.Warn("special container was not explored", "object", sc)
		}
	}
	for _, name := range c.order {
		if seen[name] || schema.IsRoot(name) || c.objects[name].items > 0 {
			continue
		}
		out = append(out, name)
		seen[name] = true
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
