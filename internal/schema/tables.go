// Package schema provides the read-only object tables that drive both the
// tree assembler and the code generator.
//
// The tables are compiled offline from the eSignature Swagger file (see
// cmd/schemagen) and loaded once at startup. Nothing in this package mutates
// a Tables value after Load returns, so one value can be shared by any number
// of goroutines.
package schema

import (
	"slices"
	"sort"

	"github.com/docusign/api-request-builder-open-src/internal/document"
)

// Style is how a parent holds a child object type.
type Style string

const (
	StyleObject        Style = "object"
	StyleArrayOfObject Style = "arrayOfObject"
	StyleArrayOfScalar Style = "arrayOfScalar"
)

// ChildLink names the parent attribute that holds a child and its style.
type ChildLink struct {
	Attribute string `json:"attribute"`
	Style     Style  `json:"style"`
}

// AttrInfo describes one complex attribute of an object.
type AttrInfo struct {
	ItemType      Style  `json:"itemType"`
	ObjectName    string `json:"objectName"`
	SDKObjectName string `json:"sdkObjectName,omitempty"`
	ScalarType    string `json:"scalarType,omitempty"`
}

// SDKName returns the type name the SDKs use for the attribute's objects.
func (a AttrInfo) SDKName() string {
	if a.SDKObjectName != "" {
		return a.SDKObjectName
	}
	return a.ObjectName
}

// Tables is the compiled schema.
type Tables struct {
	Version string `json:"version"`

	// Parents maps an object type to its potential parents and the parent
	// attribute that holds it.
	Parents map[string]map[string]string `json:"parents"`

	// Children maps a parent object type to its complex children.
	Children map[string]map[string]ChildLink `json:"children"`

	// ChildAttributes maps an object type to its complex attributes.
	ChildAttributes map[string]map[string]AttrInfo `json:"childAttributes"`

	// AutoContainers lists, in priority order, the types that may be
	// synthesized to make room for a child.
	AutoContainers []string `json:"autoContainers"`
}

// IsRoot reports whether objectType is one of the request roots.
func IsRoot(objectType string) bool {
	return objectType == document.EnvelopeDefinition || objectType == document.RecipientViewRequest
}

// Known reports whether objectType can be inserted or used as a root.
func (t *Tables) Known(objectType string) bool {
	if IsRoot(objectType) {
		return true
	}
	_, ok := t.Parents[objectType]
	return ok
}

// ObjectTypes returns every insertable object type, sorted.
func (t *Tables) ObjectTypes() []string {
	names := make([]string, 0, len(t.Parents)+2)
	for name := range t.Parents {
		names = append(names, name)
	}
	names = append(names, document.EnvelopeDefinition, document.RecipientViewRequest)
	sort.Strings(names)
	return slices.Compact(names)
}

// ParentsOf returns the potential parent types of objectType, sorted.
func (t *Tables) ParentsOf(objectType string) []string {
	ps := t.Parents[objectType]
	out := make([]string, 0, len(ps))
	for p := range ps {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// IsParent reports whether parent may hold objectType.
func (t *Tables) IsParent(objectType, parent string) bool {
	_, ok := t.Parents[objectType][parent]
	return ok
}

// Link returns how parent holds child.
func (t *Tables) Link(parent, child string) (ChildLink, bool) {
	l, ok := t.Children[parent][child]
	return l, ok
}

// Attribute returns the complex attribute attr of objectType.
func (t *Tables) Attribute(objectType, attr string) (AttrInfo, bool) {
	a, ok := t.ChildAttributes[objectType][attr]
	return a, ok
}

// IsAutoContainer reports whether objectType may be synthesized.
func (t *Tables) IsAutoContainer(objectType string) bool {
	return slices.Contains(t.AutoContainers, objectType)
}

// ContainersFor returns the auto-containers that can hold objectType, in
// AutoContainers order.
func (t *Tables) ContainersFor(objectType string) []string {
	var out []string
	for _, c := range t.AutoContainers {
		if t.IsParent(objectType, c) {
			out = append(out, c)
		}
	}
	return out
}

// IsScalarArray reports whether objectType names an array of scalars
// (the "<parent>_<attribute>" pseudo types).
func (t *Tables) IsScalarArray(objectType string) bool {
	for parent := range t.Parents[objectType] {
		if l, ok := t.Link(parent, objectType); ok && l.Style == StyleArrayOfScalar {
			return true
		}
	}
	return false
}
