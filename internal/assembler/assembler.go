// Package assembler turns an ordered stream of block insertions into a
// single nested envelope request.
//
// Every inserted node is appended to a trail. A new block attaches to the
// most recently inserted node that the schema allows as its parent, which
// is usually the one the user meant. When nothing fits, the assembler tries
// to synthesize an auto-container (recipients, tabs, custom fields) between
// the block and an existing ancestor before giving up with an
// InsertionError.
package assembler

import (
	"log/slog"
	"slices"

	"github.com/docusign/api-request-builder-open-src/internal/document"
	"github.com/docusign/api-request-builder-open-src/internal/schema"
)

type entry struct {
	objectType string
	// node is the live object in the tree; nil for scalar arrays, which
	// never act as parents.
	node *document.Object
}

// Assembler builds one request. It is not safe for concurrent use.
type Assembler struct {
	tables *schema.Tables
	logger *slog.Logger

	req   document.Request
	trail []entry
	undo  []func()
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger used for insertion diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// New returns an assembler holding an empty envelope definition.
func New(tables *schema.Tables, opts ...Option) *Assembler {
	a := &Assembler{tables: tables, logger: slog.Default()}
	for _, o := range opts {
		o(a)
	}
	a.Reset()
	return a
}

// Reset discards everything inserted so far.
func (a *Assembler) Reset() {
	a.req = document.NewRequest()
	a.trail = []entry{{objectType: document.EnvelopeDefinition, node: a.req.EnvelopeDefinition}}
	a.undo = nil
}

// SetEnvelopeAttribute sets a scalar attribute on the envelope definition.
func (a *Assembler) SetEnvelopeAttribute(name string, value any) {
	a.req.EnvelopeDefinition.Set(name, value)
}

// SetQueryParameter sets a query parameter for the envelope create call.
func (a *Assembler) SetQueryParameter(name string, value any) {
	a.req.EnvelopesCreateQP.Set(name, value)
}

// SetRecipientViewRequest sets, or replaces, the embedded signing request.
func (a *Assembler) SetRecipientViewRequest(attrs *document.Object) {
	if attrs == nil {
		attrs = document.NewObject()
	}
	a.req.CreateRecipientViewReq = attrs.Clone()
}

// Insert adds a block with the given scalar attributes.
//
// The two roots are handled by their setters: "recipientViewRequest" sets
// the view request and "envelopeDefinition" merges attrs into the envelope.
// Scalar-array types must go through InsertValues.
func (a *Assembler) Insert(objectType string, attrs *document.Object) error {
	switch objectType {
	case document.RecipientViewRequest:
		a.SetRecipientViewRequest(attrs)
		return nil
	case document.EnvelopeDefinition:
		for _, k := range attrs.Keys() {
			v, _ := attrs.Get(k)
			a.SetEnvelopeAttribute(k, v)
		}
		return nil
	}
	if err := a.checkKnown(objectType); err != nil {
		return err
	}
	if a.tables.IsScalarArray(objectType) {
		return &StyleError{ObjectType: objectType, ScalarArray: true}
	}
	if attrs == nil {
		attrs = document.NewObject()
	} else {
		attrs = attrs.Clone()
	}
	return a.insert(objectType, attrs)
}

// InsertValues appends values to a scalar-array block such as
// "signer_excludedDocuments". Repeated inserts under the same parent
// concatenate.
func (a *Assembler) InsertValues(objectType string, values []any) error {
	if err := a.checkKnown(objectType); err != nil {
		return err
	}
	if !a.tables.IsScalarArray(objectType) {
		return &StyleError{ObjectType: objectType}
	}
	return a.insert(objectType, slices.Clone(values))
}

// Request returns a copy of the request assembled so far.
func (a *Assembler) Request() document.Request {
	return a.req.Clone()
}

// Trail returns the object types in insertion order, starting with the
// envelope definition.
func (a *Assembler) Trail() []string {
	out := make([]string, len(a.trail))
	for i, e := range a.trail {
		out[i] = e.objectType
	}
	return out
}

func (a *Assembler) checkKnown(objectType string) error {
	return CheckKnown(a.tables, objectType)
}

// CheckKnown returns an *UnknownObjectError, with a hint for near misses,
// when tables does not define objectType.
func CheckKnown(tables *schema.Tables, objectType string) error {
	if tables.Known(objectType) {
		return nil
	}
	return &UnknownObjectError{
		ObjectType: objectType,
		Suggestion: suggest(objectType, tables.ObjectTypes(), 3),
	}
}

// insert runs the placement search. payload is *document.Object for object
// types and []any for scalar arrays.
func (a *Assembler) insert(objectType string, payload any) error {
	mark := len(a.trail)
	a.undo = a.undo[:0]

	placed := a.attach(objectType, payload, false)
	if !placed {
		for _, c := range a.tables.ContainersFor(objectType) {
			if a.attach(c, document.NewObject(), false) {
				placed = a.attach(objectType, payload, true)
				break
			}
		}
	}
	if !placed {
		placed = a.attach(objectType, payload, true)
	}
	if !placed {
		a.rollback(mark)
		err := a.insertionError(objectType)
		a.logger.Debug("block rejected", "type", objectType, "missing", err.Missing())
		return err
	}
	a.logger.Debug("block inserted", "type", objectType, "trail_len", len(a.trail), "synthesized", len(a.trail)-mark-1)
	a.undo = a.undo[:0]
	return nil
}

// attach scans the trail most-recent-first for a parent of objectType and
// places payload there. Auto-container parents are skipped unless
// containerOK. Asking to attach an auto-container that the scan meets
// before any parent counts as success without inserting anything.
func (a *Assembler) attach(objectType string, payload any, containerOK bool) bool {
	insertingContainer := a.tables.IsAutoContainer(objectType)
	for i := len(a.trail) - 1; i >= 0; i-- {
		cand := a.trail[i]
		if insertingContainer && cand.objectType == objectType {
			return true
		}
		if cand.node == nil || !a.tables.IsParent(objectType, cand.objectType) {
			continue
		}
		if !containerOK && a.tables.IsAutoContainer(cand.objectType) {
			continue
		}
		link, ok := a.tables.Link(cand.objectType, objectType)
		if !ok {
			continue
		}
		if a.place(cand.node, link, objectType, payload) {
			return true
		}
	}
	return false
}

func (a *Assembler) place(parent *document.Object, link schema.ChildLink, objectType string, payload any) bool {
	prev, had := parent.Get(link.Attribute)
	switch link.Style {
	case schema.StyleObject:
		obj, ok := payload.(*document.Object)
		if !ok || (had && prev != nil) {
			return false
		}
		a.set(parent, link.Attribute, obj, prev, had)
		a.trail = append(a.trail, entry{objectType: objectType, node: obj})
	case schema.StyleArrayOfObject:
		obj, ok := payload.(*document.Object)
		arr, isArr := prev.([]any)
		if !ok || (had && prev != nil && !isArr) {
			return false
		}
		next := append(slices.Clone(arr), obj)
		a.set(parent, link.Attribute, next, prev, had)
		a.trail = append(a.trail, entry{objectType: objectType, node: obj})
	case schema.StyleArrayOfScalar:
		values, ok := payload.([]any)
		arr, isArr := prev.([]any)
		if !ok || (had && prev != nil && !isArr) {
			return false
		}
		next := append(slices.Clone(arr), values...)
		a.set(parent, link.Attribute, next, prev, had)
		a.trail = append(a.trail, entry{objectType: objectType})
	default:
		return false
	}
	return true
}

// set writes parent[attr] and records how to restore the previous value.
func (a *Assembler) set(parent *document.Object, attr string, value, prev any, had bool) {
	parent.Set(attr, value)
	a.undo = append(a.undo, func() {
		if had {
			parent.Set(attr, prev)
		} else {
			parent.Delete(attr)
		}
	})
}

func (a *Assembler) rollback(mark int) {
	for i := len(a.undo) - 1; i >= 0; i-- {
		a.undo[i]()
	}
	a.undo = a.undo[:0]
	a.trail = a.trail[:mark]
}

func (a *Assembler) insertionError(objectType string) *InsertionError {
	err := &InsertionError{ObjectType: objectType}
	for _, p := range a.tables.ParentsOf(objectType) {
		if !a.tables.IsAutoContainer(p) {
			err.DirectParents = append(err.DirectParents, p)
		}
	}
	for _, c := range a.tables.ContainersFor(objectType) {
		err.ViaContainers = append(err.ViaContainers, a.tables.ParentsOf(c)...)
	}
	return err
}
