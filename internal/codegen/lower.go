package codegen

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/docusign/api-request-builder-open-src/internal/document"
	"github.com/docusign/api-request-builder-open-src/internal/schema"
)

// namer hands out numbered variable names: the first "signer" is
// "signer1", the next "signer2".
type namer map[string]int

func (n namer) next(base string) string {
	n[base]++
	return base + strconv.Itoa(n[base])
}

// lowering converts one request object tree into fragments for lang.
// A lowering is used for a single generation pass.
type lowering struct {
	tables *schema.Tables
	lang   FragmentLanguage
	logger *slog.Logger
	names  namer
	out    []string
}

func newLowering(tables *schema.Tables, lang FragmentLanguage, logger *slog.Logger) *lowering {
	return &lowering{tables: tables, lang: lang, logger: logger, names: namer{}}
}

// root lowers a whole root object and returns the joined fragments. The
// root variable keeps its unnumbered name.
func (l *lowering) root(objectType string, o *document.Object) string {
	l.out = l.out[:0]
	l.object(objectType, objectType, objectType, o)
	return strings.Join(l.out, "\n")
}

type attrClass int

const (
	classScalar attrClass = iota
	classObject
	classObjectArray
	classScalarArray
)

// classify decides how attr of objectType is lowered. The schema decides
// first; attributes it does not describe are classified by value shape.
func (l *lowering) classify(objectType, attr string, v any) (attrClass, schema.AttrInfo) {
	if info, ok := l.tables.Attribute(objectType, attr); ok {
		switch {
		case info.ItemType == schema.StyleObject && isObject(v):
			return classObject, info
		case info.ItemType == schema.StyleArrayOfObject && isArray(v):
			return classObjectArray, info
		case info.ItemType == schema.StyleArrayOfScalar && isArray(v):
			return classScalarArray, info
		}
		return classScalar, info
	}
	switch t := v.(type) {
	case *document.Object:
		return classObject, schema.AttrInfo{ItemType: schema.StyleObject, ObjectName: attr}
	case []any:
		for _, e := range t {
			if isObject(e) {
				return classObjectArray, schema.AttrInfo{ItemType: schema.StyleArrayOfObject, ObjectName: singular(attr)}
			}
		}
		return classScalarArray, schema.AttrInfo{ItemType: schema.StyleArrayOfScalar, ScalarType: "string"}
	}
	return classScalar, schema.AttrInfo{}
}

// object lowers o, emitting its children's fragments before its own.
func (l *lowering) object(objectType, sdkType, varName string, o *document.Object) {
	var objs, objArrays, scalarArrays, scalars []string
	infos := make(map[string]schema.AttrInfo)
	for _, attr := range o.Keys() {
		v, _ := o.Get(attr)
		class, info := l.classify(objectType, attr, v)
		infos[attr] = info
		switch class {
		case classObject:
			objs = append(objs, attr)
		case classObjectArray:
			objArrays = append(objArrays, attr)
		case classScalarArray:
			scalarArrays = append(scalarArrays, attr)
		default:
			scalars = append(scalars, attr)
		}
	}

	attrs := make([]Attribute, 0, o.Len())

	for _, attr := range objs {
		v, _ := o.Get(attr)
		info := infos[attr]
		name := l.names.next(attr)
		attrs = append(attrs, Attribute{Name: attr, Kind: AttrVariable, Var: name})
		l.object(info.ObjectName, info.SDKName(), name, v.(*document.Object))
	}

	for _, attr := range objArrays {
		v, _ := o.Get(attr)
		info := infos[attr]
		name := l.names.next(attr)
		attrs = append(attrs, Attribute{Name: attr, Kind: AttrVariable, Var: name})
		var items []string
		for _, e := range v.([]any) {
			elem, ok := e.(*document.Object)
			if !ok {
				continue
			}
			itemName := l.names.next(singular(attr))
			items = append(items, itemName)
			l.object(info.ObjectName, info.SDKName(), itemName, elem)
		}
		l.out = append(l.out, l.lang.ArrayFragment(ArrayFragment{
			Var:        name,
			ObjectType: info.ObjectName,
			SDKType:    info.SDKName(),
			Items:      items,
		}))
	}

	for _, attr := range scalarArrays {
		v, _ := o.Get(attr)
		info := infos[attr]
		name := l.names.next(attr)
		attrs = append(attrs, Attribute{Name: attr, Kind: AttrVariable, Var: name})
		if info.ScalarType != "string" {
			l.logger.Warn("array of scalars is not an array of strings",
				"object", objectType, "attribute", attr, "scalar_type", info.ScalarType)
		}
		l.out = append(l.out, l.lang.ScalarArrayFragment(ScalarArrayFragment{
			Var:   name,
			Items: v.([]any),
		}))
	}

	for _, attr := range scalars {
		v, _ := o.Get(attr)
		attrs = append(attrs, Attribute{Name: attr, Kind: AttrScalar, Value: v})
	}

	sort.SliceStable(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })

	if objectType == "document" {
		for i := range attrs {
			if attrs[i].Name != "filename" {
				continue
			}
			filename := fmt.Sprint(attrs[i].Value)
			attrs[i] = Attribute{
				Name:     "documentBase64",
				Kind:     AttrDocumentContent,
				Filename: filename,
				Comment:  "filename is " + filename,
			}
			break
		}
	}

	l.out = append(l.out, l.lang.ObjectFragment(ObjectFragment{
		Var:        varName,
		ObjectType: objectType,
		SDKType:    sdkType,
		Attributes: attrs,
	}))
}

func isObject(v any) bool {
	_, ok := v.(*document.Object)
	return ok
}

func isArray(v any) bool {
	_, ok := v.([]any)
	return ok
}

func singular(attr string) string {
	s := inflect.Singularize(attr)
	if s == "" {
		return attr
	}
	return s
}
