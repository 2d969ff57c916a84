package codegen

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/docusign/api-request-builder-open-src/internal/document"
)

// Language is a generation target.
type Language interface {
	// Name is the registry key, e.g. "CSharp".
	Name() string
	// DisplayName is the human name, e.g. "C#".
	DisplayName() string
	// TemplateName names the boilerplate under templates/.
	TemplateName() string
}

// FragmentLanguage targets an SDK: the request is rebuilt as a sequence of
// object constructions, one variable per object.
type FragmentLanguage interface {
	Language
	Rules() Rules
	// ObjectFragment assigns a new SDK object to a variable.
	ObjectFragment(f ObjectFragment) string
	// ArrayFragment assigns a list of object variables to a variable.
	ArrayFragment(f ArrayFragment) string
	// ScalarArrayFragment assigns a list of literals to a variable.
	ScalarArrayFragment(f ScalarArrayFragment) string
	// ViewRequestSection wraps the lowered recipient view request for the
	// boilerplate. lowered is empty when the request has no view.
	ViewRequestSection(lowered string) string
}

// DocumentLanguage embeds the request as serialized JSON instead of SDK
// calls.
type DocumentLanguage interface {
	Language
	DocumentSections(req document.Request) (Sections, error)
}

// Rule is one identifier convention: a casing function plus literal text
// around the result.
type Rule struct {
	Case    func(string) string
	Prefix  string
	Postfix string
}

// Apply converts name under the rule.
func (r Rule) Apply(name string) string {
	if r.Case != nil {
		name = r.Case(name)
	}
	return r.Prefix + name + r.Postfix
}

// Rules are a language's conventions for variables, SDK types, and
// attribute references.
type Rules struct {
	Var  Rule
	Obj  Rule
	Attr Rule
}

// AttrKind says how an attribute's value is written.
type AttrKind int

const (
	// AttrScalar is a literal value.
	AttrScalar AttrKind = iota
	// AttrVariable refers to a variable holding an object or list.
	AttrVariable
	// AttrDocumentContent reads a file and base64-encodes it.
	AttrDocumentContent
)

// Attribute is one entry of a construct-object fragment. Names and
// variables are schema spellings; formatters apply their Rules.
type Attribute struct {
	Name     string
	Kind     AttrKind
	Value    any
	Var      string
	Filename string
	Comment  string
}

// ObjectFragment describes a new object bound to Var.
type ObjectFragment struct {
	Var        string
	ObjectType string
	SDKType    string
	Attributes []Attribute
}

// ArrayFragment describes a list of object variables bound to Var.
type ArrayFragment struct {
	Var        string
	ObjectType string
	SDKType    string
	Items      []string
}

// ScalarArrayFragment describes a list of literals bound to Var.
type ScalarArrayFragment struct {
	Var   string
	Items []any
}

// literals is how a language spells the non-string scalars and escapes
// strings.
type literals struct {
	True, False, Null string
	// escape post-processes a JSON-quoted string literal.
	escape func(string) string
}

var cLike = literals{True: "true", False: "false", Null: "null"}

func (l literals) format(v any) string {
	switch t := v.(type) {
	case nil:
		return l.Null
	case bool:
		if t {
			return l.True
		}
		return l.False
	case string:
		return l.quote(t)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		// Nested values under attributes the schema does not know about.
		b, err := document.Marshal(t)
		if err != nil {
			return l.quote(fmt.Sprint(t))
		}
		return l.quote(string(b))
	}
}

func (l literals) quote(s string) string {
	q := jsonQuote(s)
	if l.escape != nil {
		q = l.escape(q)
	}
	return q
}

func (l literals) list(items []any) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = l.format(it)
	}
	return strings.Join(parts, ", ")
}

// value renders an attribute's right-hand side. docCall builds the
// read-and-encode expression for a filename.
func (l literals) value(a Attribute, rules Rules, docCall func(string) string) string {
	switch a.Kind {
	case AttrVariable:
		return rules.Var.Apply(a.Var)
	case AttrDocumentContent:
		return docCall(a.Filename)
	default:
		return l.format(a.Value)
	}
}

func jsonQuote(s string) string {
	b, err := document.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(b)
}

func varList(rules Rules, items []string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = rules.Var.Apply(it)
	}
	return strings.Join(parts, ", ")
}

// comment returns " <marker> text" or "".
func comment(marker, text string) string {
	if text == "" {
		return ""
	}
	return " " + marker + " " + text
}

func identity(s string) string { return s }
