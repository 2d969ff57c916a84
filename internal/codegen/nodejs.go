package codegen

import (
	"fmt"
	"strings"

	"github.com/docusign/api-request-builder-open-src/internal/casing"
)

// NodeJS targets the docusign-esign npm package. Names are used as they
// appear in the schema.
type NodeJS struct{}

const jsIndent = "    "

func (NodeJS) Name() string         { return "NodeJS" }
func (NodeJS) DisplayName() string  { return "Node.JS" }
func (NodeJS) TemplateName() string { return "nodejs.js.tmpl" }

func (NodeJS) Rules() Rules {
	return Rules{
		Var:  Rule{Case: identity},
		Obj:  Rule{Case: casing.Pascal},
		Attr: Rule{Case: identity},
	}
}

func (n NodeJS) ArrayFragment(f ArrayFragment) string {
	return fmt.Sprintf("%slet %s = [%s];", jsIndent, f.Var, varList(n.Rules(), f.Items))
}

func (NodeJS) ScalarArrayFragment(f ScalarArrayFragment) string {
	return fmt.Sprintf("%slet %s = [%s];", jsIndent, f.Var, cLike.list(f.Items))
}

func (n NodeJS) ObjectFragment(f ObjectFragment) string {
	rules := n.Rules()
	var b strings.Builder
	fmt.Fprintf(&b, "%slet %s = docusign.%s.constructFromObject({\n", jsIndent, f.Var, rules.Obj.Apply(f.SDKType))
	for i, a := range f.Attributes {
		sep := ","
		if i == len(f.Attributes)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "%s%s%s: %s%s%s\n", jsIndent, jsIndent, rules.Attr.Apply(a.Name),
			cLike.value(a, rules, n.readDocument), sep, comment("//", a.Comment))
	}
	b.WriteString(jsIndent + jsIndent + "});")
	return b.String()
}

func (NodeJS) readDocument(filename string) string {
	return fmt.Sprintf("await readDocFileB64(%s)", jsonQuote(filename))
}

func (NodeJS) ViewRequestSection(lowered string) string {
	if lowered == "" {
		return jsIndent + "let recipientViewRequest = false;"
	}
	return lowered
}
