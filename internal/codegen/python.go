package codegen

import (
	"fmt"
	"strings"

	"github.com/docusign/api-request-builder-open-src/internal/casing"
)

// Python targets the docusign_esign package, imported as docusign.
type Python struct{}

var pyLiterals = literals{True: "True", False: "False", Null: "None"}

func (Python) Name() string         { return "Python" }
func (Python) DisplayName() string  { return "Python" }
func (Python) TemplateName() string { return "python.py.tmpl" }

func (Python) Rules() Rules {
	return Rules{
		Var:  Rule{Case: casing.Snake},
		Obj:  Rule{Case: casing.Pascal},
		Attr: Rule{Case: casing.Snake},
	}
}

func (p Python) ArrayFragment(f ArrayFragment) string {
	rules := p.Rules()
	return fmt.Sprintf("%s%s = [%s]", jsIndent, rules.Var.Apply(f.Var), varList(rules, f.Items))
}

func (p Python) ScalarArrayFragment(f ScalarArrayFragment) string {
	return fmt.Sprintf("%s%s = [%s]", jsIndent, p.Rules().Var.Apply(f.Var), pyLiterals.list(f.Items))
}

func (p Python) ObjectFragment(f ObjectFragment) string {
	rules := p.Rules()
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s = docusign.%s(\n", jsIndent, rules.Var.Apply(f.Var), rules.Obj.Apply(f.SDKType))
	for i, a := range f.Attributes {
		sep := ","
		if i == len(f.Attributes)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "%s%s%s = %s%s%s\n", jsIndent, jsIndent, rules.Attr.Apply(a.Name),
			pyLiterals.value(a, rules, p.readDocument), sep, comment("#", a.Comment))
	}
	b.WriteString(jsIndent + jsIndent + ")")
	return b.String()
}

func (Python) readDocument(filename string) string {
	return fmt.Sprintf("read_doc_file_base64(%s)", jsonQuote(filename))
}

func (Python) ViewRequestSection(lowered string) string {
	if lowered == "" {
		return jsIndent + "recipient_view_request = False"
	}
	return lowered
}
