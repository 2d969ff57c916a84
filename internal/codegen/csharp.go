package codegen

import (
	"fmt"
	"strings"

	"github.com/docusign/api-request-builder-open-src/internal/casing"
)

// CSharp targets the DocuSign.eSign NuGet package.
type CSharp struct{}

const (
	csIndent     = "\t"
	csLineIndent = "\t\t\t"
)

func (CSharp) Name() string         { return "CSharp" }
func (CSharp) DisplayName() string  { return "C#" }
func (CSharp) TemplateName() string { return "csharp.cs.tmpl" }

func (CSharp) Rules() Rules {
	return Rules{
		Var:  Rule{Case: casing.Camel},
		Obj:  Rule{Case: casing.Pascal},
		Attr: Rule{Case: casing.Pascal},
	}
}

func (c CSharp) ArrayFragment(f ArrayFragment) string {
	rules := c.Rules()
	typ := rules.Obj.Apply(f.SDKType)
	return fmt.Sprintf("%sList<%s> %s = new List<%s> {%s};", csLineIndent, typ, rules.Var.Apply(f.Var), typ, varList(rules, f.Items))
}

func (c CSharp) ScalarArrayFragment(f ScalarArrayFragment) string {
	return fmt.Sprintf("%sList<String> %s = new List<String> {%s};", csLineIndent, c.Rules().Var.Apply(f.Var), cLike.list(f.Items))
}

func (c CSharp) ObjectFragment(f ObjectFragment) string {
	rules := c.Rules()
	typ := rules.Obj.Apply(f.SDKType)
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s %s = new %s\n%s{\n", csLineIndent, typ, rules.Var.Apply(f.Var), typ, csLineIndent)
	for i, a := range f.Attributes {
		sep := ","
		if i == len(f.Attributes)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "%s%s%s = %s%s%s\n", csLineIndent, csIndent, rules.Attr.Apply(a.Name),
			cLike.value(a, rules, c.readDocument), sep, comment("//", a.Comment))
	}
	b.WriteString(csLineIndent + "};")
	return b.String()
}

func (CSharp) readDocument(filename string) string {
	return fmt.Sprintf("ReadContent(%s)", jsonQuote(filename))
}

// ViewRequestSection always declares recipientViewRequest so the
// boilerplate compiles whether or not a view was requested.
func (CSharp) ViewRequestSection(lowered string) string {
	if lowered == "" {
		return csLineIndent + "bool doRecipientView = false;\n" +
			csLineIndent + "RecipientViewRequest recipientViewRequest = null;"
	}
	return csLineIndent + "bool doRecipientView = true;\n" + lowered
}
