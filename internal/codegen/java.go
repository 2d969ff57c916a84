package codegen

import (
	"fmt"
	"strings"

	"github.com/docusign/api-request-builder-open-src/internal/casing"
)

// Java targets the docusign-esign-java Maven artifact. Objects are built
// with setters rather than initializers.
type Java struct{}

const javaLineIndent = "        "

func (Java) Name() string         { return "Java" }
func (Java) DisplayName() string  { return "Java" }
func (Java) TemplateName() string { return "java.java.tmpl" }

func (Java) Rules() Rules {
	return Rules{
		Var:  Rule{Case: casing.Camel},
		Obj:  Rule{Case: casing.Pascal},
		Attr: Rule{Case: casing.Pascal},
	}
}

func (j Java) ArrayFragment(f ArrayFragment) string {
	rules := j.Rules()
	return fmt.Sprintf("%sList<%s> %s = Arrays.asList(%s);", javaLineIndent, rules.Obj.Apply(f.SDKType), rules.Var.Apply(f.Var), varList(rules, f.Items))
}

func (j Java) ScalarArrayFragment(f ScalarArrayFragment) string {
	return fmt.Sprintf("%sList<String> %s = Arrays.asList(%s);", javaLineIndent, j.Rules().Var.Apply(f.Var), cLike.list(f.Items))
}

func (j Java) ObjectFragment(f ObjectFragment) string {
	rules := j.Rules()
	typ := rules.Obj.Apply(f.SDKType)
	v := rules.Var.Apply(f.Var)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s%s %s = new %s();", javaLineIndent, typ, v, typ)
	for _, a := range f.Attributes {
		fmt.Fprintf(&b, "\n%s%s.set%s(%s);%s", javaLineIndent, v, rules.Attr.Apply(a.Name),
			cLike.value(a, rules, j.readDocument), comment("//", a.Comment))
	}
	return b.String()
}

func (Java) readDocument(filename string) string {
	return fmt.Sprintf("readContentB64(%s)", jsonQuote(filename))
}

func (Java) ViewRequestSection(lowered string) string {
	if lowered == "" {
		return javaLineIndent + "Boolean doRecipientView = Boolean.FALSE;\n" +
			javaLineIndent + "RecipientViewRequest recipientViewRequest = null;"
	}
	return javaLineIndent + "Boolean doRecipientView = Boolean.TRUE;\n" + strings.TrimPrefix(lowered, "\n")
}
