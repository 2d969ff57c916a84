package codegen

import (
	"fmt"
	"strings"

	"github.com/docusign/api-request-builder-open-src/internal/casing"
)

// Ruby targets the docusign_esign gem.
type Ruby struct{}

var rubyLiterals = literals{
	True: "true", False: "false", Null: "nil",
	escape: func(s string) string { return strings.ReplaceAll(s, "#{", `\#{`) },
}

func (Ruby) Name() string         { return "Ruby" }
func (Ruby) DisplayName() string  { return "Ruby" }
func (Ruby) TemplateName() string { return "ruby.rb.tmpl" }

func (Ruby) Rules() Rules {
	return Rules{
		Var:  Rule{Case: casing.Snake},
		Obj:  Rule{Case: casing.Pascal},
		Attr: Rule{Case: casing.Camel, Prefix: ":"},
	}
}

func (r Ruby) ArrayFragment(f ArrayFragment) string {
	rules := r.Rules()
	return fmt.Sprintf("%s%s = [%s]", jsIndent, rules.Var.Apply(f.Var), varList(rules, f.Items))
}

func (r Ruby) ScalarArrayFragment(f ScalarArrayFragment) string {
	return fmt.Sprintf("%s%s = [%s]", jsIndent, r.Rules().Var.Apply(f.Var), rubyLiterals.list(f.Items))
}

func (r Ruby) ObjectFragment(f ObjectFragment) string {
	rules := r.Rules()
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s = DocuSign_eSign::%s.new({\n", jsIndent, rules.Var.Apply(f.Var), rules.Obj.Apply(f.SDKType))
	for i, a := range f.Attributes {
		sep := ","
		if i == len(f.Attributes)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "%s%s%s => %s%s%s\n", jsIndent, jsIndent, rules.Attr.Apply(a.Name),
			rubyLiterals.value(a, rules, r.readDocument), sep, comment("#", a.Comment))
	}
	b.WriteString(jsIndent + jsIndent + "})")
	return b.String()
}

func (Ruby) readDocument(filename string) string {
	return fmt.Sprintf("Base64.encode64(File.binread(%s))", rubyLiterals.quote(filename))
}

func (Ruby) ViewRequestSection(lowered string) string {
	if lowered == "" {
		return jsIndent + "recipient_view_request = false"
	}
	return lowered
}
