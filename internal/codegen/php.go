package codegen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/docusign/api-request-builder-open-src/internal/casing"
)

// PHP targets the docusign/esign-client Composer package.
type PHP struct{}

var phpLiterals = literals{
	True: "true", False: "false", Null: "null",
	escape: phpEscape,
}

var jsonUnicodeEscape = regexp.MustCompile(`(\\+)u([0-9a-fA-F]{4})`)

// phpEscape adapts a JSON string literal to a double-quoted PHP string:
// "$name" would interpolate, and PHP spells \uXXXX as \u{XXXX}.
func phpEscape(s string) string {
	s = jsonUnicodeEscape.ReplaceAllStringFunc(s, func(m string) string {
		sub := jsonUnicodeEscape.FindStringSubmatch(m)
		if len(sub[1])%2 == 0 {
			// an escaped backslash followed by a literal "u"
			return m
		}
		return sub[1] + "u{" + sub[2] + "}"
	})
	return strings.ReplaceAll(s, "$", `\$`)
}

func (PHP) Name() string         { return "PHP" }
func (PHP) DisplayName() string  { return "PHP" }
func (PHP) TemplateName() string { return "php.php.tmpl" }

func (PHP) Rules() Rules {
	return Rules{
		Var:  Rule{Case: casing.Snake, Prefix: "$"},
		Obj:  Rule{Case: casing.Pascal},
		Attr: Rule{Case: casing.Snake, Prefix: "'", Postfix: "'"},
	}
}

func (p PHP) ArrayFragment(f ArrayFragment) string {
	rules := p.Rules()
	return fmt.Sprintf("%s%s = [%s];", jsIndent, rules.Var.Apply(f.Var), varList(rules, f.Items))
}

func (p PHP) ScalarArrayFragment(f ScalarArrayFragment) string {
	return fmt.Sprintf("%s%s = [%s];", jsIndent, p.Rules().Var.Apply(f.Var), phpLiterals.list(f.Items))
}

func (p PHP) ObjectFragment(f ObjectFragment) string {
	rules := p.Rules()
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s = new \\DocuSign\\eSign\\Model\\%s([\n", jsIndent, rules.Var.Apply(f.Var), rules.Obj.Apply(f.SDKType))
	for i, a := range f.Attributes {
		sep := ","
		if i == len(f.Attributes)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "%s%s%s => %s%s%s\n", jsIndent, jsIndent, rules.Attr.Apply(a.Name),
			phpLiterals.value(a, rules, p.readDocument), sep, comment("#", a.Comment))
	}
	b.WriteString(jsIndent + jsIndent + "]);")
	return b.String()
}

func (PHP) readDocument(filename string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(filename)
	return fmt.Sprintf("base64_encode(file_get_contents($docs_path.'%s'))", escaped)
}

func (PHP) ViewRequestSection(lowered string) string {
	if lowered == "" {
		return jsIndent + "$recipient_view_request = FALSE;"
	}
	return lowered
}
