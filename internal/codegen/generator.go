// Package codegen renders an assembled request as example source code for
// the eSignature SDKs.
//
// Fragment languages rebuild the request as SDK object constructions: each
// nested object gets its own variable, emitted before the object that uses
// it, and attributes are listed in lexicographic order. Document languages
// embed the request as JSON. Either way the result is spliced into a
// per-language boilerplate program.
package codegen

import (
	"bytes"
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"text/template"
	"time"

	"github.com/docusign/api-request-builder-open-src/internal/document"
	"github.com/docusign/api-request-builder-open-src/internal/schema"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var boilerplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Sections are the two request-dependent parts of a program. They depend
// only on the request and the language, so they can be cached.
type Sections struct {
	EnvelopeDefinition   string
	RecipientViewRequest string
}

// templateData is what the boilerplates see.
type templateData struct {
	Generated            string
	GeneratedYear        int
	AccessToken          string
	AccountID            string
	EnvelopeDefinition   string
	RecipientViewRequest string
}

// Generator produces programs. It is safe for concurrent use; every call
// owns its own variable naming state.
type Generator struct {
	tables      *schema.Tables
	languages   *Registry
	accountID   string
	accessToken string
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithAccount sets the account id and access token written into programs.
func WithAccount(accountID, accessToken string) Option {
	return func(g *Generator) {
		g.accountID = accountID
		g.accessToken = accessToken
	}
}

// WithClock sets the time source for the generation stamp.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithLogger sets the logger for generation warnings.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New returns a generator over the given schema and languages.
func New(tables *schema.Tables, languages *Registry, opts ...Option) *Generator {
	g := &Generator{
		tables:    tables,
		languages: languages,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Languages returns the generator's language registry.
func (g *Generator) Languages() *Registry { return g.languages }

// Unsupported is the text returned in place of a program for a language
// without an implementation.
func Unsupported(displayName string) string {
	return fmt.Sprintf("Sorry, %s is not yet implemented", displayName)
}

// Generate returns the program for req in the named language. For a
// language that is not implemented the result is the Unsupported text and
// a nil error.
func (g *Generator) Generate(req document.Request, language string) (string, error) {
	lang, ok := g.languages.Get(language)
	if !ok {
		return Unsupported(g.languages.DisplayName(language)), nil
	}
	sections, err := g.Sections(req, lang)
	if err != nil {
		return "", err
	}
	return g.Render(sections, lang)
}

// Sections lowers req for lang.
func (g *Generator) Sections(req document.Request, lang Language) (Sections, error) {
	switch l := lang.(type) {
	case DocumentLanguage:
		return l.DocumentSections(req)
	case FragmentLanguage:
		low := newLowering(g.tables, l, g.logger)
		env := req.EnvelopeDefinition
		if env == nil {
			env = document.NewObject()
		}
		s := Sections{EnvelopeDefinition: low.root(document.EnvelopeDefinition, env)}
		var view string
		if req.CreateRecipientViewReq != nil {
			view = low.root(document.RecipientViewRequest, req.CreateRecipientViewReq)
		}
		s.RecipientViewRequest = l.ViewRequestSection(view)
		return s, nil
	default:
		return Sections{}, fmt.Errorf("codegen: language %s has no lowering", lang.Name())
	}
}

// Render splices sections into lang's boilerplate and fills in the
// generation stamp and account details.
func (g *Generator) Render(s Sections, lang Language) (string, error) {
	now := g.now().UTC()
	data := templateData{
		Generated:            now.Format(http.TimeFormat),
		GeneratedYear:        now.Year(),
		AccessToken:          g.accessToken,
		AccountID:            g.accountID,
		EnvelopeDefinition:   s.EnvelopeDefinition,
		RecipientViewRequest: s.RecipientViewRequest,
	}
	var buf bytes.Buffer
	if err := boilerplates.ExecuteTemplate(&buf, lang.TemplateName(), data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", lang.Name(), err)
	}
	return buf.String(), nil
}
