package codegen

import "github.com/docusign/api-request-builder-open-src/internal/document"

// JSON emits the assembled request itself, pretty printed.
type JSON struct{}

func (JSON) Name() string         { return "JSON" }
func (JSON) DisplayName() string  { return "JSON" }
func (JSON) TemplateName() string { return "json.json.tmpl" }

func (JSON) DocumentSections(req document.Request) (Sections, error) {
	b, err := document.MarshalIndent(req, "    ")
	if err != nil {
		return Sections{}, err
	}
	return Sections{EnvelopeDefinition: string(b)}, nil
}
