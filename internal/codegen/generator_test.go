package codegen

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docusign/api-request-builder-open-src/internal/assembler"
	"github.com/docusign/api-request-builder-open-src/internal/document"
	"github.com/docusign/api-request-builder-open-src/internal/schema"
)

var fixedTime = time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC)

func testGenerator(t *testing.T, opts ...Option) *Generator {
	t.Helper()
	tbl, err := schema.Default()
	require.NoError(t, err)
	opts = append([]Option{WithClock(func() time.Time { return fixedTime })}, opts...)
	return New(tbl, DefaultRegistry(), opts...)
}

// sampleRequest builds the classic embedded signing example: one
// document, one signer with a sign here tab, and a view request.
func sampleRequest(t *testing.T, withView bool) document.Request {
	t.Helper()
	a := assembler.New(schema.MustDefault())
	a.SetEnvelopeAttribute("emailSubject", "Please sign the attached document")
	a.SetEnvelopeAttribute("status", "sent")
	require.NoError(t, a.Insert("document", document.ObjectOf(
		"filename", "anchorfields.pdf",
		"name", "Example document",
		"fileExtension", "pdf",
		"documentId", "1",
	)))
	require.NoError(t, a.Insert("signer", document.ObjectOf(
		"email", "signer_email@example.com",
		"name", "Signer's name",
		"recipientId", "1",
		"clientUserId", "1000",
	)))
	require.NoError(t, a.Insert("signHere", document.ObjectOf(
		"anchorString", "/sig1/",
		"anchorXOffset", "20",
		"anchorUnits", "pixels",
	)))
	if withView {
		require.NoError(t, a.Insert("recipientViewRequest", document.ObjectOf(
			"returnUrl", "https://docusign.com",
			"authenticationMethod", "none",
			"clientUserId", "1000",
			"email", "signer_email@example.com",
			"userName", "Signer's name",
		)))
	}
	return a.Request()
}

func sections(t *testing.T, g *Generator, req document.Request, language string) Sections {
	t.Helper()
	lang, ok := g.Languages().Get(language)
	require.True(t, ok)
	s, err := g.Sections(req, lang)
	require.NoError(t, err)
	return s
}

func TestNodeJSLowering(t *testing.T) {
	g := testGenerator(t)
	s := sections(t, g, sampleRequest(t, false), "NodeJS")

	want := strings.Join([]string{
		`    let signHereTab1 = docusign.SignHere.constructFromObject({`,
		`        anchorString: "/sig1/",`,
		`        anchorUnits: "pixels",`,
		`        anchorXOffset: "20"`,
		`        });`,
		`    let signHereTabs1 = [signHereTab1];`,
		`    let tabs1 = docusign.Tabs.constructFromObject({`,
		`        signHereTabs: signHereTabs1`,
		`        });`,
		`    let signer1 = docusign.Signer.constructFromObject({`,
		`        clientUserId: "1000",`,
		`        email: "signer_email@example.com",`,
		`        name: "Signer's name",`,
		`        recipientId: "1",`,
		`        tabs: tabs1`,
		`        });`,
		`    let signers1 = [signer1];`,
		`    let recipients1 = docusign.Recipients.constructFromObject({`,
		`        signers: signers1`,
		`        });`,
		`    let document1 = docusign.Document.constructFromObject({`,
		`        documentId: "1",`,
		`        fileExtension: "pdf",`,
		`        documentBase64: await readDocFileB64("anchorfields.pdf"), // filename is anchorfields.pdf`,
		`        name: "Example document"`,
		`        });`,
		`    let documents1 = [document1];`,
		`    let envelopeDefinition = docusign.EnvelopeDefinition.constructFromObject({`,
		`        documents: documents1,`,
		`        emailSubject: "Please sign the attached document",`,
		`        recipients: recipients1,`,
		`        status: "sent"`,
		`        });`,
	}, "\n")
	assert.Equal(t, want, s.EnvelopeDefinition)
	assert.Equal(t, "    let recipientViewRequest = false;", s.RecipientViewRequest)
}

func TestPythonLowering(t *testing.T) {
	g := testGenerator(t)
	s := sections(t, g, sampleRequest(t, true), "Python")

	assert.Contains(t, s.EnvelopeDefinition, strings.Join([]string{
		`    sign_here_tab1 = docusign.SignHere(`,
		`        anchor_string = "/sig1/",`,
		`        anchor_units = "pixels",`,
		`        anchor_x_offset = "20"`,
		`        )`,
		`    sign_here_tabs1 = [sign_here_tab1]`,
	}, "\n"))
	assert.Contains(t, s.EnvelopeDefinition,
		`        document_base64 = read_doc_file_base64("anchorfields.pdf"), # filename is anchorfields.pdf`)
	assert.True(t, strings.HasPrefix(s.RecipientViewRequest, "    recipient_view_request = docusign.RecipientViewRequest(\n"))
	assert.Contains(t, s.RecipientViewRequest, `        user_name = "Signer's name"`)
}

func TestPHPLowering(t *testing.T) {
	g := testGenerator(t)
	req := sampleRequest(t, false)
	req.EnvelopeDefinition.Set("emailBlurb", "Costs $5")
	s := sections(t, g, req, "PHP")

	assert.Contains(t, s.EnvelopeDefinition, strings.Join([]string{
		`    $signer1 = new \DocuSign\eSign\Model\Signer([`,
		`        'client_user_id' => "1000",`,
		`        'email' => "signer_email@example.com",`,
		`        'name' => "Signer's name",`,
		`        'recipient_id' => "1",`,
		`        'tabs' => $tabs1`,
		`        ]);`,
	}, "\n"))
	assert.Contains(t, s.EnvelopeDefinition,
		`        'document_base64' => base64_encode(file_get_contents($docs_path.'anchorfields.pdf')), # filename is anchorfields.pdf`)
	assert.Contains(t, s.EnvelopeDefinition, `'email_blurb' => "Costs \$5",`)
	assert.Equal(t, "    $recipient_view_request = FALSE;", s.RecipientViewRequest)
}

func TestPHPStringEscapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"interpolation", "Costs $5", `"Costs \$5"`},
		{"line separator", "a\u2028b", `"a\u{2028}b"`},
		{"control character", "a\x01b", `"a\u{0001}b"`},
		{"newline", "a\nb", `"a\nb"`},
		{"literal backslash u", `C:\u0041`, `"C:\\u0041"`},
		{"backslash before escape", "\\\u2029", `"\\\u{2029}"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, phpLiterals.format(tt.in))
		})
	}
}

func TestRubyLowering(t *testing.T) {
	g := testGenerator(t)
	s := sections(t, g, sampleRequest(t, false), "Ruby")

	assert.Contains(t, s.EnvelopeDefinition, strings.Join([]string{
		`    sign_here_tab1 = DocuSign_eSign::SignHere.new({`,
		`        :anchorString => "/sig1/",`,
		`        :anchorUnits => "pixels",`,
		`        :anchorXOffset => "20"`,
		`        })`,
	}, "\n"))
	assert.Contains(t, s.EnvelopeDefinition, `:documentBase64 => Base64.encode64(File.binread("anchorfields.pdf")),`)
	assert.Equal(t, "    recipient_view_request = false", s.RecipientViewRequest)
}

func TestCSharpLowering(t *testing.T) {
	g := testGenerator(t)
	s := sections(t, g, sampleRequest(t, false), "CSharp")

	assert.Contains(t, s.EnvelopeDefinition, strings.Join([]string{
		"\t\t\tSigner signer1 = new Signer",
		"\t\t\t{",
		"\t\t\t\tClientUserId = \"1000\",",
		"\t\t\t\tEmail = \"signer_email@example.com\",",
		"\t\t\t\tName = \"Signer's name\",",
		"\t\t\t\tRecipientId = \"1\",",
		"\t\t\t\tTabs = tabs1",
		"\t\t\t};",
		"\t\t\tList<Signer> signers1 = new List<Signer> {signer1};",
	}, "\n"))
	assert.Contains(t, s.EnvelopeDefinition, "\t\t\t\tDocumentBase64 = ReadContent(\"anchorfields.pdf\"), // filename is anchorfields.pdf")
	assert.Equal(t, "\t\t\tbool doRecipientView = false;\n\t\t\tRecipientViewRequest recipientViewRequest = null;", s.RecipientViewRequest)

	withView := sections(t, g, sampleRequest(t, true), "CSharp")
	assert.True(t, strings.HasPrefix(withView.RecipientViewRequest,
		"\t\t\tbool doRecipientView = true;\n\t\t\tRecipientViewRequest recipientViewRequest = new RecipientViewRequest\n"))
}

func TestJavaLowering(t *testing.T) {
	g := testGenerator(t)
	s := sections(t, g, sampleRequest(t, true), "Java")

	assert.Contains(t, s.EnvelopeDefinition, strings.Join([]string{
		"",
		"        Signer signer1 = new Signer();",
		`        signer1.setClientUserId("1000");`,
		`        signer1.setEmail("signer_email@example.com");`,
		`        signer1.setName("Signer's name");`,
		`        signer1.setRecipientId("1");`,
		`        signer1.setTabs(tabs1);`,
		"        List<Signer> signers1 = Arrays.asList(signer1);",
	}, "\n"))
	assert.Contains(t, s.EnvelopeDefinition,
		`        document1.setDocumentBase64(readContentB64("anchorfields.pdf")); // filename is anchorfields.pdf`)
	assert.True(t, strings.HasPrefix(s.RecipientViewRequest,
		"        Boolean doRecipientView = Boolean.TRUE;\n        RecipientViewRequest recipientViewRequest = new RecipientViewRequest();\n"))
}

func TestAttributeOrderMatchesAcrossLanguages(t *testing.T) {
	g := testGenerator(t)
	req := sampleRequest(t, true)
	values := []string{
		`"1000"`, `"signer_email@example.com"`, `"Signer's name"`, `"1"`,
	}
	for _, language := range []string{"NodeJS", "Python", "Ruby", "CSharp", "Java", "PHP"} {
		s := sections(t, g, req, language)
		signer := s.EnvelopeDefinition[strings.Index(s.EnvelopeDefinition, "signer1 ="):]
		last := -1
		for _, v := range values {
			idx := strings.Index(signer, v)
			require.GreaterOrEqual(t, idx, 0, "%s: %s missing", language, v)
			assert.Greater(t, idx, last, "%s: %s out of order", language, v)
			last = idx
		}
	}
}

func TestRepeatedNamesGetDistinctVariables(t *testing.T) {
	a := assembler.New(schema.MustDefault())
	for _, name := range []string{"first", "second"} {
		require.NoError(t, a.Insert("signer", document.ObjectOf("name", name)))
		require.NoError(t, a.Insert("signHere", document.ObjectOf("anchorString", "/"+name+"/")))
	}
	require.NoError(t, a.Insert("carbonCopy", document.ObjectOf("name", "cc")))
	require.NoError(t, a.Insert("signHere", document.ObjectOf("anchorString", "/cc/")))

	g := testGenerator(t)
	s := sections(t, g, a.Request(), "NodeJS")
	for _, v := range []string{"let tabs1 =", "let tabs2 =", "let tabs3 =", "let signHereTab1 =", "let signHereTab2 =", "let signHereTab3 =", "let signHereTabs3 ="} {
		assert.Equal(t, 1, strings.Count(s.EnvelopeDefinition, v), v)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := testGenerator(t, WithAccount("acct-123", "token-abc"))
	req := sampleRequest(t, true)

	for _, language := range DefaultRegistry().Names() {
		first, err := g.Generate(req, language)
		require.NoError(t, err)
		second, err := g.Generate(req, language)
		require.NoError(t, err)
		assert.Equal(t, first, second, language)
	}
}

func TestGenerateFillsBoilerplate(t *testing.T) {
	g := testGenerator(t, WithAccount("acct-123", "token-abc"))
	out, err := g.Generate(sampleRequest(t, false), "NodeJS")
	require.NoError(t, err)

	assert.Contains(t, out, "// Generated Fri, 02 Jan 2026 03:04:05 GMT")
	assert.Contains(t, out, "Copyright (c) 2026")
	assert.Contains(t, out, "const accessToken = 'token-abc';")
	assert.Contains(t, out, "const accountId = 'acct-123';")
	assert.Contains(t, out, "    let envelopeDefinition = docusign.EnvelopeDefinition.constructFromObject({")
	assert.Contains(t, out, "    let recipientViewRequest = false;")
	assert.NotContains(t, out, "{{")
}

func TestGenerateUnsupported(t *testing.T) {
	g := testGenerator(t)
	out, err := g.Generate(sampleRequest(t, false), "Go")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, Go is not yet implemented", out)

	out, err = g.Generate(sampleRequest(t, false), "Cobol")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, Cobol is not yet implemented", out)
}

func TestGenerateDoesNotModifyRequest(t *testing.T) {
	g := testGenerator(t)
	req := sampleRequest(t, true)
	before, err := document.Marshal(req)
	require.NoError(t, err)
	for _, language := range DefaultRegistry().Names() {
		_, err := g.Generate(req, language)
		require.NoError(t, err)
	}
	after, err := document.Marshal(req)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestVBSections(t *testing.T) {
	g := testGenerator(t)
	s := sections(t, g, sampleRequest(t, true), "VB")

	assert.True(t, strings.HasPrefix(s.EnvelopeDefinition, "        Dim envelopeDefinition As String = $\"{{\n"))
	assert.Contains(t, s.EnvelopeDefinition, `""emailSubject"": ""Please sign the attached document"",`)
	assert.NotContains(t, s.EnvelopeDefinition, `""filename""`)
	assert.Contains(t, s.EnvelopeDefinition, strings.Join([]string{
		`        Dim documents = {`,
		`            (mimeType:="application/pdf", filename:="Example document", documentId:="1", diskFilename:="anchorfields.pdf")`,
		`        }`,
	}, "\n"))
	assert.True(t, strings.HasPrefix(s.RecipientViewRequest,
		"        Dim doRecipientView As Boolean = True\n        Dim recipientViewRequest As String = $\"{{\n"))

	noView := sections(t, g, sampleRequest(t, false), "VB")
	assert.Equal(t, "        Dim doRecipientView As Boolean = False\n        Dim recipientViewRequest As String = \"\"", noView.RecipientViewRequest)
}

func TestManifest(t *testing.T) {
	env := document.ObjectOf("documents", []any{
		document.ObjectOf("filename", "terms.docx", "name", "Terms", "documentId", "7"),
		document.ObjectOf("filename", "scan.PNG"),
		document.ObjectOf("filename", "notes.txt", "fileExtension", "txt"),
	})
	m := Manifest(env)
	require.Len(t, m, 3)
	assert.Equal(t, ManifestEntry{
		MimeType:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Name:         "Terms",
		DocumentID:   "7",
		DiskFilename: "terms.docx",
	}, m[0])
	assert.Equal(t, ManifestEntry{MimeType: "image/png", Name: "scan.PNG", DocumentID: "2", DiskFilename: "scan.PNG"}, m[1])
	assert.Equal(t, "application/octet-stream", m[2].MimeType)
	assert.Equal(t, "application/pdf", MimeType(""))
}

func TestJSONLanguage(t *testing.T) {
	g := testGenerator(t)
	out, err := g.Generate(sampleRequest(t, true), "JSON")
	require.NoError(t, err)

	req, err := document.DecodeRequest([]byte(out))
	require.NoError(t, err)
	assert.True(t, req.HasRecipientView())
	assert.True(t, strings.HasPrefix(out, "{\n    \"envelopeDefinition\": {\n"))
}

func TestScalarArraysAndLiterals(t *testing.T) {
	a := assembler.New(schema.MustDefault())
	require.NoError(t, a.Insert("signer", document.ObjectOf("name", "S", "routingOrder", true)))
	require.NoError(t, a.InsertValues("signer_excludedDocuments", []any{"2", "3"}))

	g := testGenerator(t)
	node := sections(t, g, a.Request(), "NodeJS").EnvelopeDefinition
	assert.Contains(t, node, `    let excludedDocuments1 = ["2", "3"];`)
	assert.Contains(t, node, `        excludedDocuments: excludedDocuments1,`)
	assert.Contains(t, node, `        routingOrder: true`)

	py := sections(t, g, a.Request(), "Python").EnvelopeDefinition
	assert.Contains(t, py, `    excluded_documents1 = ["2", "3"]`)
	assert.Contains(t, py, `        routing_order = True`)

	cs := sections(t, g, a.Request(), "CSharp").EnvelopeDefinition
	assert.Contains(t, cs, "\t\t\tList<String> excludedDocuments1 = new List<String> {\"2\", \"3\"};")
}

func TestNonStringScalarArrayWarns(t *testing.T) {
	tbl, err := schema.Load(strings.NewReader(`{
		"version": "test",
		"parents": {"envelopeDefinition_pageCounts": {"envelopeDefinition": "pageCounts"}},
		"children": {"envelopeDefinition": {"envelopeDefinition_pageCounts": {"attribute": "pageCounts", "style": "arrayOfScalar"}}},
		"childAttributes": {"envelopeDefinition": {"pageCounts": {"itemType": "arrayOfScalar", "objectName": "envelopeDefinition_pageCounts", "scalarType": "integer"}}},
		"autoContainers": []
	}`), "test.json")
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	g := New(tbl, DefaultRegistry(), WithLogger(logger), WithClock(func() time.Time { return fixedTime }))

	req := document.NewRequest()
	req.EnvelopeDefinition.Set("pageCounts", []any{"1", "2"})
	out, err := g.Generate(req, "NodeJS")
	require.NoError(t, err)
	assert.Contains(t, out, `let pageCounts1 = ["1", "2"];`)
	assert.Contains(t, logs.String(), "array of scalars is not an array of strings")
	assert.Contains(t, logs.String(), "scalar_type=integer")
}

func TestRegistryListing(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"CSharp", "JSON", "Java", "NodeJS", "PHP", "Python", "Ruby", "VB"}, r.Names())
	assert.Equal(t, "C#", r.DisplayName("CSharp"))
	assert.Equal(t, "Visual Basic", r.DisplayName("VB"))
	assert.Equal(t, "Node.JS", r.DisplayName("NodeJS"))

	list := r.List()
	require.Len(t, list, 8)
	assert.Equal(t, Listing{Name: "CSharp", DisplayName: "C#"}, list[0])
	for _, l := range list {
		_, ok := r.Get(l.Name)
		assert.True(t, ok, l.Name)
	}
}
