package codegen

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/docusign/api-request-builder-open-src/internal/document"
)

// VB targets Visual Basic .NET. The request is embedded as interpolated
// JSON strings, with a manifest of the files the program must upload.
type VB struct{}

const (
	vbIndent     = "    "
	vbLineIndent = "        "
)

var mimeTypes = map[string]string{
	"pdf":  "application/pdf",
	"html": "text/html",
	"htm":  "text/html",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"doc":  "application/msword",
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"ppt":  "application/vnd.ms-powerpoint",
	"rtf":  "application/rtf",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// MimeType maps a file extension to its content type. An empty extension
// means pdf; an unlisted one is sent as an octet stream.
func MimeType(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "pdf"
	}
	if m, ok := mimeTypes[ext]; ok {
		return m
	}
	return "application/octet-stream"
}

// ManifestEntry is one file the generated program uploads.
type ManifestEntry struct {
	MimeType     string
	Name         string
	DocumentID   string
	DiskFilename string
}

// Manifest lists the documents in env. Document ids are numbered from 1
// when a document has none. env is not modified.
func Manifest(env *document.Object) []ManifestEntry {
	docs := document.FindDocuments(env)
	out := make([]ManifestEntry, len(docs))
	for i, d := range docs {
		filename := stringAttr(d, "filename")
		ext := stringAttr(d, "fileExtension")
		if ext == "" {
			ext = strings.TrimPrefix(path.Ext(filename), ".")
		}
		e := ManifestEntry{
			MimeType:     MimeType(ext),
			Name:         stringAttr(d, "name"),
			DocumentID:   stringAttr(d, "documentId"),
			DiskFilename: filename,
		}
		if e.Name == "" {
			e.Name = filename
		}
		if e.DocumentID == "" {
			e.DocumentID = strconv.Itoa(i + 1)
		}
		out[i] = e
	}
	return out
}

func stringAttr(o *document.Object, key string) string {
	v, ok := o.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (VB) Name() string         { return "VB" }
func (VB) DisplayName() string  { return "Visual Basic" }
func (VB) TemplateName() string { return "vb.vb.tmpl" }

func (VB) DocumentSections(req document.Request) (Sections, error) {
	env := req.EnvelopeDefinition.Clone()
	if env == nil {
		env = document.NewObject()
	}
	manifest := Manifest(env)
	for _, d := range document.FindDocuments(env) {
		d.Delete("filename")
	}
	envJSON, err := vbString(env)
	if err != nil {
		return Sections{}, err
	}

	lines := []string{fmt.Sprintf("%sDim envelopeDefinition As String = $\"%s\"", vbLineIndent, envJSON)}
	lines = append(lines, vbLineIndent+"Dim documents = {")
	for i, m := range manifest {
		sep := ","
		if i == len(manifest)-1 {
			sep = ""
		}
		lines = append(lines, fmt.Sprintf(`%s%s(mimeType:="%s", filename:="%s", documentId:="%s", diskFilename:="%s")%s`,
			vbLineIndent, vbIndent, vbQuote(m.MimeType), vbQuote(m.Name), vbQuote(m.DocumentID), vbQuote(m.DiskFilename), sep))
	}
	lines = append(lines, vbLineIndent+"}")

	s := Sections{EnvelopeDefinition: strings.Join(lines, "\n")}
	if req.CreateRecipientViewReq == nil {
		s.RecipientViewRequest = vbLineIndent + "Dim doRecipientView As Boolean = False\n" +
			vbLineIndent + `Dim recipientViewRequest As String = ""`
		return s, nil
	}
	viewJSON, err := vbString(req.CreateRecipientViewReq)
	if err != nil {
		return Sections{}, err
	}
	s.RecipientViewRequest = vbLineIndent + "Dim doRecipientView As Boolean = True\n" +
		fmt.Sprintf("%sDim recipientViewRequest As String = $\"%s\"", vbLineIndent, viewJSON)
	return s, nil
}

// vbString renders o as indented JSON escaped for a VB interpolated string.
func vbString(o *document.Object) (string, error) {
	b, err := document.MarshalIndent(o, vbIndent)
	if err != nil {
		return "", err
	}
	return vbInterpolated.Replace(string(b)), nil
}

var vbInterpolated = strings.NewReplacer(`"`, `""`, "{", "{{", "}", "}}")

func vbQuote(s string) string { return strings.ReplaceAll(s, `"`, `""`) }
