package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docusign/api-request-builder-open-src/internal/codegen"
	"github.com/docusign/api-request-builder-open-src/internal/document"
	"github.com/docusign/api-request-builder-open-src/internal/schema"
	"github.com/docusign/api-request-builder-open-src/internal/session"
)

var fixedTime = time.Date(2026, time.March, 4, 5, 6, 7, 0, time.UTC)

func testGenerator(t *testing.T) *codegen.Generator {
	t.Helper()
	tbl, err := schema.Default()
	require.NoError(t, err)
	return codegen.New(tbl, codegen.DefaultRegistry(),
		codegen.WithClock(func() time.Time { return fixedTime }),
		codegen.WithAccount("acct-1", "token-1"))
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	tbl, err := schema.Default()
	require.NoError(t, err)
	h, err := New(Config{
		Tables:    tbl,
		Generator: testGenerator(t),
		Sessions:  session.NewManager(tbl, time.Hour, time.Hour),
		CacheSize: 8,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

type errorResponse struct {
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
}

func decodeError(t *testing.T, body string) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &e))
	return e
}

const diagramBody = `{
  "operations": [
    {"op": "envelopeAttribute", "name": "emailSubject", "value": "Please sign"},
    {"op": "object", "type": "document", "attributes": {"filename": "a.pdf", "documentId": "1"}},
    {"op": "object", "type": "signer", "attributes": {"name": "S", "recipientId": "1"}},
    {"op": "object", "type": "signHere", "attributes": {"anchorString": "/sig1/"}}
  ]
}`

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)
}

func TestLanguages(t *testing.T) {
	srv := testServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/v1/languages", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []codegen.Listing
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	names := make([]string, len(list))
	for i, l := range list {
		names[i] = l.Name
	}
	assert.Equal(t, []string{"CSharp", "JSON", "Java", "NodeJS", "PHP", "Python", "Ruby", "VB"}, names)
}

func TestSchemaObjects(t *testing.T) {
	srv := testServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/v1/schema/objects", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var names []string
	require.NoError(t, json.Unmarshal([]byte(body), &names))
	assert.Contains(t, names, "signer")
	assert.Contains(t, names, "envelopeDefinition")

	resp, body = do(t, http.MethodGet, srv.URL+"/v1/schema/objects/signHere", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info objectInfo
	require.NoError(t, json.Unmarshal([]byte(body), &info))
	assert.Equal(t, "signHere", info.Name)
	assert.Contains(t, info.Parents, "tabs")
	assert.Contains(t, info.Containers, "tabs")
	assert.False(t, info.AutoContainer)

	resp, body = do(t, http.MethodGet, srv.URL+"/v1/schema/objects/signr", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "UNKNOWN_BLOCK", e.Code)
	assert.Contains(t, e.Error, "signr")
	assert.Contains(t, e.Error, "did you mean 'signer'?")
}

func TestBuild(t *testing.T) {
	srv := testServer(t)
	resp, body := do(t, http.MethodPost, srv.URL+"/v1/build", diagramBody)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	req, err := document.DecodeRequest([]byte(body))
	require.NoError(t, err)
	env, err := document.Marshal(req.EnvelopeDefinition)
	require.NoError(t, err)
	assert.Equal(t,
		`{"emailSubject":"Please sign",`+
			`"documents":[{"filename":"a.pdf","documentId":"1"}],`+
			`"recipients":{"signers":[{"name":"S","recipientId":"1",`+
			`"tabs":{"signHereTabs":[{"anchorString":"/sig1/"}]}}]}}`,
		string(env))
}

func TestBuildFailures(t *testing.T) {
	srv := testServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/v1/build",
		`{"operations": [{"op": "object", "type": "document"}, {"op": "object", "type": "signHere"}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "INSERTION_FAILED", e.Code)
	assert.Contains(t, e.Error, "Could not process block")
	var failure buildFailure
	require.NoError(t, json.Unmarshal(e.Details, &failure))
	assert.Equal(t, 1, failure.Index)
	assert.Equal(t, "signHere", failure.ObjectType)
	assert.NotEmpty(t, failure.Missing)

	resp, body = do(t, http.MethodPost, srv.URL+"/v1/build",
		`{"operations": [{"op": "object", "type": "signr"}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "UNKNOWN_BLOCK", decodeError(t, body).Code)

	resp, body = do(t, http.MethodPost, srv.URL+"/v1/build", `{"operations": [{"op": "object"}]}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e = decodeError(t, body)
	assert.Equal(t, "INVALID_DIAGRAM", e.Code)
	assert.NotEmpty(t, e.Details)
}

func TestGenerate(t *testing.T) {
	srv := testServer(t)
	_, built := do(t, http.MethodPost, srv.URL+"/v1/build", diagramBody)

	resp, body := do(t, http.MethodPost, srv.URL+"/v1/generate/NodeJS", built)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
	assert.Contains(t, body, `emailSubject: "Please sign"`)
	assert.Contains(t, body, `let signHereTab1 = docusign.SignHere.constructFromObject({`)

	// A bare envelope definition is accepted too.
	resp, body = do(t, http.MethodPost, srv.URL+"/v1/generate/Python", `{"emailSubject": "Hi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, "Hi")
}

func TestGenerateErrors(t *testing.T) {
	srv := testServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/v1/generate/Go", `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "UNSUPPORTED_LANGUAGE", e.Code)
	assert.Equal(t, "Sorry, Go is not yet implemented", e.Error)

	resp, body = do(t, http.MethodPost, srv.URL+"/v1/generate/NodeJS", `[1, 2]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, body).Code)
}

func TestMetrics(t *testing.T) {
	srv := testServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "reqbuilder_sessions")
}

func TestProgramsCacheSections(t *testing.T) {
	p, err := newPrograms(testGenerator(t), 4)
	require.NoError(t, err)

	req := document.NewRequest()
	req.EnvelopeDefinition.Set("emailSubject", "Hi")

	first, err := p.Generate(req, "Ruby")
	require.NoError(t, err)
	second, err := p.Generate(req, "Ruby")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.cache.Len())

	_, err = p.Generate(req, "Java")
	require.NoError(t, err)
	assert.Equal(t, 2, p.cache.Len())

	text, err := p.Generate(req, "Cobol")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, Cobol is not yet implemented", text)
	assert.Equal(t, 2, p.cache.Len())
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
