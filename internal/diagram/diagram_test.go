package diagram

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docusign/api-request-builder-open-src/internal/assembler"
	"github.com/docusign/api-request-builder-open-src/internal/document"
	"github.com/docusign/api-request-builder-open-src/internal/schema"
)

const sample = `{
  "operations": [
    {"op": "envelopeAttribute", "name": "emailSubject", "value": "Please sign"},
    {"op": "envelopeAttribute", "name": "status", "value": "sent"},
    {"op": "queryParameter", "name": "mergeRolesOnDraft", "value": true},
    {"op": "object", "type": "document", "attributes": {"filename": "a.pdf", "name": "Example", "documentId": "1"}},
    {"op": "object", "type": "signer", "attributes": {"name": "Signer", "email": "s@example.com", "recipientId": "1"}},
    {"op": "values", "type": "signer_excludedDocuments", "values": ["2", "3"]},
    {"op": "object", "type": "signHere", "attributes": {"anchorString": "/sig1/", "anchorXOffset": 20}}
  ]
}`

func testAssembler(t *testing.T) *assembler.Assembler {
	t.Helper()
	tbl, err := schema.Default()
	require.NoError(t, err)
	return assembler.New(tbl)
}

func TestDecode(t *testing.T) {
	d, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, d.Operations, 7)

	assert.Equal(t, EnvelopeAttribute("emailSubject", "Please sign"), d.Operations[0])
	assert.Equal(t, QueryParameter("mergeRolesOnDraft", true), d.Operations[2])
	assert.Equal(t, []string{"filename", "name", "documentId"}, d.Operations[3].Attributes.Keys())
	assert.Equal(t, Values("signer_excludedDocuments", []any{"2", "3"}), d.Operations[5])

	v, _ := d.Operations[6].Attributes.Get("anchorXOffset")
	assert.Equal(t, json.Number("20"), v)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{"operations": [`},
		{"missing operations", `{}`},
		{"unknown op", `{"operations": [{"op": "delete", "type": "signer"}]}`},
		{"attribute without value", `{"operations": [{"op": "envelopeAttribute", "name": "status"}]}`},
		{"object without type", `{"operations": [{"op": "object", "attributes": {}}]}`},
		{"bad type name", `{"operations": [{"op": "object", "type": "sign here"}]}`},
		{"stray field", `{"operations": [{"op": "object", "type": "signer", "values": []}]}`},
		{"nested values", `{"operations": [{"op": "values", "type": "signer_excludedDocuments", "values": [{"a": 1}]}]}`},
		{"attributes not object", `{"operations": [{"op": "object", "type": "signer", "attributes": []}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.payload))
			var invalid *InvalidError
			require.ErrorAs(t, err, &invalid)
			assert.NotEmpty(t, invalid.Problems)
		})
	}
}

func TestDecodeReportsLocation(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"operations": [{"op": "object", "type": "signer"}, {"op": "bogus"}]}`))
	var invalid *InvalidError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Error(), "/operations/1")
}

func TestBuild(t *testing.T) {
	d, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	req, err := Build(testAssembler(t), d)
	require.NoError(t, err)

	env, err := document.Marshal(req.EnvelopeDefinition)
	require.NoError(t, err)
	assert.Equal(t,
		`{"emailSubject":"Please sign","status":"sent",`+
			`"documents":[{"filename":"a.pdf","name":"Example","documentId":"1"}],`+
			`"recipients":{"signers":[{"name":"Signer","email":"s@example.com","recipientId":"1",`+
			`"excludedDocuments":["2","3"],`+
			`"tabs":{"signHereTabs":[{"anchorString":"/sig1/","anchorXOffset":20}]}}]}}`,
		string(env))

	qp, err := document.Marshal(req.EnvelopesCreateQP)
	require.NoError(t, err)
	assert.Equal(t, `{"mergeRolesOnDraft":true}`, string(qp))
}

func TestReplayStopsAtFirstFailure(t *testing.T) {
	asm := testAssembler(t)
	ops := []Operation{
		Object("document", document.ObjectOf("name", "d")),
		Object("signHere", document.ObjectOf("anchorString", "/x/")),
		Object("signer", document.ObjectOf("name", "never")),
	}
	err := Replay(asm, ops)

	var replay *ReplayError
	require.ErrorAs(t, err, &replay)
	assert.Equal(t, 1, replay.Index)
	assert.Equal(t, "signHere", replay.Op.Type)

	var insertion *assembler.InsertionError
	require.True(t, errors.As(err, &insertion))
	assert.Equal(t, "signHere", insertion.ObjectType)

	assert.Equal(t, []string{"envelopeDefinition", "document"}, asm.Trail())
}

func TestOperationRoundTrip(t *testing.T) {
	d := Diagram{Operations: []Operation{
		EnvelopeAttribute("emailSubject", "Hi"),
		Object("signer", document.ObjectOf("name", "S", "email", "s@example.com")),
		Values("signer_excludedDocuments", nil),
	}}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t,
		`{"operations":[{"op":"envelopeAttribute","name":"emailSubject","value":"Hi"},`+
			`{"op":"object","type":"signer","attributes":{"name":"S","email":"s@example.com"}},`+
			`{"op":"values","type":"signer_excludedDocuments","values":[]}]}`,
		string(b))

	back, err := Decode(strings.NewReader(string(b)))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email"}, back.Operations[1].Attributes.Keys())
	assert.Empty(t, back.Operations[2].Values)
}

func TestDecodeOperation(t *testing.T) {
	op, err := DecodeOperation([]byte(`{"op": "object", "type": "signer", "attributes": {"name": "S"}}`))
	require.NoError(t, err)
	assert.Equal(t, Object("signer", document.ObjectOf("name", "S")), op)

	_, err = DecodeOperation([]byte(`{"op": "object"}`))
	var invalid *InvalidError
	require.ErrorAs(t, err, &invalid)

	_, err = DecodeOperation([]byte(`{"op": "object", "type": "signer"}]}, {"x": 1`))
	assert.Error(t, err)
}
