package document

import (
	"bytes"
	"errors"
	"fmt"
)

// Root object types.
const (
	EnvelopeDefinition   = "envelopeDefinition"
	RecipientViewRequest = "recipientViewRequest"
)

// Request is the assembled output: the envelope definition, the query
// parameters for the envelope create call, and the optional recipient view
// request used for embedded signing.
type Request struct {
	EnvelopeDefinition     *Object
	EnvelopesCreateQP      *Object
	CreateRecipientViewReq *Object
}

// NewRequest returns a request with an empty envelope definition and no
// query parameters.
func NewRequest() Request {
	return Request{
		EnvelopeDefinition: NewObject(),
		EnvelopesCreateQP:  NewObject(),
	}
}

// HasRecipientView reports whether an embedded signing view is requested.
func (r Request) HasRecipientView() bool {
	return r.CreateRecipientViewReq != nil
}

// Object returns the request in its wire form. The recipient view request
// is omitted when absent.
func (r Request) Object() *Object {
	o := NewObject()
	env := r.EnvelopeDefinition
	if env == nil {
		env = NewObject()
	}
	qp := r.EnvelopesCreateQP
	if qp == nil {
		qp = NewObject()
	}
	o.Set("envelopeDefinition", env)
	o.Set("envelopesCreateQP", qp)
	if r.CreateRecipientViewReq != nil {
		o.Set("createRecipientViewReq", r.CreateRecipientViewReq)
	}
	return o
}

// MarshalJSON implements json.Marshaler.
func (r Request) MarshalJSON() ([]byte, error) {
	return r.Object().MarshalJSON()
}

// Clone returns a deep copy.
func (r Request) Clone() Request {
	return Request{
		EnvelopeDefinition:     r.EnvelopeDefinition.Clone(),
		EnvelopesCreateQP:      r.EnvelopesCreateQP.Clone(),
		CreateRecipientViewReq: r.CreateRecipientViewReq.Clone(),
	}
}

// DecodeRequest parses a request document. Input holding an
// envelopeDefinition object is read as the full request form; anything else
// is taken to be a bare envelope definition.
func DecodeRequest(data []byte) (Request, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Request{}, errors.New("document: empty request")
	}
	root := NewObject()
	if err := root.UnmarshalJSON(data); err != nil {
		return Request{}, fmt.Errorf("decoding request: %w", err)
	}
	env, ok := root.Get("envelopeDefinition")
	envObj, isObj := env.(*Object)
	if !ok || !isObj {
		return Request{EnvelopeDefinition: root, EnvelopesCreateQP: NewObject()}, nil
	}
	req := Request{EnvelopeDefinition: envObj, EnvelopesCreateQP: NewObject()}
	if v, ok := root.Get("envelopesCreateQP"); ok {
		qp, isObj := v.(*Object)
		if !isObj {
			return Request{}, errors.New("document: envelopesCreateQP must be an object")
		}
		req.EnvelopesCreateQP = qp
	}
	if v, ok := root.Get("createRecipientViewReq"); ok && v != nil {
		view, isObj := v.(*Object)
		if !isObj {
			return Request{}, errors.New("document: createRecipientViewReq must be an object")
		}
		req.CreateRecipientViewReq = view
	}
	return req, nil
}

// FindDocuments returns every document object under o: the elements of any
// "documents" array and the value of any "document" attribute, at any depth.
// The returned pointers alias o.
func FindDocuments(o *Object) []*Object {
	var docs []*Object
	var walk func(*Object)
	walk = func(obj *Object) {
		for _, key := range obj.keys {
			v := obj.values[key]
			switch key {
			case "documents":
				if arr, ok := v.([]any); ok {
					for _, e := range arr {
						if d, ok := e.(*Object); ok {
							docs = append(docs, d)
						}
					}
				}
			case "document":
				if d, ok := v.(*Object); ok {
					docs = append(docs, d)
				}
			}
			switch t := v.(type) {
			case *Object:
				walk(t)
			case []any:
				for _, e := range t {
					if child, ok := e.(*Object); ok {
						walk(child)
					}
				}
			}
		}
	}
	if o != nil {
		walk(o)
	}
	return docs
}
