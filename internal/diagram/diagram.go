// Package diagram is the serialized block stream of the visual editor: an
// ordered list of operations that, replayed into an assembler, rebuild the
// request.
package diagram

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/docusign/api-request-builder-open-src/internal/assembler"
	"github.com/docusign/api-request-builder-open-src/internal/document"
)

// Kind names an operation.
type Kind string

const (
	OpEnvelopeAttribute Kind = "envelopeAttribute"
	OpQueryParameter    Kind = "queryParameter"
	OpObject            Kind = "object"
	OpValues            Kind = "values"
)

// Operation is one block of the diagram.
type Operation struct {
	Op Kind

	// Name and Value are used by envelopeAttribute and queryParameter.
	Name  string
	Value any

	// Type is the object type for object and values.
	Type       string
	Attributes *document.Object
	Values     []any
}

// EnvelopeAttribute returns an operation setting an envelope attribute.
func EnvelopeAttribute(name string, value any) Operation {
	return Operation{Op: OpEnvelopeAttribute, Name: name, Value: value}
}

// QueryParameter returns an operation setting a create-envelope query
// parameter.
func QueryParameter(name string, value any) Operation {
	return Operation{Op: OpQueryParameter, Name: name, Value: value}
}

// Object returns an operation inserting an object block.
func Object(objectType string, attrs *document.Object) Operation {
	return Operation{Op: OpObject, Type: objectType, Attributes: attrs}
}

// Values returns an operation inserting a scalar list block.
func Values(objectType string, values []any) Operation {
	return Operation{Op: OpValues, Type: objectType, Values: values}
}

// Apply performs op against asm.
func (op Operation) Apply(asm *assembler.Assembler) error {
	switch op.Op {
	case OpEnvelopeAttribute:
		asm.SetEnvelopeAttribute(op.Name, op.Value)
		return nil
	case OpQueryParameter:
		asm.SetQueryParameter(op.Name, op.Value)
		return nil
	case OpObject:
		attrs := op.Attributes
		if attrs == nil {
			attrs = document.NewObject()
		}
		return asm.Insert(op.Type, attrs)
	case OpValues:
		return asm.InsertValues(op.Type, op.Values)
	default:
		return fmt.Errorf("diagram: unknown operation %q", op.Op)
	}
}

// MarshalJSON writes the operation in its wire form.
func (op Operation) MarshalJSON() ([]byte, error) {
	o := document.ObjectOf("op", string(op.Op))
	switch op.Op {
	case OpEnvelopeAttribute, OpQueryParameter:
		o.Set("name", op.Name)
		o.Set("value", op.Value)
	case OpObject:
		o.Set("type", op.Type)
		if op.Attributes != nil {
			o.Set("attributes", op.Attributes)
		}
	case OpValues:
		o.Set("type", op.Type)
		values := op.Values
		if values == nil {
			values = []any{}
		}
		o.Set("values", values)
	}
	return o.MarshalJSON()
}

type wireOperation struct {
	Op         Kind             `json:"op"`
	Name       string           `json:"name"`
	Value      json.RawMessage  `json:"value"`
	Type       string           `json:"type"`
	Attributes *document.Object `json:"attributes"`
	Values     json.RawMessage  `json:"values"`
}

// UnmarshalJSON reads the wire form, keeping attribute order.
func (op *Operation) UnmarshalJSON(data []byte) error {
	var w wireOperation
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*op = Operation{Op: w.Op, Name: w.Name, Type: w.Type, Attributes: w.Attributes}
	if len(w.Value) > 0 {
		v, err := document.DecodeValue(w.Value)
		if err != nil {
			return fmt.Errorf("value of %s: %w", w.Name, err)
		}
		op.Value = v
	}
	if len(w.Values) > 0 {
		v, err := document.DecodeValue(w.Values)
		if err != nil {
			return fmt.Errorf("values of %s: %w", w.Type, err)
		}
		list, ok := v.([]any)
		if !ok && v != nil {
			return fmt.Errorf("values of %s: not a list", w.Type)
		}
		op.Values = list
	}
	return nil
}

// Diagram is an ordered block stream.
type Diagram struct {
	Operations []Operation `json:"operations"`
}

//go:embed diagram.schema.json
var schemaJSON []byte

const schemaURL = "diagram.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
})

// InvalidError reports a payload that does not match the diagram schema.
type InvalidError struct {
	Problems []string
}

func (e *InvalidError) Error() string {
	return "invalid diagram: " + strings.Join(e.Problems, "; ")
}

// Decode reads and validates a diagram.
func Decode(r io.Reader) (*Diagram, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading diagram: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	var d Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding diagram: %w", err)
	}
	return &d, nil
}

// DecodeOperation reads and validates a single operation.
func DecodeOperation(data []byte) (Operation, error) {
	wrapped := make([]byte, 0, len(data)+20)
	wrapped = append(wrapped, `{"operations":[`...)
	wrapped = append(wrapped, data...)
	wrapped = append(wrapped, "]}"...)
	if err := Validate(wrapped); err != nil {
		return Operation{}, err
	}
	var op Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return Operation{}, fmt.Errorf("decoding operation: %w", err)
	}
	return op, nil
}

// Validate checks data against the diagram schema.
func Validate(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling diagram schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &InvalidError{Problems: []string{err.Error()}}
	}
	err = sch.Validate(inst)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	return &InvalidError{Problems: problems(verr)}
}

func problems(verr *jsonschema.ValidationError) []string {
	var out []string
	for _, u := range verr.BasicOutput().Errors {
		if u.Error == nil {
			continue
		}
		loc := u.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		out = append(out, fmt.Sprintf("%s: %s", loc, u.Error))
	}
	if len(out) == 0 {
		out = append(out, verr.Error())
	}
	return out
}

// ReplayError reports the operation that stopped a replay.
type ReplayError struct {
	Index int
	Op    Operation
	Err   error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("operation %d (%s): %v", e.Index, e.Op.Op, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// Replay applies ops to asm in order and stops at the first failure. The
// operations before it stay applied; the failed one leaves asm unchanged.
func Replay(asm *assembler.Assembler, ops []Operation) error {
	for i, op := range ops {
		if err := op.Apply(asm); err != nil {
			return &ReplayError{Index: i, Op: op, Err: err}
		}
	}
	return nil
}

// Build resets asm, replays d into it, and returns the request.
func Build(asm *assembler.Assembler, d *Diagram) (document.Request, error) {
	asm.Reset()
	if err := Replay(asm, d.Operations); err != nil {
		return document.Request{}, err
	}
	return asm.Request(), nil
}
