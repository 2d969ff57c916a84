package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed tables.cue
var tablesDef string

//go:embed esign.json
var defaultTables []byte

// ConfigError reports a schema artifact that is malformed or refers to
// object types it does not define.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("schema %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load reads a compiled artifact, validates it against the #Tables
// definition, and checks that every table agrees with the others.
func Load(r io.Reader, source string) (*Tables, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ConfigError{Source: source, Err: err}
	}
	return decode(data, source)
}

// LoadFile is Load for a file on disk.
func LoadFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Err: err}
	}
	defer f.Close()
	return Load(f, path)
}

var (
	defaultOnce sync.Once
	defaultVal  *Tables
	defaultErr  error
)

// Default returns the tables compiled into the binary. The result is shared
// and must not be modified.
func Default() (*Tables, error) {
	defaultOnce.Do(func() {
		defaultVal, defaultErr = decode(defaultTables, "esign.json")
	})
	return defaultVal, defaultErr
}

// MustDefault is Default for callers that cannot proceed without it.
func MustDefault() *Tables {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

func decode(data []byte, source string) (*Tables, error) {
	ctx := cuecontext.New()
	defs := ctx.CompileString(tablesDef, cue.Filename("tables.cue"))
	if err := defs.Err(); err != nil {
		return nil, &ConfigError{Source: source, Err: err}
	}
	def := defs.LookupPath(cue.ParsePath("#Tables"))

	val := ctx.CompileBytes(data, cue.Filename(source))
	if err := val.Err(); err != nil {
		return nil, &ConfigError{Source: source, Err: flatten(err)}
	}
	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &ConfigError{Source: source, Err: flatten(err)}
	}

	var t Tables
	if err := unified.Decode(&t); err != nil {
		return nil, &ConfigError{Source: source, Err: err}
	}
	if err := t.check(); err != nil {
		return nil, &ConfigError{Source: source, Err: err}
	}
	return &t, nil
}

func flatten(err error) error {
	var errs []error
	for _, e := range cueerrors.Errors(err) {
		errs = append(errs, errors.New(cueerrors.Details(e, nil)))
	}
	return errors.Join(errs...)
}

// check verifies that the tables reference each other consistently.
func (t *Tables) check() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	for _, child := range sortedKeys(t.Parents) {
		for _, parent := range sortedKeys(t.Parents[child]) {
			attr := t.Parents[child][parent]
			if !t.Known(parent) {
				fail("parents[%s]: parent %s is not a known object type", child, parent)
				continue
			}
			link, ok := t.Link(parent, child)
			if !ok {
				fail("parents[%s][%s]: no children[%s][%s] entry", child, parent, parent, child)
				continue
			}
			if link.Attribute != attr {
				fail("parents[%s][%s] is %q but children[%s][%s].attribute is %q",
					child, parent, attr, parent, child, link.Attribute)
			}
			info, ok := t.Attribute(parent, attr)
			if !ok {
				fail("childAttributes[%s][%s] is missing", parent, attr)
				continue
			}
			if info.ItemType != link.Style {
				fail("childAttributes[%s][%s].itemType is %s, children says %s", parent, attr, info.ItemType, link.Style)
			}
			if info.ObjectName != child {
				fail("childAttributes[%s][%s].objectName is %s, expected %s", parent, attr, info.ObjectName, child)
			}
		}
	}

	for _, parent := range sortedKeys(t.Children) {
		if !t.Known(parent) {
			fail("children: %s is not a known object type", parent)
		}
		for _, child := range sortedKeys(t.Children[parent]) {
			if _, ok := t.Parents[child][parent]; !ok {
				fail("children[%s][%s]: no parents[%s][%s] entry", parent, child, child, parent)
			}
		}
	}

	for _, obj := range sortedKeys(t.ChildAttributes) {
		for _, attr := range sortedKeys(t.ChildAttributes[obj]) {
			if t.ChildAttributes[obj][attr].ItemType == StyleArrayOfScalar && t.ChildAttributes[obj][attr].ScalarType == "" {
				fail("childAttributes[%s][%s]: array of scalars without scalarType", obj, attr)
			}
		}
	}

	seen := make(map[string]bool)
	for _, c := range t.AutoContainers {
		if seen[c] {
			fail("autoContainers: %s listed twice", c)
		}
		seen[c] = true
		if _, ok := t.Parents[c]; !ok {
			fail("autoContainers: %s has no parents entry", c)
		}
	}
	return errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
