// Package schema validates API request bodies against embedded JSON Schemas.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names.
const (
	Property = "property"
	Alert    = "alert"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid request body")

// Validator holds the compiled schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	files, err := fs.Glob(schemaFS, "schemas/*.json")
	if err != nil {
		return nil, fmt.Errorf("listing schemas: %w", err)
	}
	for _, f := range files {
		data, err := schemaFS.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading schema %s: %w", f, err)
		}
		if err := compiler.AddResource(f, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("adding schema %s: %w", f, err)
		}
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(files))}
	for _, f := range files {
		s, err := compiler.Compile(f)
		if err != nil {
			return nil, fmt.Errorf("compiling schema %s: %w", f, err)
		}
		v.schemas[strings.TrimSuffix(path.Base(f), ".json")] = s
	}
	return v, nil
}

// Names lists the compiled schemas.
func (v *Validator) Names() []string {
	names := make([]string, 0, len(v.schemas))
	for name := range v.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks body against the named schema. Failures wrap ErrInvalid
// and name each offending field.
func (v *Validator) Validate(name string, body []byte) error {
	s, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("schema %q not found", name)
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: body is not valid JSON", ErrInvalid)
	}

	if err := s.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(leafMessages(ve), "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// leafMessages flattens a validation error tree to "field: message" lines.
func leafMessages(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		field := strings.TrimPrefix(ve.InstanceLocation, "/")
		if field == "" {
			return []string{ve.Message}
		}
		return []string{field + ": " + ve.Message}
	}
	var out []string
	for _, c := range ve.Causes {
		out = append(out, leafMessages(c)...)
	}
	return out
}
