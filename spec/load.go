package spec

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned when a spec file contains nothing but
// whitespace.
var ErrEmptyDocument = errors.New("OpenAPI document is empty")

// Load reads and parses the OpenAPI document at path.
func Load(path string) (*Spec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "error loading spec")
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Errorf("error loading spec: %v is not a file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "error loading spec")
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "error decoding spec %v", path)
	}
	return doc, nil
}

// Parse decodes an OpenAPI document. A document whose first non-space
// character is `{` is decoded as JSON; anything else is decoded as YAML.
func Parse(data []byte) (*Spec, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyDocument
	}

	var doc Spec
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, errors.Wrap(err, "invalid JSON")
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &doc); err != nil {
			return nil, errors.Wrap(err, "invalid YAML")
		}
	}

	return &doc, nil
}
