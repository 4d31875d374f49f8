package api

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseDefinition decodes a YAML or JSON definition table and validates it.
// Top-level keys may be written in any casing; they are normalized to
// snake_case. Unknown keys are kept and readable through Get.
func ParseDefinition(data []byte) (*Definition, error) {
	var doc yaml.Node

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("parsing definition: %w", err)
	}

	def := &Definition{}

	if len(doc.Content) > 0 {
		err = decodeDefinition(doc.Content[0], def)
		if err != nil {
			return nil, err
		}
	}

	err = def.Validate()
	if err != nil {
		return nil, err
	}

	return def, nil
}

// LoadDefinition reads and parses a definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("reading definition %s: %w", path, err)
	}

	def, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("loading definition %s: %w", path, err)
	}

	return def, nil
}

func decodeDefinition(root *yaml.Node, def *Definition) error {
	if root.Kind != yaml.MappingNode {
		return &DefinitionError{Field: "document", Reason: "expected a mapping"}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := NormalizeKey(root.Content[i].Value)
		valueNode := root.Content[i+1]

		var target interface{}

		switch key {
		case KeyBase:
			target = &def.Base
		case KeyVersion:
			target = &def.Version
		case KeyVersions:
			target = &def.Versions
		case KeyEndpoints:
			target = &def.Endpoints
		case KeyProperties:
			target = &def.Properties
		default:
			var value interface{}

			err := valueNode.Decode(&value)
			if err != nil {
				return fmt.Errorf("decoding definition key %s: %w", key, err)
			}

			err = def.Set(key, value)
			if err != nil {
				return err
			}

			continue
		}

		err := valueNode.Decode(target)
		if err != nil {
			return &DefinitionError{Field: key, Reason: "malformed value (" + err.Error() + ")"}
		}
	}

	return nil
}
