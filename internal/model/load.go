// load.go reads model definition files.
//
// A model file is JSON with comments allowed (JSONC): model files are
// edited by hand, and annotating a surface or a tally inline is worth
// supporting, so comments and trailing commas are stripped with
// tidwall/jsonc before the standard decoder runs.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// DefaultFileName is the model file the CLI looks for when no path is
// given.
const DefaultFileName = "model.json"

// Load reads, parses, and validates a model definition file.
//
// Returns a CLIError with ExitModelInvalid for a missing file, a parse
// failure, or a validation failure, so callers can hand the error
// straight to the CLI exit path.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, WrapCLIError(ExitModelInvalid,
				fmt.Sprintf("model file not found: %s", path), err)
		}
		return nil, WrapCLIError(ExitModelInvalid,
			fmt.Sprintf("failed to read model file %s", path), err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, WrapCLIError(ExitModelInvalid,
			fmt.Sprintf("invalid model file %s", path), err)
	}
	return m, nil
}

// Parse decodes and validates a model definition from raw JSONC bytes.
func Parse(data []byte) (*Model, error) {
	// Strip comments and trailing commas, then parse with the strict
	// decoder so typos in field names fail loudly instead of silently
	// producing a default-valued model.
	clean := jsonc.ToJSON(data)

	var m Model
	dec := json.NewDecoder(bytes.NewReader(clean))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
