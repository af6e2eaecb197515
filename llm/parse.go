package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeJSON parses a model response expected to be a single JSON object
// into out. Models occasionally wrap the object in prose or a code fence, so
// on a direct parse failure the outermost brace-delimited region is tried
// before giving up.
func DecodeJSON(content string, out any) error {
	data := bytes.TrimSpace([]byte(content))

	if err := json.Unmarshal(data, out); err == nil {
		return nil
	}

	start := bytes.Index(data, []byte("{"))
	end := bytes.LastIndex(data, []byte("}"))
	if start >= 0 && end > start {
		if err := json.Unmarshal(data[start:end+1], out); err == nil {
			return nil
		} else {
			return fmt.Errorf("parse json response: %w", err)
		}
	}

	return fmt.Errorf("no json object found in response")
}
