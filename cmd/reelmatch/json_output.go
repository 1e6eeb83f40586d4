package main

import (
	"encoding/json"
	"io"
)

// writeJSON renders v as indented JSON on w. All --json command output goes
// through here so scripted consumers see one consistent encoding.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
