// ABOUTME: JSON codec for snapshot documents
// ABOUTME: Indented output for reports and retention graphs

package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONCodec reads and writes documents as JSON
type JSONCodec struct{}

// Name returns "json"
func (JSONCodec) Name() string { return "json" }

// CanDecode accepts input whose first significant byte opens an object
func (JSONCodec) CanDecode(r io.Reader) bool {
	b, _, ok := firstSignificant(r)
	return ok && b == '{'
}

// Encode writes doc as indented JSON
func (JSONCodec) Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// Decode reads a JSON document
func (JSONCodec) Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return &doc, nil
}

func init() {
	Register(JSONCodec{})
}
