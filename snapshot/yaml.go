// ABOUTME: YAML codec for snapshot documents
// ABOUTME: Human-friendly output of the same document model as JSON

package snapshot

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLCodec reads and writes documents as YAML
type YAMLCodec struct{}

// Name returns "yaml"
func (YAMLCodec) Name() string { return "yaml" }

// CanDecode accepts a document marker or one of the document's top-level keys
func (YAMLCodec) CanDecode(r io.Reader) bool {
	b, preview, ok := firstSignificant(r)
	if !ok || b == '{' {
		return false
	}
	for _, prefix := range []string{"---", "reports:", "navigation:", "graph:"} {
		if bytes.HasPrefix(preview, []byte(prefix)) {
			return true
		}
	}
	return false
}

// Encode writes doc as YAML with two-space indentation
func (YAMLCodec) Encode(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// Decode reads a YAML document
func (YAMLCodec) Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}
	return &doc, nil
}

func init() {
	Register(YAMLCodec{})
}
