// ABOUTME: Codec interface for snapshot document formats
// ABOUTME: Defines the contract for pluggable encoders and decoders

package snapshot

import "io"

// Codec encodes and decodes Documents in one format
type Codec interface {
	// Name is the format name used for lookup, e.g. "json"
	Name() string

	// CanDecode checks a preview of the input. Implementations should read a
	// small amount and must not assume the preview is a complete document
	CanDecode(r io.Reader) bool

	// Encode writes doc to w
	Encode(w io.Writer, doc *Document) error

	// Decode reads a complete document from r
	Decode(r io.Reader) (*Document, error)
}
