// ABOUTME: Registry for snapshot codecs
// ABOUTME: Looks codecs up by name and sniffs the format of incoming documents

package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

var (
	// ErrNoCodec is returned when no codec matches a name or input
	ErrNoCodec = errors.New("no codec found for snapshot format")
)

// previewSize is how much input Open buffers for format detection
const previewSize = 4096

type codecRegistry struct {
	mu     sync.RWMutex
	codecs []Codec
}

var registry = &codecRegistry{}

// Register adds a codec. A later codec with the same name shadows an
// earlier one on Lookup.
func Register(c Codec) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.codecs = append(registry.codecs, c)
}

// Lookup returns the codec registered under name (case-insensitive)
func Lookup(name string) (Codec, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	for i := len(registry.codecs) - 1; i >= 0; i-- {
		if strings.EqualFold(registry.codecs[i].Name(), name) {
			return registry.codecs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoCodec, name)
}

// Names lists registered codec names in registration order
func Names() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.codecs))
	for _, c := range registry.codecs {
		names = append(names, c.Name())
	}
	return names
}

// Open detects the format of r and decodes it with the first codec that
// accepts the preview
func Open(r io.Reader) (*Document, error) {
	preview := make([]byte, previewSize)
	n, err := io.ReadFull(r, preview)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	preview = preview[:n]

	registry.mu.RLock()
	codecs := append([]Codec(nil), registry.codecs...)
	registry.mu.RUnlock()

	for _, c := range codecs {
		if c.CanDecode(bytes.NewReader(preview)) {
			return c.Decode(io.MultiReader(bytes.NewReader(preview), r))
		}
	}
	return nil, ErrNoCodec
}

// Encode writes doc using the codec registered under format
func Encode(w io.Writer, format string, doc *Document) error {
	c, err := Lookup(format)
	if err != nil {
		return err
	}
	return c.Encode(w, doc)
}

// firstSignificant returns the first non-whitespace byte of the preview
func firstSignificant(r io.Reader) (byte, []byte, bool) {
	buf := make([]byte, 1024)
	n, err := r.Read(buf)
	if err != nil && err != io.EOF {
		return 0, nil, false
	}
	trimmed := bytes.TrimLeft(buf[:n], " \t\r\n")
	if len(trimmed) == 0 {
		return 0, nil, false
	}
	return trimmed[0], trimmed, true
}
