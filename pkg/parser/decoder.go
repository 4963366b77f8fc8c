package parser

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// Decoder converts lines from a legacy charset to UTF-8.
type Decoder struct {
	name string
	dec  *encoding.Decoder
}

// NewDecoder looks up an IANA charset name. Lines are split on raw bytes, so
// only charsets that encode CR and LF as their ASCII bytes are accepted.
func NewDecoder(name string) (*Decoder, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is not supported", name)
	}

	crlf, err := enc.NewEncoder().Bytes([]byte("\r\n"))
	if err != nil || !bytes.Equal(crlf, []byte("\r\n")) {
		return nil, fmt.Errorf("encoding %q does not use single-byte line terminators", name)
	}

	return &Decoder{name: name, dec: enc.NewDecoder()}, nil
}

// Name returns the charset name the decoder was created with.
func (d *Decoder) Name() string {
	return d.name
}

// Decode converts one line to UTF-8. A nil Decoder returns the line as is.
func (d *Decoder) Decode(line []byte) (string, error) {
	if d == nil {
		return string(line), nil
	}
	out, err := d.dec.Bytes(line)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", d.name, err)
	}
	return string(out), nil
}
