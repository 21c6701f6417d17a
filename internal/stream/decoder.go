// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const decodeBufSize = 4096

// Decoder converts a sequence of byte chunks into text. A multi-byte
// character split across two chunks is held back and completed on the next
// call. One Decoder serves exactly one stream.
type Decoder struct {
	t       transform.Transformer
	pending []byte
	dst     []byte
}

// NewDecoder creates a UTF-8 stream decoder. Ill-formed bytes decode to
// U+FFFD.
func NewDecoder() *Decoder {
	return &Decoder{
		t:   unicode.UTF8.NewDecoder(),
		dst: make([]byte, decodeBufSize),
	}
}

// Decode returns the text for chunk, prefixed by any bytes carried over from
// the previous chunk.
func (d *Decoder) Decode(chunk []byte) string {
	return d.transform(chunk, false)
}

// Flush decodes whatever is still pending at end of stream. A truncated
// trailing character becomes U+FFFD instead of an error.
func (d *Decoder) Flush() string {
	return d.transform(nil, true)
}

func (d *Decoder) transform(chunk []byte, atEOF bool) string {
	src := chunk
	if len(d.pending) > 0 {
		src = append(d.pending, chunk...)
		d.pending = nil
	}
	if len(src) == 0 && !atEOF {
		return ""
	}

	var out strings.Builder
	for {
		nDst, nSrc, err := d.t.Transform(d.dst, src, atEOF)
		out.Write(d.dst[:nDst])
		src = src[nSrc:]

		switch err {
		case nil:
			return out.String()
		case transform.ErrShortDst:
			if nDst == 0 && nSrc == 0 {
				d.dst = make([]byte, 2*len(d.dst))
			}
		case transform.ErrShortSrc:
			d.pending = append([]byte(nil), src...)
			return out.String()
		default:
			// The UTF-8 decoder replaces bad input rather than failing.
			// Anything else is dropped so the stream keeps moving.
			return out.String()
		}
	}
}

// Reset discards pending bytes so the decoder can serve a new stream.
func (d *Decoder) Reset() {
	d.pending = nil
	d.t.Reset()
}
