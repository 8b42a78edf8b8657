// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package chunk parses a flat buffer laid out as a sequence of
// (tag, size, payload) records and provides random-access lookup
// by tag. It never copies the input buffer; every returned slice
// borrows from it.
package chunk

import (
	"encoding/binary"
	"fmt"
)

// Tag identifies the kind of a chunk.
type Tag uint64

// HeaderSize is the size, in bytes, of one (tag, size) chunk header.
const HeaderSize = 8 + 4

const headerSize = HeaderSize

// span is a half-open [start, end) byte range into the source buffer.
type span struct {
	start, end int
}

// Container is a parsed view over a chunk stream. The zero value is
// not usable; build one with Parse.
type Container struct {
	buf     []byte
	spans   map[Tag]span
	entries []Entry // chunk order as they appeared in buf, for passthrough copying
}

// Entry describes one chunk in stream order.
type Entry struct {
	Tag     Tag
	Payload []byte
}

// Parse walks buf as a sequence of (tag uint64, size uint32, payload)
// records with no padding between them and builds a tag index.
//
// Parse fails if any declared chunk size would run past the end of buf.
// A repeated tag overwrites the earlier lookup entry but both chunks
// remain visible via Entries, in stream order, for passthrough copying.
func Parse(buf []byte) (*Container, error) {
	c := &Container{
		buf:   buf,
		spans: make(map[Tag]span),
	}
	off := 0
	for off < len(buf) {
		if len(buf)-off < headerSize {
			return nil, fmt.Errorf("chunk: malformed container: %d trailing bytes, need at least %d for a header", len(buf)-off, headerSize)
		}
		tag := Tag(binary.LittleEndian.Uint64(buf[off:]))
		size := binary.LittleEndian.Uint32(buf[off+8:])
		start := off + headerSize
		end := start + int(size)
		if end > len(buf) {
			return nil, fmt.Errorf("chunk: malformed container: chunk %#x declares size %d, which runs %d bytes past the buffer end", tag, size, end-len(buf))
		}
		c.spans[tag] = span{start, end}
		c.entries = append(c.entries, Entry{Tag: tag, Payload: buf[start:end]})
		off = end
	}
	return c, nil
}

// Has reports whether the container has a chunk with the given tag.
func (c *Container) Has(tag Tag) bool {
	_, ok := c.spans[tag]
	return ok
}

// Payload returns the payload bytes of the chunk with the given tag.
// The returned slice is a window into the buffer Parse was given.
func (c *Container) Payload(tag Tag) ([]byte, bool) {
	sp, ok := c.spans[tag]
	if !ok {
		return nil, false
	}
	return c.buf[sp.start:sp.end], true
}

// Entries returns every chunk in the container, in original stream order.
// When a tag repeats, every occurrence is returned; Payload above only
// exposes the last one, matching the "most recent chunk wins" lookup
// semantics used elsewhere in this module.
func (c *Container) Entries() []Entry {
	return c.entries
}

// AppendChunk appends one (tag, size, payload) record to dst and
// returns the extended slice. It is the writer-side counterpart to
// Parse, used by every component that re-emits a chunk stream.
func AppendChunk(dst []byte, tag Tag, payload []byte) []byte {
	var hdr [headerSize]byte
	binary.LittleEndian.PutUint64(hdr[:8], uint64(tag))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(len(payload)))
	dst = append(dst, hdr[:]...)
	dst = append(dst, payload...)
	return dst
}
