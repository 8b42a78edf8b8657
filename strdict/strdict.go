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

// Package strdict implements an ordered, append-only dictionary of
// short strings addressed by a 16-bit index, in the style of
// ion.Symtab's intern table but capped at 65535 entries.
package strdict

import (
	"encoding/binary"
	"fmt"

	"github.com/ubershader/matpkg/chunk"
)

// MaxCount is the largest number of strings a Dictionary may hold.
// Line indices are 16-bit, and spec count ≤ 65535, so that is also
// the hard cap on Size().
const MaxCount = 0xFFFF

// Dictionary is an ordered, append-only collection of strings.
// The zero value is ready to use.
type Dictionary struct {
	lines   []string
	toindex map[string]uint16
}

// Size returns the number of interned strings.
func (d *Dictionary) Size() int {
	return len(d.lines)
}

// Get returns the string at index i.
func (d *Dictionary) Get(i uint16) (string, bool) {
	if int(i) >= len(d.lines) {
		return "", false
	}
	return d.lines[i], true
}

// Intern returns the index of s, appending it if it is not already
// present. It fails with an error wrapping ErrTooManyLines once the
// dictionary has reached MaxCount entries.
func (d *Dictionary) Intern(s string) (uint16, error) {
	if d.toindex == nil {
		d.toindex = make(map[string]uint16)
	}
	if i, ok := d.toindex[s]; ok {
		return i, nil
	}
	if len(d.lines) >= MaxCount {
		return 0, fmt.Errorf("strdict: %w", ErrTooManyLines)
	}
	i := uint16(len(d.lines))
	d.lines = append(d.lines, s)
	d.toindex[s] = i
	return i, nil
}

// ErrTooManyLines is wrapped by the error Intern returns once a
// dictionary has reached MaxCount entries.
var ErrTooManyLines = fmt.Errorf("more than %d unique lines", MaxCount)

// Encode serializes the dictionary into a DictionaryText chunk payload:
// count:u32 LE followed by count null-terminated strings, in index order.
func (d *Dictionary) Encode() []byte {
	size := 4
	for _, s := range d.lines {
		size += len(s) + 1
	}
	buf := make([]byte, 4, size)
	binary.LittleEndian.PutUint32(buf, uint32(len(d.lines)))
	for _, s := range d.lines {
		buf = append(buf, s...)
		buf = append(buf, 0)
	}
	return buf
}

// Decode parses a DictionaryText chunk payload produced by Encode.
func Decode(payload []byte) (*Dictionary, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("strdict: payload too short for a count field")
	}
	count := binary.LittleEndian.Uint32(payload)
	// every string occupies at least its null terminator, so this
	// bounds the count before it is used as a slice capacity.
	if uint64(count) > uint64(len(payload)-4) {
		return nil, fmt.Errorf("strdict: count %d exceeds what the payload can hold", count)
	}
	d := &Dictionary{lines: make([]string, 0, count)}
	pos := 4
	for i := uint32(0); i < count; i++ {
		end := pos
		for end < len(payload) && payload[end] != 0 {
			end++
		}
		if end >= len(payload) {
			return nil, fmt.Errorf("strdict: unterminated string at entry %d", i)
		}
		d.lines = append(d.lines, string(payload[pos:end]))
		pos = end + 1
	}
	return d, nil
}

// EncodeChunk is a convenience that wraps Encode in a DictionaryText
// chunk header.
func (d *Dictionary) EncodeChunk(dst []byte) []byte {
	return chunk.AppendChunk(dst, chunk.DictionaryText, d.Encode())
}
