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

package shader

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ubershader/matpkg/strdict"
)

const textEntrySize = 1 + 1 + 1 + 4 // model, variant, stage, offset

// TextRecord is the logical form of one GLSL/MSL shader: a key plus
// its fully reconstructed source text.
type TextRecord struct {
	Key  Key
	Text string
}

// DecodeText reconstructs every text shader record in a
// MaterialGlsl/MaterialMetal chunk payload, resolving each record's
// line indices against dict.
func DecodeText(payload []byte, dict *strdict.Dictionary) ([]TextRecord, error) {
	if len(payload) < 8 {
		return nil, fmt.Errorf("shader: text chunk payload too short for a record count")
	}
	count := binary.LittleEndian.Uint64(payload)
	maxCount := uint64(len(payload)-8) / textEntrySize
	if count > maxCount {
		return nil, fmt.Errorf("shader: truncated fixed-entry region for %d records", count)
	}
	records := make([]TextRecord, count)
	for i := uint64(0); i < count; i++ {
		off := 8 + int(i)*textEntrySize
		key := Key{
			Model:   payload[off],
			Variant: payload[off+1],
			Stage:   payload[off+2],
		}
		tailOffset := binary.LittleEndian.Uint32(payload[off+3:])

		text, err := decodeTail(payload, tailOffset, dict)
		if err != nil {
			return nil, fmt.Errorf("shader: record %d (model=%d variant=%d stage=%d): %w",
				i, key.Model, key.Variant, key.Stage, err)
		}
		records[i] = TextRecord{Key: key, Text: text}
	}
	return records, nil
}

func decodeTail(payload []byte, offset uint32, dict *strdict.Dictionary) (string, error) {
	if int(offset)+8 > len(payload) {
		return "", fmt.Errorf("tail offset %d out of range", offset)
	}
	// stringLength is descriptive only; text is reconstructed purely
	// from line indices.
	_ = binary.LittleEndian.Uint32(payload[offset:])
	lineCount := binary.LittleEndian.Uint32(payload[offset+4:])

	idxStart := int(offset) + 8
	idxEnd := idxStart + int(lineCount)*2
	if idxEnd > len(payload) {
		return "", fmt.Errorf("line-index region runs past the chunk end")
	}

	var b strings.Builder
	for i := uint32(0); i < lineCount; i++ {
		idx := binary.LittleEndian.Uint16(payload[idxStart+int(i)*2:])
		line, ok := dict.Get(idx)
		if !ok {
			return "", fmt.Errorf("line index %d out of range (dictionary has %d lines)", idx, dict.Size())
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// EncodeText rebuilds the text-shader dictionary and material chunk
// payloads from scratch given the final set of records. The returned
// dictionary contains exactly the lines referenced by records, in
// first-use order across records — any line from a previous
// dictionary that nothing references anymore is dropped.
func EncodeText(records []TextRecord) (dict *strdict.Dictionary, matPayload []byte, err error) {
	dict = &strdict.Dictionary{}

	type tail struct {
		stringLength uint32
		lineIndices  []uint16
	}
	tails := make([]tail, len(records))

	for i, r := range records {
		lines := splitLines(r.Text)
		indices := make([]uint16, 0, len(lines))
		var stringLength uint32
		for _, line := range lines {
			idx, ierr := dict.Intern(line)
			if ierr != nil {
				return nil, nil, fmt.Errorf("shader: encoding record %d: %w", i, ierr)
			}
			indices = append(indices, idx)
			stringLength += uint32(len(line)) + 1
		}
		tails[i] = tail{stringLength: stringLength, lineIndices: indices}
	}

	fixedSize := 8 + len(records)*textEntrySize
	offset := uint32(fixedSize)
	offsets := make([]uint32, len(records))
	for i, t := range tails {
		offsets[i] = offset
		offset += 8 + uint32(len(t.lineIndices))*2
	}

	buf := make([]byte, 8, offset)
	binary.LittleEndian.PutUint64(buf, uint64(len(records)))
	for i, r := range records {
		var eb [textEntrySize]byte
		eb[0] = r.Key.Model
		eb[1] = r.Key.Variant
		eb[2] = r.Key.Stage
		binary.LittleEndian.PutUint32(eb[3:], offsets[i])
		buf = append(buf, eb[:]...)
	}
	for _, t := range tails {
		var hb [8]byte
		binary.LittleEndian.PutUint32(hb[0:], t.stringLength)
		binary.LittleEndian.PutUint32(hb[4:], uint32(len(t.lineIndices)))
		buf = append(buf, hb[:]...)
		for _, idx := range t.lineIndices {
			var ib [2]byte
			binary.LittleEndian.PutUint16(ib[:], idx)
			buf = append(buf, ib[:]...)
		}
	}
	if uint32(len(buf)) != offset {
		return nil, nil, fmt.Errorf("shader: %w: computed payload size %d, built %d", ErrInternalEncoding, offset, len(buf))
	}
	return dict, buf, nil
}

// ErrInternalEncoding is wrapped by EncodeText when the length/offset
// bookkeeping it computed doesn't match what it actually wrote. This
// indicates a bug in this package, not bad input data.
var ErrInternalEncoding = fmt.Errorf("internal encoding error")

// splitLines splits text on '\n', dropping one trailing newline if
// present (the convention EncodeText/decodeTail use to represent
// "text" as a sequence of lines).
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{""}
	}
	return strings.Split(text, "\n")
}
