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

package archive

import (
	"encoding/binary"
	"log"

	"github.com/ubershader/matpkg/compr"
)

// Writer accumulates material packages and their specs and serializes
// them into a single compressed archive buffer. The zero value is not
// usable; build one with NewWriter.
type Writer struct {
	specs []Spec
	log   *log.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWriterLogger attaches a logger the Writer uses to report each
// material it adds. A nil logger (the default) disables logging.
func WithWriterLogger(l *log.Logger) WriterOption {
	return func(w *Writer) { w.log = l }
}

// NewWriter builds an empty Writer.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// AddMaterial appends one material package and its spec to the
// archive, in the order specs will be iterated by the matcher: spec
// iteration is stable and follows insertion order.
func (w *Writer) AddMaterial(spec Spec) {
	if w.log != nil {
		w.log.Printf("archive: adding material (shading=%s blending=%s flags=%d package=%dB)",
			spec.Shading, spec.Blending, len(spec.Flags), len(spec.Package))
	}
	w.specs = append(w.specs, spec)
}

type specLayout struct {
	flagsOffset      int
	packageOffset    int
	packageByteCount int
}

// Serialize lays out every accumulated spec and package into the
// archive's binary layout, then compresses the whole buffer at
// maximum level and returns the result.
func (w *Writer) Serialize() ([]byte, error) {
	buf := make([]byte, headerSize)

	specsOffset := len(buf)
	buf = append(buf, make([]byte, specEntrySize*len(w.specs))...)

	totalFlags := 0
	for _, s := range w.specs {
		totalFlags += len(s.Flags)
	}
	flagsBase := len(buf)
	buf = append(buf, make([]byte, flagEntrySize*totalFlags)...)

	// Flag-name strings follow the flag table, one null-terminated
	// string per flag, concatenated in insertion order across every
	// spec.
	nameOffsets := make([]int, 0, totalFlags)
	for _, s := range w.specs {
		for _, f := range s.Flags {
			nameOffsets = append(nameOffsets, len(buf))
			buf = append(buf, []byte(f.Name)...)
			buf = append(buf, 0)
		}
	}
	buf = pad8(buf)

	layouts := make([]specLayout, len(w.specs))
	flagCursor := flagsBase
	for i, s := range w.specs {
		layouts[i].flagsOffset = flagCursor
		flagCursor += len(s.Flags) * flagEntrySize
	}
	for i, s := range w.specs {
		layouts[i].packageOffset = len(buf)
		layouts[i].packageByteCount = len(s.Package)
		buf = append(buf, s.Package...)
		buf = pad8(buf)
	}

	copy(buf[0:4], magic)
	binary.LittleEndian.PutUint32(buf[4:], 0) // version
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(w.specs)))
	binary.LittleEndian.PutUint64(buf[16:], uint64(specsOffset))

	for i, s := range w.specs {
		off := specsOffset + i*specEntrySize
		binary.LittleEndian.PutUint32(buf[off:], uint32(s.Shading))
		binary.LittleEndian.PutUint32(buf[off+4:], uint32(s.Blending))
		binary.LittleEndian.PutUint32(buf[off+8:], uint32(len(s.Flags)))
		binary.LittleEndian.PutUint64(buf[off+16:], uint64(layouts[i].flagsOffset))
		binary.LittleEndian.PutUint64(buf[off+24:], uint64(layouts[i].packageByteCount))
		binary.LittleEndian.PutUint64(buf[off+32:], uint64(layouts[i].packageOffset))
	}

	nameIdx := 0
	flagCursor = flagsBase
	for _, s := range w.specs {
		for _, f := range s.Flags {
			binary.LittleEndian.PutUint64(buf[flagCursor:], uint64(nameOffsets[nameIdx]))
			binary.LittleEndian.PutUint64(buf[flagCursor+8:], uint64(f.Value))
			flagCursor += flagEntrySize
			nameIdx++
		}
	}

	codec := compr.Compression("zstd-max")
	return codec.Compress(buf, nil), nil
}

func pad8(buf []byte) []byte {
	n := align8(len(buf))
	for len(buf) < n {
		buf = append(buf, 0)
	}
	return buf
}
