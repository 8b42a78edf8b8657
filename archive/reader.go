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
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/ubershader/matpkg/compr"
	"github.com/ubershader/matpkg/ints"
)

// ErrCorrupt is wrapped by every error Load returns for malformed
// archive data.
var ErrCorrupt = fmt.Errorf("archive: corrupt")

// handle is the lazily-built, engine-side material for one spec.
// BuildFunc below stands in for the engine's own material-build step,
// which this package treats as an external collaborator.
type handle struct {
	id    uuid.UUID
	value any
}

// BuildFunc builds an engine-side material handle from a package's raw
// bytes. Reader never calls this itself except through Build.
type BuildFunc func(packageBytes []byte) (any, error)

// Reader exposes read-only access to a loaded archive's specs and
// lazily builds one material handle per spec index on demand. The
// zero value is not usable; build one with Load.
type Reader struct {
	buf   []byte // 8-byte-aligned, decompressed
	specs []relocatedSpec

	cache map[int]*handle
	log   *log.Logger
}

type relocatedSpec struct {
	shading  Shading
	blending Blending
	flags    []Flag
	pkgStart int
	pkgEnd   int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithReaderLogger attaches a logger used to report cache builds.
// A nil logger (the default) disables logging.
func WithReaderLogger(l *log.Logger) ReaderOption {
	return func(r *Reader) { r.log = l }
}

// Load decompresses a buffer produced by Writer.Serialize and
// relocates every offset inside it into directly usable Go slices.
func Load(compressed []byte, opts ...ReaderOption) (*Reader, error) {
	size, ok := compr.ZstdFrameSize(compressed)
	if !ok {
		return nil, fmt.Errorf("%w: unknown decompressed frame size", ErrCorrupt)
	}

	// over-allocate so the returned slice can be sliced at an 8-byte
	// aligned start without a syscall-backed aligned allocator
	raw := make([]byte, size+7)
	aligned := alignSlice(raw)

	dec := compr.Decompression("zstd")
	if err := dec.Decompress(compressed, aligned); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	r := &Reader{buf: aligned, cache: make(map[int]*handle)}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.relocate(); err != nil {
		return nil, err
	}
	return r, nil
}

// alignSlice returns the len(raw)-7 bytes of raw that start at its
// first 8-byte-aligned address.
func alignSlice(raw []byte) []byte {
	addr := sliceAddr(raw)
	skip := int(ints.AlignUp(addr, 8) - addr)
	return raw[skip : skip+len(raw)-7]
}

func (r *Reader) relocate() error {
	buf := r.buf
	if len(buf) < headerSize {
		return fmt.Errorf("%w: buffer too short for a header", ErrCorrupt)
	}
	if string(buf[0:4]) != magic {
		return fmt.Errorf("%w: bad magic %q", ErrCorrupt, buf[0:4])
	}
	specsCount := binary.LittleEndian.Uint32(buf[8:])
	specsOffset := binary.LittleEndian.Uint64(buf[16:])
	if !ints.IsAligned64(specsOffset, 8) {
		panic("archive: specs_offset is not 8-byte aligned")
	}
	if specsOffset+uint64(specsCount)*specEntrySize > uint64(len(buf)) {
		return fmt.Errorf("%w: spec table runs past buffer end", ErrCorrupt)
	}

	specs := make([]relocatedSpec, specsCount)
	for i := uint32(0); i < specsCount; i++ {
		off := specsOffset + uint64(i)*specEntrySize
		shading := Shading(binary.LittleEndian.Uint32(buf[off:]))
		blending := Blending(binary.LittleEndian.Uint32(buf[off+4:]))
		flagsCount := binary.LittleEndian.Uint32(buf[off+8:])
		flagsOffset := binary.LittleEndian.Uint64(buf[off+16:])
		pkgByteCount := binary.LittleEndian.Uint64(buf[off+24:])
		pkgOffset := binary.LittleEndian.Uint64(buf[off+32:])

		if !ints.IsAligned64(flagsOffset, 8) {
			panic("archive: flags_offset is not 8-byte aligned")
		}
		if flagsOffset+uint64(flagsCount)*flagEntrySize > uint64(len(buf)) {
			return fmt.Errorf("%w: flag table for spec %d runs past buffer end", ErrCorrupt, i)
		}
		if pkgOffset+pkgByteCount > uint64(len(buf)) {
			return fmt.Errorf("%w: package for spec %d runs past buffer end", ErrCorrupt, i)
		}

		flags := make([]Flag, flagsCount)
		for j := uint32(0); j < flagsCount; j++ {
			fo := flagsOffset + uint64(j)*flagEntrySize
			nameOffset := binary.LittleEndian.Uint64(buf[fo:])
			value := Feature(binary.LittleEndian.Uint64(buf[fo+8:]))
			name, err := readCString(buf, nameOffset)
			if err != nil {
				return fmt.Errorf("%w: spec %d flag %d: %v", ErrCorrupt, i, j, err)
			}
			flags[j] = Flag{Name: name, Value: value}
		}

		specs[i] = relocatedSpec{
			shading:  shading,
			blending: blending,
			flags:    flags,
			pkgStart: int(pkgOffset),
			pkgEnd:   int(pkgOffset + pkgByteCount),
		}
	}
	r.specs = specs
	return nil
}

func readCString(buf []byte, offset uint64) (string, error) {
	if offset >= uint64(len(buf)) {
		return "", fmt.Errorf("name offset %d out of range", offset)
	}
	end := offset
	for end < uint64(len(buf)) && buf[end] != 0 {
		end++
	}
	if end >= uint64(len(buf)) {
		return "", fmt.Errorf("unterminated name string at offset %d", offset)
	}
	return string(buf[offset:end]), nil
}

// Len returns the number of specs in the archive.
func (r *Reader) Len() int {
	return len(r.specs)
}

// Spec returns a read-only view of the spec at index i.
func (r *Reader) Spec(i int) (Spec, bool) {
	if i < 0 || i >= len(r.specs) {
		return Spec{}, false
	}
	s := r.specs[i]
	return Spec{
		Shading:  s.shading,
		Blending: s.blending,
		Flags:    s.flags,
		Package:  r.buf[s.pkgStart:s.pkgEnd],
	}, true
}

// Default returns index 0, the archive's unconditional fallback spec,
// if the archive has at least one spec.
func (r *Reader) Default() (int, bool) {
	if len(r.specs) == 0 {
		return 0, false
	}
	return 0, true
}

// Build returns the cached material handle for spec i, building it
// with fn on first access. The cache is never evicted; callers that
// need to release handles must discard the Reader itself.
func (r *Reader) Build(i int, fn BuildFunc) (any, error) {
	if h, ok := r.cache[i]; ok {
		return h.value, nil
	}
	spec, ok := r.Spec(i)
	if !ok {
		return nil, fmt.Errorf("archive: spec index %d out of range", i)
	}
	v, err := fn(spec.Package)
	if err != nil {
		return nil, fmt.Errorf("archive: building material for spec %d: %w", i, err)
	}
	h := &handle{id: uuid.New(), value: v}
	r.cache[i] = h
	if r.log != nil {
		r.log.Printf("archive: built material handle %s for spec %d", h.id, i)
	}
	return v, nil
}
