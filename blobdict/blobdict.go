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

// Package blobdict implements an ordered, append-only dictionary of
// byte blobs addressed by index, with content-addressed deduplication
// on insert. It backs the SPIR-V blob store (DictionarySpirv chunk),
// where each blob is compressed independently with an external,
// byte-level codec before being written out.
package blobdict

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dchest/siphash"

	"github.com/ubershader/matpkg/chunk"
	"github.com/ubershader/matpkg/compr"
	"github.com/ubershader/matpkg/ints"
)

// hashSeed is an arbitrary fixed siphash key. It only needs to be
// stable within one process; it is never persisted.
const hashSeed0, hashSeed1 = 0x4d41_5450_4b47, 0x5350_4952_5644

// Dictionary is an ordered collection of byte blobs. The zero value
// is ready to use.
type Dictionary struct {
	blobs  [][]byte
	byHash map[uint64][]int // hash -> candidate indices, resolved with bytes.Equal
}

// Add inserts blob and returns its index. If an existing blob is
// byte-identical, its index is returned instead and no copy is made.
// Dedup is the normal path when replacing a shader's blob; raw ingest
// that must preserve a 1:1 mapping between input records and blob
// slots can use AddNoDedup instead.
func (d *Dictionary) Add(blob []byte) int {
	h := contentHash(blob)
	if d.byHash == nil {
		d.byHash = make(map[uint64][]int)
	}
	for _, idx := range d.byHash[h] {
		if bytes.Equal(d.blobs[idx], blob) {
			return idx
		}
	}
	idx := len(d.blobs)
	cp := append([]byte(nil), blob...)
	d.blobs = append(d.blobs, cp)
	d.byHash[h] = append(d.byHash[h], idx)
	return idx
}

// AddNoDedup appends blob unconditionally and returns its index.
func (d *Dictionary) AddNoDedup(blob []byte) int {
	idx := len(d.blobs)
	cp := append([]byte(nil), blob...)
	d.blobs = append(d.blobs, cp)
	return idx
}

// Get returns the blob at index i.
func (d *Dictionary) Get(i int) ([]byte, bool) {
	if i < 0 || i >= len(d.blobs) {
		return nil, false
	}
	return d.blobs[i], true
}

// Size returns the number of blobs in the dictionary.
func (d *Dictionary) Size() int {
	return len(d.blobs)
}

func contentHash(b []byte) uint64 {
	return siphash.Hash(hashSeed0, hashSeed1, b)
}

// blobEntry is the fixed-size index record preceding the compressed
// blob payload: (offset, compressedSize, originalSize), all u32,
// offset relative to the start of the compressed payload region.
type blobEntry struct {
	offset, compressedSize, originalSize uint32
}

const blobEntrySize = 12

// EncodeChunk compresses every blob with codec and appends a
// DictionarySpirv chunk built from the result to dst. The chunk's
// payload is prefixed with a self-describing zero-pad (a one-byte
// length followed by that many zero bytes) chosen so that the blob
// table starts at an absolute offset, within the returned buffer,
// that is a multiple of 8, without requiring gaps between chunks
// (which chunk.Parse does not tolerate).
func (d *Dictionary) EncodeChunk(dst []byte, codec compr.Compressor) []byte {
	entries := make([]blobEntry, len(d.blobs))
	var body []byte
	for i, b := range d.blobs {
		compressed := codec.Compress(b, nil)
		entries[i] = blobEntry{
			offset:         uint32(len(body)),
			compressedSize: uint32(len(compressed)),
			originalSize:   uint32(len(b)),
		}
		body = append(body, compressed...)
	}

	// absolute offset, in the final buffer, of the first byte after
	// the 1-byte pad-length field -- i.e. where the pad bytes (and
	// then the table) begin.
	tableStart := uint(len(dst) + chunk.HeaderSize + 1)
	pad := int(ints.AlignUp(tableStart, 8) - tableStart)

	payload := make([]byte, 1+pad+4, 1+pad+4+len(entries)*blobEntrySize+len(body))
	payload[0] = byte(pad)
	binary.LittleEndian.PutUint32(payload[1+pad:], uint32(len(entries)))
	for _, e := range entries {
		var eb [blobEntrySize]byte
		binary.LittleEndian.PutUint32(eb[0:], e.offset)
		binary.LittleEndian.PutUint32(eb[4:], e.compressedSize)
		binary.LittleEndian.PutUint32(eb[8:], e.originalSize)
		payload = append(payload, eb[:]...)
	}
	payload = append(payload, body...)

	return chunk.AppendChunk(dst, chunk.DictionarySpirv, payload)
}

// Decode parses a DictionarySpirv chunk payload produced by
// EncodeChunk, decompressing every blob up front.
func Decode(payload []byte, codec compr.Decompressor) (*Dictionary, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("blobdict: empty payload")
	}
	pad := int(payload[0])
	payload = payload[1:]
	if pad > len(payload) {
		return nil, fmt.Errorf("blobdict: pad length %d exceeds payload", pad)
	}
	payload = payload[pad:]

	if len(payload) < 4 {
		return nil, fmt.Errorf("blobdict: payload too short for a count field")
	}
	count := binary.LittleEndian.Uint32(payload)
	headerEnd := 4 + int(count)*blobEntrySize
	if headerEnd > len(payload) {
		return nil, fmt.Errorf("blobdict: truncated index for %d entries", count)
	}
	body := payload[headerEnd:]

	d := &Dictionary{
		blobs:  make([][]byte, count),
		byHash: make(map[uint64][]int, count),
	}
	for i := uint32(0); i < count; i++ {
		off := 4 + int(i)*blobEntrySize
		offset := binary.LittleEndian.Uint32(payload[off:])
		compressedSize := binary.LittleEndian.Uint32(payload[off+4:])
		originalSize := binary.LittleEndian.Uint32(payload[off+8:])
		if uint64(offset)+uint64(compressedSize) > uint64(len(body)) {
			return nil, fmt.Errorf("blobdict: blob %d's compressed span runs past the payload end", i)
		}
		compressed := body[offset : offset+compressedSize]
		dst := make([]byte, originalSize)
		if err := codec.Decompress(compressed, dst); err != nil {
			return nil, fmt.Errorf("blobdict: decompressing blob %d: %w", i, err)
		}
		d.blobs[i] = dst
		h := contentHash(dst)
		d.byHash[h] = append(d.byHash[h], int(i))
	}
	return d, nil
}
