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
)

const spirvEntrySize = 1 + 1 + 1 + 4 // model, variant, stage, blobIndex

// SpirvRecord is the logical form of one SPIR-V shader: a key plus
// the index of its bytecode blob in a blobdict.Dictionary.
type SpirvRecord struct {
	Key       Key
	BlobIndex uint32
}

// DecodeSpirv parses the fixed-size record table of a MaterialSpirv
// chunk payload. It has no variable-size tail region, unlike text
// records.
func DecodeSpirv(payload []byte) ([]SpirvRecord, error) {
	if len(payload) < 8 {
		return nil, fmt.Errorf("shader: spirv chunk payload too short for a record count")
	}
	count := binary.LittleEndian.Uint64(payload)
	maxCount := uint64(len(payload)-8) / spirvEntrySize
	if count > maxCount {
		return nil, fmt.Errorf("shader: truncated record table for %d spirv records", count)
	}
	records := make([]SpirvRecord, count)
	for i := uint64(0); i < count; i++ {
		off := 8 + int(i)*spirvEntrySize
		records[i] = SpirvRecord{
			Key: Key{
				Model:   payload[off],
				Variant: payload[off+1],
				Stage:   payload[off+2],
			},
			BlobIndex: binary.LittleEndian.Uint32(payload[off+3:]),
		}
	}
	return records, nil
}

// EncodeSpirv serializes records into a MaterialSpirv chunk payload.
func EncodeSpirv(records []SpirvRecord) []byte {
	buf := make([]byte, 8, 8+len(records)*spirvEntrySize)
	binary.LittleEndian.PutUint64(buf, uint64(len(records)))
	for _, r := range records {
		var eb [spirvEntrySize]byte
		eb[0] = r.Key.Model
		eb[1] = r.Key.Variant
		eb[2] = r.Key.Stage
		binary.LittleEndian.PutUint32(eb[3:], r.BlobIndex)
		buf = append(buf, eb[:]...)
	}
	return buf
}
