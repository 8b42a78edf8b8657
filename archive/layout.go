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

import "github.com/ubershader/matpkg/ints"

// This file describes the pre-compression, relocatable binary layout.
// Every fixed section in it is sized as a multiple of 8 bytes, so as
// long as the base buffer is 8-byte aligned, every section boundary is
// too; the only variable-length regions (flag-name strings, package
// payloads) are padded up to the next multiple of 8 after being
// written, using ints.AlignUp.

const magic = "UBER"

// headerSize is the size of the fixed ReadableArchive header:
// magic[4], version u32, specsCount u32, reserved u32, specsOffset u64,
// reserved u64.
const headerSize = 32

// specEntrySize is the size of one on-disk ArchiveSpec record:
// shading u32, blending u32, flagsCount u32, reserved u32,
// flagsOffset u64, packageByteCount u64, packageOffset u64.
const specEntrySize = 40

// flagEntrySize is the size of one on-disk ArchiveFlag record:
// nameOffset u64, value u64.
const flagEntrySize = 16

// align8 rounds n up to the next multiple of 8.
func align8(n int) int {
	return int(ints.AlignUp(uint(n), 8))
}
