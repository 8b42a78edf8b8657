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

package chunk

import "encoding/binary"

// tagFromASCII packs up to 8 ASCII bytes into a Tag, least-significant
// byte first, so tags are readable in a hex dump.
func tagFromASCII(s string) Tag {
	var b [8]byte
	copy(b[:], s)
	return Tag(binary.LittleEndian.Uint64(b[:]))
}

// Known chunk tags. Unknown tags are legal; the rewriter copies them
// through unchanged (see matpkg.Rewriter.Rewrite).
var (
	DictionaryText  = tagFromASCII("DICT_TXT")
	DictionarySpirv = tagFromASCII("DICT_SPV")
	MaterialGlsl    = tagFromASCII("MAT_GLSL")
	MaterialMetal   = tagFromASCII("MAT_MTL ")
	MaterialSpirv   = tagFromASCII("MAT_SPV ")
)
