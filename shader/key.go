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

// Package shader encodes and decodes the two physical shader-record
// chunk kinds that a material package can contain: line-dictionary
// compressed text (GLSL/MSL) and blob-dictionary referenced SPIR-V.
package shader

// Key identifies a shader record within a material package by
// (shader model, variant, stage). Keys need not be sorted and are
// not required to be unique by the codec layer, though
// MaterialPackage well-formedness forbids duplicates. Nothing in this
// module checks for them; matpkg.Rewriter.Rewrite replaces the first
// record with a matching key.
type Key struct {
	Model, Variant, Stage uint8
}
