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

import "testing"

func TestParseSpecFile(t *testing.T) {
	src := []byte(`# a comment
BlendingMode = opaque
ShadingModel = lit

hasBaseColorMap = required
normalMap = optional
`)
	spec, err := ParseSpecFile("material.spec", src)
	if err != nil {
		t.Fatalf("ParseSpecFile: %v", err)
	}
	if spec.Blending != BlendingOpaque {
		t.Fatalf("blending = %v, want opaque", spec.Blending)
	}
	if spec.Shading != ShadingLit {
		t.Fatalf("shading = %v, want lit", spec.Shading)
	}
	if len(spec.Flags) != 2 {
		t.Fatalf("want 2 flags, got %+v", spec.Flags)
	}
	if spec.Flags[0] != (Flag{Name: "hasBaseColorMap", Value: FeatureRequired}) {
		t.Fatalf("flags[0] = %+v", spec.Flags[0])
	}
	if spec.Flags[1] != (Flag{Name: "normalMap", Value: FeatureOptional}) {
		t.Fatalf("flags[1] = %+v", spec.Flags[1])
	}
}

func TestParseSpecFileTrailingGarbage(t *testing.T) {
	_, err := ParseSpecFile("bad.spec", []byte("BlendingMode = opaque garbage\n"))
	if err == nil {
		t.Fatalf("want a syntax error")
	}
	var se *SpecSyntaxError
	if !asSyntaxError(err, &se) {
		t.Fatalf("want *SpecSyntaxError, got %v (%T)", err, err)
	}
	if se.Line != 1 {
		t.Fatalf("want line 1, got %d", se.Line)
	}
}

func TestParseSpecFileBadLiteral(t *testing.T) {
	_, err := ParseSpecFile("bad.spec", []byte("ShadingModel = glossy\n"))
	if err == nil {
		t.Fatalf("want a syntax error")
	}
}

func TestParseSpecFileMissingEquals(t *testing.T) {
	_, err := ParseSpecFile("bad.spec", []byte("notAnAssignment\n"))
	if err == nil {
		t.Fatalf("want a syntax error")
	}
}

func asSyntaxError(err error, target **SpecSyntaxError) bool {
	se, ok := err.(*SpecSyntaxError)
	if !ok {
		return false
	}
	*target = se
	return true
}
