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
	"fmt"
	"strings"
)

// SpecSyntaxError reports a malformed line in a spec file. It is
// always fatal to the write that triggered it; retrying with a fixed
// spec file is the caller's responsibility.
type SpecSyntaxError struct {
	File string
	Line int
	Col  int
	Msg  string
}

func (e *SpecSyntaxError) Error() string {
	file := e.File
	if file == "" {
		file = "<spec>"
	}
	return fmt.Sprintf("%s:%d:%d: %s", file, e.Line, e.Col, e.Msg)
}

var blendingLiterals = map[string]Blending{
	"opaque":      BlendingOpaque,
	"transparent": BlendingTransparent,
	"add":         BlendingAdd,
	"masked":      BlendingMasked,
	"fade":        BlendingFade,
	"multiply":    BlendingMultiply,
	"screen":      BlendingScreen,
}

var shadingLiterals = map[string]Shading{
	"unlit":              ShadingUnlit,
	"lit":                ShadingLit,
	"subsurface":         ShadingSubsurface,
	"cloth":              ShadingCloth,
	"specularGlossiness": ShadingSpecularGlossiness,
}

var featureLiterals = map[string]Feature{
	"unsupported": FeatureUnsupported,
	"optional":    FeatureOptional,
	"required":    FeatureRequired,
}

// ParseSpecFile parses a tiny key=value grammar into a Spec, starting
// from the zero value (both Shading and Blending default to their
// Invalid member; flags are accumulated in the order their assignment
// lines appear). file is used only to annotate any SpecSyntaxError
// produced.
func ParseSpecFile(file string, data []byte) (Spec, error) {
	var spec Spec
	lines := strings.Split(string(data), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			return Spec{}, &SpecSyntaxError{File: file, Line: lineNo, Col: len(raw) + 1, Msg: "expected 'ident = value'"}
		}
		ident := strings.TrimSpace(line[:eq])
		if !isIdent(ident) {
			return Spec{}, &SpecSyntaxError{File: file, Line: lineNo, Col: 1, Msg: fmt.Sprintf("invalid identifier %q", ident)}
		}
		rest := line[eq+1:]
		trimmedRest := strings.TrimLeft(rest, " \t")
		leadingSpace := len(rest) - len(trimmedRest)
		value := strings.TrimRight(trimmedRest, " \t")
		if idx := strings.IndexAny(value, " \t"); idx >= 0 {
			col := eq + 1 + leadingSpace + idx + 1
			return Spec{}, &SpecSyntaxError{File: file, Line: lineNo, Col: col, Msg: "trailing characters after value"}
		}
		if value == "" {
			return Spec{}, &SpecSyntaxError{File: file, Line: lineNo, Col: eq + 2, Msg: "missing value"}
		}

		switch ident {
		case "BlendingMode":
			b, ok := blendingLiterals[value]
			if !ok {
				return Spec{}, &SpecSyntaxError{File: file, Line: lineNo, Col: eq + 2, Msg: fmt.Sprintf("%q is not a blending mode", value)}
			}
			spec.Blending = b
		case "ShadingModel":
			s, ok := shadingLiterals[value]
			if !ok {
				return Spec{}, &SpecSyntaxError{File: file, Line: lineNo, Col: eq + 2, Msg: fmt.Sprintf("%q is not a shading model", value)}
			}
			spec.Shading = s
		default:
			f, ok := featureLiterals[value]
			if !ok {
				return Spec{}, &SpecSyntaxError{File: file, Line: lineNo, Col: eq + 2, Msg: fmt.Sprintf("%q is not a feature level", value)}
			}
			spec.Flags = append(spec.Flags, Flag{Name: ident, Value: f})
		}
	}
	return spec, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
