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

// Package archive implements the ubershader archive codec: packing
// many material packages, each tagged with a small declarative spec,
// into a single compressed buffer, and the reverse — loading that
// buffer and selecting the first spec suitable for a mesh's
// requirements.
package archive

import "fmt"

// Shading is a shading-model code. INVALID means "unconstrained": a
// spec with Shading == Invalid matches any requirement.
type Shading uint32

const (
	ShadingInvalid Shading = iota
	ShadingUnlit
	ShadingLit
	ShadingSubsurface
	ShadingCloth
	ShadingSpecularGlossiness
)

func (s Shading) String() string {
	switch s {
	case ShadingInvalid:
		return "invalid"
	case ShadingUnlit:
		return "unlit"
	case ShadingLit:
		return "lit"
	case ShadingSubsurface:
		return "subsurface"
	case ShadingCloth:
		return "cloth"
	case ShadingSpecularGlossiness:
		return "specularGlossiness"
	default:
		return fmt.Sprintf("Shading(%d)", uint32(s))
	}
}

// Blending is a blend-mode code. INVALID means "unconstrained".
type Blending uint32

const (
	BlendingInvalid Blending = iota
	BlendingOpaque
	BlendingTransparent
	BlendingAdd
	BlendingMasked
	BlendingFade
	BlendingMultiply
	BlendingScreen
)

func (b Blending) String() string {
	switch b {
	case BlendingInvalid:
		return "invalid"
	case BlendingOpaque:
		return "opaque"
	case BlendingTransparent:
		return "transparent"
	case BlendingAdd:
		return "add"
	case BlendingMasked:
		return "masked"
	case BlendingFade:
		return "fade"
	case BlendingMultiply:
		return "multiply"
	case BlendingScreen:
		return "screen"
	default:
		return fmt.Sprintf("Blending(%d)", uint32(b))
	}
}

// Feature is the suitability level of one flag in a spec.
type Feature uint32

const (
	FeatureUnsupported Feature = iota
	FeatureOptional
	FeatureRequired
)

func (f Feature) String() string {
	switch f {
	case FeatureUnsupported:
		return "unsupported"
	case FeatureOptional:
		return "optional"
	case FeatureRequired:
		return "required"
	default:
		return fmt.Sprintf("Feature(%d)", uint32(f))
	}
}

// Flag is one named feature entry of a Spec. Specs keep flags in an
// ordered slice rather than a plain map so that the order materials
// were added in (and so flag-name string concatenation order) stays
// reproducible across writes.
type Flag struct {
	Name  string
	Value Feature
}

// Spec is the declarative tag attached to one archived material
// package: the mesh requirements it was authored to satisfy.
type Spec struct {
	Shading  Shading
	Blending Blending
	Flags    []Flag
	Package  []byte
}

// Flag looks up a flag by name.
func (s *Spec) Flag(name string) (Feature, bool) {
	for _, f := range s.Flags {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// Requirements describes what a mesh needs from a material.
type Requirements struct {
	Shading  Shading
	Blending Blending
	// Features maps a feature name to whether the mesh uses it. Only
	// entries mapped to true are meaningful to the matcher; a feature
	// mapped to false or absent is treated as unused.
	Features map[string]bool
}
