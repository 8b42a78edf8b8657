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

import "fmt"

// ErrNoMatch is returned by Matcher.Select when no spec in the
// archive satisfies the requirements. It is non-fatal; the caller may
// fall back to Reader.Default.
var ErrNoMatch = fmt.Errorf("archive: no spec satisfies the requirements")

// Matcher selects the first spec in an archive suitable for a given
// set of mesh requirements.
type Matcher struct {
	reader *Reader
	// Diagnose, if set, is invoked for every spec the selection loop
	// rejects, with a short human-readable reason. Every rejected
	// index is reported here, including index 0.
	Diagnose func(specIndex int, reason string)
}

// NewMatcher builds a Matcher over the specs exposed by r.
func NewMatcher(r *Reader) *Matcher {
	return &Matcher{reader: r}
}

// Select returns the index of the first spec, in archive order,
// satisfying reqs. It is a pure function of the archive's contents
// and reqs.
func (m *Matcher) Select(reqs Requirements) (int, error) {
	for i := 0; i < m.reader.Len(); i++ {
		spec, _ := m.reader.Spec(i)
		if reason, ok := suitable(spec, reqs); !ok {
			if m.Diagnose != nil {
				m.Diagnose(i, reason)
			}
			continue
		}
		return i, nil
	}
	return 0, ErrNoMatch
}

func suitable(spec Spec, reqs Requirements) (string, bool) {
	if spec.Blending != BlendingInvalid && spec.Blending != reqs.Blending {
		return "blending mode mismatch", false
	}
	if spec.Shading != ShadingInvalid && spec.Shading != reqs.Shading {
		return "shading model mismatch", false
	}
	for name, used := range reqs.Features {
		if !used {
			continue
		}
		level, ok := spec.Flag(name)
		if !ok || level == FeatureUnsupported {
			return fmt.Sprintf("feature %q not covered", name), false
		}
	}
	for _, f := range spec.Flags {
		if f.Value != FeatureRequired {
			continue
		}
		if !reqs.Features[f.Name] {
			return fmt.Sprintf("required feature %q not requested", f.Name), false
		}
	}
	return "", true
}
