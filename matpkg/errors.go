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

// Package matpkg implements the PackageRewriter: given a material
// package and a (model, variant, stage, new source) request, it
// produces a new package with exactly that shader record replaced,
// leaving every other chunk byte-identical.
package matpkg

import (
	"errors"
	"fmt"

	"github.com/ubershader/matpkg/shader"
)

// ErrUnsupportedBackend is returned when a package contains none of
// the known material chunk tags.
var ErrUnsupportedBackend = errors.New("matpkg: package has no recognized material chunk")

// NoSuchShaderError is returned when no record in the package matches
// the requested key.
type NoSuchShaderError struct {
	Key shader.Key
}

func (e *NoSuchShaderError) Error() string {
	return fmt.Sprintf("matpkg: no shader record for model=%d variant=%d stage=%d",
		e.Key.Model, e.Key.Variant, e.Key.Stage)
}

// CompileError wraps a failure from the external shader compiler,
// carrying its full diagnostic text so callers can surface the
// compiler log verbatim.
type CompileError struct {
	Key        shader.Key
	Diagnostic string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("matpkg: compiling model=%d variant=%d stage=%d: %s",
		e.Key.Model, e.Key.Variant, e.Key.Stage, e.Diagnostic)
}
