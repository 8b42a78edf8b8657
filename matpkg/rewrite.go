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

package matpkg

import (
	"fmt"
	"log"

	"github.com/ubershader/matpkg/blobdict"
	"github.com/ubershader/matpkg/chunk"
	"github.com/ubershader/matpkg/compr"
	"github.com/ubershader/matpkg/shader"
	"github.com/ubershader/matpkg/strdict"
)

// Compiler compiles GLSL/MSL source into SPIR-V bytecode for a given
// stage and shader model. It is an external collaborator treated as a
// black box; this package never implements one.
type Compiler interface {
	Compile(source []byte, stage, model uint8) ([]byte, error)
}

// Rewriter applies single-shader replacements to material packages.
// The zero value is not usable; build one with New.
type Rewriter struct {
	compiler Compiler
	cfg      Config
	log      *log.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithLogger attaches a logger the Rewriter uses to report which
// record it replaced. A nil logger (the default) disables logging.
func WithLogger(l *log.Logger) Option {
	return func(r *Rewriter) { r.log = l }
}

// WithConfig overrides the default Config.
func WithConfig(cfg Config) Option {
	return func(r *Rewriter) { r.cfg = cfg }
}

// New builds a Rewriter. compiler is only invoked for packages whose
// material chunk is MaterialSpirv; text-backend packages store source
// directly and never call it.
func New(compiler Compiler, opts ...Option) *Rewriter {
	r := &Rewriter{compiler: compiler, cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Rewriter) logf(format string, args ...any) {
	if r.log != nil {
		r.log.Printf(format, args...)
	}
}

// Rewrite produces a new material package with the shader record
// identified by key replaced by newSource, preserving every other
// chunk bit-for-bit. For a MaterialGlsl/MaterialMetal package,
// newSource is taken to be the shader source text verbatim; for a
// MaterialSpirv package, newSource is GLSL/MSL source that is
// compiled via the Rewriter's Compiler before being stored.
func (r *Rewriter) Rewrite(packageBytes []byte, key shader.Key, newSource []byte) ([]byte, error) {
	cc, err := chunk.Parse(packageBytes)
	if err != nil {
		return nil, fmt.Errorf("matpkg: malformed package: %w", err)
	}

	var dictTag, matTag chunk.Tag
	isSpirv := false
	switch {
	case cc.Has(chunk.MaterialSpirv):
		dictTag, matTag, isSpirv = chunk.DictionarySpirv, chunk.MaterialSpirv, true
	case cc.Has(chunk.MaterialGlsl):
		dictTag, matTag = chunk.DictionaryText, chunk.MaterialGlsl
	case cc.Has(chunk.MaterialMetal):
		dictTag, matTag = chunk.DictionaryText, chunk.MaterialMetal
	default:
		return nil, ErrUnsupportedBackend
	}

	matPayload, _ := cc.Payload(matTag)
	dictPayload, hasDict := cc.Payload(dictTag)

	var out []byte
	for _, e := range cc.Entries() {
		if e.Tag == dictTag || e.Tag == matTag {
			continue
		}
		out = chunk.AppendChunk(out, e.Tag, e.Payload)
	}

	if isSpirv {
		return r.rewriteSpirv(out, dictPayload, hasDict, matPayload, key, newSource)
	}
	return r.rewriteText(out, matTag, dictPayload, hasDict, matPayload, key, newSource)
}

func (r *Rewriter) rewriteText(out []byte, matTag chunk.Tag, dictPayload []byte, hasDict bool, matPayload []byte, key shader.Key, newSource []byte) ([]byte, error) {
	dict := &strdict.Dictionary{}
	if hasDict {
		var err error
		dict, err = strdict.Decode(dictPayload)
		if err != nil {
			return nil, fmt.Errorf("matpkg: malformed package: %w", err)
		}
	}
	records, err := shader.DecodeText(matPayload, dict)
	if err != nil {
		return nil, fmt.Errorf("matpkg: malformed package: %w", err)
	}

	found := false
	for i := range records {
		if records[i].Key == key {
			records[i].Text = string(newSource)
			found = true
			break
		}
	}
	if !found {
		return nil, &NoSuchShaderError{Key: key}
	}

	newDict, newMatPayload, err := shader.EncodeText(records)
	if err != nil {
		return nil, err
	}
	r.logf("matpkg: replaced text shader model=%d variant=%d stage=%d (%d dictionary lines)",
		key.Model, key.Variant, key.Stage, newDict.Size())

	out = newDict.EncodeChunk(out)
	out = chunk.AppendChunk(out, matTag, newMatPayload)
	return out, nil
}

func (r *Rewriter) rewriteSpirv(out []byte, dictPayload []byte, hasDict bool, matPayload []byte, key shader.Key, newSource []byte) ([]byte, error) {
	codec := compr.Decompression(r.cfg.BlobCodec)
	if codec == nil {
		return nil, fmt.Errorf("matpkg: unknown blob codec %q", r.cfg.BlobCodec)
	}
	dict := &blobdict.Dictionary{}
	if hasDict {
		var err error
		dict, err = blobdict.Decode(dictPayload, codec)
		if err != nil {
			return nil, fmt.Errorf("matpkg: malformed package: %w", err)
		}
	}
	records, err := shader.DecodeSpirv(matPayload)
	if err != nil {
		return nil, fmt.Errorf("matpkg: malformed package: %w", err)
	}

	target := -1
	for i := range records {
		if records[i].Key == key {
			target = i
			break
		}
	}
	if target < 0 {
		return nil, &NoSuchShaderError{Key: key}
	}

	blob, err := r.compiler.Compile(newSource, key.Stage, key.Model)
	if err != nil {
		return nil, &CompileError{Key: key, Diagnostic: err.Error()}
	}
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("matpkg: compiler returned %d bytes, not a multiple of 4", len(blob))
	}

	records[target].BlobIndex = uint32(dict.Add(blob))
	r.logf("matpkg: replaced spirv shader model=%d variant=%d stage=%d (%d blobs in dictionary)",
		key.Model, key.Variant, key.Stage, dict.Size())

	compressor := compr.Compression(r.cfg.BlobCodec)
	out = dict.EncodeChunk(out, compressor)
	out = chunk.AppendChunk(out, chunk.MaterialSpirv, shader.EncodeSpirv(records))
	return out, nil
}
