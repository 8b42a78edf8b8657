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
	"errors"
	"testing"

	"github.com/ubershader/matpkg/blobdict"
	"github.com/ubershader/matpkg/chunk"
	"github.com/ubershader/matpkg/compr"
	"github.com/ubershader/matpkg/shader"
	"github.com/ubershader/matpkg/strdict"
)

func buildTextPackage(t *testing.T, records []shader.TextRecord, extra ...chunk.Entry) []byte {
	t.Helper()
	dict, matPayload, err := shader.EncodeText(records)
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}
	var out []byte
	for _, e := range extra {
		out = chunk.AppendChunk(out, e.Tag, e.Payload)
	}
	out = dict.EncodeChunk(out)
	out = chunk.AppendChunk(out, chunk.MaterialGlsl, matPayload)
	return out
}

func buildSpirvPackage(t *testing.T, records []shader.SpirvRecord, blobs [][]byte) []byte {
	t.Helper()
	dict := &blobdict.Dictionary{}
	indexOf := make([]uint32, len(blobs))
	for i, b := range blobs {
		indexOf[i] = uint32(dict.Add(b))
	}
	for i := range records {
		// caller passes BlobIndex as an index into blobs, remapped here
		records[i].BlobIndex = indexOf[records[i].BlobIndex]
	}
	var out []byte
	out = dict.EncodeChunk(out, compr.Compression("s2"))
	out = chunk.AppendChunk(out, chunk.MaterialSpirv, shader.EncodeSpirv(records))
	return out
}

func textRecords(t *testing.T, pkg []byte) []shader.TextRecord {
	t.Helper()
	cc, err := chunk.Parse(pkg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dictPayload, _ := cc.Payload(chunk.DictionaryText)
	dict, err := strdict.Decode(dictPayload)
	if err != nil {
		t.Fatalf("strdict.Decode: %v", err)
	}
	matPayload, _ := cc.Payload(chunk.MaterialGlsl)
	records, err := shader.DecodeText(matPayload, dict)
	if err != nil {
		t.Fatalf("DecodeText: %v", err)
	}
	return records
}

func dictLineCount(t *testing.T, pkg []byte) int {
	t.Helper()
	cc, err := chunk.Parse(pkg)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dictPayload, _ := cc.Payload(chunk.DictionaryText)
	dict, err := strdict.Decode(dictPayload)
	if err != nil {
		t.Fatalf("strdict.Decode: %v", err)
	}
	return dict.Size()
}

func TestRewriteTextDropsUnreferencedLine(t *testing.T) {
	keyA := shader.Key{Model: 1, Variant: 0, Stage: 0}
	keyB := shader.Key{Model: 1, Variant: 1, Stage: 0}
	pkg := buildTextPackage(t, []shader.TextRecord{
		{Key: keyA, Text: "#version 310 es\nvoid main() {}\n"},
		{Key: keyB, Text: "#version 310 es\nvoid main() { discard; }\n"},
	})
	if got := dictLineCount(t, pkg); got != 3 {
		t.Fatalf("want 3 dictionary lines before rewrite, got %d", got)
	}

	rw := New(nil)
	out, err := rw.Rewrite(pkg, keyA, []byte("void main() { gl_Position = vec4(0.0); }\n"))
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	records := textRecords(t, out)
	var gotA, gotB string
	for _, r := range records {
		switch r.Key {
		case keyA:
			gotA = r.Text
		case keyB:
			gotB = r.Text
		}
	}
	if gotA != "void main() { gl_Position = vec4(0.0); }\n" {
		t.Fatalf("record A not replaced, got %q", gotA)
	}
	if gotB != "#version 310 es\nvoid main() { discard; }\n" {
		t.Fatalf("record B changed unexpectedly, got %q", gotB)
	}

	// keyA's old body line is gone; the "#version 310 es" line is still
	// used by keyB and stays, and keyA's single new line is added.
	if got := dictLineCount(t, out); got != 3 {
		t.Fatalf("want 3 dictionary lines after rewrite (keyB's version line + discard line + 1 new line), got %d", got)
	}
}

func TestRewriteTextPassesThroughUnknownChunks(t *testing.T) {
	key := shader.Key{Model: 0, Variant: 0, Stage: 0}
	extraTag := chunk.Tag(0x1122334455667788)
	pkg := buildTextPackage(t, []shader.TextRecord{
		{Key: key, Text: "void main() {}\n"},
	}, chunk.Entry{Tag: extraTag, Payload: []byte("opaque")})

	rw := New(nil)
	out, err := rw.Rewrite(pkg, key, []byte("void main() { x; }\n"))
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	cc, err := chunk.Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	payload, ok := cc.Payload(extraTag)
	if !ok || string(payload) != "opaque" {
		t.Fatalf("unknown chunk not passed through unchanged: %v %q", ok, payload)
	}
}

func TestRewriteTextNoSuchShader(t *testing.T) {
	key := shader.Key{Model: 0, Variant: 0, Stage: 0}
	pkg := buildTextPackage(t, []shader.TextRecord{
		{Key: key, Text: "void main() {}\n"},
	})
	rw := New(nil)
	_, err := rw.Rewrite(pkg, shader.Key{Model: 9, Variant: 9, Stage: 9}, []byte("x"))
	var nsErr *NoSuchShaderError
	if !errors.As(err, &nsErr) {
		t.Fatalf("want *NoSuchShaderError, got %v", err)
	}
}

func TestRewriteUnsupportedBackend(t *testing.T) {
	rw := New(nil)
	_, err := rw.Rewrite(nil, shader.Key{}, []byte("x"))
	if !errors.Is(err, ErrUnsupportedBackend) {
		t.Fatalf("want ErrUnsupportedBackend, got %v", err)
	}
}

type fakeCompiler struct {
	out []byte
	err error
}

func (f *fakeCompiler) Compile(src []byte, stage, model uint8) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func TestRewriteSpirvPreservesUnrelatedBlobIndex(t *testing.T) {
	keyA := shader.Key{Model: 2, Variant: 0, Stage: 0}
	keyB := shader.Key{Model: 2, Variant: 1, Stage: 0}
	sharedBlob := []byte{1, 2, 3, 4}
	pkg := buildSpirvPackage(t,
		[]shader.SpirvRecord{
			{Key: keyA, BlobIndex: 0},
			{Key: keyB, BlobIndex: 0},
		},
		[][]byte{sharedBlob},
	)

	newBlob := []byte{5, 6, 7, 8}
	rw := New(&fakeCompiler{out: newBlob})
	out, err := rw.Rewrite(pkg, keyA, []byte("irrelevant source"))
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	cc, err := chunk.Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	matPayload, _ := cc.Payload(chunk.MaterialSpirv)
	records, err := shader.DecodeSpirv(matPayload)
	if err != nil {
		t.Fatalf("DecodeSpirv: %v", err)
	}
	var gotA, gotB shader.SpirvRecord
	for _, r := range records {
		switch r.Key {
		case keyA:
			gotA = r
		case keyB:
			gotB = r
		}
	}
	if gotA.BlobIndex == gotB.BlobIndex {
		t.Fatalf("record A should now point at a distinct blob, both point at %d", gotA.BlobIndex)
	}

	dictPayload, _ := cc.Payload(chunk.DictionarySpirv)
	dict, err := blobdict.Decode(dictPayload, compr.Decompression("s2"))
	if err != nil {
		t.Fatalf("blobdict.Decode: %v", err)
	}
	bBlob, ok := dict.Get(int(gotB.BlobIndex))
	if !ok {
		t.Fatalf("record B's blob index %d not found", gotB.BlobIndex)
	}
	if string(bBlob) != string(sharedBlob) {
		t.Fatalf("record B's blob changed: got %v want %v", bBlob, sharedBlob)
	}
	aBlob, ok := dict.Get(int(gotA.BlobIndex))
	if !ok || string(aBlob) != string(newBlob) {
		t.Fatalf("record A's blob is wrong: ok=%v got %v want %v", ok, aBlob, newBlob)
	}
}

func TestRewriteSpirvCompileError(t *testing.T) {
	key := shader.Key{Model: 0, Variant: 0, Stage: 0}
	pkg := buildSpirvPackage(t,
		[]shader.SpirvRecord{{Key: key, BlobIndex: 0}},
		[][]byte{{1, 2, 3, 4}},
	)
	rw := New(&fakeCompiler{err: errors.New("syntax error at line 3")})
	_, err := rw.Rewrite(pkg, key, []byte("broken"))
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("want *CompileError, got %v", err)
	}
}
