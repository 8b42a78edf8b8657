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

import (
	"bytes"
	"testing"
)

func build(t *testing.T, entries ...Entry) []byte {
	t.Helper()
	var buf []byte
	for _, e := range entries {
		buf = AppendChunk(buf, e.Tag, e.Payload)
	}
	return buf
}

func TestParseRoundTrip(t *testing.T) {
	unknown := Tag(0xDEADBEEF01020304)
	buf := build(t,
		Entry{DictionaryText, []byte("hello\x00")},
		Entry{unknown, []byte{0x01, 0x02, 0x03}},
		Entry{MaterialGlsl, []byte{0xAA, 0xBB}},
	)

	c, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !c.Has(DictionaryText) || !c.Has(unknown) || !c.Has(MaterialGlsl) {
		t.Fatalf("missing expected chunk tags")
	}
	if c.Has(MaterialSpirv) {
		t.Fatalf("Has reported a tag that was never written")
	}

	payload, ok := c.Payload(unknown)
	if !ok || !bytes.Equal(payload, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("unknown chunk payload = %v, ok=%v", payload, ok)
	}

	entries := c.Entries()
	if len(entries) != 3 {
		t.Fatalf("Entries: got %d entries, want 3", len(entries))
	}
	if entries[1].Tag != unknown || !bytes.Equal(entries[1].Payload, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("Entries did not preserve stream order/payload for unknown chunk")
	}
}

func TestParseTruncated(t *testing.T) {
	buf := build(t, Entry{DictionaryText, []byte("hi")})
	_, err := Parse(buf[:len(buf)-1])
	if err == nil {
		t.Fatal("expected a malformed-container error for a truncated buffer")
	}
}

func TestParseEmpty(t *testing.T) {
	c, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if c.Has(DictionaryText) {
		t.Fatal("empty container should have no chunks")
	}
}
