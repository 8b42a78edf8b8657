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

package shader

import "testing"

func TestTextRoundTrip(t *testing.T) {
	records := []TextRecord{
		{Key{Model: 1, Variant: 7, Stage: 0}, "#version 310 es\nvoid main(){}\n"},
		{Key{Model: 1, Variant: 7, Stage: 1}, "#version 310 es\nvoid main(){ discard; }\n"},
	}

	dict, matPayload, err := EncodeText(records)
	if err != nil {
		t.Fatal(err)
	}
	// the shared "#version 310 es" line should have been deduplicated
	if dict.Size() != 3 {
		t.Fatalf("dictionary size = %d, want 3 (one shared + two distinct bodies)", dict.Size())
	}

	got, err := DecodeText(matPayload, dict)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(records) {
		t.Fatalf("decoded %d records, want %d", len(got), len(records))
	}
	for i, r := range records {
		if got[i].Key != r.Key {
			t.Fatalf("record %d key = %+v, want %+v", i, got[i].Key, r.Key)
		}
		if got[i].Text != r.Text {
			t.Fatalf("record %d text = %q, want %q", i, got[i].Text, r.Text)
		}
	}
}

func TestTextReplaceDropsUnreferencedLine(t *testing.T) {
	original := []TextRecord{
		{Key{Model: 1, Variant: 7, Stage: 0}, "#version 310 es\nvoid main(){}\n"},
	}
	replaced := []TextRecord{
		{Key{Model: 1, Variant: 7, Stage: 0}, "void main(){ gl_Position=vec4(0); }"},
	}

	origDict, origPayload, err := EncodeText(original)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeText(origPayload, origDict)
	if err != nil {
		t.Fatal(err)
	}
	if decoded[0].Key != replaced[0].Key {
		t.Fatalf("key mismatch")
	}

	newDict, newPayload, err := EncodeText(replaced)
	if err != nil {
		t.Fatal(err)
	}
	if newDict.Size() != 1 {
		t.Fatalf("new dictionary size = %d, want 1 (the #version line must be dropped)", newDict.Size())
	}
	got, err := DecodeText(newPayload, newDict)
	if err != nil {
		t.Fatal(err)
	}
	want := replaced[0].Text + "\n"
	if got[0].Text != want {
		t.Fatalf("decoded text = %q, want %q", got[0].Text, want)
	}
}

func TestSplitLinesEmpty(t *testing.T) {
	if got := splitLines(""); got != nil {
		t.Fatalf("splitLines(\"\") = %v, want nil", got)
	}
}
