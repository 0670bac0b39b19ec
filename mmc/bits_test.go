// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mmc

import "testing"

func TestSliceBitsWithinWord(t *testing.T) {
	val := []uint32{0xabcd1234}

	if got := sliceBits(val, 0, 16); got != 0x1234 {
		t.Fatalf("sliceBits = %#x, want %#x", got, 0x1234)
	}

	if got := sliceBits(val, 16, 16); got != 0xabcd {
		t.Fatalf("sliceBits = %#x, want %#x", got, 0xabcd)
	}
}

func TestSliceBitsCrossesWordBoundary(t *testing.T) {
	// bits [28:36) straddle val[0] (top nibble) and val[1] (bottom nibble)
	val := []uint32{0xf0000000, 0x0000000a}

	got := sliceBits(val, 28, 8)
	want := uint32(0xaf)

	if got != want {
		t.Fatalf("sliceBits across boundary = %#x, want %#x", got, want)
	}
}

func TestSliceBitsFullWord(t *testing.T) {
	val := []uint32{0x11223344}

	if got := sliceBits(val, 0, 32); got != 0x11223344 {
		t.Fatalf("sliceBits full word = %#x, want %#x", got, 0x11223344)
	}
}

func TestReassemble(t *testing.T) {
	// right-aligned hardware response: 128 bits of content starting one
	// byte into resp[0], as the controller delivers it.
	resp := [4]uint32{0x00aabbcc, 0x11223344, 0x55667788, 0x99aabbcc}

	reassemble(&resp)

	orig := [4]uint32{0x00aabbcc, 0x11223344, 0x55667788, 0x99aabbcc}
	expect := [4]uint32{
		orig[0] << 8,
		(orig[1] << 8) | (orig[0] >> 24),
		(orig[2] << 8) | (orig[1] >> 24),
		(orig[3] << 8) | (orig[2] >> 24),
	}

	if resp != expect {
		t.Fatalf("reassemble = %#v, want %#v", resp, expect)
	}
}
