// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mmc

import "testing"

func TestDecodeCID(t *testing.T) {
	// construct a CID with known field values, left-aligned as reassemble
	// would leave it, then confirm every field decodes back out.
	var cid [4]uint32

	words := cid[:]

	setBits(words, 120, 8, 0x27)               // manufacturer id
	setBits(words, 104, 16, 0x4a45)             // OEM id "JE"
	setBits(words, 96, 8, 'S')                  // product name, byte 0
	setBits(words, 88, 8, 'D')                  // byte 1
	setBits(words, 80, 8, '0')                  // byte 2
	setBits(words, 72, 8, '1')                  // byte 3
	setBits(words, 64, 8, '6')                  // byte 4
	setBits(words, 56, 8, 0x03)                 // revision
	setBits(words, 24, 32, 0xdeadbeef)          // serial number
	setBits(words, 8, 12, 0x123)                // manufacturing date

	f := DecodeCID(cid)

	if f.ManufacturerID != 0x27 {
		t.Errorf("ManufacturerID = %#x, want %#x", f.ManufacturerID, 0x27)
	}
	if f.OEMID != 0x4a45 {
		t.Errorf("OEMID = %#x, want %#x", f.OEMID, 0x4a45)
	}
	if f.Name != [5]byte{'S', 'D', '0', '1', '6'} {
		t.Errorf("Name = %q, want %q", f.Name, "SD016")
	}
	if f.Revision != 0x03 {
		t.Errorf("Revision = %#x, want %#x", f.Revision, 0x03)
	}
	if f.SerialNumber != 0xdeadbeef {
		t.Errorf("SerialNumber = %#x, want %#x", f.SerialNumber, 0xdeadbeef)
	}
	if f.Date != 0x123 {
		t.Errorf("Date = %#x, want %#x", f.Date, 0x123)
	}
}

// setBits is the test-only inverse of sliceBits: it writes a size-bit field
// at the given start position into a little-endian array of 32-bit words.
func setBits(val []uint32, start int, size int, v uint32) {
	for i := 0; i < size; i++ {
		bit := start + i
		idx := bit / 32
		pos := bit % 32

		if (v>>i)&1 == 1 {
			val[idx] |= 1 << pos
		}
	}
}
