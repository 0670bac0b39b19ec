// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mmc

import "testing"

func TestDecodeCSDVersion1(t *testing.T) {
	var csd [4]uint32
	words := csd[:]

	setBits(words, 126, 2, 0)   // CSD structure version 1.0
	setBits(words, 96, 8, 0x32) // tran_speed
	setBits(words, 80, 4, 9)    // READ_BL_LEN = 2^9 = 512 bytes
	setBits(words, 62, 12, 0xfff)
	setBits(words, 47, 3, 2)

	f, blocks, err := decodeCSD(csd)
	if err != nil {
		t.Fatalf("decodeCSD: %v", err)
	}

	if f.Version != 0 {
		t.Fatalf("Version = %d, want 0", f.Version)
	}

	cSize := uint64(0xfff)
	cSizeMult := uint64(2)
	blockLen := uint64(1) << 9
	wantBlocks := (((cSize + 1) << (cSizeMult + 2)) * blockLen) / blockSize

	if blocks != wantBlocks {
		t.Fatalf("blocks = %d, want %d", blocks, wantBlocks)
	}
}

func TestDecodeCSDVersion2(t *testing.T) {
	var csd [4]uint32
	words := csd[:]

	setBits(words, 126, 2, 1) // CSD structure version 2.0 (SDHC/SDXC)
	setBits(words, 48, 22, 0x3a38)

	f, blocks, err := decodeCSD(csd)
	if err != nil {
		t.Fatalf("decodeCSD: %v", err)
	}

	if f.Version != 1 {
		t.Fatalf("Version = %d, want 1", f.Version)
	}

	cSize := uint64(0x3a38)
	wantBlocks := ((cSize + 1) * 512 * 1024) / blockSize

	if blocks != wantBlocks {
		t.Fatalf("blocks = %d, want %d", blocks, wantBlocks)
	}
}

func TestDecodeCSDUnsupportedVersion(t *testing.T) {
	var csd [4]uint32
	words := csd[:]

	setBits(words, 126, 2, 3)

	if _, _, err := decodeCSD(csd); err == nil {
		t.Fatal("expected an error for an unsupported CSD structure version")
	}
}
