// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mmc

import "fmt"

// CSDFields holds the fields of the card's CSD (Card-Specific Data)
// register this driver cares about: enough to compute capacity.
type CSDFields struct {
	Version   uint32
	TranSpeed byte
}

// decodeCSD decodes version and capacity from the card's raw CSD register,
// already reassembled into left-aligned word order, and returns the capacity
// as a count of 512-byte blocks. Only CSD versions 1.0
// and 2.0/3.0 are recognized; any other version is a card this driver
// cannot size and is reported as an error.
func decodeCSD(csd [4]uint32) (CSDFields, uint64, error) {
	words := csd[:]

	var f CSDFields
	f.Version = sliceBits(words, 126, 2)

	switch f.Version {
	case 0:
		cSize := sliceBits(words, 62, 12)
		cSizeMult := sliceBits(words, 47, 3)
		readBlLen := sliceBits(words, 80, 4)
		f.TranSpeed = byte(sliceBits(words, 96, 8))

		blocks := uint64(cSize+1) << (cSizeMult + 2)
		blockLen := uint64(1) << readBlLen

		return f, (blocks * blockLen) / blockSize, nil
	case 1:
		cSize := sliceBits(words, 48, 22)
		capacity := uint64(cSize+1) * 512 * 1024

		return f, capacity / blockSize, nil
	default:
		return f, 0, fmt.Errorf("mmc: unsupported CSD structure version %d", f.Version)
	}
}
