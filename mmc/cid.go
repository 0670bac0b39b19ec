// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mmc

// CIDFields holds the decoded contents of an SD card's 128-bit CID
// (Card Identification) register.
type CIDFields struct {
	ManufacturerID byte
	OEMID          uint16
	Name           [5]byte
	Revision       byte
	SerialNumber   uint32
	Date           uint16
}

// DecodeCID decodes the card's raw CID register, already reassembled into
// left-aligned word order by reassemble during identification.
func DecodeCID(cid [4]uint32) CIDFields {
	var f CIDFields

	words := cid[:]

	f.ManufacturerID = byte(sliceBits(words, 120, 8))
	f.OEMID = uint16(sliceBits(words, 104, 16))
	f.Name[0] = byte(sliceBits(words, 96, 8))
	f.Name[1] = byte(sliceBits(words, 88, 8))
	f.Name[2] = byte(sliceBits(words, 80, 8))
	f.Name[3] = byte(sliceBits(words, 72, 8))
	f.Name[4] = byte(sliceBits(words, 64, 8))
	f.Revision = byte(sliceBits(words, 56, 8))
	f.SerialNumber = sliceBits(words, 24, 32)
	f.Date = uint16(sliceBits(words, 8, 12))

	return f
}
