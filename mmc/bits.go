// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mmc

// sliceBits extracts a size-bit (size <= 32) field starting at bit start
// from a little-endian array of 32-bit words, where val[0] holds bits
// [0:32), val[1] bits [32:64), and so on. Fields that straddle a word
// boundary are reassembled from the low bits of the high word and the high
// bits of the low word.
//
// This is the general bit-slice primitive CID and CSD decoding is built on;
// both registers pack fields that routinely cross 32-bit boundaries.
func sliceBits(val []uint32, start int, size int) uint32 {
	if size > 32 {
		panic("mmc: sliceBits: size exceeds 32 bits")
	}

	idx := start / 32
	low := start % 32
	high := (start + size) % 32

	switch {
	case high == 0 && low == 0:
		return val[idx]
	case high == 0:
		return val[idx] >> low
	case high > low:
		return (val[idx] & ((1 << high) - 1)) >> low
	default:
		ret := val[idx] >> low
		ret |= (val[idx+1] & ((1 << high) - 1)) << (32 - low)
		return ret
	}
}

// reassemble applies the left-shift-by-8-with-carry pattern the hardware
// requires for CID and CSD responses: the controller stores these 136-bit
// (R2) responses right-aligned in CMD_RSP0..3, but the protocol defines the
// register content left-aligned. resp is mutated in place and, afterward,
// resp[0] holds the register's least significant word as sliceBits expects.
//
// This is load-bearing and must not be simplified away: skipping it yields
// a CID/CSD shifted by one byte, silently corrupting every decoded field.
func reassemble(resp *[4]uint32) {
	resp[3] = (resp[3] << 8) | (resp[2] >> 24)
	resp[2] = (resp[2] << 8) | (resp[1] >> 24)
	resp[1] = (resp[1] << 8) | (resp[0] >> 24)
	resp[0] = resp[0] << 8
}
