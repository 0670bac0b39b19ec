// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package mmc implements the SD card identification state machine, CID/CSD
// decoding and the single-block read/write entry points the storage surface
// calls into. It depends only on the sdhc.Host facade, never on the
// register model directly.
package mmc

import (
	"github.com/usbarmory/sdhc/platform"
	"github.com/usbarmory/sdhc/sdhc"
)

// Status is the lifecycle state of an identified card.
type Status int

const (
	StatusInactive Status = iota
	StatusActive
	StatusBusy
)

const blockSize = 512

// Card holds the identity and capabilities of the attached SD card. It is
// created once by Init and, once initialization succeeds, mutated only in
// its Status field.
type Card struct {
	host sdhc.Host
	plat platform.Platform

	OCR          uint32
	CID          [4]uint32
	CIDFields    CIDFields
	CSD          [4]uint32
	RCA          uint16
	Kind         platform.CardKind
	Status       Status
	HighCapacity bool

	blocks uint64
}

// BlockSize returns the fixed transfer block size (always 512 bytes).
func (c *Card) BlockSize() uint32 {
	return blockSize
}

// Capacity returns the card's total storage size in bytes, decoded from CSD
// during initialization.
func (c *Card) Capacity() uint64 {
	return c.blocks * blockSize
}

// PresentState exposes the host facade's present-state register so the
// storage surface can read card-detect without depending on sdhc directly.
func (c *Card) PresentState() uint32 {
	return c.host.PresentState()
}
