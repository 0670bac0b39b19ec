// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package storage implements the block-addressed RPC surface a client talks
// to: parameter validation, the shared-resource lock, the bytes→blocks
// mapping, and the per-block transfer loop. It depends only on mmc.Card,
// never on the register model or the host facade directly.
package storage

import (
	"sync"

	"github.com/usbarmory/sdhc/mmc"
)

// Err is the RPC surface's tagged error result (spec 6, "Error taxonomy").
type Err int

const (
	Success Err = iota
	InvalidState
	DeviceNotPresent
	InvalidParameter
	OutOfBounds
	Aborted
	AccessDenied
	NotImplemented
	NotSupported
	Generic
)

func (e Err) String() string {
	switch e {
	case Success:
		return "Success"
	case InvalidState:
		return "InvalidState"
	case DeviceNotPresent:
		return "DeviceNotPresent"
	case InvalidParameter:
		return "InvalidParameter"
	case OutOfBounds:
		return "OutOfBounds"
	case Aborted:
		return "Aborted"
	case AccessDenied:
		return "AccessDenied"
	case NotImplemented:
		return "NotImplemented"
	case NotSupported:
		return "NotSupported"
	default:
		return "Generic"
	}
}

// stage tags where initialization stopped, letting Surface answer
// get_state/get_size without touching hardware once the bitmap already
// records a failure.
type stage int

const (
	stageNeverAttempted stage = iota
	stageIOOps
	stageSDIO
	stageCardNotPresent
	stageMMC
	stageIRQ
	stageReady
)

// MediumPresent is bit 0 of get_state's flags word.
const MediumPresent = 1 << 0

// Surface is the block storage RPC surface (C6). It is created once
// lifecycle init has produced a Card (or failed trying to) and is safe for
// concurrent RPC dispatch: every operation takes clientMux for its whole
// hardware-touching span.
type Surface struct {
	clientMux sync.Mutex

	card  *mmc.Card
	ready stage

	// hardCodedPresent is set by boards whose card-detect line is not
	// wired; get_state then always reports MediumPresent.
	hardCodedPresent bool

	// dataportSize bounds the largest single RPC this surface will
	// accept, mirroring the shared buffer size of the enclosing system.
	dataportSize int
}

// New builds a ready Surface bound to an already-initialized card.
func New(card *mmc.Card, dataportSize int, hardCodedPresent bool) *Surface {
	return &Surface{
		card:             card,
		ready:            stageReady,
		dataportSize:     dataportSize,
		hardCodedPresent: hardCodedPresent,
	}
}

// NewFailed builds a Surface that never reached a working card, so every
// operation short-circuits through the readiness bitmap without touching
// hardware. at names the stage initialization stopped at.
func NewFailed(at string, dataportSize int) *Surface {
	s := &Surface{dataportSize: dataportSize}

	switch at {
	case "io_ops":
		s.ready = stageIOOps
	case "sdio":
		s.ready = stageSDIO
	case "card_not_present":
		s.ready = stageCardNotPresent
	case "mmc":
		s.ready = stageMMC
	case "irq":
		s.ready = stageIRQ
	default:
		s.ready = stageNeverAttempted
	}

	return s
}

// readiness maps the bitmap to the common preamble's error, per spec 4.5.
func (s *Surface) readiness() Err {
	switch s.ready {
	case stageReady:
		return Success
	case stageCardNotPresent:
		return DeviceNotPresent
	default:
		return InvalidState
	}
}

// GetSize returns the card's total capacity in bytes.
func (s *Surface) GetSize() (int64, Err) {
	if err := s.readiness(); err != Success {
		return 0, err
	}

	s.clientMux.Lock()
	size := int64(s.card.Capacity())
	s.clientMux.Unlock()

	return size, Success
}

// GetBlockSize returns the card's fixed transfer block size.
func (s *Surface) GetBlockSize() (uint32, Err) {
	if err := s.readiness(); err != Success {
		return 0, err
	}

	s.clientMux.Lock()
	size := s.card.BlockSize()
	s.clientMux.Unlock()

	return size, Success
}

// GetState reports the medium-present flag (spec 4.5 "get_state").
func (s *Surface) GetState() (uint32, Err) {
	if err := s.readiness(); err != Success {
		return 0, err
	}

	if s.hardCodedPresent {
		return MediumPresent, Success
	}

	s.clientMux.Lock()
	state := s.card.PresentState()
	s.clientMux.Unlock()

	var flags uint32
	if state&cinstMask != 0 {
		flags |= MediumPresent
	}

	return flags, Success
}

// cinstMask is PRES_STATE's card-inserted bit (bit 16), duplicated here
// rather than importing the register model, which this package deliberately
// never depends on directly.
const cinstMask = 1 << 16

// verifyParameters implements spec 4.5's validation preamble, shared by
// read, write and erase.
func verifyParameters(offset, size int64, blockSize uint32, total int64, dataportSize int) Err {
	if offset < 0 || size < 0 {
		return InvalidParameter
	}

	if blockSize == 0 || total <= 0 {
		return InvalidState
	}

	if size > int64(dataportSize) {
		return InvalidParameter
	}

	bs := int64(blockSize)
	if offset%bs != 0 || size%bs != 0 {
		return InvalidParameter
	}

	// uint64-promoted addition catches offset+size overflowing an int64
	// without itself overflowing, since both operands are already known
	// non-negative above.
	end := uint64(offset) + uint64(size)
	if end > uint64(total) {
		return OutOfBounds
	}

	return Success
}
