// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sdhc

import (
	"github.com/usbarmory/sdhc/platform"
)

// ResponseType tags the shape of a command's response, which determines how
// many response words next_cmd's caller expects back and how the transfer
// type word's CICEN/CCCEN/RSPTYP fields are built.
type ResponseType int

const (
	RspNone ResponseType = iota
	RspR1
	RspR1b
	RspR2
	RspR3
	RspR4
	RspR5
	RspR5b
	RspR6
)

// rspEncoding returns (rsptyp, cicen, cccen) for the CMD_XFR_TYP register.
func rspEncoding(t ResponseType) (rsptyp uint32, cicen bool, cccen bool) {
	switch t {
	case RspNone:
		return RSPTYP_NONE, false, false
	case RspR2:
		return RSPTYP_136, false, true
	case RspR3, RspR4:
		return RSPTYP_48, false, false
	case RspR1, RspR5, RspR6:
		return RSPTYP_48, true, true
	case RspR1b, RspR5b:
		return RSPTYP_48B, true, true
	default:
		return RSPTYP_NONE, false, false
	}
}

// Direction selects the data phase direction of a command carrying a data
// descriptor.
type Direction int

const (
	Read Direction = iota
	Write
)

// DataDescriptor attaches a data phase to a Command. Its lifetime matches
// its owning command: it and its buffers stay in use until the command
// completes.
type DataDescriptor struct {
	// VBuf is the host-side buffer the PIO path drains into / fills
	// from, or the buffer the caller expects filled for a DMA read.
	VBuf []byte
	// PBuf is the bus address programmed into DS_ADDR for a DMA
	// transfer. Zero selects the PIO path.
	PBuf uint32
	// StartBlock is the card-side starting block address, recorded for
	// diagnostics; the protocol layer already folds it into Command.Arg.
	StartBlock uint32
	// BlockSize is the transfer block size in bytes (always 512 in this
	// driver).
	BlockSize uint32
	// BlockCount is the number of blocks in the transfer. Always 1: the
	// block storage surface iterates single-block transfers even though
	// the hardware and protocol support multi-block bursts.
	BlockCount uint32
	// Dir is the transfer direction.
	Dir Direction
}

// CommandCallback is invoked exactly once, from the IRQ dispatcher, after a
// command completes. It must never block: it runs with the host mutex
// already released but on the interrupt-handling context.
type CommandCallback func(h *SDHC, status int, cmd *Command, token interface{})

// Command is one SD protocol command, in flight or waiting in the queue.
//
// Invariant: a Command is in exactly one of {detached, head of queue,
// interior of queue} at any time, and its Complete field transitions from 0
// to a nonzero value exactly once.
type Command struct {
	Index   uint8
	Arg     uint32
	RspType ResponseType
	Resp    [4]uint32
	Data    *DataDescriptor

	// Complete is 0 while pending, 1 on success, negative on error.
	// SendCommand resets it to 0; afterwards the dispatcher sets it, and
	// the blocking path sets it to -1 if its timeout expires first.
	Complete int

	CB    CommandCallback
	Token interface{}

	next *Command
}

// Host implements the SDIO host facade (C3): reset, set_operational,
// send_command, handle_irq, is_voltage_compatible, nth_irq, present_state.
// The MMC protocol layer depends only on this interface, never on the
// register model directly.
type Host interface {
	Reset() error
	SetOperational() error
	SendCommand(cmd *Command, cb CommandCallback, token interface{}) int
	HandleIRQ(irq int) error
	IsVoltageCompatible(mv int) bool
	NthIRQ(n int) int
	PresentState() uint32
}

// compile-time assertion that *SDHC satisfies Host.
var _ Host = (*SDHC)(nil)

// platform is re-exported under the sdhc package so callers constructing an
// SDHC do not need a second import for basic types.
type (
	HostID    = platform.HostID
	CardKind  = platform.CardKind
	ClockMode = platform.ClockMode
)
