// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sdhc

import (
	"log"

	"github.com/usbarmory/sdhc/internal/mmio"
)

// cmdStopTransmission is CMD12; its R1b response lands in CMD_RSP3 instead
// of CMD_RSP0 like every other R1b command.
const cmdStopTransmission = 12

// HandleIRQ implements the host facade's interrupt dispatcher (C4). It must
// be safe to call both from a real interrupt context and, in polled mode,
// from SendCommand's blocking loop — both paths take mu, so a genuine
// hardware interrupt arriving mid-poll simply serializes behind it.
//
// irq is accepted for symmetry with the facade signature; the dispatcher
// itself only ever consults int_status, since a single status register
// covers every source this driver cares about.
func (h *SDHC) HandleIRQ(irq int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	status := mmio.Read(h.reg(INT_STATUS))

	if h.head == nil {
		mmio.WriteBack(h.reg(INT_STATUS), status)
		return nil
	}

	cmd := h.head

	if status&(1<<INT_STATUS_TNE) != 0 {
		log.Printf("sdhc: tuning error, status=%#x", status)
	}
	if status&(1<<INT_STATUS_OVRCURE) != 0 {
		log.Printf("sdhc: bus overcurrent, status=%#x", status)
	}
	if status&errMask != 0 {
		cmd.Complete = -1
	}

	if status&(1<<INT_STATUS_TP) != 0 {
		log.Printf("sdhc: tuning pass")
	}
	if status&(1<<INT_STATUS_RTE) != 0 {
		log.Printf("sdhc: retuning event")
	}
	if status&(1<<INT_STATUS_CINT) != 0 {
		log.Printf("sdhc: card interrupt")
	}
	if status&(1<<INT_STATUS_CINS) != 0 {
		log.Printf("sdhc: card insertion")
	}
	if status&(1<<INT_STATUS_DINT) != 0 {
		log.Printf("sdhc: DMA interrupt")
	}
	if status&(1<<INT_STATUS_BGE) != 0 {
		log.Printf("sdhc: block gap event")
	}

	if status&(1<<INT_STATUS_CC) != 0 && cmd.Complete == 0 {
		h.copyResponse(cmd)

		if cmd.Data == nil {
			cmd.Complete = 1
		}
	}

	if (status&(1<<INT_STATUS_BRR) != 0 || status&(1<<INT_STATUS_BWR) != 0) && h.blocksRemaining > 0 {
		h.pio(cmd)
	}

	if status&(1<<INT_STATUS_TC) != 0 {
		if cmd.Complete != 0 {
			log.Printf("sdhc: transfer complete with command already settled to %d", cmd.Complete)
		} else {
			cmd.Complete = 1
		}
	}

	mmio.WriteBack(h.reg(INT_STATUS), status)

	if cmd.Complete != 0 {
		h.advance(cmd)
	}

	return nil
}

// copyResponse copies CMD_RSPn into cmd.Resp per the response-type table in
// spec 4.3: R2 copies all four words, R1b copies word 3 for
// STOP_TRANSMISSION and word 0 otherwise, None copies nothing, everything
// else copies word 0.
func (h *SDHC) copyResponse(cmd *Command) {
	switch cmd.RspType {
	case RspNone:
		return
	case RspR2:
		cmd.Resp[0] = mmio.Read(h.reg(CMD_RSP0))
		cmd.Resp[1] = mmio.Read(h.reg(CMD_RSP1))
		cmd.Resp[2] = mmio.Read(h.reg(CMD_RSP2))
		cmd.Resp[3] = mmio.Read(h.reg(CMD_RSP3))
	case RspR1b, RspR5b:
		if cmd.Index == cmdStopTransmission {
			cmd.Resp[0] = mmio.Read(h.reg(CMD_RSP3))
		} else {
			cmd.Resp[0] = mmio.Read(h.reg(CMD_RSP0))
		}
	default:
		cmd.Resp[0] = mmio.Read(h.reg(CMD_RSP0))
	}
}

// pio drains (read) or fills (write) exactly block_size bytes through the
// data port, 32 bits at a time, and advances the data descriptor's buffer
// window.
func (h *SDHC) pio(cmd *Command) {
	d := cmd.Data
	words := d.BlockSize / 4
	blockOff := (d.BlockCount - h.blocksRemaining) * d.BlockSize

	for i := uint32(0); i < words; i++ {
		off := blockOff + i*4

		if d.Dir == Read {
			val := mmio.Read(h.reg(DATA_BUFF_ACC_PORT))
			d.VBuf[off+0] = byte(val)
			d.VBuf[off+1] = byte(val >> 8)
			d.VBuf[off+2] = byte(val >> 16)
			d.VBuf[off+3] = byte(val >> 24)
		} else {
			val := uint32(d.VBuf[off+0]) | uint32(d.VBuf[off+1])<<8 |
				uint32(d.VBuf[off+2])<<16 | uint32(d.VBuf[off+3])<<24
			mmio.Write(h.reg(DATA_BUFF_ACC_PORT), val)
		}
	}

	h.blocksRemaining--
}

// advance detaches a completed command from the queue, triggers the new
// head if one remains, and invokes the detached command's callback. The
// callback runs with mu released so it is free to submit a follow-up
// command without deadlocking.
func (h *SDHC) advance(cmd *Command) {
	if cmd.next == nil {
		h.head, h.tail = nil, nil
	} else {
		h.head = cmd.next
		h.nextCmd()
	}

	if cmd.CB != nil {
		cb, token, status := cmd.CB, cmd.Token, cmd.Complete
		h.mu.Unlock()
		cb(h, status, cmd, token)
		h.mu.Lock()
	}
}
