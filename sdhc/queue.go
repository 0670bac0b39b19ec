// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sdhc

import (
	"github.com/usbarmory/sdhc/internal/mmio"
)

// cmdReadSingleBlock is CMD17, the only command index next_cmd treats
// specially: it routes the watermark into the read slot instead of the
// write slot.
const cmdReadSingleBlock = 17

// nextCmd programs the hardware for the current queue head. Callers must
// already hold mu.
func (h *SDHC) nextCmd() {
	cmd := h.head

	mask := intMask
	if cmd.Data == nil || cmd.Data.PBuf == 0 {
		mask |= pioMask
	}
	mmio.Write(h.reg(INT_STATUS_EN), mask)
	mmio.Write(h.reg(INT_SIGNAL_EN), mask)

	mmio.Wait(h.reg(PRES_STATE), PRES_STATE_CIHB, 1, 0)
	mmio.Wait(h.reg(PRES_STATE), PRES_STATE_CDIHB, 1, 0)
	mmio.Wait(h.reg(PRES_STATE), PRES_STATE_DLA, 1, 0)

	mmio.Write(h.reg(CMD_ARG), cmd.Arg)

	var mix uint32
	h.blocksRemaining = 0

	if d := cmd.Data; d != nil {
		mmio.SetN(h.reg(SYS_CTRL), SYS_CTRL_DTOCV_SHIFT, SYS_CTRL_DTOCV_MASK, DataTimeoutSDCLKx2e28)

		mmio.Write(h.reg(BLK_ATT), (d.BlockCount<<BLK_ATT_BLKCNT_SHIFT)|(d.BlockSize&BLK_ATT_BLKSIZE_MASK))

		wml := d.BlockSize / 4
		if wml > watermarkMax {
			wml = watermarkMax
		}

		wtmk := mmio.Read(h.reg(WTMK_LVL))
		if cmd.Index == cmdReadSingleBlock {
			wtmk = (wtmk &^ (WTMK_LVL_MASK << WTMK_LVL_RD_SHIFT)) | (wml << WTMK_LVL_RD_SHIFT)
		} else {
			wtmk = (wtmk &^ (WTMK_LVL_MASK << WTMK_LVL_WR_SHIFT)) | (wml << WTMK_LVL_WR_SHIFT)
		}
		mmio.Write(h.reg(WTMK_LVL), wtmk)

		mix = 1 << MIX_CTRL_BCEN
		if d.BlockCount > 1 {
			mix |= 1 << MIX_CTRL_MSBSEL
		}
		if d.Dir == Read {
			mix |= 1 << MIX_CTRL_DTDSEL
		}
		if d.PBuf != 0 {
			mix |= 1 << MIX_CTRL_DMAEN
			mmio.Write(h.reg(DS_ADDR), d.PBuf)
		}
		if h.ddr {
			mix |= 1 << MIX_CTRL_DDR_EN
		}

		if h.version >= 3 {
			mmio.Write(h.reg(MIX_CTRL), mix)
		}

		h.blocksRemaining = d.BlockCount
	}

	rsptyp, cicen, cccen := rspEncoding(cmd.RspType)

	xfr := (uint32(cmd.Index) & CMD_XFR_TYP_CMDINX_MASK) << CMD_XFR_TYP_CMDINX_SHIFT
	xfr |= rsptyp << CMD_XFR_TYP_RSPTYP_SHIFT

	if cicen {
		xfr |= 1 << CMD_XFR_TYP_CICEN
	}
	if cccen {
		xfr |= 1 << CMD_XFR_TYP_CCCEN
	}
	if cmd.Data != nil {
		xfr |= 1 << CMD_XFR_TYP_DPSEL

		if h.version < 3 {
			// folded mixer control: MIX_CTRL bit positions (0-5)
			// coincide with the low bits of CMD_XFR_TYP on
			// pre-v3 controllers.
			xfr |= mix
		}
	}

	// commits the command: this write is the hardware trigger
	mmio.Write(h.reg(CMD_XFR_TYP), xfr)
}
