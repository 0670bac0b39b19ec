// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sdhc

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/usbarmory/sdhc/internal/mmio"
	"github.com/usbarmory/sdhc/platform"
)

// cmdTimeout bounds the blocking send path's busy-poll of handle_irq when no
// interrupt thread is driving completion.
const cmdTimeout = 2 * time.Second

// SDHC implements the Host facade (C3) over the register model (C2): the
// command queue, transfer setup and IRQ dispatcher (C4).
//
// Exactly two execution contexts ever touch hw or the queue: whichever
// goroutine calls SendCommand, and whichever goroutine calls HandleIRQ. mu
// is held across every register access and every queue mutation from both.
type SDHC struct {
	mu sync.Mutex

	plat    platform.Platform
	base    uintptr
	version int
	irqs    []int

	head *Command
	tail *Command

	blocksRemaining uint32

	// ddr is set by SetDDR and consulted by setClock: DDR mode halves the
	// SDCLKFS field relative to the single-data-rate divider.
	ddr bool
}

// New builds an SDHC engine bound to plat and the given register window. It
// does not touch hardware; call Reset to bring the controller up.
func New(plat platform.Platform, cfg platform.Config) (*SDHC, error) {
	vaddr, err := plat.Map(cfg.Base, cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("sdhc: map: %w", err)
	}

	return &SDHC{
		plat: plat,
		base: vaddr,
		irqs: plat.IRQTable(),
	}, nil
}

func (h *SDHC) reg(off uintptr) uintptr {
	return h.base + off
}

// Reset implements the host facade's reset operation (spec 4.3 "Reset").
func (h *SDHC) Reset() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	mmio.Set(h.reg(SYS_CTRL), SYS_CTRL_RSTA)
	if !mmio.WaitFor(cmdTimeout, h.reg(SYS_CTRL), SYS_CTRL_RSTA, 1, 0) {
		return fmt.Errorf("sdhc: reset timeout")
	}

	h.version = int(mmio.Get(h.reg(HOST_VERSION), 0, 0xff))

	// re-enable the full interrupt mask
	mmio.Write(h.reg(INT_STATUS_EN), intMask|pioMask)
	mmio.Write(h.reg(INT_SIGNAL_EN), intMask|pioMask)

	if err := h.setClock(platform.ClockInitial); err != nil {
		return err
	}

	// 4-bit bus width, little endian
	mmio.SetN(h.reg(PROT_CTRL), PROT_CTRL_DTW_SHIFT, PROT_CTRL_DTW_MASK, 0b01)
	mmio.SetN(h.reg(PROT_CTRL), PROT_CTRL_EMODE_SHIFT, PROT_CTRL_EMODE_MASK, 0b10)

	// data timeout counter
	mmio.SetN(h.reg(SYS_CTRL), SYS_CTRL_DTOCV_SHIFT, SYS_CTRL_DTOCV_MASK, DataTimeoutSDCLKx2e28)

	if !mmio.WaitFor(cmdTimeout, h.reg(PRES_STATE), PRES_STATE_CDIHB, 1, 0) {
		return fmt.Errorf("sdhc: command inhibit (data) did not clear")
	}
	if !mmio.WaitFor(cmdTimeout, h.reg(PRES_STATE), PRES_STATE_CIHB, 1, 0) {
		return fmt.Errorf("sdhc: command inhibit did not clear")
	}

	// 80-clock warm-up
	mmio.Set(h.reg(SYS_CTRL), SYS_CTRL_INITA)
	if !mmio.WaitFor(cmdTimeout, h.reg(SYS_CTRL), SYS_CTRL_INITA, 1, 0) {
		return fmt.Errorf("sdhc: init-active did not clear")
	}

	h.head, h.tail = nil, nil
	h.blocksRemaining = 0

	return nil
}

// SetOperational implements the host facade's set_operational operation.
func (h *SDHC) SetOperational() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.setClock(platform.ClockOperational)
}

// divider encodings for the SYS_CTRL DVS/SDCLKFS fields, grounded on the
// teacher's setFreq: off a ~198MHz uSDHC root clock, divide-by-512
// (DVS=7, SDCLKFS=0x20) gives the ~400kHz identification clock and
// divide-by-8 (DVS=1, SDCLKFS=0x02) the ~25MHz operational clock.
const (
	dvsIdentification     = 7
	sdclkfsIdentification = 0x20

	dvsOperational     = 1
	sdclkfsOperational = 0x02
)

// setClock asks the platform to drive the clock tree into mode, then
// programs the controller's own SDCLK divider and waits for it to report
// stable. Callers must already hold mu.
func (h *SDHC) setClock(mode platform.ClockMode) error {
	// the controller latches a divider change only once SDSTB settles
	// from whatever the previous clock request left it in
	mmio.WaitFor(cmdTimeout, h.reg(PRES_STATE), PRES_STATE_SDSTB, 1, 1)

	if err := h.plat.ConfigureClock(mode); err != nil {
		return fmt.Errorf("sdhc: configure clock: %w", err)
	}

	dvs, sdclkfs := dvsIdentification, sdclkfsIdentification
	if mode == platform.ClockOperational {
		dvs, sdclkfs = dvsOperational, sdclkfsOperational
	}

	// DDR halves the effective divider relative to the single-data-rate
	// value (spec 4.3 "Clock programming").
	if h.ddr {
		sdclkfs >>= 1
	}

	mmio.Clear(h.reg(SYS_CTRL), SYS_CTRL_CLK_CARD_EN)
	mmio.SetN(h.reg(SYS_CTRL), SYS_CTRL_DVS_SHIFT, SYS_CTRL_DVS_MASK, uint32(dvs))
	mmio.SetN(h.reg(SYS_CTRL), SYS_CTRL_SDCLKS_SHIFT, SYS_CTRL_SDCLKS_MASK, uint32(sdclkfs))
	mmio.Set(h.reg(SYS_CTRL), SYS_CTRL_CLK_CARD_EN)

	if !mmio.WaitFor(cmdTimeout, h.reg(PRES_STATE), PRES_STATE_SDSTB, 1, 1) {
		return fmt.Errorf("sdhc: clock did not stabilize")
	}

	return nil
}

// SetDDR switches mixer control programming between single and dual data
// rate for subsequent commands. The mmc identification sequence never calls
// it, so the engine runs at single data rate unless a caller enables it.
func (h *SDHC) SetDDR(enabled bool) {
	h.mu.Lock()
	h.ddr = enabled
	h.mu.Unlock()
}

// IsVoltageCompatible implements the host facade operation of the same
// name: present only if the capability register advertises 3.3V support and
// the query is exactly that voltage (the one rail this spec negotiates).
func (h *SDHC) IsVoltageCompatible(mv int) bool {
	h.mu.Lock()
	cap33 := mmio.Get(h.reg(HOST_CTRL_CAP), HOST_CTRL_CAP_VS33, 1) == 1
	h.mu.Unlock()

	return cap33 && mv == 3300 && h.plat.IsVoltageCompatible(mv)
}

// NthIRQ implements the host facade operation of the same name.
func (h *SDHC) NthIRQ(n int) int {
	if n < 0 || n >= len(h.irqs) {
		return -1
	}

	return h.irqs[n]
}

// PresentState implements the host facade operation of the same name.
func (h *SDHC) PresentState() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return mmio.Read(h.reg(PRES_STATE))
}

// SendCommand implements C4's command submission: append cmd to the queue,
// trigger it if the queue was empty, and either block for completion or
// return immediately for a callback-driven caller.
func (h *SDHC) SendCommand(cmd *Command, cb CommandCallback, token interface{}) int {
	cmd.Complete = 0
	cmd.next = nil
	cmd.CB = cb
	cmd.Token = token

	h.mu.Lock()
	wasEmpty := h.head == nil

	if wasEmpty {
		h.head = cmd
		h.tail = cmd
	} else {
		h.tail.next = cmd
		h.tail = cmd
	}

	if wasEmpty {
		h.nextCmd()
	}
	h.mu.Unlock()

	if cb != nil {
		return 0
	}

	return h.blockFor(cmd)
}

// blockFor busy-polls handle_irq(0) until cmd completes or cmdTimeout
// elapses, implementing the "polled mode" blocking model the spec allows
// when no separate interrupt thread is available.
func (h *SDHC) blockFor(cmd *Command) int {
	deadline := time.Now().Add(cmdTimeout)

	for cmd.Complete == 0 {
		if err := h.HandleIRQ(0); err != nil {
			log.Printf("sdhc: handle_irq: %v", err)
		}

		if time.Now().After(deadline) {
			h.mu.Lock()
			cmd.Complete = -1
			h.mu.Unlock()
			break
		}
	}

	return cmd.Complete
}
