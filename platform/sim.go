// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package platform

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/usbarmory/sdhc/dma"
)

// Sim is a host-side reference Platform implementation backed by ordinary Go
// memory instead of a real SDHC peripheral. It exists so the host engine,
// queue dispatcher and MMC protocol layer can be exercised by tests on any
// GOOS/GOARCH, and so it documents, in one small file, exactly what a real
// board implementation has to provide.
//
// Sim is not a simulation of SD card electrical behavior: it only backs the
// register file with addressable memory. Tests drive protocol behavior by
// writing directly into the register window returned by Map.
type Sim struct {
	regs   []byte
	vaddr  uintptr
	dma    *dma.Region
	irq    int
	volts  uint32
	compat func(mv int) bool
}

// NewSim allocates a simulated register window of size bytes and a DMA
// region of dmaSize bytes for use in tests.
func NewSim(size uint, dmaSize int) *Sim {
	regs := make([]byte, size)

	return &Sim{
		regs:  regs,
		vaddr: uintptr(unsafe.Pointer(&regs[0])),
		dma:   dma.NewRegion(0x1000_0000, uint(dmaSize)),
		irq:   0,
		volts: 0xff8000, // 2.7V-3.6V, SD_OCR_VDD_* style window
		compat: func(mv int) bool {
			return mv == 3300
		},
	}
}

// Base returns the virtual address of the simulated register window, for
// tests that need to poke bytes directly.
func (s *Sim) Base() uintptr {
	return s.vaddr
}

func (s *Sim) Map(paddr uintptr, size uint) (uintptr, error) {
	if size > uint(len(s.regs)) {
		return 0, fmt.Errorf("platform: simulated window too small for %d bytes", size)
	}

	return s.vaddr, nil
}

func (s *Sim) AllocDMA(size int, align int) (uintptr, uint32) {
	baddr, buf := s.dma.Reserve(size, align)
	return uintptr(unsafe.Pointer(&buf[0])), uint32(baddr)
}

func (s *Sim) FreeDMA(baddr uint32) {
	s.dma.Release(uint(baddr))
}

func (s *Sim) Udelay(us int) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

func (s *Sim) IsVoltageCompatible(mv int) bool {
	return s.compat(mv)
}

func (s *Sim) DefaultVoltageMask(kind CardKind) uint32 {
	return s.volts
}

func (s *Sim) ConfigureClock(mode ClockMode) error {
	return nil
}

func (s *Sim) SelectDefaultVoltage() error {
	return nil
}

func (s *Sim) IRQTable() []int {
	return []int{s.irq}
}

func (s *Sim) DefaultID() HostID {
	return 0
}
