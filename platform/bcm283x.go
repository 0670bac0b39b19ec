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
	"github.com/usbarmory/sdhc/internal/mmio"
)

// BCM283xFamily distinguishes the two Broadcom SoCs this platform covers;
// they differ only in base addresses and IRQ line (spec 6).
type BCM283xFamily int

const (
	BCM2837 BCM283xFamily = iota // Raspberry Pi 3
	BCM2711                      // Raspberry Pi 4
)

// bcm283xConfig gives the fixed per-family facts: register base, IRQ line,
// and GPIO controller base (used to route the SD pins to the Arasan
// controller's ALT3 function, the way a board brings the pins up before
// sdio_init can see card-detect).
var bcm283xConfig = map[BCM283xFamily]struct {
	base uintptr
	irq  int
	gpio uintptr
}{
	BCM2837: {0x3f300000, 126, 0x3f200000},
	BCM2711: {0xfe340000, 158, 0xfe200000},
}

const (
	gpfsel4 = 0x10 // GPIO pins 40-49 function select
	gpfsel5 = 0x14 // GPIO pins 50-59 function select

	gpioFselInput = 0b000
	gpioFselAlt3  = 0b111
)

// BCM283x is the Broadcom platform implementation shared by the Raspberry
// Pi 3 (BCM2837) and Pi 4 (BCM2711): one fixed SDHC slot, GPIO pin routing
// to the Arasan controller, and a board-supplied mailbox power-on hook
// (the VideoCore mailbox protocol itself is the board-specific sequence
// this driver is deliberately agnostic to).
type BCM283x struct {
	family   BCM283xFamily
	irq      int
	dmaRegio *dma.Region
	powerOn  func() error
}

// NewBCM283x builds a platform for one Raspberry Pi family. powerOn should
// perform whatever VideoCore mailbox exchange brings the SD card power rail
// up; a nil hook means the card is assumed already powered (e.g. a test
// harness or a board that powers it unconditionally).
func NewBCM283x(family BCM283xFamily, dmaBase uint, dmaSize uint, powerOn func() error) *BCM283x {
	cfg := bcm283xConfig[family]

	// route GPIO 48-53 (SD_CLK_R, SD_CMD_R, SD_DATA0_R..SD_DATA3_R) to the
	// Arasan controller's ALT3 function, and leave 34-39 (the alternate,
	// card-detect-capable routing on some revisions) as plain input.
	for i := uintptr(0); i < 6; i++ {
		pin := 34 + i
		mmio.SetN(cfg.gpio+gpioFselReg(pin), gpioFselShift(pin), 0b111, gpioFselInput)
	}
	for i := uintptr(0); i < 6; i++ {
		pin := 48 + i
		mmio.SetN(cfg.gpio+gpioFselReg(pin), gpioFselShift(pin), 0b111, gpioFselAlt3)
	}

	return &BCM283x{
		family:   family,
		irq:      cfg.irq,
		dmaRegio: dma.NewRegion(dmaBase, dmaSize),
		powerOn:  powerOn,
	}
}

// gpioFselReg and gpioFselShift locate the 3-bit function-select field for
// a BCM283x GPIO pin: one of ten 3-bit fields packed into each of six
// GPFSELn registers.
func gpioFselReg(pin uintptr) uintptr {
	return (pin / 10) * 4
}

func gpioFselShift(pin uintptr) int {
	return int(pin%10) * 3
}

func (p *BCM283x) Map(paddr uintptr, size uint) (uintptr, error) {
	return paddr, nil
}

func (p *BCM283x) AllocDMA(size int, align int) (uintptr, uint32) {
	addr, buf := p.dmaRegio.Reserve(size, align)
	if buf == nil {
		return 0, 0
	}

	return uintptr(unsafe.Pointer(&buf[0])), uint32(addr)
}

func (p *BCM283x) FreeDMA(baddr uint32) {
	p.dmaRegio.Release(uint(baddr))
}

func (p *BCM283x) Udelay(us int) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

func (p *BCM283x) IsVoltageCompatible(mv int) bool {
	return mv == 3300
}

func (p *BCM283x) DefaultVoltageMask(kind CardKind) uint32 {
	// the capabilities register does not reliably report supported
	// voltages on this family; assume the 3.0-3.4V window unconditionally
	// rather than trusting HOST_CTRL_CAP.
	const mmcVDD30To34 = (1 << 18) | (1 << 19) | (1 << 20) | (1 << 21)
	return mmcVDD30To34
}

func (p *BCM283x) ConfigureClock(mode ClockMode) error {
	return nil
}

func (p *BCM283x) SelectDefaultVoltage() error {
	if p.powerOn == nil {
		return nil
	}

	if err := p.powerOn(); err != nil {
		return fmt.Errorf("platform: bcm283x: mailbox power-on: %w", err)
	}

	return nil
}

func (p *BCM283x) IRQTable() []int {
	return []int{p.irq}
}

func (p *BCM283x) DefaultID() HostID {
	return HostID(1)
}
