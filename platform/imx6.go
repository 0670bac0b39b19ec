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

// i.MX6 register offsets this platform touches directly: the uSDHC clock
// gate in CCM_CCGRn and the IOMUXC pad/mux pair routing the write-protect
// input permanently low (these boards wire no physical WP line).
const (
	ccmBase = 0x020c4000
	ccgr6   = ccmBase + 0x80

	swPadCtlPUE = 1 << 13
	swPadCtlPKE = 1 << 12
)

// imx6HostOffsets gives the uSDHCn register window offset and CCGR6 clock
// gate bit pair for each of the four slots a Sabre/USB armory family board
// can expose (spec 6, "i.MX6 family").
var imx6HostOffsets = map[HostID]struct {
	base uintptr
	ccg  int // CCGR6 gate bit pair, 2 bits per uSDHC instance
}{
	HostID(1): {0x02190000, 2},
	HostID(2): {0x02194000, 4},
	HostID(3): {0x02198000, 6},
	HostID(4): {0x0219c000, 8},
}

// IMX6Pad is one IOMUXC mux/pad/daisy register triplet, routed the way
// board/usbarmory/mk2 pulls the unconnected write-protect inputs low.
type IMX6Pad struct {
	Mux   uintptr
	Pad   uintptr
	Daisy uintptr
}

// IMX6 is the i.MX6 family platform implementation: up to four uSDHC slots
// at the fixed addresses and IRQ lines the i.MX6 family assigns them, a
// first-fit DMA region, and an optional PMIC-driven voltage switch (the
// board's β/γ revisions differ on whether one exists at all).
type IMX6 struct {
	id       HostID
	irq      int
	wpPads   []IMX6Pad
	dmaRegio *dma.Region

	// voltageSwitch performs whatever I2C PMIC write lowers the card rail
	// to 1.8V (true) or restores 3.3V (false). A board without a
	// switchable rail leaves this nil; DefaultVoltageMask then never
	// requests HCS-with-low-voltage.
	voltageSwitch func(low bool) error
}

// imx6IRQ maps each uSDHC instance to its i.MX6 GIC interrupt line
// (spec 6: "IRQs 54-57").
var imx6IRQ = map[HostID]int{1: 54, 2: 55, 3: 56, 4: 57}

// NewIMX6 builds a platform bound to one uSDHC instance. wpPads routes any
// write-protect inputs this board leaves unconnected to a pulled-down pad
// (so the driver never observes spurious write protection); voltageSwitch
// may be nil.
func NewIMX6(id HostID, dmaBase uint, dmaSize uint, wpPads []IMX6Pad, voltageSwitch func(low bool) error) (*IMX6, error) {
	off, ok := imx6HostOffsets[id]
	if !ok {
		return nil, fmt.Errorf("platform: imx6: invalid host id %d", id)
	}

	region := dma.NewRegion(dmaBase, dmaSize)

	p := &IMX6{
		id:            id,
		irq:           imx6IRQ[id],
		wpPads:        wpPads,
		dmaRegio:      region,
		voltageSwitch: voltageSwitch,
	}

	// gate the uSDHC peripheral clock on
	mmio.SetN(ccgr6, off.ccg, 0b11, 0b11)

	for _, pad := range wpPads {
		ctl := uint32(swPadCtlPUE | swPadCtlPKE)
		mmio.Write(pad.Pad, ctl)

		if pad.Daisy != 0 {
			mmio.Write(pad.Daisy, 0)
		}
	}

	return p, nil
}

func (p *IMX6) Map(paddr uintptr, size uint) (uintptr, error) {
	// bare metal: the MMIO window is already visible 1:1
	return paddr, nil
}

func (p *IMX6) AllocDMA(size int, align int) (uintptr, uint32) {
	addr, buf := p.dmaRegio.Reserve(size, align)
	if buf == nil {
		return 0, 0
	}

	return uintptr(unsafe.Pointer(&buf[0])), uint32(addr)
}

func (p *IMX6) FreeDMA(baddr uint32) {
	p.dmaRegio.Release(uint(baddr))
}

func (p *IMX6) Udelay(us int) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

func (p *IMX6) IsVoltageCompatible(mv int) bool {
	return mv == 3300 || (mv == 1800 && p.voltageSwitch != nil)
}

func (p *IMX6) DefaultVoltageMask(kind CardKind) uint32 {
	// SDHC/SDXC voltage window 2.7-3.6V (OCR bits 15-23), the only
	// window this family negotiates at identification time; 1.8V switch
	// (if available) happens after identification via a dedicated
	// signal-voltage-switch sequence this driver does not implement.
	return 0x00ff8000
}

func (p *IMX6) ConfigureClock(mode ClockMode) error {
	// fed from a fixed-frequency CCM root; the engine's own divider
	// programming (base-clock / 512 for identification, / 8 for
	// operational) is sufficient, nothing further to do on this family.
	return nil
}

func (p *IMX6) SelectDefaultVoltage() error {
	if p.voltageSwitch == nil {
		return nil
	}

	return p.voltageSwitch(false)
}

func (p *IMX6) IRQTable() []int {
	return []int{p.irq}
}

func (p *IMX6) DefaultID() HostID {
	return p.id
}
