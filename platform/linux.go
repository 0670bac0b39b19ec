// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package platform

import (
	"fmt"
	"os"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/usbarmory/sdhc/dma"
)

// Linux maps an SDHC register window through /dev/mem via mmap instead of
// running on bare metal. It exists for running this driver against real
// hardware from a Linux userspace process (e.g. a board whose boot firmware
// leaves the SDHC controller unclaimed by the kernel's own mmc driver),
// where Map's "paddr already visible" shortcut the bare-metal platforms take
// does not hold.
type Linux struct {
	mu    sync.Mutex
	mem   *os.File
	pages map[uintptr][]byte

	dmaRegio *dma.Region
	irq      int
	compat   func(mv int) bool
	voltMask uint32
}

// NewLinux opens /dev/mem and prepares a DMA region backed by a
// reserved-memory carve-out at [dmaBase, dmaBase+dmaSize). The caller is
// responsible for ensuring the kernel will not otherwise use that range
// (e.g. via a `memmap=` boot argument or a CMA reservation).
func NewLinux(irq int, dmaBase uint, dmaSize uint) (*Linux, error) {
	mem, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("platform: linux: open /dev/mem: %w", err)
	}

	return &Linux{
		mem:      mem,
		pages:    make(map[uintptr][]byte),
		dmaRegio: dma.NewRegion(dmaBase, dmaSize),
		irq:      irq,
		compat:   func(mv int) bool { return mv == 3300 },
		voltMask: 0x00ff8000,
	}, nil
}

func (p *Linux) Map(paddr uintptr, size uint) (uintptr, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pageSize := uintptr(unix.Getpagesize())
	aligned := paddr &^ (pageSize - 1)
	mapSize := int(size) + int(paddr-aligned)

	data, err := unix.Mmap(int(p.mem.Fd()), int64(aligned), mapSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return 0, fmt.Errorf("platform: linux: mmap %#x: %w", paddr, err)
	}

	p.pages[aligned] = data

	return uintptr(unsafe.Pointer(&data[paddr-aligned])), nil
}

// Close unmaps every region this platform has mapped and closes /dev/mem.
func (p *Linux) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, data := range p.pages {
		unix.Munmap(data)
	}

	return p.mem.Close()
}

func (p *Linux) AllocDMA(size int, align int) (uintptr, uint32) {
	addr, buf := p.dmaRegio.Reserve(size, align)
	if buf == nil {
		return 0, 0
	}

	return uintptr(unsafe.Pointer(&buf[0])), uint32(addr)
}

func (p *Linux) FreeDMA(baddr uint32) {
	p.dmaRegio.Release(uint(baddr))
}

func (p *Linux) Udelay(us int) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

func (p *Linux) IsVoltageCompatible(mv int) bool {
	return p.compat(mv)
}

func (p *Linux) DefaultVoltageMask(kind CardKind) uint32 {
	return p.voltMask
}

func (p *Linux) ConfigureClock(mode ClockMode) error {
	return nil
}

func (p *Linux) SelectDefaultVoltage() error {
	return nil
}

func (p *Linux) IRQTable() []int {
	return []int{p.irq}
}

func (p *Linux) DefaultID() HostID {
	return HostID(0)
}
