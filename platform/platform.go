// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package platform defines the abstract trait that board support code
// implements and the SDHC core consumes. It never mentions a specific SoC:
// register maps, GPIO routing, mailbox power sequencing and clock tree
// programming all live on the other side of this interface.
package platform

import (
	"time"
)

// HostID identifies a host controller instance on a board that exposes more
// than one SDHC/uSDHC slot.
type HostID int

// CardKind distinguishes the attached card family, known only after CMD55
// probing during identification. Voltage negotiation differs by kind on
// some boards (a non-SD, non-SDIO response to CMD55 rules out HCS on
// certain platform voltage tables).
type CardKind int

const (
	CardUnknown CardKind = iota
	CardMMC
	CardSD
)

// ClockMode selects a clock tree configuration. The host engine only ever
// asks for one of these two; it then programs the controller's own SDCLK
// divider itself.
type ClockMode int

const (
	// ClockInitial is the ≈400 kHz identification-phase clock.
	ClockInitial ClockMode = iota
	// ClockOperational is the ≈25 MHz (or higher, if the card and board
	// negotiate a faster bus mode) data-phase clock.
	ClockOperational
)

// Config describes the fixed, per-board facts about one host controller
// instance: where it is mapped, which IRQ line it raises, and which slot a
// board should probe by default when no explicit HostID is given.
type Config struct {
	ID   HostID
	Base uintptr
	Size uint
	IRQ  int
}

// Platform is the trait the SDHC core is built against. A board package
// supplies one implementation per host controller instance; the core never
// branches on a platform or SoC enum, it only calls these methods.
type Platform interface {
	// Map returns a virtual address through which the size bytes
	// starting at the physical address paddr can be accessed. On
	// platforms with a 1:1 physical/virtual mapping (typical of bare
	// metal targets) this returns paddr unchanged.
	Map(paddr uintptr, size uint) (vaddr uintptr, err error)

	// AllocDMA reserves size bytes, aligned to align (0 meaning the
	// allocator's default), and returns both the CPU-visible address and
	// the bus address the controller's DMA engine should be programmed
	// with. On platforms without an IOMMU these are numerically equal.
	AllocDMA(size int, align int) (vaddr uintptr, baddr uint32)

	// FreeDMA releases a region previously returned by AllocDMA.
	FreeDMA(baddr uint32)

	// Udelay busy-waits for approximately the given number of
	// microseconds. Used for the short, hardware-mandated settling
	// delays the engine cannot express as an interrupt wait.
	Udelay(us int)

	// IsVoltageCompatible reports whether the board's power rail can
	// supply mv millivolts to the card slot.
	IsVoltageCompatible(mv int) bool

	// DefaultVoltageMask returns the OCR voltage-window bitmask this
	// board can offer a card of the given kind during ACMD41
	// negotiation.
	DefaultVoltageMask(kind CardKind) uint32

	// ConfigureClock asks the board to drive the controller's input
	// clock tree into the requested mode. Boards whose SDHC instance is
	// fed by a single fixed-frequency source from the SoC clock
	// controller (rather than a software-controlled PLL/divider) may
	// implement this as a no-op.
	ConfigureClock(mode ClockMode) error

	// SelectDefaultVoltage performs whatever board sequencing (PMIC
	// write, GPIO toggle) is needed before a card can be probed at its
	// default supply voltage. Boards without a switchable rail return
	// nil.
	SelectDefaultVoltage() error

	// IRQTable returns every IRQ line this platform instance can raise
	// for the host controller (normally exactly one entry).
	IRQTable() []int

	// DefaultID returns the host controller a board wants probed when a
	// caller does not specify one explicitly.
	DefaultID() HostID
}

// PollTimeout is a ceiling for blocking platform operations (such as voltage
// settling) before the caller treats the board as unresponsive. It is not a
// hardware constant, it is a driver-side backstop. No package of this module
// uses it: the ACMD41 poll in mmc is bounded by its attempt count and the
// engine's waits by their own timeout.
const PollTimeout = 2 * time.Second
