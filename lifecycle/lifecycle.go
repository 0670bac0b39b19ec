// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package lifecycle binds a platform implementation to the host engine, runs
// card identification, and hands the result to the storage surface. It is
// the only package that constructs an sdhc.SDHC or an mmc.Card.
package lifecycle

import (
	"fmt"
	"log"

	"github.com/usbarmory/sdhc/mmc"
	"github.com/usbarmory/sdhc/platform"
	"github.com/usbarmory/sdhc/sdhc"
	"github.com/usbarmory/sdhc/storage"
)

// Stage names the point initialization reached, mirroring the readiness
// bitmap's five named stages plus the never-attempted sentinel. Exported so
// a caller wiring its own logging/metrics can branch on it.
type Stage int

const (
	StageNeverAttempted Stage = iota
	StageIOOps
	StageSDIO
	StageCardNotPresent
	StageMMC
	StageIRQ
	StageReady
)

func (s Stage) String() string {
	switch s {
	case StageIOOps:
		return "io_ops"
	case StageSDIO:
		return "sdio"
	case StageCardNotPresent:
		return "card_not_present"
	case StageMMC:
		return "mmc"
	case StageIRQ:
		return "irq"
	case StageReady:
		return "ready"
	default:
		return "never_attempted"
	}
}

// Result is what Init always returns: the furthest stage reached, and
// (only if that stage is StageReady) a usable Surface.
type Result struct {
	Stage   Stage
	Surface *storage.Surface
	Host    *sdhc.SDHC
	Card    *mmc.Card
}

// Init maps the controller's registers, resets it, runs card identification,
// and builds a storage surface. It never panics: every failure is recorded
// in the returned Result's Stage and surfaced to the caller as a log line,
// per the readiness-bitmap contract the storage surface consults afterward.
func Init(plat platform.Platform, cfg platform.Config, dataportSize int, hardCodedPresent bool) Result {
	host, err := sdhc.New(plat, cfg)
	if err != nil {
		log.Printf("lifecycle: map host controller: %v", err)
		return Result{Stage: StageIOOps, Surface: storage.NewFailed("io_ops", dataportSize)}
	}

	if err := plat.SelectDefaultVoltage(); err != nil {
		log.Printf("lifecycle: select default voltage: %v", err)
		return Result{Stage: StageSDIO, Surface: storage.NewFailed("sdio", dataportSize)}
	}

	if !host.IsVoltageCompatible(3300) {
		log.Printf("lifecycle: board cannot supply 3.3V to the card slot")
		return Result{Stage: StageSDIO, Surface: storage.NewFailed("sdio", dataportSize)}
	}

	card, err := mmc.Init(host, plat)
	if err != nil {
		log.Printf("lifecycle: card identification: %v", err)

		// CINST reflects the card-detect pin: if the slot reports a card
		// physically inserted, identification failed on a present card
		// (StageMMC/InvalidState) rather than finding no card at all
		// (StageCardNotPresent/DeviceNotPresent).
		if host.PresentState()&(1<<sdhc.PRES_STATE_CINST) != 0 {
			return Result{Stage: StageMMC, Surface: storage.NewFailed("mmc", dataportSize)}
		}

		return Result{Stage: StageCardNotPresent, Surface: storage.NewFailed("card_not_present", dataportSize)}
	}

	if host.NthIRQ(0) < 0 {
		log.Printf("lifecycle: no IRQ line registered for this host")
		return Result{Stage: StageIRQ, Surface: storage.NewFailed("irq", dataportSize)}
	}

	surface := storage.New(card, dataportSize, hardCodedPresent)

	return Result{Stage: StageReady, Surface: surface, Host: host, Card: card}
}

// HandleIRQ dispatches a raised interrupt line to the bound host, for
// callers wiring a real interrupt thread rather than relying on the blocking
// send path's own busy-poll.
func (r Result) HandleIRQ(irq int) error {
	if r.Host == nil {
		return fmt.Errorf("lifecycle: no host bound, init did not reach StageReady")
	}

	return r.Host.HandleIRQ(irq)
}
