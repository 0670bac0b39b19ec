// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mmc

import (
	"fmt"
	"time"

	"github.com/usbarmory/sdhc/platform"
	"github.com/usbarmory/sdhc/sdhc"
)

// acmd41Attempts and acmd41Delay bound the OCR busy-poll: ten attempts,
// 100ms apart, matching the identification timing budget real SD cards are
// specified against.
const (
	acmd41Attempts = 10
	acmd41Delay    = 100 * time.Millisecond
)

// Init runs the SD card identification and registration sequence (spec
// 4.4) over host and returns the identified card. Legacy SD v1.x cards
// (CMD8 timeout) and MMC cards (CMD55 probe fails) are refused: this driver
// supports SD/SDHC/SDXC only.
func Init(host sdhc.Host, plat platform.Platform) (*Card, error) {
	if err := host.Reset(); err != nil {
		return nil, fmt.Errorf("mmc: reset: %w", err)
	}

	c := &Card{host: host, plat: plat}

	if err := goIdle(host); err != nil {
		return nil, err
	}

	if err := checkInterfaceCondition(host); err != nil {
		return nil, err
	}

	if err := c.negotiateVoltage(); err != nil {
		return nil, err
	}

	c.HighCapacity = c.OCR&sdOCRHCS != 0

	if err := c.allSendCID(); err != nil {
		return nil, err
	}

	if err := c.sendRelativeAddr(); err != nil {
		return nil, err
	}

	if err := c.readCSD(); err != nil {
		return nil, err
	}

	if err := c.sendStatus(); err != nil {
		return nil, err
	}

	if err := c.selectCard(); err != nil {
		return nil, err
	}

	if err := c.setBusWidth4Bit(); err != nil {
		return nil, err
	}

	if !c.HighCapacity {
		if err := c.setBlockLength(blockSize); err != nil {
			return nil, err
		}
	}

	if err := host.SetOperational(); err != nil {
		return nil, fmt.Errorf("mmc: set operational: %w", err)
	}

	c.Kind = platform.CardSD
	c.Status = StatusActive

	return c, nil
}

func syncCmd(host sdhc.Host, index uint8, arg uint32, rsp sdhc.ResponseType) (*sdhc.Command, error) {
	cmd := &sdhc.Command{Index: index, Arg: arg, RspType: rsp}

	if status := host.SendCommand(cmd, nil, nil); status != 1 {
		return cmd, fmt.Errorf("mmc: CMD%d failed (status %d)", index, status)
	}

	return cmd, nil
}

func goIdle(host sdhc.Host) error {
	_, err := syncCmd(host, cmdGoIdleState, 0, sdhc.RspNone)
	return err
}

// checkInterfaceCondition issues CMD8 and validates the voltage/check
// pattern echo. A timeout or mismatch here means a legacy SD v1.x (or
// non-SD) card, which this driver declines to support.
func checkInterfaceCondition(host sdhc.Host) error {
	cmd, err := syncCmd(host, cmdSendIfCond, cmd8Arg, sdhc.RspR1)
	if err != nil {
		return fmt.Errorf("mmc: CMD8 timeout, legacy SD v1.x/non-SD card not supported: %w", err)
	}

	if cmd.Resp[0]&0xff != cmd8CheckPattern || (cmd.Resp[0]>>8)&0xf != 1 {
		return fmt.Errorf("mmc: CMD8 echoed voltage/pattern mismatch, card not supported")
	}

	return nil
}

// negotiateVoltage runs the CMD55+ACMD41 cycle: one inquiry command to read
// the card's OCR, then a busy-poll with the host's computed voltage window
// and HCS until the card reports power-up complete.
func (c *Card) negotiateVoltage() error {
	if _, err := syncCmd(c.host, cmdAppCmd, 0, sdhc.RspR1); err != nil {
		return fmt.Errorf("mmc: CMD55 failed, MMC/SDIO card not supported: %w", err)
	}

	probe, err := syncCmd(c.host, acmdSDSendOpCond, 0, sdhc.RspR3)
	if err != nil {
		return fmt.Errorf("mmc: ACMD41 probe failed: %w", err)
	}

	mask := c.plat.DefaultVoltageMask(platform.CardSD) & probe.Resp[0]

	arg := uint32(0)
	if mask != 0 {
		arg = sdOCRHCS
	}
	arg |= mask

	for attempt := 0; attempt < acmd41Attempts; attempt++ {
		if _, err := syncCmd(c.host, cmdAppCmd, 0, sdhc.RspR1); err != nil {
			return fmt.Errorf("mmc: CMD55 failed during voltage negotiation: %w", err)
		}

		cmd, err := syncCmd(c.host, acmdSDSendOpCond, arg, sdhc.RspR3)
		if err != nil {
			return fmt.Errorf("mmc: ACMD41 failed: %w", err)
		}

		c.OCR = cmd.Resp[0]

		if c.OCR&sdOCRBusy != 0 {
			return nil
		}

		c.plat.Udelay(int(acmd41Delay / time.Microsecond))
	}

	return fmt.Errorf("mmc: card did not power up within %d attempts", acmd41Attempts)
}

func (c *Card) allSendCID() error {
	cmd, err := syncCmd(c.host, cmdAllSendCID, 0, sdhc.RspR2)
	if err != nil {
		return fmt.Errorf("mmc: CMD2: %w", err)
	}

	reassemble(&cmd.Resp)
	c.CID = cmd.Resp
	c.CIDFields = DecodeCID(c.CID)

	return nil
}

func (c *Card) sendRelativeAddr() error {
	cmd, err := syncCmd(c.host, cmdSendRelativeAddr, 0, sdhc.RspR6)
	if err != nil {
		return fmt.Errorf("mmc: CMD3: %w", err)
	}

	c.RCA = uint16(cmd.Resp[0] >> 16)

	return nil
}

func (c *Card) readCSD() error {
	cmd, err := syncCmd(c.host, cmdSendCSD, uint32(c.RCA)<<16, sdhc.RspR2)
	if err != nil {
		return fmt.Errorf("mmc: CMD9: %w", err)
	}

	reassemble(&cmd.Resp)
	c.CSD = cmd.Resp

	_, blocks, err := decodeCSD(c.CSD)
	if err != nil {
		return fmt.Errorf("mmc: CSD: %w", err)
	}
	c.blocks = blocks

	return nil
}

func (c *Card) sendStatus() error {
	_, err := syncCmd(c.host, cmdSendStatus, uint32(c.RCA)<<16, sdhc.RspR1)
	if err != nil {
		return fmt.Errorf("mmc: CMD13: %w", err)
	}

	return nil
}

func (c *Card) selectCard() error {
	_, err := syncCmd(c.host, cmdSelectCard, uint32(c.RCA)<<16, sdhc.RspR1b)
	if err != nil {
		return fmt.Errorf("mmc: CMD7: %w", err)
	}

	return nil
}

func (c *Card) setBusWidth4Bit() error {
	if _, err := syncCmd(c.host, cmdAppCmd, uint32(c.RCA)<<16, sdhc.RspR1); err != nil {
		return fmt.Errorf("mmc: CMD55 before ACMD6: %w", err)
	}

	if _, err := syncCmd(c.host, acmdSetBusWidth, busWidth4Bit, sdhc.RspR1); err != nil {
		return fmt.Errorf("mmc: ACMD6: %w", err)
	}

	return nil
}

func (c *Card) setBlockLength(size uint32) error {
	_, err := syncCmd(c.host, cmdSetBlocklen, size, sdhc.RspR1)
	if err != nil {
		return fmt.Errorf("mmc: CMD16: %w", err)
	}

	return nil
}
