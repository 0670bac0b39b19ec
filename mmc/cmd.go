// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mmc

// SD/MMC command indices used during identification and block transfer.
// Application-specific commands (ACMDxx) are sent as CMD55 followed by the
// indicated command index.
const (
	cmdGoIdleState        = 0
	cmdSendIfCond         = 8
	cmdAllSendCID         = 2
	cmdSendRelativeAddr   = 3
	cmdSendCSD            = 9
	cmdSendStatus         = 13
	cmdSelectCard         = 7
	cmdAppCmd             = 55
	acmdSDSendOpCond      = 41
	acmdSetBusWidth       = 6
	cmdSetBlocklen        = 16
	cmdReadSingleBlock    = 17
	cmdWriteBlock         = 24
	cmdStopTransmission   = 12
)

const (
	// cmd8Arg: VHS=1 (2.7-3.6V) in bits [11:8], check pattern 0xAA in
	// bits [7:0].
	cmd8Arg          = 0x1aa
	cmd8CheckPattern = 0xaa

	// sdOCRHCS is bit 30 of the OCR / ACMD41 argument: Host Capacity
	// Support, requested by the host and echoed back once the card has
	// powered up if it is SDHC/SDXC.
	sdOCRHCS = 1 << 30
	// sdOCRBusy is bit 31 of the OCR: card power-up status, 1 once
	// ready.
	sdOCRBusy = 1 << 31

	// busWidth4Bit is the ACMD6 argument selecting 4-bit data bus mode.
	busWidth4Bit = 0b10
)
