// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package sdhc implements the SD/MMC host controller command and transfer
// engine: a typed view of the SDHC register block and a command queue with
// interrupt-driven completion; the card identification/CID/CSD protocol
// layer built on top lives in package mmc. It is the hard middle tier between the platform trait
// (memory map, IRQ table, DMA allocator) and the block storage surface.
package sdhc

// Register offsets, mirroring the SDHC/uSDHC memory map byte for byte.
const (
	DS_ADDR              = 0x00
	BLK_ATT              = 0x04
	CMD_ARG              = 0x08
	CMD_XFR_TYP          = 0x0c
	CMD_RSP0             = 0x10
	CMD_RSP1             = 0x14
	CMD_RSP2             = 0x18
	CMD_RSP3             = 0x1c
	DATA_BUFF_ACC_PORT   = 0x20
	PRES_STATE           = 0x24
	PROT_CTRL            = 0x28
	SYS_CTRL             = 0x2c
	INT_STATUS           = 0x30
	INT_STATUS_EN        = 0x34
	INT_SIGNAL_EN        = 0x38
	AUTOCMD12_ERR_STATUS = 0x3c
	HOST_CTRL_CAP        = 0x40
	WTMK_LVL             = 0x44
	MIX_CTRL             = 0x48
	FORCE_EVENT          = 0x50
	ADMA_ERR_STATUS      = 0x54
	ADMA_SYS_ADDR        = 0x58
	DLL_CTRL             = 0x60
	DLL_STATUS           = 0x64
	CLK_TUNE_CTRL_STATUS = 0x68
	VEND_SPEC            = 0xc0
	MMC_BOOT             = 0xc4
	VEND_SPEC2           = 0xc8
	HOST_VERSION         = 0xfc
)

// Block Attributes Register (BLK_ATT)
const (
	BLK_ATT_BLKCNT_SHIFT = 16
	BLK_ATT_BLKCNT_MASK  = 0xffff
	BLK_ATT_BLKSIZE_MASK = 0xfff
)

// Command Transfer Type Register (CMD_XFR_TYP)
const (
	CMD_XFR_TYP_CMDINX_SHIFT = 24
	CMD_XFR_TYP_CMDINX_MASK  = 0x3f
	CMD_XFR_TYP_CMDTYP_SHIFT = 22
	CMD_XFR_TYP_CMDTYP_MASK  = 0x3
	CMD_XFR_TYP_DPSEL        = 21
	CMD_XFR_TYP_CICEN        = 20
	CMD_XFR_TYP_CCCEN        = 19
	CMD_XFR_TYP_RSPTYP_SHIFT = 16
	CMD_XFR_TYP_RSPTYP_MASK  = 0x3
	CMD_XFR_TYP_MSBSEL       = 5
	CMD_XFR_TYP_DTDSEL       = 4
	CMD_XFR_TYP_DDR_EN       = 3
	CMD_XFR_TYP_AC12EN       = 2
	CMD_XFR_TYP_BCEN         = 1
	CMD_XFR_TYP_DMAEN        = 0
)

// response-type encoding, CMD_XFR_TYP_RSPTYP field
const (
	RSPTYP_NONE = 0b00
	RSPTYP_136  = 0b01
	RSPTYP_48   = 0b10
	RSPTYP_48B  = 0b11
)

// Present State Register (PRES_STATE)
const (
	PRES_STATE_DAT3  = 23
	PRES_STATE_DAT2  = 22
	PRES_STATE_DAT1  = 21
	PRES_STATE_DAT0  = 20
	PRES_STATE_WPSPL = 19
	PRES_STATE_CDPL  = 18
	PRES_STATE_CINST = 16
	PRES_STATE_BWEN  = 10
	PRES_STATE_RTA   = 9
	PRES_STATE_WTA   = 8
	PRES_STATE_SDSTB = 3
	PRES_STATE_DLA   = 2
	PRES_STATE_CDIHB = 1
	PRES_STATE_CIHB  = 0
)

// Protocol Control Register (PROT_CTRL)
const (
	PROT_CTRL_DMASEL_SHIFT = 8
	PROT_CTRL_DMASEL_MASK  = 0x3
	PROT_CTRL_EMODE_SHIFT  = 4
	PROT_CTRL_EMODE_MASK   = 0x3
	PROT_CTRL_DTW_SHIFT    = 1
	PROT_CTRL_DTW_MASK     = 0x3
)

// System Control Register (SYS_CTRL)
const (
	SYS_CTRL_INITA         = 27
	SYS_CTRL_RSTD          = 26
	SYS_CTRL_RSTC          = 25
	SYS_CTRL_RSTA          = 24
	SYS_CTRL_DTOCV_SHIFT   = 16
	SYS_CTRL_DTOCV_MASK    = 0xf
	SYS_CTRL_SDCLKS_SHIFT  = 8
	SYS_CTRL_SDCLKS_MASK   = 0xff
	SYS_CTRL_DVS_SHIFT     = 4
	SYS_CTRL_DVS_MASK      = 0xf
	SYS_CTRL_CLK_INT_EN    = 0
	SYS_CTRL_CLK_INT_STABLE = 1
	SYS_CTRL_CLK_CARD_EN   = 2
)

// Interrupt Status / Status Enable / Signal Enable Register bits
const (
	INT_STATUS_DMAE    = 28
	INT_STATUS_TNE     = 26
	INT_STATUS_ADMAE   = 25
	INT_STATUS_AC12E   = 24
	INT_STATUS_OVRCURE = 23
	INT_STATUS_DEBE    = 22
	INT_STATUS_DCE     = 21
	INT_STATUS_DTOE    = 20
	INT_STATUS_CIE     = 19
	INT_STATUS_CEBE    = 18
	INT_STATUS_CCE     = 17
	INT_STATUS_CTOE    = 16
	INT_STATUS_ERR     = 15
	INT_STATUS_TP      = 14
	INT_STATUS_RTE     = 12
	INT_STATUS_CINT    = 8
	INT_STATUS_CRM     = 7
	INT_STATUS_CINS    = 6
	INT_STATUS_BRR     = 5
	INT_STATUS_BWR     = 4
	INT_STATUS_DINT    = 3
	INT_STATUS_BGE     = 2
	INT_STATUS_TC      = 1
	INT_STATUS_CC      = 0
)

// intMask is every status bit next_cmd enables before triggering a command:
// completion, errors, and card presence change. BRR/BWR are ORed in by the
// caller only when the transfer is PIO.
const intMask uint32 = (1 << INT_STATUS_CC) | (1 << INT_STATUS_TC) |
	(1 << INT_STATUS_DMAE) | (1 << INT_STATUS_TNE) | (1 << INT_STATUS_ADMAE) |
	(1 << INT_STATUS_AC12E) | (1 << INT_STATUS_OVRCURE) | (1 << INT_STATUS_DEBE) |
	(1 << INT_STATUS_DCE) | (1 << INT_STATUS_DTOE) | (1 << INT_STATUS_CIE) |
	(1 << INT_STATUS_CEBE) | (1 << INT_STATUS_CCE) | (1 << INT_STATUS_CTOE) |
	(1 << INT_STATUS_CINS) | (1 << INT_STATUS_CRM)

const pioMask uint32 = (1 << INT_STATUS_BRR) | (1 << INT_STATUS_BWR)

// errMask is every bit handle_irq treats as a fatal command failure.
const errMask uint32 = (1 << INT_STATUS_ERR) | (1 << INT_STATUS_DMAE) | (1 << INT_STATUS_ADMAE) |
	(1 << INT_STATUS_AC12E) | (1 << INT_STATUS_DEBE) | (1 << INT_STATUS_DCE) |
	(1 << INT_STATUS_DTOE) | (1 << INT_STATUS_CIE) | (1 << INT_STATUS_CEBE) |
	(1 << INT_STATUS_CCE) | (1 << INT_STATUS_CTOE) | (1 << INT_STATUS_CRM)

// Host Controller Capabilities Register (HOST_CTRL_CAP)
const (
	HOST_CTRL_CAP_VS18      = 26
	HOST_CTRL_CAP_VS30      = 25
	HOST_CTRL_CAP_VS33      = 24
	HOST_CTRL_CAP_SRS       = 23
	HOST_CTRL_CAP_DMAS      = 22
	HOST_CTRL_CAP_HSS       = 21
	HOST_CTRL_CAP_ADMAS     = 20
	HOST_CTRL_CAP_MBL_SHIFT = 16
	HOST_CTRL_CAP_MBL_MASK  = 0x3
)

// Mixer Control Register (MIX_CTRL), folded into CMD_XFR_TYP on controller
// versions below 3 and a separate register from v3 onward.
const (
	MIX_CTRL_MSBSEL = 5
	MIX_CTRL_DTDSEL = 4
	MIX_CTRL_DDR_EN = 3
	MIX_CTRL_AC12EN = 2
	MIX_CTRL_BCEN   = 1
	MIX_CTRL_DMAEN  = 0
)

// Watermark Level Register (WTMK_LVL)
const (
	WTMK_LVL_RD_SHIFT = 0
	WTMK_LVL_WR_SHIFT = 16
	WTMK_LVL_MASK     = 0xff
)

// data-timeout and watermark encodings used by (*SDHC).Reset and nextCmd.
const (
	// DTOCV encodes SDCLK x 2^(14+val); 0xe selects SDCLK x 2^28, the
	// widest timeout short of disabling it, used after reset for the
	// identification clock and for 512-byte data transfers thereafter.
	DataTimeoutSDCLKx2e28 = 0xe

	// watermark is capped at 0x80 32-bit words (512 bytes) regardless of
	// the requested block size.
	watermarkMax = 0x80
)
