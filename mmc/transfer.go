// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mmc

import (
	"fmt"

	"github.com/usbarmory/sdhc/sdhc"
)

// blockArg computes CMD17/CMD24's address argument: a high-capacity card
// (SDHC/SDXC) addresses in 512-byte blocks directly, a standard-capacity
// card addresses in bytes.
func (c *Card) blockArg(block uint32) uint32 {
	if c.HighCapacity {
		return block
	}

	return block * blockSize
}

// ReadBlock reads exactly one block into buf, which must be at least
// BlockSize bytes, blocking until the transfer completes or times out.
func (c *Card) ReadBlock(block uint32, buf []byte) error {
	if len(buf) < blockSize {
		return fmt.Errorf("mmc: read buffer too small (%d < %d)", len(buf), blockSize)
	}

	cmd := &sdhc.Command{
		Index:   cmdReadSingleBlock,
		Arg:     c.blockArg(block),
		RspType: sdhc.RspR1,
		Data: &sdhc.DataDescriptor{
			VBuf:       buf,
			StartBlock: block,
			BlockSize:  blockSize,
			BlockCount: 1,
			Dir:        sdhc.Read,
		},
	}

	if status := c.host.SendCommand(cmd, nil, nil); status != 1 {
		return fmt.Errorf("mmc: read block %d failed (status %d)", block, status)
	}

	return nil
}

// WriteBlock writes exactly one block from buf, which must be at least
// BlockSize bytes, blocking until the transfer completes or times out.
func (c *Card) WriteBlock(block uint32, buf []byte) error {
	if len(buf) < blockSize {
		return fmt.Errorf("mmc: write buffer too small (%d < %d)", len(buf), blockSize)
	}

	cmd := &sdhc.Command{
		Index:   cmdWriteBlock,
		Arg:     c.blockArg(block),
		RspType: sdhc.RspR1,
		Data: &sdhc.DataDescriptor{
			VBuf:       buf[:blockSize],
			StartBlock: block,
			BlockSize:  blockSize,
			BlockCount: 1,
			Dir:        sdhc.Write,
		},
	}

	if status := c.host.SendCommand(cmd, nil, nil); status != 1 {
		return fmt.Errorf("mmc: write block %d failed (status %d)", block, status)
	}

	return nil
}

// TransferDone is invoked by the completion adapter exactly once, with the
// outcome of one asynchronous ReadBlockAsync/WriteBlockAsync call.
type TransferDone func(err error)

// adaptCompletion turns an sdhc-level CommandCallback invocation back into
// the mmc layer's plain error-returning convention, so callers driving
// transfers from the IRQ dispatcher never see a *sdhc.Command directly.
func adaptCompletion(index uint8, block uint32, done TransferDone) sdhc.CommandCallback {
	return func(h *sdhc.SDHC, status int, cmd *sdhc.Command, token interface{}) {
		if status != 1 {
			done(fmt.Errorf("mmc: async CMD%d (block %d) failed (status %d)", index, block, status))
			return
		}

		done(nil)
	}
}

// ReadBlockAsync submits a single-block read and returns immediately; done
// is invoked from the IRQ dispatcher once the transfer settles. buf must
// remain valid and unmodified by the caller until done fires.
func (c *Card) ReadBlockAsync(block uint32, buf []byte, done TransferDone) error {
	if len(buf) < blockSize {
		return fmt.Errorf("mmc: read buffer too small (%d < %d)", len(buf), blockSize)
	}

	cmd := &sdhc.Command{
		Index:   cmdReadSingleBlock,
		Arg:     c.blockArg(block),
		RspType: sdhc.RspR1,
		Data: &sdhc.DataDescriptor{
			VBuf:       buf,
			StartBlock: block,
			BlockSize:  blockSize,
			BlockCount: 1,
			Dir:        sdhc.Read,
		},
	}

	c.host.SendCommand(cmd, adaptCompletion(cmdReadSingleBlock, block, done), nil)

	return nil
}

// WriteBlockAsync submits a single-block write and returns immediately;
// done is invoked from the IRQ dispatcher once the transfer settles. buf
// must remain valid and unmodified by the caller until done fires.
func (c *Card) WriteBlockAsync(block uint32, buf []byte, done TransferDone) error {
	if len(buf) < blockSize {
		return fmt.Errorf("mmc: write buffer too small (%d < %d)", len(buf), blockSize)
	}

	cmd := &sdhc.Command{
		Index:   cmdWriteBlock,
		Arg:     c.blockArg(block),
		RspType: sdhc.RspR1,
		Data: &sdhc.DataDescriptor{
			VBuf:       buf[:blockSize],
			StartBlock: block,
			BlockSize:  blockSize,
			BlockCount: 1,
			Dir:        sdhc.Write,
		},
	}

	c.host.SendCommand(cmd, adaptCompletion(cmdWriteBlock, block, done), nil)

	return nil
}
