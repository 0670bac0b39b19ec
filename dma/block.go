// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dma

import (
	"unsafe"
)

type block struct {
	addr uint
	size uint
	// res distinguishes Reserve/Release blocks from Alloc/Free blocks so
	// that a caller cannot release a block it didn't reserve.
	res bool
}

func (b *block) read(off uint, buf []byte) {
	mem := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(b.addr + off))), len(buf))
	copy(buf, mem)
}

func (b *block) write(off uint, buf []byte) {
	mem := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(b.addr + off))), len(buf))
	copy(mem, buf)
}

func (b *block) slice() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(b.addr))), b.size)
}
