// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package dma provides a first-fit memory allocator for DMA buffers. It
// hands out physically addressable regions without passing Go pointers to
// hardware, which the runtime's moving garbage collector would otherwise
// invalidate underneath a pending transfer.
//
// The allocator backs the DMA hook of the platform trait: board code calls
// NewRegion with the physical range it guarantees the Go runtime will never
// use, and each platform's AllocDMA/FreeDMA call Reserve/Release on it.
package dma

import (
	"container/list"
	"fmt"
	"sync"
)

// Region represents a pool of physically addressed memory reserved for DMA
// buffers.
type Region struct {
	sync.Mutex

	start uint
	size  uint

	freeBlocks *list.List
	usedBlocks map[uint]*block
}

// NewRegion creates a DMA region spanning [start, start+size). The caller
// must ensure this range is otherwise unused by the Go runtime and the rest
// of the application.
func NewRegion(start uint, size uint) *Region {
	r := &Region{
		start: start,
		size:  size,
	}

	r.freeBlocks = list.New()
	r.freeBlocks.PushFront(&block{addr: start, size: size})
	r.usedBlocks = make(map[uint]*block)

	return r
}

// Start returns the region's first physical address.
func (r *Region) Start() uint {
	return r.start
}

// End returns the address immediately past the region.
func (r *Region) End() uint {
	return r.start + r.size
}

// Size returns the region size in bytes.
func (r *Region) Size() uint {
	return r.size
}

// Contains reports whether addr falls within the region.
func (r *Region) Contains(addr uint, size uint) bool {
	return addr >= r.start && addr+size <= r.start+r.size
}

// Reserve allocates size bytes, with optional power-of-2 alignment (0 means
// word alignment), and returns the allocation's physical address together
// with a byte slice backed by that same memory. The caller owns the
// returned buffer until Release.
func (r *Region) Reserve(size int, align int) (addr uint, buf []byte) {
	if size <= 0 {
		return 0, nil
	}

	r.Lock()
	defer r.Unlock()

	b := r.alloc(uint(size), uint(align))
	b.res = true
	r.usedBlocks[b.addr] = b

	return b.addr, b.slice()
}

// Alloc copies buf into a newly reserved region and returns its physical
// address. The region can be freed with Free.
func (r *Region) Alloc(buf []byte, align int) (addr uint) {
	if len(buf) == 0 {
		return 0
	}

	r.Lock()
	defer r.Unlock()

	b := r.alloc(uint(len(buf)), uint(align))
	b.write(0, buf)
	r.usedBlocks[b.addr] = b

	return b.addr
}

// Read copies len(buf) bytes from addr+off into buf. addr must have been
// returned by a prior Alloc or Reserve on this region.
func (r *Region) Read(addr uint, off int, buf []byte) error {
	if addr == 0 || len(buf) == 0 {
		return nil
	}

	r.Lock()
	defer r.Unlock()

	b, ok := r.usedBlocks[addr]
	if !ok {
		return fmt.Errorf("dma: read of unallocated address %#x", addr)
	}

	if uint(off+len(buf)) > b.size {
		return fmt.Errorf("dma: read past end of block at %#x", addr)
	}

	b.read(uint(off), buf)

	return nil
}

// Write copies buf into addr+off. addr must have been returned by a prior
// Alloc or Reserve on this region.
func (r *Region) Write(addr uint, off int, buf []byte) error {
	if addr == 0 || len(buf) == 0 {
		return nil
	}

	r.Lock()
	defer r.Unlock()

	b, ok := r.usedBlocks[addr]
	if !ok {
		return fmt.Errorf("dma: write to unallocated address %#x", addr)
	}

	if uint(off+len(buf)) > b.size {
		return fmt.Errorf("dma: write past end of block at %#x", addr)
	}

	b.write(uint(off), buf)

	return nil
}

// Free releases a block allocated with Alloc.
func (r *Region) Free(addr uint) {
	r.freeBlock(addr, false)
}

// Release releases a block allocated with Reserve.
func (r *Region) Release(addr uint) {
	r.freeBlock(addr, true)
}

func (r *Region) freeBlock(addr uint, res bool) {
	if addr == 0 {
		return
	}

	r.Lock()
	defer r.Unlock()

	b, ok := r.usedBlocks[addr]
	if !ok || b.res != res {
		return
	}

	r.free(b)
	delete(r.usedBlocks, addr)
}

func (r *Region) defrag() {
	var prev *block

	for e := r.freeBlocks.Front(); e != nil; e = e.Next() {
		b := e.Value.(*block)

		if prev != nil && prev.addr+prev.size == b.addr {
			prev.size += b.size
			defer r.freeBlocks.Remove(e)
			continue
		}

		prev = b
	}
}

func (r *Region) alloc(size uint, align uint) *block {
	var e *list.Element
	var free *block
	var pad uint

	if align == 0 {
		align = 4
	}

	for e = r.freeBlocks.Front(); e != nil; e = e.Next() {
		b := e.Value.(*block)
		pad = -b.addr & (align - 1)

		if b.size >= size+pad {
			free = b
			break
		}
	}

	if free == nil {
		panic("dma: out of memory")
	}

	defer r.freeBlocks.Remove(e)

	if pad != 0 {
		before := &block{addr: free.addr, size: pad}
		free.addr += pad
		free.size -= pad
		r.freeBlocks.InsertBefore(before, e)
	}

	if rem := free.size - size; rem != 0 {
		after := &block{addr: free.addr + size, size: rem}
		free.size = size
		r.freeBlocks.InsertAfter(after, e)
	}

	return free
}

func (r *Region) free(used *block) {
	for e := r.freeBlocks.Front(); e != nil; e = e.Next() {
		b := e.Value.(*block)

		if b.addr > used.addr {
			r.freeBlocks.InsertBefore(used, e)
			r.defrag()
			return
		}
	}

	r.freeBlocks.PushBack(used)
}
