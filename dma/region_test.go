// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package dma

import (
	"bytes"
	"testing"
	"unsafe"
)

// hostBufs keeps every buffer handed out by hostMem reachable for the whole
// test binary.
var hostBufs [][]byte

// hostMem returns the address of size bytes of ordinary Go memory, so that
// Alloc, Read and Write, which access a block's address directly, have real
// memory behind the region under test.
func hostMem(size int) uint {
	buf := make([]byte, size)
	hostBufs = append(hostBufs, buf)
	return uint(uintptr(unsafe.Pointer(&buf[0])))
}

func TestReserveWithinBounds(t *testing.T) {
	r := NewRegion(0x1000, 0x1000)

	addr, buf := r.Reserve(256, 0)
	if buf == nil {
		t.Fatal("Reserve returned a nil buffer")
	}
	if len(buf) != 256 {
		t.Fatalf("len(buf) = %d, want 256", len(buf))
	}
	if !r.Contains(addr, 256) {
		t.Fatalf("region does not contain reserved block at %#x", addr)
	}
}

func TestReserveAlignment(t *testing.T) {
	r := NewRegion(0x1001, 0x2000)

	addr, buf := r.Reserve(64, 0x100)
	if buf == nil {
		t.Fatal("Reserve returned a nil buffer")
	}
	if addr&0xff != 0 {
		t.Fatalf("addr = %#x, not aligned to 0x100", addr)
	}
}

func TestReserveThenReleaseReusesSpace(t *testing.T) {
	r := NewRegion(0x2000, 0x1000)

	addr1, _ := r.Reserve(0x800, 0)
	r.Release(addr1)

	addr2, buf2 := r.Reserve(0x800, 0)
	if buf2 == nil {
		t.Fatal("second Reserve returned a nil buffer")
	}
	if addr2 != addr1 {
		t.Fatalf("addr2 = %#x, want reused address %#x", addr2, addr1)
	}
}

func TestAllocWriteReadFree(t *testing.T) {
	r := NewRegion(hostMem(0x1000), 0x1000)

	data := []byte("hello dma")
	addr := r.Alloc(data, 0)

	out := make([]byte, len(data))
	if err := r.Read(addr, 0, out); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("Read = %q, want %q", out, data)
	}

	if err := r.Write(addr, 0, []byte("HELLO")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out2 := make([]byte, 5)
	if err := r.Read(addr, 0, out2); err != nil {
		t.Fatalf("Read after Write: %v", err)
	}
	if !bytes.Equal(out2, []byte("HELLO")) {
		t.Fatalf("Read after Write = %q, want %q", out2, "HELLO")
	}

	r.Free(addr)

	if err := r.Read(addr, 0, out); err == nil {
		t.Fatal("expected an error reading a freed block")
	}
}

func TestReadWritePastEndOfBlock(t *testing.T) {
	r := NewRegion(hostMem(0x1000), 0x1000)

	addr := r.Alloc(make([]byte, 16), 0)

	if err := r.Read(addr, 0, make([]byte, 32)); err == nil {
		t.Fatal("expected an error reading past the end of a block")
	}
	if err := r.Write(addr, 8, make([]byte, 16)); err == nil {
		t.Fatal("expected an error writing past the end of a block")
	}
}

func TestReleaseWrongKindIsNoop(t *testing.T) {
	r := NewRegion(hostMem(0x1000), 0x1000)

	addr := r.Alloc(make([]byte, 32), 0)

	// Release is for Reserve-allocated blocks; calling it on an
	// Alloc-allocated block must not free it out from under Free.
	r.Release(addr)

	if err := r.Read(addr, 0, make([]byte, 32)); err != nil {
		t.Fatalf("block freed by mismatched Release: %v", err)
	}

	r.Free(addr)
}

func TestStartEndSize(t *testing.T) {
	r := NewRegion(0x6000, 0x2000)

	if r.Start() != 0x6000 {
		t.Errorf("Start() = %#x, want %#x", r.Start(), 0x6000)
	}
	if r.End() != 0x8000 {
		t.Errorf("End() = %#x, want %#x", r.End(), 0x8000)
	}
	if r.Size() != 0x2000 {
		t.Errorf("Size() = %#x, want %#x", r.Size(), 0x2000)
	}
}
