// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mmio

import (
	"testing"
	"time"
	"unsafe"
)

// testReg backs a simulated register with ordinary Go memory, the same
// approach platform.Sim uses for a whole register window.
func testReg() uintptr {
	buf := make([]byte, 4)
	return uintptr(unsafe.Pointer(&buf[0]))
}

func TestSetClear(t *testing.T) {
	addr := testReg()

	Set(addr, 4)
	if Get(addr, 4, 1) != 1 {
		t.Fatal("expected bit 4 set")
	}

	Clear(addr, 4)
	if Get(addr, 4, 1) != 0 {
		t.Fatal("expected bit 4 clear")
	}
}

func TestSetNClearN(t *testing.T) {
	addr := testReg()

	SetN(addr, 8, 0xff, 0x5a)
	if Get(addr, 8, 0xff) != 0x5a {
		t.Fatalf("Get after SetN = %#x, want %#x", Get(addr, 8, 0xff), 0x5a)
	}

	ClearN(addr, 8, 0xff)
	if Get(addr, 8, 0xff) != 0 {
		t.Fatal("expected field clear after ClearN")
	}
}

func TestReadWrite(t *testing.T) {
	addr := testReg()

	Write(addr, 0xdeadbeef)
	if got := Read(addr); got != 0xdeadbeef {
		t.Fatalf("Read = %#x, want %#x", got, 0xdeadbeef)
	}

	WriteBack(addr, Read(addr))
	if got := Read(addr); got != 0xdeadbeef {
		t.Fatalf("Read after WriteBack = %#x, want %#x", got, 0xdeadbeef)
	}
}

func TestWaitForTimesOut(t *testing.T) {
	addr := testReg()

	if WaitFor(10*time.Millisecond, addr, 0, 1, 1) {
		t.Fatal("expected WaitFor to time out, condition never becomes true")
	}
}

func TestWaitForObservesChange(t *testing.T) {
	addr := testReg()

	done := make(chan struct{})
	go func() {
		time.Sleep(2 * time.Millisecond)
		Set(addr, 0)
		close(done)
	}()

	if !WaitFor(500*time.Millisecond, addr, 0, 1, 1) {
		t.Fatal("expected WaitFor to observe the bit being set")
	}

	<-done
}
