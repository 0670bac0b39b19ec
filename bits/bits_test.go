// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package bits

import "testing"

func TestSetClearGet(t *testing.T) {
	var v uint32

	Set(&v, 3)

	if !Get(&v, 3) {
		t.Fatal("expected bit 3 set")
	}

	if Get(&v, 2) {
		t.Fatal("expected bit 2 clear")
	}

	Clear(&v, 3)

	if Get(&v, 3) {
		t.Fatal("expected bit 3 clear after Clear")
	}
}

func TestSetTo(t *testing.T) {
	var v uint32

	SetTo(&v, 5, true)
	if !Get(&v, 5) {
		t.Fatal("expected bit 5 set")
	}

	SetTo(&v, 5, false)
	if Get(&v, 5) {
		t.Fatal("expected bit 5 clear")
	}
}

func TestSetNGetN(t *testing.T) {
	var v uint32

	SetN(&v, 8, 0xff, 0xab)

	if got := GetN(&v, 8, 0xff); got != 0xab {
		t.Fatalf("GetN = %#x, want %#x", got, 0xab)
	}

	// fields outside the written range must be untouched
	SetN(&v, 0, 0xff, 0xcd)

	if got := GetN(&v, 8, 0xff); got != 0xab {
		t.Fatalf("GetN after unrelated SetN = %#x, want %#x", got, 0xab)
	}
	if got := GetN(&v, 0, 0xff); got != 0xcd {
		t.Fatalf("GetN = %#x, want %#x", got, 0xcd)
	}
}

func TestSetN64GetN64(t *testing.T) {
	var v uint64

	SetN64(&v, 16, 0xffff, 0xbeef)

	if got := Get64(&v, 16, 0xffff); got != 0xbeef {
		t.Fatalf("Get64 = %#x, want %#x", got, 0xbeef)
	}
}

func TestSet64Clear64(t *testing.T) {
	var v uint64

	Set64(&v, 40)
	if Get64(&v, 40, 1) != 1 {
		t.Fatal("expected bit 40 set")
	}

	Clear64(&v, 40)
	if Get64(&v, 40, 1) != 0 {
		t.Fatal("expected bit 40 clear")
	}

	SetTo64(&v, 10, true)
	if Get64(&v, 10, 1) != 1 {
		t.Fatal("expected bit 10 set via SetTo64")
	}
}
