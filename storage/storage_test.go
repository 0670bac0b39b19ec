// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package storage

import "testing"

const (
	testBlockSize = 512
	testDataport  = 1 << 16 // 64 KiB
	testTotal     = 8 << 20 // 8 MiB card for test purposes
)

func TestVerifyParameters(t *testing.T) {
	cases := []struct {
		name   string
		offset int64
		size   int64
		want   Err
	}{
		{"negative offset", -1, 512, InvalidParameter},
		{"negative size", 0, -1, InvalidParameter},
		{"zero size at offset zero", 0, 0, Success},
		{"zero size at capacity", testTotal, 0, Success},
		{"misaligned offset", 1, 512, InvalidParameter},
		{"misaligned size", 0, 511, InvalidParameter},
		{"size exceeds dataport", 0, testDataport + testBlockSize, InvalidParameter},
		{"single block ok", 0, testBlockSize, Success},
		{"exactly at end", testTotal - testBlockSize, testBlockSize, Success},
		{"one block past end", testTotal, testBlockSize, OutOfBounds},
		{"size exceeding dataport also catches a huge overflowing size", 1<<62 - 512, 1 << 62, InvalidParameter},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := verifyParameters(c.offset, c.size, testBlockSize, testTotal, testDataport)
			if got != c.want {
				t.Errorf("verifyParameters(%d, %d) = %v, want %v", c.offset, c.size, got, c.want)
			}
		})
	}
}

// TestVerifyParametersOverflow exercises the uint64-promoted bounds check
// directly (spec 4.5): it needs a dataport large enough that the earlier
// dataport-capacity check does not short-circuit first.
func TestVerifyParametersOverflow(t *testing.T) {
	const hugeDataport = 1 << 62

	offset := int64(1 << 62)
	size := int64(1 << 62)

	got := verifyParameters(offset, size, testBlockSize, testTotal, hugeDataport)
	if got != OutOfBounds {
		t.Errorf("verifyParameters(%d, %d) = %v, want OutOfBounds", offset, size, got)
	}
}

func TestVerifyParametersZeroGeometry(t *testing.T) {
	if got := verifyParameters(0, 512, 0, testTotal, testDataport); got != InvalidState {
		t.Errorf("blockSize=0: got %v, want InvalidState", got)
	}

	if got := verifyParameters(0, 512, testBlockSize, 0, testDataport); got != InvalidState {
		t.Errorf("total=0: got %v, want InvalidState", got)
	}
}

func TestErrString(t *testing.T) {
	cases := map[Err]string{
		Success:          "Success",
		InvalidState:     "InvalidState",
		DeviceNotPresent: "DeviceNotPresent",
		InvalidParameter: "InvalidParameter",
		OutOfBounds:      "OutOfBounds",
		Aborted:          "Aborted",
		AccessDenied:     "AccessDenied",
		NotImplemented:   "NotImplemented",
		NotSupported:     "NotSupported",
		Err(999):         "Generic",
	}

	for err, want := range cases {
		if got := err.String(); got != want {
			t.Errorf("Err(%d).String() = %q, want %q", err, got, want)
		}
	}
}

func TestReadinessFromNewFailed(t *testing.T) {
	cases := []struct {
		at   string
		want Err
	}{
		{"io_ops", InvalidState},
		{"sdio", InvalidState},
		{"card_not_present", DeviceNotPresent},
		{"mmc", InvalidState},
		{"irq", InvalidState},
		{"unknown-stage", InvalidState},
	}

	for _, c := range cases {
		s := NewFailed(c.at, testDataport)
		if got := s.readiness(); got != c.want {
			t.Errorf("NewFailed(%q).readiness() = %v, want %v", c.at, got, c.want)
		}
	}
}

func TestReadinessGetters(t *testing.T) {
	s := NewFailed("card_not_present", testDataport)

	if _, err := s.GetSize(); err != DeviceNotPresent {
		t.Errorf("GetSize() err = %v, want DeviceNotPresent", err)
	}
	if _, err := s.GetBlockSize(); err != DeviceNotPresent {
		t.Errorf("GetBlockSize() err = %v, want DeviceNotPresent", err)
	}
	if _, err := s.GetState(); err != DeviceNotPresent {
		t.Errorf("GetState() err = %v, want DeviceNotPresent", err)
	}
	if _, err := s.Read(0, 512, make([]byte, 512)); err != DeviceNotPresent {
		t.Errorf("Read() err = %v, want DeviceNotPresent", err)
	}
}

func TestGetStateHardCodedPresent(t *testing.T) {
	s := &Surface{ready: stageReady, hardCodedPresent: true}

	flags, err := s.GetState()
	if err != Success {
		t.Fatalf("GetState() err = %v, want Success", err)
	}
	if flags&MediumPresent == 0 {
		t.Fatalf("flags = %#x, want MediumPresent set", flags)
	}
}
