// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package lifecycle

import "testing"

func TestStageString(t *testing.T) {
	cases := map[Stage]string{
		StageNeverAttempted: "never_attempted",
		StageIOOps:          "io_ops",
		StageSDIO:           "sdio",
		StageCardNotPresent: "card_not_present",
		StageMMC:            "mmc",
		StageIRQ:            "irq",
		StageReady:          "ready",
	}

	for stage, want := range cases {
		if got := stage.String(); got != want {
			t.Errorf("Stage(%d).String() = %q, want %q", stage, got, want)
		}
	}
}

func TestHandleIRQWithoutHost(t *testing.T) {
	var r Result // zero value: Init never ran, Host is nil

	if err := r.HandleIRQ(0); err == nil {
		t.Fatal("expected an error dispatching an IRQ with no host bound")
	}
}
