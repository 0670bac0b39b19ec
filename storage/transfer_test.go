// https://github.com/usbarmory/sdhc
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package storage

import (
	"errors"
	"testing"
)

func TestForEachBlockFull(t *testing.T) {
	s := &Surface{}

	const blockSize = 512
	const nBlocks = 4

	buf := make([]byte, nBlocks*blockSize)
	var seen []uint32

	n, done := s.forEachBlock(0, int64(len(buf)), blockSize, func(block uint32, blockBuf []byte) error {
		seen = append(seen, block)
		if len(blockBuf) != blockSize {
			t.Errorf("block %d: buf len = %d, want %d", block, len(blockBuf), blockSize)
		}
		return nil
	}, buf)

	if !done {
		t.Fatal("expected done=true for an all-success loop")
	}
	if n != int64(len(buf)) {
		t.Fatalf("transferred = %d, want %d", n, len(buf))
	}
	if len(seen) != nBlocks {
		t.Fatalf("visited %d blocks, want %d", len(seen), nBlocks)
	}
	for i, b := range seen {
		if b != uint32(i) {
			t.Errorf("block order[%d] = %d, want %d", i, b, i)
		}
	}
}

func TestForEachBlockStopsOnFirstError(t *testing.T) {
	s := &Surface{}

	const blockSize = 512
	buf := make([]byte, 4*blockSize)

	failAt := uint32(2)
	var attempts int

	n, done := s.forEachBlock(0, int64(len(buf)), blockSize, func(block uint32, blockBuf []byte) error {
		attempts++
		if block == failAt {
			return errors.New("simulated device error")
		}
		return nil
	}, buf)

	if done {
		t.Fatal("expected done=false after a failing block")
	}
	if n != int64(failAt)*blockSize {
		t.Fatalf("transferred = %d, want %d", n, int64(failAt)*blockSize)
	}
	if attempts != int(failAt)+1 {
		t.Fatalf("attempts = %d, want %d", attempts, failAt+1)
	}
}

func TestForEachBlockNilBufferForErase(t *testing.T) {
	s := &Surface{}

	const blockSize = 512
	var sawNilBuf bool

	n, done := s.forEachBlock(0, 2*blockSize, blockSize, func(block uint32, blockBuf []byte) error {
		if blockBuf == nil {
			sawNilBuf = true
		}
		return nil
	}, nil)

	if !done || n != 2*blockSize {
		t.Fatalf("forEachBlock with nil buf = (%d, %v), want (%d, true)", n, done, 2*blockSize)
	}
	if !sawNilBuf {
		t.Fatal("expected op to observe a nil per-block buffer when buf is nil (erase path)")
	}
}
