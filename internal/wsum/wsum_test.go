// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wsum_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/go-lpc/dso/internal/wsum"
)

func TestWordSum(t *testing.T) {
	for _, tc := range []struct {
		raw  []byte
		want uint32
	}{
		{
			raw:  nil,
			want: 0,
		},
		{
			raw:  []byte{0x1, 0x2, 0x3, 0x4, 0x5},
			want: 0x0201 + 0x0403 + 0x05,
		},
		{
			raw:  bytes.Repeat([]byte{0xff}, 512),
			want: 256 * 0xffff,
		},
	} {
		t.Run(fmt.Sprintf("0x%x", tc.want), func(t *testing.T) {
			h := wsum.New()
			if got, want := h.BlockSize(), 2; got != want {
				t.Fatalf("invalid block size: got=%d, want=%d", got, want)
			}

			_, err := h.Write(tc.raw)
			if err != nil {
				t.Fatalf("could not write hash: %+v", err)
			}
			if got, want := h.Sum32(), tc.want; got != want {
				t.Fatalf("invalid checksum: got=0x%x, want=0x%x", got, want)
			}
			if got, want := wsum.Checksum(tc.raw), tc.want; got != want {
				t.Fatalf("invalid checksum: got=0x%x, want=0x%x", got, want)
			}

			// split writes must not depend on word alignment.
			h.Reset()
			for i := range tc.raw {
				_, _ = h.Write(tc.raw[i : i+1])
			}
			if got, want := h.Sum32(), tc.want; got != want {
				t.Fatalf("invalid split checksum: got=0x%x, want=0x%x", got, want)
			}

			sum := h.Sum([]byte{0xaa})
			if got, want := len(sum), 1+wsum.Size; got != want {
				t.Fatalf("invalid sum length: got=%d, want=%d", got, want)
			}
		})
	}
}
